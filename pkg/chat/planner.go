// Package chat drives the planning conversation for a demo application.
// Every assistant reply is scanned for span candidates, and plan-generation
// replies are run through JSON recovery before deserialization.
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/demoforge/demoforge/pkg/history"
	"github.com/demoforge/demoforge/pkg/interfaces"
	"github.com/demoforge/demoforge/pkg/llm"
	"github.com/demoforge/demoforge/pkg/logging"
	"github.com/demoforge/demoforge/pkg/plan"
	"github.com/demoforge/demoforge/pkg/recovery"
	"github.com/demoforge/demoforge/pkg/spans"
)

// logTruncateLen bounds raw model output in log lines
const logTruncateLen = 500

const defaultSystemPrompt = `You are an observability planning assistant. You help design demo
applications and the spans they should emit. When you suggest instrumentation, name each span as a
backtick-wrapped dotted identifier (e.g. ` + "`checkout.validate_cart`" + `) followed by a short
description and an "Attributes:" list of backtick-wrapped attribute names.`

// conversationalLLM is implemented by clients that accept the transcript as
// a message array. Clients without it get the transcript flattened into one
// prompt.
type conversationalLLM interface {
	Chat(ctx context.Context, messages []llm.Message, params *llm.GenerateParams) (string, error)
}

// Planner runs a chat-based planning session and accumulates an
// instrumentation plan from the conversation.
type Planner struct {
	llm          interfaces.LLM
	transcript   interfaces.ChatHistory
	logger       logging.Logger
	systemPrompt string
}

// Option represents an option for configuring the planner
type Option func(*Planner)

// WithLogger sets the logger for the planner
func WithLogger(logger logging.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// WithSystemPrompt overrides the planning system prompt
func WithSystemPrompt(prompt string) Option {
	return func(p *Planner) {
		p.systemPrompt = prompt
	}
}

// WithTranscript sets the transcript store for the planner
func WithTranscript(transcript interfaces.ChatHistory) Option {
	return func(p *Planner) {
		p.transcript = transcript
	}
}

// NewPlanner creates a planner backed by the given LLM
func NewPlanner(llm interfaces.LLM, options ...Option) *Planner {
	p := &Planner{
		llm:          llm,
		transcript:   history.NewBuffer(),
		logger:       logging.New(),
		systemPrompt: defaultSystemPrompt,
	}

	for _, option := range options {
		option(p)
	}

	return p
}

// NewSessionContext returns a context bound to a fresh session ID
func NewSessionContext(ctx context.Context) context.Context {
	return history.WithSessionID(ctx, uuid.New().String())
}

// Send sends a user message, records the exchange in the transcript, and
// merges any spans mentioned in the assistant reply into the plan.
func (p *Planner) Send(ctx context.Context, sessionPlan *plan.Plan, userMessage string) (string, error) {
	if err := p.transcript.AddMessage(ctx, interfaces.Message{Role: "user", Content: userMessage}); err != nil {
		return "", err
	}

	reply, err := p.complete(ctx)
	if err != nil {
		return "", fmt.Errorf("planning reply failed: %w", err)
	}

	if err := p.transcript.AddMessage(ctx, interfaces.Message{Role: "assistant", Content: reply}); err != nil {
		return "", err
	}

	candidates := spans.Extract(reply)
	if added := sessionPlan.Merge(candidates); added > 0 {
		p.logger.Info(ctx, "Merged spans from assistant reply", map[string]interface{}{
			"extracted": len(candidates),
			"added":     added,
			"plan_id":   sessionPlan.ID,
		})
	}

	return reply, nil
}

// GeneratePlan asks the model for a complete instrumentation plan as JSON
// and parses it. Spans mentioned in the reply prose are merged in as well,
// so a partially structured answer still contributes.
func (p *Planner) GeneratePlan(ctx context.Context, appName string, platform plan.Platform, description string) (*plan.Plan, error) {
	prompt := fmt.Sprintf(`Design an instrumentation plan for a %s demo application named %q.

Application description:
%s

Respond with a single JSON object, no prose, with this shape:
{
  "appName": "...",
  "platform": "%s",
  "spans": [
    {"name": "operation.action", "layer": "frontend|backend", "description": "...",
     "attributes": {"attr_name": "description"}, "piiKeys": ["attr_name"]}
  ]
}`, platform, appName, description, platform)

	reply, err := p.llm.Generate(ctx, prompt,
		interfaces.WithSystemMessage(p.systemPrompt),
		interfaces.WithResponseFormat(interfaces.JSONFormat("instrumentation_plan")),
	)
	if err != nil {
		return nil, fmt.Errorf("plan generation failed: %w", err)
	}

	parsed, err := plan.ParsePlanFromResponse(reply)
	if err != nil {
		p.logger.Warn(ctx, "Could not parse plan from model reply", map[string]interface{}{
			"error": err.Error(),
			"raw":   truncate(reply, logTruncateLen),
		})
		return nil, describePlanFailure(err)
	}

	parsed.AppName = appName
	parsed.Platform = platform
	parsed.Merge(spans.Extract(reply))

	return parsed, nil
}

// describePlanFailure turns recovery errors into actionable messages. A
// truncated structure usually means the model hit its token limit, which
// callers surface differently from a reply with no JSON at all.
func describePlanFailure(err error) error {
	switch {
	case errors.Is(err, recovery.ErrNoJSON):
		return fmt.Errorf("the model returned no JSON plan; retry or rephrase the request: %w", err)
	case errors.Is(err, recovery.ErrIncompleteJSON):
		return fmt.Errorf("the model response was truncated before the plan completed; retry with a shorter description or a larger token limit: %w", err)
	default:
		return err
	}
}

// complete sends the transcript to the model. Conversational clients get it
// as a message array with the system prompt first; others get one flattened
// prompt.
func (p *Planner) complete(ctx context.Context) (string, error) {
	messages, err := p.transcript.GetMessages(ctx)
	if err != nil {
		return "", err
	}

	conversation := make([]llm.Message, 0, len(messages)+1)
	conversation = append(conversation, llm.Message{Role: "system", Content: p.systemPrompt})
	for _, msg := range messages {
		conversation = append(conversation, llm.Message{Role: msg.Role, Content: msg.Content})
	}

	if cc, ok := p.llm.(conversationalLLM); ok {
		return cc.Chat(ctx, conversation, nil)
	}

	return p.llm.Generate(ctx, llm.Flatten(conversation[1:]), interfaces.WithSystemMessage(p.systemPrompt))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
