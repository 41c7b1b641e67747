// Package generate produces the source of scaffolded demo applications:
// deterministic template scaffolds plus LLM-generated screens, services and
// refinements. Every model reply that should carry JSON goes through
// pkg/recovery before deserialization.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/demoforge/demoforge/pkg/interfaces"
	"github.com/demoforge/demoforge/pkg/logging"
	"github.com/demoforge/demoforge/pkg/plan"
	"github.com/demoforge/demoforge/pkg/recovery"
)

// Shape errors for parsed-but-unusable model replies. The JSON itself was
// fine; the content did not match what the operation needs.
var (
	ErrInvalidScreenList  = errors.New("screen list response missing required fields")
	ErrInvalidServiceBody = errors.New("service response missing code field")
	ErrInvalidSuggestions = errors.New("suggestions response is not a list of strings")
)

// Screen describes one generated application screen
type Screen struct {
	Name    string `json:"name"`
	Purpose string `json:"purpose"`
}

// Generator produces application code and structure via the LLM
type Generator struct {
	llm    interfaces.LLM
	logger logging.Logger
}

// Option represents an option for configuring the generator
type Option func(*Generator)

// WithLogger sets the logger for the generator
func WithLogger(logger logging.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// NewGenerator creates a generator backed by the given LLM
func NewGenerator(llm interfaces.LLM, options ...Option) *Generator {
	g := &Generator{
		llm:    llm,
		logger: logging.New(),
	}

	for _, option := range options {
		option(g)
	}

	return g
}

// GenerateScreens asks the model for the screens a demo app needs
func (g *Generator) GenerateScreens(ctx context.Context, description string, platform plan.Platform) ([]Screen, error) {
	prompt := fmt.Sprintf(`List the screens a %s demo application needs.

Application description:
%s

Respond with a JSON array only: [{"name": "...", "purpose": "..."}]`, platform, description)

	reply, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("screen generation failed: %w", err)
	}

	jsonText, err := recovery.ExtractJSON(reply)
	if err != nil {
		g.logRecoveryFailure(ctx, "screens", reply, err)
		return nil, err
	}

	var screens []Screen
	if err := json.Unmarshal([]byte(jsonText), &screens); err != nil {
		return nil, fmt.Errorf("failed to parse screen list: %w", err)
	}

	if len(screens) == 0 {
		return nil, fmt.Errorf("%w: empty list", ErrInvalidScreenList)
	}
	for _, screen := range screens {
		if screen.Name == "" {
			return nil, fmt.Errorf("%w: screen without a name", ErrInvalidScreenList)
		}
	}

	return screens, nil
}

type codeResponse struct {
	Code string `json:"code"`
}

// GenerateService asks the model for an API service source body wired with
// the plan's backend spans
func (g *Generator) GenerateService(ctx context.Context, p *plan.Plan) (string, error) {
	prompt := fmt.Sprintf(`Write the API service module for the %s demo application %q.
Instrument these spans:
%s
Respond with a JSON object only: {"code": "<full source of the service module>"}`,
		p.Platform, p.AppName, describeSpans(p, "backend"))

	return g.generateCode(ctx, "service", prompt)
}

// RefineCode asks the model to apply an instruction to existing source
func (g *Generator) RefineCode(ctx context.Context, source string, instruction string) (string, error) {
	prompt := fmt.Sprintf(`Apply this change to the source below.

Change:
%s

Source:
%s

Respond with a JSON object only: {"code": "<the complete updated source>"}`, instruction, source)

	return g.generateCode(ctx, "refinement", prompt)
}

func (g *Generator) generateCode(ctx context.Context, kind string, prompt string) (string, error) {
	reply, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%s generation failed: %w", kind, err)
	}

	jsonText, err := recovery.ExtractJSON(reply)
	if err != nil {
		g.logRecoveryFailure(ctx, kind, reply, err)
		return "", err
	}

	var parsed codeResponse
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return "", fmt.Errorf("failed to parse %s response: %w", kind, err)
	}
	if parsed.Code == "" {
		return "", ErrInvalidServiceBody
	}

	return parsed.Code, nil
}

// SuggestImprovements asks the model for instrumentation improvement ideas
func (g *Generator) SuggestImprovements(ctx context.Context, p *plan.Plan) ([]string, error) {
	prompt := fmt.Sprintf(`Review this instrumentation plan and suggest improvements:
%s
Respond with a JSON array of suggestion strings only.`, describeSpans(p, ""))

	reply, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("suggestion generation failed: %w", err)
	}

	jsonText, err := recovery.ExtractJSON(reply)
	if err != nil {
		g.logRecoveryFailure(ctx, "suggestions", reply, err)
		return nil, err
	}

	var suggestions []string
	if err := json.Unmarshal([]byte(jsonText), &suggestions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuggestions, err)
	}

	return suggestions, nil
}

func (g *Generator) logRecoveryFailure(ctx context.Context, kind string, raw string, err error) {
	truncated := raw
	if len(truncated) > 500 {
		truncated = truncated[:500] + "..."
	}
	g.logger.Warn(ctx, "Model reply did not contain usable JSON", map[string]interface{}{
		"kind":  kind,
		"error": err.Error(),
		"raw":   truncated,
	})
}

func describeSpans(p *plan.Plan, layer string) string {
	out := ""
	for _, span := range p.Spans {
		if layer != "" && string(span.Layer) != layer {
			continue
		}
		out += fmt.Sprintf("- %s (%s): %s\n", span.Name, span.Layer, span.Description)
	}
	if out == "" {
		out = "- (no spans defined yet)\n"
	}
	return out
}
