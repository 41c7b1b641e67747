package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/demoforge/demoforge/pkg/interfaces"
	"github.com/demoforge/demoforge/pkg/llm"
	"github.com/demoforge/demoforge/pkg/logging"
)

// conversationalLLM is the optional transcript-based surface of a wrapped
// client. Middlewares forward it so wrapping does not strip the capability.
type conversationalLLM interface {
	Chat(ctx context.Context, messages []llm.Message, params *llm.GenerateParams) (string, error)
}

// chatThrough delegates a conversation to the wrapped client, flattening it
// for clients that only accept a single prompt.
func chatThrough(ctx context.Context, wrapped interfaces.LLM, messages []llm.Message, params *llm.GenerateParams) (string, error) {
	if cc, ok := wrapped.(conversationalLLM); ok {
		return cc.Chat(ctx, messages, params)
	}
	return wrapped.Generate(ctx, llm.Flatten(messages))
}

// LLMMiddleware wraps an LLM so every generation is recorded by a tracer.
// Tracing failures are logged and never fail the underlying request.
type LLMMiddleware struct {
	llm    interfaces.LLM
	tracer interfaces.Tracer
	logger logging.Logger
}

// MiddlewareOption represents an option for configuring the middleware
type MiddlewareOption func(*LLMMiddleware)

// WithLogger sets the logger for the middleware
func WithLogger(logger logging.Logger) MiddlewareOption {
	return func(m *LLMMiddleware) {
		m.logger = logger
	}
}

// NewLLMMiddleware creates a new LLM middleware with tracing
func NewLLMMiddleware(llm interfaces.LLM, tracer interfaces.Tracer, options ...MiddlewareOption) *LLMMiddleware {
	m := &LLMMiddleware{
		llm:    llm,
		tracer: tracer,
		logger: logging.New(),
	}

	for _, option := range options {
		option(m)
	}

	return m
}

// Generate generates text from a prompt and traces the call
func (m *LLMMiddleware) Generate(ctx context.Context, prompt string, options ...interfaces.GenerateOption) (string, error) {
	startTime := time.Now()

	response, err := m.llm.Generate(ctx, prompt, options...)

	endTime := time.Now()

	if err != nil {
		errorMetadata := map[string]interface{}{
			"error": err.Error(),
		}
		if _, traceErr := m.tracer.TraceEvent(ctx, "llm_error", prompt, nil, "error", errorMetadata, ""); traceErr != nil {
			m.logger.Warn(ctx, "Failed to trace generation error", map[string]interface{}{
				"error": traceErr.Error(),
			})
		}
		return response, err
	}

	metadata := map[string]interface{}{
		"duration_ms": endTime.Sub(startTime).Milliseconds(),
	}
	if _, traceErr := m.tracer.TraceGeneration(ctx, m.llm.Name(), prompt, response, startTime, endTime, metadata); traceErr != nil {
		m.logger.Warn(ctx, "Failed to trace generation", map[string]interface{}{
			"error": traceErr.Error(),
		})
	}

	return response, nil
}

// Chat sends a conversation through the wrapped client and traces it. The
// last user message stands in as the prompt in the trace.
func (m *LLMMiddleware) Chat(ctx context.Context, messages []llm.Message, params *llm.GenerateParams) (string, error) {
	startTime := time.Now()

	response, err := chatThrough(ctx, m.llm, messages, params)

	endTime := time.Now()

	prompt := lastUserMessage(messages)
	if err != nil {
		errorMetadata := map[string]interface{}{
			"error": err.Error(),
		}
		if _, traceErr := m.tracer.TraceEvent(ctx, "llm_error", prompt, nil, "error", errorMetadata, ""); traceErr != nil {
			m.logger.Warn(ctx, "Failed to trace chat error", map[string]interface{}{
				"error": traceErr.Error(),
			})
		}
		return response, err
	}

	metadata := map[string]interface{}{
		"duration_ms": endTime.Sub(startTime).Milliseconds(),
		"messages":    len(messages),
	}
	if _, traceErr := m.tracer.TraceGeneration(ctx, m.llm.Name(), prompt, response, startTime, endTime, metadata); traceErr != nil {
		m.logger.Warn(ctx, "Failed to trace chat", map[string]interface{}{
			"error": traceErr.Error(),
		})
	}

	return response, nil
}

func lastUserMessage(messages []llm.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

// Name implements interfaces.LLM.Name
func (m *LLMMiddleware) Name() string {
	return m.llm.Name()
}

// LLMOTelMiddleware wraps an LLM with OpenTelemetry tracing
type LLMOTelMiddleware struct {
	llm    interfaces.LLM
	tracer *OTelTracer
}

// NewLLMOTelMiddleware creates a new LLMOTelMiddleware
func NewLLMOTelMiddleware(llm interfaces.LLM, tracer *OTelTracer) *LLMOTelMiddleware {
	return &LLMOTelMiddleware{
		llm:    llm,
		tracer: tracer,
	}
}

// Generate implements interfaces.LLM.Generate
func (m *LLMOTelMiddleware) Generate(ctx context.Context, prompt string, options ...interfaces.GenerateOption) (string, error) {
	attributes := map[string]string{
		"prompt.length": fmt.Sprintf("%d", len(prompt)),
		"model":         m.llm.Name(),
	}

	ctx, span := m.tracer.StartSpan(ctx, "llm.generate", attributes)
	defer func() {
		m.tracer.EndSpan(span, nil)
	}()

	response, err := m.llm.Generate(ctx, prompt, options...)

	if err == nil {
		span.SetAttributes(attribute.Int("response.length", len(response)))
	} else {
		span.RecordError(err)
	}

	return response, err
}

// Chat sends a conversation through the wrapped client inside a span
func (m *LLMOTelMiddleware) Chat(ctx context.Context, messages []llm.Message, params *llm.GenerateParams) (string, error) {
	attributes := map[string]string{
		"messages.count": fmt.Sprintf("%d", len(messages)),
		"model":          m.llm.Name(),
	}

	ctx, span := m.tracer.StartSpan(ctx, "llm.chat", attributes)
	defer func() {
		m.tracer.EndSpan(span, nil)
	}()

	response, err := chatThrough(ctx, m.llm, messages, params)

	if err == nil {
		span.SetAttributes(attribute.Int("response.length", len(response)))
	} else {
		span.RecordError(err)
	}

	return response, err
}

// Name implements interfaces.LLM.Name
func (m *LLMOTelMiddleware) Name() string {
	return m.llm.Name()
}
