// Package tracing records LLM generations and tool spans in Langfuse and
// OpenTelemetry so that demo sessions can be inspected after the fact.
package tracing

import (
	"context"
	"fmt"
	"time"

	"github.com/henomis/langfuse-go"
	"github.com/henomis/langfuse-go/model"

	"github.com/demoforge/demoforge/pkg/history"
)

// LangfuseTracer implements tracing using Langfuse
type LangfuseTracer struct {
	client      *langfuse.Langfuse
	enabled     bool
	environment string
}

// LangfuseConfig contains configuration for Langfuse
type LangfuseConfig struct {
	// Enabled determines whether Langfuse tracing is enabled
	Enabled bool

	// Environment is the environment name (e.g., "production", "staging")
	Environment string
}

// NewLangfuseTracer creates a new Langfuse tracer. Credentials are read by
// the Langfuse client from LANGFUSE_PUBLIC_KEY, LANGFUSE_SECRET_KEY and
// LANGFUSE_HOST.
func NewLangfuseTracer(config LangfuseConfig) *LangfuseTracer {
	if !config.Enabled {
		return &LangfuseTracer{
			enabled: false,
		}
	}

	client := langfuse.New(context.Background())

	return &LangfuseTracer{
		client:      client,
		enabled:     true,
		environment: config.Environment,
	}
}

// TraceGeneration traces an LLM generation
func (t *LangfuseTracer) TraceGeneration(ctx context.Context, modelName string, prompt string, response string, startTime time.Time, endTime time.Time, metadata map[string]interface{}) (string, error) {
	if !t.enabled {
		return "", nil
	}

	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	if sessionID, ok := history.GetSessionID(ctx); ok {
		metadata["session_id"] = sessionID
	}
	metadata["environment"] = t.environment

	metadataM := make(model.M)
	for k, v := range metadata {
		metadataM[k] = v
	}

	generation := &model.Generation{
		Name:      fmt.Sprintf("generation-%d", time.Now().UnixNano()),
		StartTime: &startTime,
		EndTime:   &endTime,
		Model:     modelName,
		Input: []model.M{
			{
				"prompt": prompt,
			},
		},
		Output: model.M{
			"completion": response,
		},
		Metadata: metadataM,
	}

	var id string
	generationID, err := t.client.Generation(generation, &id)
	if err != nil {
		return "", fmt.Errorf("failed to create Langfuse generation: %w", err)
	}

	return generationID.ID, nil
}

// TraceSpan traces a span of execution
func (t *LangfuseTracer) TraceSpan(ctx context.Context, name string, startTime time.Time, endTime time.Time, metadata map[string]interface{}, parentID string) (string, error) {
	if !t.enabled {
		return "", nil
	}

	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	if sessionID, ok := history.GetSessionID(ctx); ok {
		metadata["session_id"] = sessionID
	}
	metadata["environment"] = t.environment

	span := &model.Span{
		Name:      name,
		StartTime: &startTime,
		EndTime:   &endTime,
		Metadata:  metadata,
	}
	if parentID != "" {
		span.ParentObservationID = parentID
	}

	var id string
	spanID, err := t.client.Span(span, &id)
	if err != nil {
		return "", fmt.Errorf("failed to create Langfuse span: %w", err)
	}

	return spanID.ID, nil
}

// TraceEvent traces an event
func (t *LangfuseTracer) TraceEvent(ctx context.Context, name string, input interface{}, output interface{}, level string, metadata map[string]interface{}, parentID string) (string, error) {
	if !t.enabled {
		return "", nil
	}

	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	if sessionID, ok := history.GetSessionID(ctx); ok {
		metadata["session_id"] = sessionID
	}
	metadata["environment"] = t.environment

	event := &model.Event{
		Name:     name,
		Input:    input,
		Output:   output,
		Level:    model.ObservationLevel(level),
		Metadata: metadata,
	}
	if parentID != "" {
		event.ParentObservationID = parentID
	}

	var id string
	eventID, err := t.client.Event(event, &id)
	if err != nil {
		return "", fmt.Errorf("failed to create Langfuse event: %w", err)
	}

	return eventID.ID, nil
}

// Flush flushes the Langfuse client
func (t *LangfuseTracer) Flush() error {
	if !t.enabled {
		return nil
	}

	t.client.Flush(context.Background())
	return nil
}
