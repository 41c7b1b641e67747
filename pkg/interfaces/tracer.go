package interfaces

import (
	"context"
	"time"
)

// Tracer records LLM generations and tool spans in an observability backend.
type Tracer interface {
	// TraceGeneration records a single model generation
	TraceGeneration(ctx context.Context, model string, prompt string, response string, startTime time.Time, endTime time.Time, metadata map[string]interface{}) (string, error)

	// TraceEvent records a discrete event, e.g. a failed generation
	TraceEvent(ctx context.Context, name string, input interface{}, output interface{}, level string, metadata map[string]interface{}, parentID string) (string, error)

	// Flush sends any buffered observations
	Flush() error
}
