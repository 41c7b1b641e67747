package tracing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demoforge/demoforge/pkg/interfaces"
	"github.com/demoforge/demoforge/pkg/llm"
	"github.com/demoforge/demoforge/pkg/tracing"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...interfaces.GenerateOption) (string, error) {
	return f.response, f.err
}

func (f *fakeLLM) Name() string {
	return "fake"
}

type recordingTracer struct {
	generations []string
	events      []string
}

func (r *recordingTracer) TraceGeneration(ctx context.Context, model string, prompt string, response string, startTime time.Time, endTime time.Time, metadata map[string]interface{}) (string, error) {
	r.generations = append(r.generations, prompt)
	return "gen-1", nil
}

func (r *recordingTracer) TraceEvent(ctx context.Context, name string, input interface{}, output interface{}, level string, metadata map[string]interface{}, parentID string) (string, error) {
	r.events = append(r.events, name)
	return "evt-1", nil
}

func (r *recordingTracer) Flush() error {
	return nil
}

func TestLLMMiddlewareTracesGenerations(t *testing.T) {
	tracer := &recordingTracer{}
	middleware := tracing.NewLLMMiddleware(&fakeLLM{response: "hello"}, tracer)

	response, err := middleware.Generate(context.Background(), "say hello")
	require.NoError(t, err)

	assert.Equal(t, "hello", response)
	require.Len(t, tracer.generations, 1)
	assert.Equal(t, "say hello", tracer.generations[0])
	assert.Empty(t, tracer.events)
}

func TestLLMMiddlewareTracesErrors(t *testing.T) {
	tracer := &recordingTracer{}
	middleware := tracing.NewLLMMiddleware(&fakeLLM{err: errors.New("rate limited")}, tracer)

	_, err := middleware.Generate(context.Background(), "say hello")
	require.Error(t, err)

	assert.Empty(t, tracer.generations)
	require.Len(t, tracer.events, 1)
	assert.Equal(t, "llm_error", tracer.events[0])
}

type chatFakeLLM struct {
	fakeLLM
	conversations [][]llm.Message
}

func (f *chatFakeLLM) Chat(ctx context.Context, messages []llm.Message, params *llm.GenerateParams) (string, error) {
	f.conversations = append(f.conversations, messages)
	return f.response, f.err
}

func TestLLMMiddlewareChatDelegatesAndTraces(t *testing.T) {
	tracer := &recordingTracer{}
	fake := &chatFakeLLM{fakeLLM: fakeLLM{response: "hi"}}
	middleware := tracing.NewLLMMiddleware(fake, tracer)

	response, err := middleware.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "plan things"},
		{Role: "user", Content: "hello"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "hi", response)
	require.Len(t, fake.conversations, 1)
	assert.Len(t, fake.conversations[0], 2)
	require.Len(t, tracer.generations, 1)
	assert.Equal(t, "hello", tracer.generations[0])
}

func TestLLMMiddlewareChatFallsBackToFlattenedPrompt(t *testing.T) {
	tracer := &recordingTracer{}
	middleware := tracing.NewLLMMiddleware(&fakeLLM{response: "hi"}, tracer)

	response, err := middleware.Chat(context.Background(), []llm.Message{
		{Role: "user", Content: "hello"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", response)
}

func TestLLMMiddlewareName(t *testing.T) {
	middleware := tracing.NewLLMMiddleware(&fakeLLM{}, &recordingTracer{})
	assert.Equal(t, "fake", middleware.Name())
}
