package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demoforge/demoforge/pkg/interfaces"
)

func TestBufferAddAndGet(t *testing.T) {
	buffer := NewBuffer()
	ctx := WithSessionID(context.Background(), "session-1")

	require.NoError(t, buffer.AddMessage(ctx, interfaces.Message{Role: "user", Content: "hello"}))
	require.NoError(t, buffer.AddMessage(ctx, interfaces.Message{Role: "assistant", Content: "hi there"}))

	messages, err := buffer.GetMessages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "hi there", messages[1].Content)
}

func TestBufferRoleFilterAndLimit(t *testing.T) {
	buffer := NewBuffer()
	ctx := WithSessionID(context.Background(), "session-1")

	for i := 0; i < 3; i++ {
		require.NoError(t, buffer.AddMessage(ctx, interfaces.Message{Role: "user", Content: "u"}))
		require.NoError(t, buffer.AddMessage(ctx, interfaces.Message{Role: "assistant", Content: "a"}))
	}

	assistants, err := buffer.GetMessages(ctx, interfaces.WithRoles("assistant"))
	require.NoError(t, err)
	assert.Len(t, assistants, 3)

	limited, err := buffer.GetMessages(ctx, interfaces.WithLimit(2))
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestBufferTrimsToMaxSize(t *testing.T) {
	buffer := NewBuffer(WithMaxSize(2))
	ctx := WithSessionID(context.Background(), "session-1")

	for _, content := range []string{"one", "two", "three"} {
		require.NoError(t, buffer.AddMessage(ctx, interfaces.Message{Role: "user", Content: content}))
	}

	messages, err := buffer.GetMessages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "two", messages[0].Content)
	assert.Equal(t, "three", messages[1].Content)
}

func TestBufferSessionsAreIsolated(t *testing.T) {
	buffer := NewBuffer()
	ctxA := WithSessionID(context.Background(), "session-a")
	ctxB := WithSessionID(context.Background(), "session-b")

	require.NoError(t, buffer.AddMessage(ctxA, interfaces.Message{Role: "user", Content: "a"}))

	messages, err := buffer.GetMessages(ctxB)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestBufferRequiresSessionID(t *testing.T) {
	buffer := NewBuffer()

	err := buffer.AddMessage(context.Background(), interfaces.Message{Role: "user", Content: "x"})
	assert.Error(t, err)
}

func TestBufferClear(t *testing.T) {
	buffer := NewBuffer()
	ctx := WithSessionID(context.Background(), "session-1")

	require.NoError(t, buffer.AddMessage(ctx, interfaces.Message{Role: "user", Content: "x"}))
	require.NoError(t, buffer.Clear(ctx))

	messages, err := buffer.GetMessages(ctx)
	require.NoError(t, err)
	assert.Empty(t, messages)
}
