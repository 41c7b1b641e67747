// Package history stores planning-session transcripts. Sessions are keyed
// by the session ID carried in the context.
package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/demoforge/demoforge/pkg/interfaces"
)

// Buffer implements a simple in-memory session transcript
type Buffer struct {
	messages map[string][]interfaces.Message
	maxSize  int
	mu       sync.RWMutex
}

// Option represents an option for configuring the buffer
type Option func(*Buffer)

// WithMaxSize sets the maximum number of messages to keep per session
func WithMaxSize(size int) Option {
	return func(b *Buffer) {
		b.maxSize = size
	}
}

// NewBuffer creates a new in-memory transcript buffer
func NewBuffer(options ...Option) *Buffer {
	buffer := &Buffer{
		messages: make(map[string][]interfaces.Message),
		maxSize:  100, // Default max size
	}

	for _, option := range options {
		option(buffer)
	}

	return buffer
}

// AddMessage adds a message to the session transcript
func (b *Buffer) AddMessage(ctx context.Context, message interfaces.Message) error {
	sessionID, ok := GetSessionID(ctx)
	if !ok {
		return fmt.Errorf("session ID not found in context")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.messages[sessionID] = append(b.messages[sessionID], message)

	if b.maxSize > 0 && len(b.messages[sessionID]) > b.maxSize {
		b.messages[sessionID] = b.messages[sessionID][len(b.messages[sessionID])-b.maxSize:]
	}

	return nil
}

// GetMessages retrieves messages from the session transcript
func (b *Buffer) GetMessages(ctx context.Context, options ...interfaces.GetMessagesOption) ([]interfaces.Message, error) {
	sessionID, ok := GetSessionID(ctx)
	if !ok {
		return nil, fmt.Errorf("session ID not found in context")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	messages, ok := b.messages[sessionID]
	if !ok {
		return []interfaces.Message{}, nil
	}

	opts := &interfaces.GetMessagesOptions{}
	for _, option := range options {
		option(opts)
	}

	if len(opts.Roles) > 0 {
		var filtered []interfaces.Message
		for _, msg := range messages {
			for _, role := range opts.Roles {
				if msg.Role == role {
					filtered = append(filtered, msg)
					break
				}
			}
		}
		messages = filtered
	}

	if opts.Limit > 0 && opts.Limit < len(messages) {
		messages = messages[len(messages)-opts.Limit:]
	}

	out := make([]interfaces.Message, len(messages))
	copy(out, messages)
	return out, nil
}

// Clear discards the session transcript
func (b *Buffer) Clear(ctx context.Context) error {
	sessionID, ok := GetSessionID(ctx)
	if !ok {
		return fmt.Errorf("session ID not found in context")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.messages, sessionID)
	return nil
}
