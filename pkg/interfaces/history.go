package interfaces

import "context"

// Message represents a message in a planning conversation
type Message struct {
	// Role is the role of the message sender (e.g., "user", "assistant", "system")
	Role string

	// Content is the content of the message
	Content string

	// Metadata contains additional information about the message
	Metadata map[string]interface{}
}

// ChatHistory stores the messages of a planning session.
type ChatHistory interface {
	// AddMessage appends a message to the session transcript
	AddMessage(ctx context.Context, message Message) error

	// GetMessages retrieves messages from the session transcript
	GetMessages(ctx context.Context, options ...GetMessagesOption) ([]Message, error)

	// Clear discards the session transcript
	Clear(ctx context.Context) error
}

// GetMessagesOptions contains options for retrieving messages
type GetMessagesOptions struct {
	// Limit is the maximum number of messages to retrieve
	Limit int

	// Roles filters messages by role
	Roles []string
}

// GetMessagesOption represents an option for retrieving messages
type GetMessagesOption func(*GetMessagesOptions)

// WithLimit sets the maximum number of messages to retrieve
func WithLimit(limit int) GetMessagesOption {
	return func(o *GetMessagesOptions) {
		o.Limit = limit
	}
}

// WithRoles filters messages by role
func WithRoles(roles ...string) GetMessagesOption {
	return func(o *GetMessagesOptions) {
		o.Roles = roles
	}
}
