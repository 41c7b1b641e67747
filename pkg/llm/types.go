package llm

import "strings"

// Message represents a message in a chat conversation
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// Flatten renders a conversation as a single prompt for callers that only
// accept one, with a trailing cue for the next assistant turn.
func Flatten(messages []Message) string {
	var b strings.Builder
	for _, msg := range messages {
		if msg.Role == "" {
			continue
		}
		b.WriteString(strings.ToUpper(msg.Role[:1]) + msg.Role[1:])
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n\n")
	}
	b.WriteString("Assistant:")
	return b.String()
}

// GenerateParams contains parameters for text generation
type GenerateParams struct {
	Temperature      float64  // Controls randomness (0.0 to 1.0)
	TopP             float64  // Alternative to temperature for nucleus sampling
	FrequencyPenalty float64  // Penalize frequent tokens (-2.0 to 2.0)
	PresencePenalty  float64  // Penalize tokens already present (-2.0 to 2.0)
	StopSequences    []string // Stop generation at these sequences
	MaxTokens        int      // Maximum tokens to generate, 0 for provider default
}

// DefaultGenerateParams returns default generation parameters
func DefaultGenerateParams() *GenerateParams {
	return &GenerateParams{
		Temperature:      0.7,
		TopP:             1.0,
		FrequencyPenalty: 0.0,
		PresencePenalty:  0.0,
	}
}
