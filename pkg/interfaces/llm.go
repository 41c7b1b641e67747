package interfaces

import "context"

// LLM represents a chat-completion provider. The planning and generation
// workflows treat it as a black box that turns a prompt into text.
type LLM interface {
	// Generate generates text based on the provided prompt
	Generate(ctx context.Context, prompt string, options ...GenerateOption) (string, error)

	// Name returns the name of the LLM provider
	Name() string
}

// GenerateOption represents options for text generation
type GenerateOption func(options *GenerateOptions)

// GenerateOptions contains configuration for text generation
type GenerateOptions struct {
	LLMConfig      *LLMConfig      // LLM config for the generation
	SystemMessage  string          // System message for chat models
	ResponseFormat *ResponseFormat // Optional expected response format
}

// LLMConfig holds sampling parameters for a generation request.
type LLMConfig struct {
	Temperature      float64  // Temperature for the generation
	TopP             float64  // Top P for the generation
	FrequencyPenalty float64  // Frequency penalty for the generation
	PresencePenalty  float64  // Presence penalty for the generation
	StopSequences    []string // Stop sequences for the generation
	MaxTokens        int      // Maximum tokens to generate, 0 for provider default
}

// WithSystemMessage creates a GenerateOption to set the system message
func WithSystemMessage(systemMessage string) GenerateOption {
	return func(options *GenerateOptions) {
		options.SystemMessage = systemMessage
	}
}

// WithResponseFormat creates a GenerateOption to set the response format
func WithResponseFormat(format ResponseFormat) GenerateOption {
	return func(options *GenerateOptions) {
		options.ResponseFormat = &format
	}
}

// WithLLMConfig creates a GenerateOption to set the full LLM config
func WithLLMConfig(config LLMConfig) GenerateOption {
	return func(options *GenerateOptions) {
		options.LLMConfig = &config
	}
}
