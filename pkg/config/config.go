// Package config loads tool configuration from a YAML file, with secrets
// taken from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the tool configuration loaded from YAML
type Config struct {
	// LLM configures the model used for planning and code generation
	LLM LLMConfig `yaml:"llm"`

	// LogLevel sets the logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// PlansDir is the directory where plans are persisted
	PlansDir string `yaml:"plans_dir"`

	// Sandbox configures the preview sandbox service
	Sandbox SandboxConfig `yaml:"sandbox"`

	// GitHub configures project publishing
	GitHub GitHubConfig `yaml:"github"`

	// Redis configures session transcript storage; empty Addr keeps
	// transcripts in memory
	Redis RedisConfig `yaml:"redis"`

	// Tracing configures observability backends
	Tracing TracingConfig `yaml:"tracing"`
}

// LLMConfig selects the provider and model
type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// SandboxConfig configures the preview sandbox service
type SandboxConfig struct {
	BaseURL string `yaml:"base_url"`
}

// GitHubConfig configures project publishing
type GitHubConfig struct {
	Owner string `yaml:"owner"`
}

// RedisConfig configures session transcript storage
type RedisConfig struct {
	Addr string `yaml:"addr"`
	TTL  string `yaml:"ttl"`
}

// TracingConfig configures observability backends
type TracingConfig struct {
	Langfuse LangfuseConfig `yaml:"langfuse"`
	OTel     OTelConfig     `yaml:"otel"`
}

// LangfuseConfig configures Langfuse tracing
type LangfuseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Environment string `yaml:"environment"`
}

// OTelConfig configures OpenTelemetry tracing
type OTelConfig struct {
	Enabled           bool   `yaml:"enabled"`
	ServiceName       string `yaml:"service_name"`
	CollectorEndpoint string `yaml:"collector_endpoint"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "openai",
		},
		LogLevel: "info",
		PlansDir: "plans",
		Tracing: TracingConfig{
			OTel: OTelConfig{
				ServiceName: "demoforge",
			},
		},
	}
}

// Load reads configuration from a YAML file. Missing fields keep their
// defaults.
func Load(filePath string) (*Config, error) {
	if !isValidFilePath(filePath) {
		return nil, fmt.Errorf("invalid config file path")
	}

	data, err := os.ReadFile(filePath) // #nosec G304 - Path is validated with isValidFilePath() before use
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// OpenAIAPIKey returns the OpenAI API key from the environment
func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// AnthropicAPIKey returns the Anthropic API key from the environment
func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

// GitHubToken returns the GitHub token from the environment
func GitHubToken() string {
	return os.Getenv("GITHUB_TOKEN")
}

// SandboxAPIKey returns the sandbox service API key from the environment
func SandboxAPIKey() string {
	return os.Getenv("SANDBOX_API_KEY")
}

// isValidFilePath checks if a file path is valid and safe
func isValidFilePath(filePath string) bool {
	if filePath == "" {
		return false
	}

	cleanPath := filepath.Clean(filePath)
	if strings.Contains(cleanPath, "..") {
		return false
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return false
	}

	if strings.HasPrefix(absPath, "/proc") ||
		strings.HasPrefix(absPath, "/sys") ||
		strings.HasPrefix(absPath, "/dev") {
		return false
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return false
	}

	return fileInfo.Mode().IsRegular()
}
