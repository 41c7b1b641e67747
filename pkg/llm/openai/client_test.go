package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/demoforge/demoforge/pkg/interfaces"
	"github.com/demoforge/demoforge/pkg/llm"
	"github.com/demoforge/demoforge/pkg/llm/openai"
	"github.com/demoforge/demoforge/pkg/logging"
)

func newTestClient(t *testing.T, content string) (*openai.OpenAIClient, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST request, got %s", r.Method)
		}

		var reqBody map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		response := gopenai.ChatCompletionResponse{
			Choices: []gopenai.ChatCompletionChoice{
				{
					Message: gopenai.ChatCompletionMessage{
						Content: content,
						Role:    "assistant",
					},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			t.Fatalf("Failed to encode response: %v", err)
		}
	}))

	config := gopenai.DefaultConfig("test-key")
	config.BaseURL = server.URL
	openaiClient := gopenai.NewClientWithConfig(config)

	client := openai.NewClient("test-key",
		openai.WithModel("gpt-4o-mini"),
		openai.WithLogger(logging.New()),
	)
	client.Client = openaiClient

	return client, server
}

func TestGenerate(t *testing.T) {
	client, server := newTestClient(t, "test response")
	defer server.Close()

	resp, err := client.Generate(context.Background(), "test prompt")
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}

	if resp != "test response" {
		t.Errorf("Expected response 'test response', got '%s'", resp)
	}
}

func newCapturingClient(t *testing.T, captured *map[string]interface{}) (*openai.OpenAIClient, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		response := gopenai.ChatCompletionResponse{
			Choices: []gopenai.ChatCompletionChoice{
				{Message: gopenai.ChatCompletionMessage{Content: "{}", Role: "assistant"}},
			},
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			t.Fatalf("Failed to encode response: %v", err)
		}
	}))

	config := gopenai.DefaultConfig("test-key")
	config.BaseURL = server.URL
	openaiClient := gopenai.NewClientWithConfig(config)

	client := openai.NewClient("test-key", openai.WithModel("gpt-4o-mini"))
	client.Client = openaiClient

	return client, server
}

func TestGenerateSchemalessFormatUsesJSONObjectMode(t *testing.T) {
	var captured map[string]interface{}
	client, server := newCapturingClient(t, &captured)
	defer server.Close()

	_, err := client.Generate(context.Background(), "return JSON",
		interfaces.WithResponseFormat(interfaces.JSONFormat("plan")))
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}

	format, ok := captured["response_format"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected response_format in request, got %v", captured["response_format"])
	}
	if format["type"] != "json_object" {
		t.Errorf("Expected type json_object for schemaless format, got %v", format["type"])
	}
	if _, present := format["json_schema"]; present {
		t.Errorf("Expected no json_schema field, got %v", format["json_schema"])
	}
}

func TestGenerateSchemaFormatUsesJSONSchemaMode(t *testing.T) {
	var captured map[string]interface{}
	client, server := newCapturingClient(t, &captured)
	defer server.Close()

	_, err := client.Generate(context.Background(), "return JSON",
		interfaces.WithResponseFormat(interfaces.ResponseFormat{
			Type: interfaces.ResponseFormatJSON,
			Name: "plan",
			Schema: interfaces.JSONSchema{
				"type":       "object",
				"properties": map[string]interface{}{"spans": map[string]interface{}{"type": "array"}},
			},
		}))
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}

	format, ok := captured["response_format"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected response_format in request, got %v", captured["response_format"])
	}
	if format["type"] != "json_schema" {
		t.Errorf("Expected type json_schema, got %v", format["type"])
	}
	schema, ok := format["json_schema"].(map[string]interface{})
	if !ok || schema["schema"] == nil {
		t.Errorf("Expected a non-null schema in the request, got %v", format["json_schema"])
	}
}

func TestChat(t *testing.T) {
	client, server := newTestClient(t, "chat response")
	defer server.Close()

	messages := []llm.Message{
		{Role: "system", Content: "You are a scaffolding assistant."},
		{Role: "user", Content: "test message"},
	}

	resp, err := client.Chat(context.Background(), messages, nil)
	if err != nil {
		t.Fatalf("Failed to chat: %v", err)
	}

	if resp != "chat response" {
		t.Errorf("Expected response 'chat response', got '%s'", resp)
	}
}
