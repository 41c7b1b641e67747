// Package sandbox talks to the hosted preview service that builds and
// serves scaffolded projects.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/demoforge/demoforge/pkg/generate"
)

// Client is a client for the sandbox HTTP API
type Client struct {
	client  *http.Client
	baseURL string
	headers map[string]string
}

// NewClient creates a new sandbox client
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		headers: make(map[string]string),
	}
}

// SetHeader sets a header for all requests
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

type uploadRequest struct {
	AppName string            `json:"appName"`
	Files   map[string]string `json:"files"`
}

type uploadResponse struct {
	ID         string `json:"id"`
	PreviewURL string `json:"previewUrl"`
	Error      string `json:"error,omitempty"`
}

// Preview is the result of uploading a project to the sandbox
type Preview struct {
	ID         string
	PreviewURL string
}

// UploadProject uploads a scaffolded project and returns its preview handle
func (c *Client) UploadProject(ctx context.Context, appName string, files []generate.File) (*Preview, error) {
	payload := uploadRequest{
		AppName: appName,
		Files:   make(map[string]string, len(files)),
	}
	for _, f := range files {
		payload.Files[f.Path] = f.Content
	}

	body, err := c.do(ctx, http.MethodPost, "/v2/projects", payload)
	if err != nil {
		return nil, err
	}

	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse sandbox response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("sandbox rejected project: %s", parsed.Error)
	}
	if parsed.PreviewURL == "" {
		return nil, fmt.Errorf("sandbox response missing preview URL")
	}

	return &Preview{ID: parsed.ID, PreviewURL: parsed.PreviewURL}, nil
}

// UpdateFile replaces a single file in an uploaded project
func (c *Client) UpdateFile(ctx context.Context, projectID string, file generate.File) error {
	payload := map[string]string{
		"path":    file.Path,
		"content": file.Content,
	}

	_, err := c.do(ctx, http.MethodPut, "/v2/projects/"+projectID+"/files", payload)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if payload != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sandbox request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sandbox response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sandbox returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
