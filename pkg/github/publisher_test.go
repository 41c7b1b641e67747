package github_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	gogithub "github.com/google/go-github/v45/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demoforge/demoforge/pkg/generate"
	"github.com/demoforge/demoforge/pkg/github"
)

func TestPublishProject(t *testing.T) {
	var committedPaths []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/user/repos":
			_, _ = w.Write([]byte(`{"name": "coffee-shop", "full_name": "acme/coffee-shop", "html_url": "https://github.example/acme/coffee-shop"}`))
		case r.Method == http.MethodPut:
			committedPaths = append(committedPaths, r.URL.Path)
			_, _ = w.Write([]byte(`{}`))
		default:
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := gogithub.NewClient(nil)
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = baseURL

	publisher := github.NewPublisher("test-token", "acme", github.WithClient(client))

	repoURL, err := publisher.PublishProject(context.Background(), "coffee-shop", "demo app", []generate.File{
		{Path: "package.json", Content: "{}"},
		{Path: "src/index.html", Content: "<html></html>"},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://github.example/acme/coffee-shop", repoURL)
	require.Len(t, committedPaths, 2)
	assert.Contains(t, committedPaths[0], "/repos/acme/coffee-shop/contents/package.json")
}
