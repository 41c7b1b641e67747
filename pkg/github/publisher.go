// Package github pushes scaffolded projects to a source-control host.
package github

import (
	"context"
	"fmt"

	gogithub "github.com/google/go-github/v45/github"
	"golang.org/x/oauth2"

	"github.com/demoforge/demoforge/pkg/generate"
	"github.com/demoforge/demoforge/pkg/logging"
)

// Publisher creates repositories and commits generated project files
type Publisher struct {
	client *gogithub.Client
	owner  string
	logger logging.Logger
}

// Option represents an option for configuring the publisher
type Option func(*Publisher)

// WithLogger sets the logger for the publisher
func WithLogger(logger logging.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithClient overrides the GitHub client, used in tests
func WithClient(client *gogithub.Client) Option {
	return func(p *Publisher) {
		p.client = client
	}
}

// NewPublisher creates a publisher authenticated with the given token
func NewPublisher(token string, owner string, options ...Option) *Publisher {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), tokenSource)

	p := &Publisher{
		client: gogithub.NewClient(httpClient),
		owner:  owner,
		logger: logging.New(),
	}

	for _, option := range options {
		option(p)
	}

	return p
}

// PublishProject creates a repository and commits every generated file.
// Returns the repository HTML URL.
func (p *Publisher) PublishProject(ctx context.Context, name string, description string, files []generate.File) (string, error) {
	repo := &gogithub.Repository{
		Name:        gogithub.String(name),
		Description: gogithub.String(description),
		Private:     gogithub.Bool(true),
	}

	created, _, err := p.client.Repositories.Create(ctx, "", repo)
	if err != nil {
		return "", fmt.Errorf("failed to create repository: %w", err)
	}

	p.logger.Info(ctx, "Created repository", map[string]interface{}{
		"repo": created.GetFullName(),
	})

	for _, file := range files {
		opts := &gogithub.RepositoryContentFileOptions{
			Message: gogithub.String(fmt.Sprintf("Add %s", file.Path)),
			Content: []byte(file.Content),
		}

		if _, _, err := p.client.Repositories.CreateFile(ctx, p.owner, name, file.Path, opts); err != nil {
			return "", fmt.Errorf("failed to commit %s: %w", file.Path, err)
		}
	}

	return created.GetHTMLURL(), nil
}
