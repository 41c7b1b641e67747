// Package runner installs dependencies and starts dev servers for
// scaffolded demo projects.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/demoforge/demoforge/pkg/logging"
	"github.com/demoforge/demoforge/pkg/plan"
)

// Runner executes project commands in a working directory
type Runner struct {
	dir    string
	logger logging.Logger
}

// Option represents an option for configuring the runner
type Option func(*Runner)

// WithLogger sets the logger for the runner
func WithLogger(logger logging.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// New creates a runner for the project at dir
func New(dir string, options ...Option) *Runner {
	r := &Runner{
		dir:    dir,
		logger: logging.New(),
	}

	for _, option := range options {
		option(r)
	}

	return r
}

// InstallDeps installs project dependencies for the given platform
func (r *Runner) InstallDeps(ctx context.Context, platform plan.Platform) error {
	name, args, err := installCommand(platform)
	if err != nil {
		return err
	}

	return r.run(ctx, name, args...)
}

// StartDevServer starts the project dev server and returns the running
// command. The caller stops it by cancelling ctx.
func (r *Runner) StartDevServer(ctx context.Context, platform plan.Platform) (*exec.Cmd, error) {
	name, args, err := serveCommand(platform)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.dir

	r.logger.Info(ctx, "Starting dev server", map[string]interface{}{
		"platform": string(platform),
		"command":  name,
	})

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start dev server: %w", err)
	}

	return cmd, nil
}

func (r *Runner) run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logger.Info(ctx, "Running command", map[string]interface{}{
		"command": name,
		"args":    args,
	})

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %s failed: %w: %s", name, err, stderr.String())
	}

	return nil
}

func installCommand(platform plan.Platform) (string, []string, error) {
	switch platform {
	case plan.PlatformWeb, plan.PlatformMobile:
		return "npm", []string{"install"}, nil
	case plan.PlatformPython:
		return "pip", []string{"install", "-r", "requirements.txt"}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", platform)
	}
}

func serveCommand(platform plan.Platform) (string, []string, error) {
	switch platform {
	case plan.PlatformWeb:
		return "npm", []string{"run", "dev"}, nil
	case plan.PlatformMobile:
		return "npm", []string{"start"}, nil
	case plan.PlatformPython:
		return "python", []string{"app.py"}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", platform)
	}
}
