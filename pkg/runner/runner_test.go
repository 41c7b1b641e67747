package runner

import (
	"context"
	"strings"
	"testing"
)

func TestInstallDepsUnsupportedPlatform(t *testing.T) {
	r := New(t.TempDir())

	err := r.InstallDeps(context.Background(), "desktop")
	if err == nil {
		t.Fatal("Expected error for unsupported platform")
	}
	if !strings.Contains(err.Error(), "unsupported platform") {
		t.Errorf("Expected unsupported platform error, got %v", err)
	}
}

func TestStartDevServerUnsupportedPlatform(t *testing.T) {
	r := New(t.TempDir())

	_, err := r.StartDevServer(context.Background(), "desktop")
	if err == nil {
		t.Fatal("Expected error for unsupported platform")
	}
}

func TestCommandSelection(t *testing.T) {
	name, args, err := installCommand("python")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if name != "pip" || len(args) != 3 {
		t.Errorf("Unexpected install command for python: %s %v", name, args)
	}

	name, _, err = serveCommand("web")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if name != "npm" {
		t.Errorf("Unexpected serve command for web: %s", name)
	}
}
