package logging_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/demoforge/demoforge/pkg/history"
	"github.com/demoforge/demoforge/pkg/logging"
)

func TestSessionIDAppearsInLogLines(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.WithOutput(&buf))

	ctx := history.WithSessionID(context.Background(), "session-xyz")
	logger.Info(ctx, "hello", nil)

	line := buf.String()
	if !strings.Contains(line, "session_id=session-xyz") {
		t.Errorf("Expected session_id field in log line, got %q", line)
	}
	if !strings.Contains(line, "hello") {
		t.Errorf("Expected message in log line, got %q", line)
	}
}

func TestNoSessionIDWithoutContextValue(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.WithOutput(&buf))

	logger.Info(context.Background(), "hello", map[string]interface{}{"key": "value"})

	line := buf.String()
	if strings.Contains(line, "session_id") {
		t.Errorf("Expected no session_id field, got %q", line)
	}
	if !strings.Contains(line, "key=value") {
		t.Errorf("Expected custom field in log line, got %q", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.WithLevel("warn"), logging.WithOutput(&buf))

	logger.Info(context.Background(), "quiet", nil)
	logger.Warn(context.Background(), "loud", nil)

	line := buf.String()
	if strings.Contains(line, "quiet") {
		t.Errorf("Expected info line to be filtered, got %q", line)
	}
	if !strings.Contains(line, "loud") {
		t.Errorf("Expected warn line to appear, got %q", line)
	}
}
