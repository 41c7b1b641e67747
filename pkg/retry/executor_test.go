package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDefaultPolicy(t *testing.T) {
	policy := NewPolicy()

	if policy.InitialInterval != 500*time.Millisecond {
		t.Errorf("Expected 500ms initial interval, got %v", policy.InitialInterval)
	}
	if policy.MaximumInterval != 30*time.Second {
		t.Errorf("Expected 30s maximum interval, got %v", policy.MaximumInterval)
	}
	if policy.MaximumAttempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", policy.MaximumAttempts)
	}
}

func TestExecuteSucceedsAfterRetries(t *testing.T) {
	executor := NewExecutor(NewPolicy(
		WithInitialInterval(time.Millisecond),
		WithMaxAttempts(5),
	))

	attempts := 0
	err := executor.Execute(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteGivesUpAfterMaxAttempts(t *testing.T) {
	executor := NewExecutor(NewPolicy(
		WithInitialInterval(time.Millisecond),
		WithMaxAttempts(2),
	))

	attempts := 0
	err := executor.Execute(context.Background(), func() error {
		attempts++
		return errors.New("still failing")
	})

	if err == nil {
		t.Fatalf("Expected error after exhausting retries")
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestExecuteRespectsContextCancellation(t *testing.T) {
	executor := NewExecutor(NewPolicy(
		WithInitialInterval(time.Minute),
		WithMaxAttempts(10),
	))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := executor.Execute(ctx, func() error {
		return errors.New("transient")
	})

	if err == nil {
		t.Fatalf("Expected error for cancelled context")
	}
}
