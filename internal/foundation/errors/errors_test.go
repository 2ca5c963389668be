package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "subdocs.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		file, exists := err.Context().GetString("file")
		if !exists || file != "subdocs.yaml" {
			t.Errorf("expected context file=subdocs.yaml, got %v", file)
		}
	})

	t.Run("Error detection through wrapping", func(t *testing.T) {
		inner := ConfigError("test error").Build()
		wrapped := fmt.Errorf("load: %w", inner)

		if !IsClassified(wrapped) {
			t.Error("expected wrapped error to be classified")
		}
		if !HasCategory(wrapped, CategoryConfig) {
			t.Error("expected error to have config category")
		}
		if inner.CanRetry() {
			t.Error("expected config error to not be retryable")
		}
		if !inner.IsFatal() {
			t.Error("expected config error to be fatal")
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	originalErr := errors.New("original error")
	err := WrapError(originalErr, CategoryNetwork, "network failure").
		Warning().
		Retryable().
		WithContext("host", "example.com").
		Build()

	if err.RetryStrategy() != RetryBackoff {
		t.Errorf("expected retry strategy %s, got %s", RetryBackoff, err.RetryStrategy())
	}
	if !errors.Is(err, originalErr) {
		t.Error("expected error to wrap original error")
	}
	if got := err.Error(); got != "[network] network failure: original error" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestWithContextDoesNotMutateOriginal(t *testing.T) {
	base := NewError(CategoryGit, "clone failed").WithContext("url", "a").Build()
	derived := base.WithContext("subrepo", "orchestrator")

	if _, ok := base.Context().Get("subrepo"); ok {
		t.Error("original context was mutated")
	}
	if v, _ := derived.Context().GetString("url"); v != "a" {
		t.Errorf("expected derived context to keep url, got %q", v)
	}
}

func TestGetCategoryDefaults(t *testing.T) {
	if got := GetCategory(errors.New("plain")); got != CategoryInternal {
		t.Errorf("expected internal, got %s", got)
	}
	if got := GetRetryStrategy(errors.New("plain")); got != RetryNever {
		t.Errorf("expected never, got %s", got)
	}
}
