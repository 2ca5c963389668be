package errors

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad locale").Build(), expected: 2},
		{name: "auth", err: NewError(CategoryAuth, "unauthorized").Build(), expected: 5},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "git", err: NewError(CategoryGit, "clone failed").Build(), expected: 8},
		{name: "filesystem", err: FileSystemError("copy failed").Build(), expected: 11},
		{name: "internal", err: InternalError("boom").Build(), expected: 10},
		{name: "unclassified", err: errors.New("unknown"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(io.Discard, nil)))
	adapter.out = &out

	err := WrapError(errors.New("exit status 128"), CategoryGit, "clone failed").Build()
	code := adapter.HandleError(err)

	if code != 8 {
		t.Errorf("expected exit code 8, got %d", code)
	}
	if !strings.Contains(out.String(), "clone failed: exit status 128") {
		t.Errorf("unexpected output %q", out.String())
	}
}
