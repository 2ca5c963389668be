package git

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlp3d-ai/subdocs/internal/config"
	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
	"github.com/dlp3d-ai/subdocs/internal/retry"
)

func TestClassifyGitError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category errors.ErrorCategory
		retry    errors.RetryStrategy
	}{
		{"auth sentinel", transport.ErrAuthenticationRequired, errors.CategoryAuth, errors.RetryUserAction},
		{"auth message", stderrors.New("authentication failed for https://x"), errors.CategoryAuth, errors.RetryUserAction},
		{"not found sentinel", transport.ErrRepositoryNotFound, errors.CategoryNotFound, errors.RetryNever},
		{"timeout", stderrors.New("dial tcp: i/o timeout"), errors.CategoryNetwork, errors.RetryBackoff},
		{"rate limit", stderrors.New("429 Too Many Requests"), errors.CategoryNetwork, errors.RetryRateLimit},
		{"protocol", stderrors.New("unsupported protocol scheme"), errors.CategoryConfig, errors.RetryNever},
		{"other", stderrors.New("object not resolvable"), errors.CategoryGit, errors.RetryNever},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyGitError(tt.err, "clone", "https://example.com/r.git")
			ce, ok := errors.AsClassified(got)
			require.True(t, ok)
			assert.Equal(t, tt.category, ce.Category())
			assert.Equal(t, tt.retry, ce.RetryStrategy())
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, ClassifyGitError(nil, "clone", ""))

	already := errors.ConfigError("bad").Build()
	assert.Same(t, already, ClassifyGitError(already, "clone", ""))
}

func TestWithRetryBehavior(t *testing.T) {
	pol := retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, 5*time.Millisecond, 3)
	transient := GitError("remote hung up").Retryable().Build()

	attempts := 0
	got, err := withRetry(context.Background(), pol, "sync", "repo", func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", transient
		}
		return "/ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "/ok", got)

	attempts = 0
	_, err = withRetry(context.Background(), pol, "sync", "repo", func() (string, error) {
		attempts++
		return "", errors.NewError(errors.CategoryAuth, "denied").UserAction().Build()
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "permanent errors are not retried")

	attempts = 0
	_, err = withRetry(context.Background(), pol, "sync", "repo", func() (string, error) {
		attempts++
		return "", transient
	})
	require.ErrorIs(t, err, transient)
	assert.Equal(t, 4, attempts, "first attempt plus three retries")
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	pol := retry.NewPolicy(config.RetryBackoffFixed, time.Hour, time.Hour, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	_, err := withRetry(ctx, pol, "sync", "repo", func() (int, error) {
		attempts++
		return 0, GitError("timeout").Retryable().Build()
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}
