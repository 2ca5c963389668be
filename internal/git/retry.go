package git

import (
	"context"
	"log/slog"

	"github.com/dlp3d-ai/subdocs/internal/logfields"
	"github.com/dlp3d-ai/subdocs/internal/retry"
)

// withRetry runs fn until it succeeds, fails permanently, or the policy's
// retry budget is exhausted. Rate limited attempts wait twice the policy delay.
func withRetry[T any](ctx context.Context, pol retry.Policy, op, name string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= pol.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("Retrying git operation", slog.String("operation", op), logfields.Subrepo(name), slog.Int("attempt", attempt))
		}
		res, err := fn()
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !isTransient(err) || attempt == pol.MaxRetries {
			break
		}
		waits := 1
		if isRateLimited(err) {
			waits = 2
		}
		for range waits {
			if werr := pol.Wait(ctx, attempt+1); werr != nil {
				return zero, ClassifyGitError(werr, op, name)
			}
		}
	}
	return zero, lastErr
}
