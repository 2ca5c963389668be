package config

import "github.com/dlp3d-ai/subdocs/internal/foundation"

// RetryBackoffMode enumerates supported backoff strategies for git retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffModes = foundation.NewNormalizer(map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
})

// NormalizeRetryBackoff converts user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	return retryBackoffModes.Normalize(raw)
}

// Auth types accepted in a subrepo's auth block.
const (
	AuthTypeNone  = "none"
	AuthTypeSSH   = "ssh"
	AuthTypeToken = "token"
	AuthTypeBasic = "basic"
)

var authTypes = foundation.NewNormalizer(map[string]string{
	"":            AuthTypeNone,
	AuthTypeNone:  AuthTypeNone,
	AuthTypeSSH:   AuthTypeSSH,
	AuthTypeToken: AuthTypeToken,
	AuthTypeBasic: AuthTypeBasic,
})

// NormalizeAuthType returns the canonical auth type and whether it is known.
func NormalizeAuthType(raw string) (string, bool) {
	return authTypes.Lookup(raw)
}
