package version

import "fmt"

// Version is set at build time:
// go build -ldflags "-X github.com/dlp3d-ai/subdocs/internal/version.Version=v0.3.0".
var Version = "unknown"

// Build metadata, also set via ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String is the text printed by `subdocs --version`.
func String() string {
	return fmt.Sprintf("subdocs %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
