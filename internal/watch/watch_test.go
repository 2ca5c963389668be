package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dlp3d-ai/subdocs/internal/config"
	"github.com/dlp3d-ai/subdocs/internal/navindex"
)

func waitFor(t *testing.T, results <-chan *navindex.Result, match func(*navindex.Result) bool) *navindex.Result {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case res := <-results:
			if match(res) {
				return res
			}
		case <-deadline:
			t.Fatal("timed out waiting for regeneration")
			return nil
		}
	}
}

func TestWatcher_RegeneratesOnEntryPointChanges(t *testing.T) {
	cfg, err := config.Parse(nil, config.FormatYAML)
	require.NoError(t, err)
	cfg.DocsDir = t.TempDir()
	cfg.Locales = []string{"en"}
	cfg.Subrepos = []config.Subrepo{{Name: "orchestrator", Caption: "Orchestrator"}}

	results := make(chan *navindex.Result, 16)
	w, err := New(cfg, navindex.New(cfg), cfg.Locales,
		WithDebounce(20*time.Millisecond),
		WithResultHandler(func(r *navindex.Result) { results <- r }))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	initial := waitFor(t, results, func(*navindex.Result) bool { return true })
	require.Empty(t, initial.Included)
	require.Equal(t, "\n", initial.Content)

	dir := cfg.SubrepoTarget("en", "orchestrator")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.IndexFile), []byte("# Orchestrator\n"), 0o600))

	added := waitFor(t, results, func(r *navindex.Result) bool { return slices.Contains(r.Included, "orchestrator") })
	require.True(t, added.Written)
	data, err := os.ReadFile(cfg.FragmentPath("en"))
	require.NoError(t, err)
	require.Contains(t, string(data), "_subrepos/orchestrator/index.md")

	require.NoError(t, os.RemoveAll(dir))
	waitFor(t, results, func(r *navindex.Result) bool { return len(r.Included) == 0 })

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
