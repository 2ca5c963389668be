package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlp3d-ai/subdocs/internal/config"
	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
)

func TestSync_ClonesThenPulls(t *testing.T) {
	barePath, seed, seedPath := newSeededRemote(t)
	ws := t.TempDir()
	client := NewClient(ws, config.GitConfig{})
	sub := config.Subrepo{Name: "orchestrator", URL: barePath}

	first, err := client.Sync(context.Background(), sub)
	require.NoError(t, err)
	assert.True(t, first.Cloned)
	assert.Equal(t, filepath.Join(ws, "orchestrator"), first.Path)
	assert.FileExists(t, filepath.Join(first.Path, "docs", "en", "index.md"))
	require.Len(t, first.Commit, 40)

	newHash, err := addFileAndCommit(seed, seedPath, "docs/en/guide.md", "guide", "add guide")
	require.NoError(t, err)
	pushSeed(t, seed)

	second, err := client.Sync(context.Background(), sub)
	require.NoError(t, err)
	assert.False(t, second.Cloned)
	assert.True(t, second.Changed)
	assert.Equal(t, newHash.String(), second.Commit)
	assert.FileExists(t, filepath.Join(second.Path, "docs", "en", "guide.md"))

	third, err := client.Sync(context.Background(), sub)
	require.NoError(t, err)
	assert.False(t, third.Changed)
	assert.Equal(t, second.Commit, third.Commit)
}

func TestSync_ReplacesDirectoryWithoutGitMetadata(t *testing.T) {
	barePath, _, _ := newSeededRemote(t)
	ws := t.TempDir()
	stale := filepath.Join(ws, "web_backend")
	require.NoError(t, os.MkdirAll(stale, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "leftover.txt"), []byte("x"), 0o600))

	res, err := NewClient(ws, config.GitConfig{}).Sync(context.Background(), config.Subrepo{Name: "web_backend", URL: barePath})
	require.NoError(t, err)
	assert.True(t, res.Cloned)
	assert.NoFileExists(t, filepath.Join(stale, "leftover.txt"))
}

func TestSync_MissingRemoteFailsWithoutLeavingClone(t *testing.T) {
	ws := t.TempDir()
	client := NewClient(ws, config.GitConfig{MaxRetries: 2, RetryInitialDelay: "1ms", RetryMaxDelay: "2ms"})
	sub := config.Subrepo{Name: "audio2face", URL: filepath.Join(t.TempDir(), "does-not-exist.git")}

	_, err := client.Sync(context.Background(), sub)
	require.Error(t, err)
	assert.True(t, errors.IsClassified(err))
	assert.NoDirExists(t, filepath.Join(ws, "audio2face"))
}

func TestOpen(t *testing.T) {
	barePath, _, _ := newSeededRemote(t)
	ws := t.TempDir()
	client := NewClient(ws, config.GitConfig{})
	sub := config.Subrepo{Name: "speech2motion", URL: barePath}

	_, err := client.Open(sub)
	require.Error(t, err, "open before clone")

	synced, err := client.Sync(context.Background(), sub)
	require.NoError(t, err)

	opened, err := client.Open(sub)
	require.NoError(t, err)
	assert.Equal(t, synced.Commit, opened.Commit)
	assert.Equal(t, "master", opened.Branch)
}
