package git

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/dlp3d-ai/subdocs/internal/config"
)

// TestDivergenceHandling verifies divergence error vs hard reset behavior.
func TestDivergenceHandling(t *testing.T) {
	barePath, seed, seedPath := newSeededRemote(t)
	ws := t.TempDir()
	sub := config.Subrepo{Name: "repo", URL: barePath, Branch: "master"}

	if _, err := NewClient(ws, config.GitConfig{}).Sync(context.Background(), sub); err != nil {
		t.Fatalf("initial sync: %v", err)
	}
	localPath := filepath.Join(ws, "repo")
	localRepo, err := git.PlainOpen(localPath)
	if err != nil {
		t.Fatalf("open local: %v", err)
	}
	if _, commitErr := addFileAndCommit(localRepo, localPath, "b.txt", "B", "B"); commitErr != nil {
		t.Fatalf("commit B: %v", commitErr)
	}
	remoteHash, err := addFileAndCommit(seed, seedPath, "c.txt", "C", "C")
	if err != nil {
		t.Fatalf("commit C: %v", err)
	}
	pushSeed(t, seed)

	_, err = NewClient(ws, config.GitConfig{}).Sync(context.Background(), sub)
	if err == nil || !strings.Contains(err.Error(), "diverged") {
		t.Fatalf("expected divergence error, got %v", err)
	}

	res, err := NewClient(ws, config.GitConfig{HardResetOnDiverge: true}).Sync(context.Background(), sub)
	if err != nil {
		t.Fatalf("expected hard reset success: %v", err)
	}
	if res.Commit != remoteHash.String() {
		t.Fatalf("expected local head %s to equal remote %s", res.Commit, remoteHash)
	}
}

func TestIsAncestor(t *testing.T) {
	_, seed, seedPath := newSeededRemote(t)
	head, err := seed.Head()
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	first := head.Hash()
	second, err := addFileAndCommit(seed, seedPath, "x.txt", "x", "x")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	if ok, _ := isAncestor(seed, first, second); !ok {
		t.Error("first commit should be an ancestor of the second")
	}
	if ok, _ := isAncestor(seed, second, first); ok {
		t.Error("second commit should not be an ancestor of the first")
	}
	if ok, _ := isAncestor(seed, first, first); !ok {
		t.Error("a commit is its own ancestor")
	}
}

func TestResolveTargetBranch(t *testing.T) {
	_, seed, _ := newSeededRemote(t)
	if got := resolveTargetBranch(seed, config.Subrepo{Branch: "release"}); got != "release" {
		t.Errorf("explicit branch: got %s", got)
	}
	if got := resolveTargetBranch(seed, config.Subrepo{}); got != plumbing.Master.Short() {
		t.Errorf("HEAD branch: got %s", got)
	}
}
