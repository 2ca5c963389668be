package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// addFileAndCommit writes filename (creating parent dirs), stages it and commits.
func addFileAndCommit(repo *git.Repository, repoPath, filename, content, msg string) (plumbing.Hash, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return plumbing.Hash{}, err
	}
	full := filepath.Join(repoPath, filename)
	if mkErr := os.MkdirAll(filepath.Dir(full), 0o750); mkErr != nil {
		return plumbing.Hash{}, mkErr
	}
	if writeFileErr := os.WriteFile(full, []byte(content), 0o600); writeFileErr != nil {
		return plumbing.Hash{}, writeFileErr
	}
	if _, addErr := wt.Add(filename); addErr != nil {
		return plumbing.Hash{}, addErr
	}
	return wt.Commit(msg, &git.CommitOptions{Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()}})
}

// newSeededRemote creates a bare remote plus a working seed repo pushing to it.
func newSeededRemote(t *testing.T) (barePath string, seed *git.Repository, seedPath string) {
	t.Helper()
	tmp := t.TempDir()
	barePath = filepath.Join(tmp, "remote.git")
	if _, err := git.PlainInit(barePath, true); err != nil {
		t.Fatalf("init bare: %v", err)
	}
	seedPath = filepath.Join(tmp, "seed")
	seed, err := git.PlainInit(seedPath, false)
	if err != nil {
		t.Fatalf("init seed: %v", err)
	}
	if _, err := seed.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{barePath}}); err != nil {
		t.Fatalf("create remote: %v", err)
	}
	if _, err := addFileAndCommit(seed, seedPath, "docs/en/index.md", "# Home\n", "initial"); err != nil {
		t.Fatalf("commit: %v", err)
	}
	pushSeed(t, seed)
	return barePath, seed, seedPath
}

func pushSeed(t *testing.T, seed *git.Repository) {
	t.Helper()
	if err := seed.Push(&git.PushOptions{RemoteName: "origin"}); err != nil {
		t.Fatalf("push: %v", err)
	}
}
