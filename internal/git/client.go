package git

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/dlp3d-ai/subdocs/internal/config"
	"github.com/dlp3d-ai/subdocs/internal/logfields"
	"github.com/dlp3d-ai/subdocs/internal/retry"
)

// Client handles Git operations for subrepo clones under a workspace directory.
type Client struct {
	workspaceDir string
	gitCfg       config.GitConfig
	policy       retry.Policy
}

// Result describes the state of a clone after Sync or Open.
type Result struct {
	Name    string
	Path    string
	Commit  string
	Branch  string
	Cloned  bool // fresh clone rather than an update
	Changed bool // HEAD moved during this sync
}

// NewClient creates a new Git client with the specified workspace directory.
func NewClient(workspaceDir string, gitCfg config.GitConfig) *Client {
	return &Client{workspaceDir: workspaceDir, gitCfg: gitCfg, policy: retry.FromConfig(gitCfg)}
}

// WorkspaceDir returns the directory holding the clones.
func (c *Client) WorkspaceDir() string { return c.workspaceDir }

// ClonePath is the local clone location for a subrepo.
func (c *Client) ClonePath(name string) string { return filepath.Join(c.workspaceDir, name) }

// Sync clones the subrepo if it is not present locally and pulls it otherwise.
func (c *Client) Sync(ctx context.Context, sub config.Subrepo) (Result, error) {
	return withRetry(ctx, c.policy, "sync", sub.Name, func() (Result, error) {
		return c.syncOnce(ctx, sub)
	})
}

func (c *Client) syncOnce(ctx context.Context, sub config.Subrepo) (Result, error) {
	repoPath := c.ClonePath(sub.Name)
	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err != nil {
		slog.Debug("Repository missing, cloning", logfields.Subrepo(sub.Name))
		return c.cloneOnce(ctx, sub)
	}
	return c.updateExisting(ctx, repoPath, sub)
}

// Open reports the current state of an existing clone without touching the network.
func (c *Client) Open(sub config.Subrepo) (Result, error) {
	repoPath := c.ClonePath(sub.Name)
	repository, err := git.PlainOpen(repoPath)
	if err != nil {
		return Result{}, ClassifyGitError(err, "open", sub.URL)
	}
	res := Result{Name: sub.Name, Path: repoPath}
	if head, herr := repository.Head(); herr == nil {
		res.Commit = head.Hash().String()
		if head.Name().IsBranch() {
			res.Branch = head.Name().Short()
		}
	}
	return res, nil
}

func (c *Client) cloneOnce(ctx context.Context, sub config.Subrepo) (Result, error) {
	repoPath := c.ClonePath(sub.Name)
	slog.Debug("Cloning repository", logfields.URL(sub.URL), logfields.Subrepo(sub.Name), slog.String("branch", sub.Branch), logfields.Path(repoPath))
	if err := os.RemoveAll(repoPath); err != nil {
		return Result{}, GitError("failed to remove stale clone directory").WithCause(err).WithContext("path", repoPath).Build()
	}

	cloneOptions := &git.CloneOptions{URL: sub.URL, Tags: git.NoTags}
	if sub.Branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(sub.Branch)
		cloneOptions.SingleBranch = true
	}
	if c.gitCfg.ShallowDepth > 0 {
		cloneOptions.Depth = c.gitCfg.ShallowDepth
	}
	auth, err := getAuthentication(sub.Auth)
	if err != nil {
		return Result{}, err
	}
	cloneOptions.Auth = auth

	repository, err := git.PlainCloneContext(ctx, repoPath, false, cloneOptions)
	if err != nil {
		// leave nothing half-written behind for the next pull
		_ = os.RemoveAll(repoPath)
		return Result{}, ClassifyGitError(err, "clone", sub.URL)
	}

	res := Result{Name: sub.Name, Path: repoPath, Cloned: true, Changed: true}
	if ref, herr := repository.Head(); herr == nil {
		res.Commit = ref.Hash().String()
		res.Branch = ref.Name().Short()
		slog.Info("Repository cloned successfully", logfields.Subrepo(sub.Name), logfields.URL(sub.URL), logfields.Commit(res.Commit), logfields.Path(repoPath))
	} else {
		slog.Info("Repository cloned successfully", logfields.Subrepo(sub.Name), logfields.URL(sub.URL), logfields.Path(repoPath))
	}
	return res, nil
}
