package git

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/dlp3d-ai/subdocs/internal/config"
	"github.com/dlp3d-ai/subdocs/internal/logfields"
)

func (c *Client) updateExisting(ctx context.Context, repoPath string, sub config.Subrepo) (Result, error) {
	repository, err := git.PlainOpen(repoPath)
	if err != nil {
		return Result{}, ClassifyGitError(err, "open", sub.URL)
	}
	slog.Info("Updating repository", logfields.Subrepo(sub.Name), logfields.Path(repoPath))
	wt, err := repository.Worktree()
	if err != nil {
		return Result{}, ClassifyGitError(err, "worktree", sub.URL)
	}

	var before plumbing.Hash
	if head, herr := repository.Head(); herr == nil {
		before = head.Hash()
	}

	if err := c.fetchOrigin(ctx, repository, sub); err != nil {
		return Result{}, ClassifyGitError(err, "fetch", sub.URL)
	}

	branch := resolveTargetBranch(repository, sub)
	localRef, remoteRef, err := checkoutAndGetRefs(repository, wt, branch)
	if err != nil {
		return Result{}, ClassifyGitError(err, "checkout", sub.URL)
	}

	if err := c.syncWithRemote(repository, wt, sub, branch, localRef, remoteRef); err != nil {
		return Result{}, err
	}

	res := Result{Name: sub.Name, Path: repoPath, Branch: branch}
	if head, herr := repository.Head(); herr == nil {
		res.Commit = head.Hash().String()
		res.Changed = head.Hash() != before
	}
	slog.Info("Repository updated", logfields.Subrepo(sub.Name), slog.String("branch", branch), logfields.Commit(res.Commit))
	return res, nil
}

// fetchOrigin fetches every branch of origin with the configured depth and credentials.
func (c *Client) fetchOrigin(ctx context.Context, repository *git.Repository, sub config.Subrepo) error {
	fetchOpts := &git.FetchOptions{
		RemoteName: "origin",
		Tags:       git.NoTags,
		RefSpecs:   []ggitcfg.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
	}
	if c.gitCfg.ShallowDepth > 0 {
		fetchOpts.Depth = c.gitCfg.ShallowDepth
	}
	auth, err := getAuthentication(sub.Auth)
	if err != nil {
		return err
	}
	fetchOpts.Auth = auth
	if err := repository.FetchContext(ctx, fetchOpts); err != nil && !stderrors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch: %w", err)
	}
	return nil
}

// resolveTargetBranch picks the configured branch, then the current HEAD
// branch, then origin's default branch, then "main".
func resolveTargetBranch(repository *git.Repository, sub config.Subrepo) string {
	if sub.Branch != "" {
		return sub.Branch
	}
	if headRef, err := repository.Head(); err == nil && headRef.Name().IsBranch() {
		return headRef.Name().Short()
	}
	if ref, err := repository.Reference(plumbing.NewRemoteHEADReferenceName("origin"), false); err == nil && ref.Target().IsRemote() {
		return strings.TrimPrefix(ref.Target().Short(), "origin/")
	}
	return "main"
}

// checkoutAndGetRefs ensures the local branch exists and is checked out.
func checkoutAndGetRefs(repository *git.Repository, wt *git.Worktree, branch string) (localRef, remoteRef *plumbing.Reference, err error) {
	localBranchRef := plumbing.NewBranchReferenceName(branch)
	remoteRef, err = repository.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return nil, nil, fmt.Errorf("remote ref %s not found: %w", branch, err)
	}
	localRef, lerr := repository.Reference(localBranchRef, true)
	if lerr != nil {
		if err = wt.Checkout(&git.CheckoutOptions{Hash: remoteRef.Hash(), Branch: localBranchRef, Create: true, Force: true}); err != nil {
			return nil, nil, fmt.Errorf("checkout new branch: %w", err)
		}
		localRef, err = repository.Reference(localBranchRef, true)
		if err != nil {
			return nil, nil, fmt.Errorf("local ref: %w", err)
		}
		return localRef, remoteRef, nil
	}
	if err = wt.Checkout(&git.CheckoutOptions{Branch: localBranchRef, Force: true}); err != nil {
		return nil, nil, fmt.Errorf("checkout existing branch: %w", err)
	}
	return localRef, remoteRef, nil
}

// syncWithRemote fast-forwards the local branch, or hard-resets it when it
// diverged and hard_reset_on_diverge is set.
func (c *Client) syncWithRemote(repository *git.Repository, wt *git.Worktree, sub config.Subrepo, branch string, localRef, remoteRef *plumbing.Reference) error {
	fastForward, ffErr := isAncestor(repository, localRef.Hash(), remoteRef.Hash())
	if ffErr != nil {
		slog.Warn("ancestor check failed", logfields.Subrepo(sub.Name), logfields.Error(ffErr))
	}
	if fastForward {
		if localRef.Hash() == remoteRef.Hash() {
			slog.Info("Repository already up-to-date", logfields.Subrepo(sub.Name), slog.String("branch", branch), logfields.Commit(remoteRef.Hash().String()))
		}
		if err := wt.Reset(&git.ResetOptions{Commit: remoteRef.Hash(), Mode: git.HardReset}); err != nil {
			return ClassifyGitError(fmt.Errorf("fast-forward reset: %w", err), "update", sub.URL)
		}
		return nil
	}
	if c.gitCfg.HardResetOnDiverge {
		slog.Warn("Diverged branch, hard resetting", logfields.Subrepo(sub.Name), slog.String("branch", branch))
		if err := wt.Reset(&git.ResetOptions{Commit: remoteRef.Hash(), Mode: git.HardReset}); err != nil {
			return ClassifyGitError(fmt.Errorf("hard reset: %w", err), "update", sub.URL)
		}
		return nil
	}
	return GitError("local branch diverged from remote (enable git.hard_reset_on_diverge to override)").
		WithContext("op", "update").
		WithContext("url", sub.URL).
		WithContext("branch", branch).
		WithContext("diverged", true).
		UserAction().
		Build()
}

// isAncestor reports whether a is reachable from b.
func isAncestor(repo *git.Repository, a, b plumbing.Hash) (bool, error) {
	if a == b {
		return true, nil
	}
	seen := map[plumbing.Hash]struct{}{}
	queue := []plumbing.Hash{b}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if h == a {
			return true, nil
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		commit, err := repo.CommitObject(h)
		if err != nil {
			return false, err
		}
		queue = append(queue, commit.ParentHashes...)
	}
	return false, nil
}
