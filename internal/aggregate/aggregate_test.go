package aggregate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlp3d-ai/subdocs/internal/config"
	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
	"github.com/dlp3d-ai/subdocs/internal/history"
	"github.com/dlp3d-ai/subdocs/internal/metrics"
)

// upstream is a local repository standing in for a subrepo remote.
type upstream struct {
	t    *testing.T
	path string
	repo *git.Repository
}

func newUpstream(t *testing.T, files map[string]string) *upstream {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upstream")
	repo, err := git.PlainInit(path, false)
	require.NoError(t, err)
	u := &upstream{t: t, path: path, repo: repo}
	u.commit(files, "initial")
	return u
}

func (u *upstream) commit(files map[string]string, msg string) {
	u.t.Helper()
	wt, err := u.repo.Worktree()
	require.NoError(u.t, err)
	for rel, content := range files {
		full := filepath.Join(u.path, filepath.FromSlash(rel))
		require.NoError(u.t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(u.t, os.WriteFile(full, []byte(content), 0o600))
		_, err := wt.Add(rel)
		require.NoError(u.t, err)
	}
	_, err = wt.Commit(msg, &git.CommitOptions{Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()}})
	require.NoError(u.t, err)
}

func newConfig(t *testing.T, subs ...config.Subrepo) *config.Config {
	t.Helper()
	cfg, err := config.Parse(nil, config.FormatYAML)
	require.NoError(t, err)
	root := t.TempDir()
	cfg.DocsDir = filepath.Join(root, "docs")
	cfg.CloneDir = filepath.Join(root, "clones")
	for i := range subs {
		if subs[i].DocsPath == "" {
			subs[i].DocsPath = config.DefaultDocsPath
		}
		if subs[i].Caption == "" {
			subs[i].Caption = subs[i].Name
		}
	}
	cfg.Subrepos = subs
	return cfg
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	require.NoError(t, filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			n++
		}
		return nil
	}))
	return n
}

func orchestratorFiles() map[string]string {
	return map[string]string{
		"README.md":                "not docs",
		"docs/en/index.md":         `# Orchestrator` + "\n\n" + `<img src="_static/foo.png" width="300">` + "\n",
		"docs/en/guide/setup.md":   `<img src="_static/setup/diagram.svg">` + "\n",
		"docs/en/guide/data.json":  `{"src":"_static/foo.png"}`,
		"docs/_static/foo.png":     "png-bytes",
		"docs/_static/setup/x.svg": "<svg/>",
	}
}

func TestRun_CopiesAndRewrites(t *testing.T) {
	orch := newUpstream(t, orchestratorFiles())
	face := newUpstream(t, map[string]string{"docs/zh-cn/index.md": "# 音频\n"})
	cfg := newConfig(t,
		config.Subrepo{Name: "orchestrator", URL: orch.path},
		config.Subrepo{Name: "audio2face", URL: face.path},
	)

	agg, err := New(cfg, WithRunID("run-1"))
	require.NoError(t, err)
	report, err := agg.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Subrepos, 2)

	target := cfg.SubrepoTarget("en", "orchestrator")
	assert.Equal(t, countFiles(t, filepath.Join(orch.path, "docs", "en")), countFiles(t, target))
	assert.Equal(t, "# Orchestrator\n\n"+`<img src="../../_static/orchestrator/foo.png" width="300">`+"\n", readFile(t, filepath.Join(target, "index.md")))
	assert.Equal(t, `<img src="../../../_static/orchestrator/setup/diagram.svg">`+"\n", readFile(t, filepath.Join(target, "guide", "setup.md")))
	assert.Equal(t, `{"src":"_static/foo.png"}`, readFile(t, filepath.Join(target, "guide", "data.json")), "only markup files are rewritten")

	assert.Equal(t, "png-bytes", readFile(t, filepath.Join(cfg.StaticTarget("orchestrator"), "foo.png")))
	assert.FileExists(t, filepath.Join(cfg.StaticTarget("orchestrator"), "setup", "x.svg"))
	assert.NoDirExists(t, cfg.StaticTarget("audio2face"))

	assert.NoDirExists(t, cfg.SubrepoTarget("zh-cn", "orchestrator"))
	assert.NoDirExists(t, cfg.SubrepoTarget("en", "audio2face"))
	assert.Equal(t, "# 音频\n", readFile(t, filepath.Join(cfg.SubrepoTarget("zh-cn", "audio2face"), "index.md")))

	orchReport := report.Subrepos[0]
	assert.True(t, orchReport.Cloned)
	assert.True(t, orchReport.Static)
	assert.Equal(t, 2, orchReport.StaticFiles)
	require.Len(t, orchReport.Locales, 2)
	assert.Equal(t, metrics.OutcomeCopied, orchReport.Locales[0].Outcome)
	assert.Equal(t, 3, orchReport.Locales[0].Files)
	assert.Equal(t, 2, orchReport.Locales[0].References)
	assert.NotEmpty(t, orchReport.Locales[0].Fingerprint)
	assert.Equal(t, metrics.OutcomeSkipped, orchReport.Locales[1].Outcome)

	copied, skipped := report.Counts()
	assert.Equal(t, 2, copied)
	assert.Equal(t, 2, skipped)
}

func TestRun_RepeatedRunsAreStable(t *testing.T) {
	orch := newUpstream(t, orchestratorFiles())
	cfg := newConfig(t, config.Subrepo{Name: "orchestrator", URL: orch.path})

	store, err := history.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	agg, err := New(cfg, WithHistory(store), WithRunID("first"))
	require.NoError(t, err)
	first, err := agg.Run(context.Background())
	require.NoError(t, err)
	index := filepath.Join(cfg.SubrepoTarget("en", "orchestrator"), "index.md")
	before := readFile(t, index)

	agg, err = New(cfg, WithHistory(store), WithRunID("second"))
	require.NoError(t, err)
	second, err := agg.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, before, readFile(t, index))
	assert.NotContains(t, before, "orchestrator/orchestrator")
	assert.True(t, first.Subrepos[0].Locales[0].Changed)
	assert.False(t, second.Subrepos[0].Locales[0].Changed)
	assert.False(t, second.Subrepos[0].Cloned)
	assert.Equal(t, first.Subrepos[0].Locales[0].Fingerprint, second.Subrepos[0].Locales[0].Fingerprint)

	runs, err := store.RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "second", runs[0].RunID)
	assert.Equal(t, history.StatusCompleted, runs[0].Status)
	assert.Equal(t, 1, runs[0].Unchanged)
}

func TestRun_PullsNewContent(t *testing.T) {
	orch := newUpstream(t, orchestratorFiles())
	cfg := newConfig(t, config.Subrepo{Name: "orchestrator", URL: orch.path})

	agg, err := New(cfg)
	require.NoError(t, err)
	_, err = agg.Run(context.Background())
	require.NoError(t, err)

	orch.commit(map[string]string{"docs/en/changelog.md": "v2\n"}, "changelog")
	report, err := agg.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Subrepos[0].Changed)
	assert.Equal(t, "v2\n", readFile(t, filepath.Join(cfg.SubrepoTarget("en", "orchestrator"), "changelog.md")))
}

func TestRun_RemovesStaleContent(t *testing.T) {
	orch := newUpstream(t, orchestratorFiles())
	cfg := newConfig(t, config.Subrepo{Name: "orchestrator", URL: orch.path})

	stale := filepath.Join(cfg.SubrepoTarget("zh-cn", "orchestrator"), "old.md")
	leftover := filepath.Join(cfg.SubrepoTarget("en", "orchestrator"), "deleted-upstream.md")
	retired := filepath.Join(cfg.SubrepoTarget("en", "retired"), "index.md")
	for _, p := range []string{stale, leftover, retired} {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte("old"), 0o600))
	}

	agg, err := New(cfg)
	require.NoError(t, err)
	report, err := agg.Run(context.Background())
	require.NoError(t, err)

	assert.NoDirExists(t, cfg.SubrepoTarget("zh-cn", "orchestrator"))
	assert.NoFileExists(t, leftover)
	assert.NoDirExists(t, cfg.SubrepoTarget("en", "retired"))
	assert.Equal(t, []string{cfg.SubrepoTarget("en", "retired")}, report.Pruned)
}

func TestRun_GitFailureAbortsRemainingSubrepos(t *testing.T) {
	good := newUpstream(t, orchestratorFiles())
	cfg := newConfig(t,
		config.Subrepo{Name: "broken", URL: filepath.Join(t.TempDir(), "missing")},
		config.Subrepo{Name: "orchestrator", URL: good.path},
	)

	store, err := history.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	agg, err := New(cfg, WithHistory(store), WithRunID("failing"))
	require.NoError(t, err)
	report, err := agg.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsClassified(err))
	require.Len(t, report.Subrepos, 1)
	assert.NoDirExists(t, filepath.Join(cfg.CloneDir, "orchestrator"))
	assert.NoDirExists(t, cfg.SubrepoTarget("en", "orchestrator"))

	runs, err := store.RecentRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, history.StatusFailed, runs[0].Status)
	assert.Equal(t, "broken", runs[0].FailedOn)
}

func TestRun_SkipSyncRequiresClone(t *testing.T) {
	orch := newUpstream(t, orchestratorFiles())
	cfg := newConfig(t, config.Subrepo{Name: "orchestrator", URL: orch.path})

	agg, err := New(cfg, WithSkipSync(true))
	require.NoError(t, err)
	_, err = agg.Run(context.Background())
	require.Error(t, err)

	agg, err = New(cfg)
	require.NoError(t, err)
	_, err = agg.Run(context.Background())
	require.NoError(t, err)

	orch.commit(map[string]string{"docs/en/new.md": "new"}, "new")
	agg, err = New(cfg, WithSkipSync(true))
	require.NoError(t, err)
	_, err = agg.Run(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(cfg.SubrepoTarget("en", "orchestrator"), "new.md"), "skip-sync must not pull")
}

func TestRun_CanceledContext(t *testing.T) {
	orch := newUpstream(t, orchestratorFiles())
	cfg := newConfig(t, config.Subrepo{Name: "orchestrator", URL: orch.path})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg, err := New(cfg)
	require.NoError(t, err)
	report, err := agg.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Subrepos)
}

func TestFingerprintTree(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("a"), 0o600))
	first, err := fingerprintTree(dir)
	require.NoError(t, err)
	again, err := fingerprintTree(dir)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("b"), 0o600))
	changed, err := fingerprintTree(dir)
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}
