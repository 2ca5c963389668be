package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/dlp3d-ai/subdocs/internal/config"
	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
	"github.com/dlp3d-ai/subdocs/internal/git"
	"github.com/dlp3d-ai/subdocs/internal/history"
	"github.com/dlp3d-ai/subdocs/internal/logfields"
	"github.com/dlp3d-ai/subdocs/internal/metrics"
	"github.com/dlp3d-ai/subdocs/internal/rewrite"
)

// History is the part of the run history the aggregator writes to.
type History interface {
	Append(ctx context.Context, e history.Event) error
	LastFingerprint(ctx context.Context, subrepo, locale string) (string, error)
}

// Aggregator mirrors subrepo documentation into the main docs tree.
type Aggregator struct {
	cfg      *config.Config
	rewriter *rewrite.Rewriter
	cloneDir string
	recorder metrics.Recorder
	history  History
	runID    string
	skipSync bool
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithRecorder installs a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(a *Aggregator) {
		if r != nil {
			a.recorder = r
		}
	}
}

// WithHistory records run events to h.
func WithHistory(h History) Option { return func(a *Aggregator) { a.history = h } }

// WithRunID sets the identifier attached to logs and history events.
func WithRunID(id string) Option { return func(a *Aggregator) { a.runID = id } }

// WithSkipSync uses existing clones as they are.
func WithSkipSync(skip bool) Option { return func(a *Aggregator) { a.skipSync = skip } }

// WithCloneDir overrides the configured clone directory (ephemeral workspaces).
func WithCloneDir(dir string) Option { return func(a *Aggregator) { a.cloneDir = dir } }

// New creates an aggregator for cfg.
func New(cfg *config.Config, opts ...Option) (*Aggregator, error) {
	rw, err := rewrite.New(cfg.Rewrite)
	if err != nil {
		return nil, err
	}
	a := &Aggregator{
		cfg:      cfg,
		rewriter: rw,
		cloneDir: cfg.CloneDir,
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Report describes what a run did. It is returned even when the run fails.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Subrepos []SubrepoReport
	Pruned   []string // aggregated directories removed because they left the registry
}

// SubrepoReport is the outcome for one subrepo.
type SubrepoReport struct {
	Name        string
	Commit      string
	Cloned      bool
	Changed     bool
	Locales     []LocaleResult
	StaticFiles int
	Static      bool
}

// LocaleResult is the outcome for one subrepo/locale pair.
type LocaleResult struct {
	Locale      string
	Outcome     metrics.Outcome
	Source      string
	Target      string
	Files       int
	References  int
	Fingerprint string
	Changed     bool // fingerprint differs from the last recorded one
}

// Counts returns the number of copied and skipped subrepo/locale pairs.
func (r *Report) Counts() (copied, skipped int) {
	for _, s := range r.Subrepos {
		for _, l := range s.Locales {
			if l.Outcome == metrics.OutcomeCopied {
				copied++
			} else {
				skipped++
			}
		}
	}
	return copied, skipped
}

// Run processes every subrepo in registry order. A sync or filesystem failure
// stops the run; the partial report is returned with the error.
func (a *Aggregator) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: a.runID, Started: time.Now()}
	names := make([]string, 0, len(a.cfg.Subrepos))
	for _, s := range a.cfg.Subrepos {
		names = append(names, s.Name)
	}
	a.record(ctx, history.RunStarted, "", "", history.RunStartedPayload{Subrepos: names, Locales: a.cfg.Locales, SkipSync: a.skipSync})
	slog.Info("Aggregation started", logfields.RunID(a.runID), slog.Int("subrepos", len(names)), slog.Any("locales", a.cfg.Locales))

	err := a.run(ctx, report, names)
	report.Duration = time.Since(report.Started)
	a.recorder.ObserveRunDuration(report.Duration)

	if err != nil {
		outcome := metrics.RunFailed
		if ctx.Err() != nil {
			outcome = metrics.RunCanceled
		}
		a.recorder.IncRunOutcome(outcome)
		failedOn := ""
		if ce, ok := errors.AsClassified(err); ok {
			failedOn, _ = ce.Context().GetString("subrepo")
		}
		a.record(ctx, history.RunFailed, failedOn, "", history.RunFailedPayload{
			DurationMS: report.Duration.Milliseconds(),
			Error:      err.Error(),
			Category:   string(errors.GetCategory(err)),
		})
		slog.Error("Aggregation failed", logfields.RunID(a.runID), logfields.Duration(report.Duration), logfields.Error(err))
		return report, err
	}

	copied, skipped := report.Counts()
	a.recorder.IncRunOutcome(metrics.RunSuccess)
	a.record(ctx, history.RunCompleted, "", "", history.RunCompletedPayload{
		DurationMS: report.Duration.Milliseconds(),
		Copied:     copied,
		Skipped:    skipped,
	})
	slog.Info("Aggregation completed", logfields.RunID(a.runID), slog.Int("copied", copied), slog.Int("skipped", skipped), logfields.Duration(report.Duration))
	return report, nil
}

func (a *Aggregator) run(ctx context.Context, report *Report, names []string) error {
	pruned, err := a.prune(names)
	report.Pruned = pruned
	if err != nil {
		return err
	}

	client := git.NewClient(a.cloneDir, a.cfg.Git)
	for _, sub := range a.cfg.Subrepos {
		if err := ctx.Err(); err != nil {
			return errors.WrapError(err, errors.CategoryInternal, "aggregation canceled").WithContext("subrepo", sub.Name).Build()
		}
		sr, err := a.processSubrepo(ctx, client, sub)
		report.Subrepos = append(report.Subrepos, sr)
		if err != nil {
			if ce, ok := errors.AsClassified(err); ok {
				err = ce.WithContext("subrepo", sub.Name)
			}
			return err
		}
	}
	return nil
}

func (a *Aggregator) processSubrepo(ctx context.Context, client *git.Client, sub config.Subrepo) (SubrepoReport, error) {
	sr := SubrepoReport{Name: sub.Name}

	started := time.Now()
	var (
		res git.Result
		err error
	)
	if a.skipSync {
		res, err = client.Open(sub)
	} else {
		res, err = client.Sync(ctx, sub)
	}
	a.recorder.ObserveSyncDuration(sub.Name, time.Since(started), err == nil)
	if err != nil {
		slog.Error("Failed to sync subrepo", logfields.RunID(a.runID), logfields.Subrepo(sub.Name), logfields.URL(sub.URL), logfields.Error(err))
		return sr, err
	}
	sr.Commit, sr.Cloned, sr.Changed = res.Commit, res.Cloned, res.Changed
	a.record(ctx, history.SubrepoSynced, sub.Name, "", history.SubrepoSyncedPayload{
		Commit:     res.Commit,
		Cloned:     res.Cloned,
		Changed:    res.Changed,
		DurationMS: time.Since(started).Milliseconds(),
	})

	docsRoot := filepath.Join(res.Path, sub.DocsPath)
	for _, locale := range a.cfg.Locales {
		lr, err := a.copyLocale(ctx, sub, docsRoot, locale)
		sr.Locales = append(sr.Locales, lr)
		if err != nil {
			return sr, err
		}
	}

	staticSrc := filepath.Join(docsRoot, a.cfg.StaticDir)
	if info, serr := os.Stat(staticSrc); serr == nil && info.IsDir() {
		n, err := replaceDir(staticSrc, a.cfg.StaticTarget(sub.Name))
		if err != nil {
			return sr, err
		}
		sr.Static, sr.StaticFiles = true, n
		slog.Debug("Copied static assets", logfields.Subrepo(sub.Name), logfields.Files(n))
	}
	return sr, nil
}

func (a *Aggregator) copyLocale(ctx context.Context, sub config.Subrepo, docsRoot, locale string) (LocaleResult, error) {
	src := filepath.Join(docsRoot, locale)
	target := a.cfg.SubrepoTarget(locale, sub.Name)
	lr := LocaleResult{Locale: locale, Source: src, Target: target}

	// the previous copy goes even when the source vanished
	if err := os.RemoveAll(target); err != nil {
		return lr, errors.FileSystemError("failed to remove aggregated directory").WithCause(err).WithContext("path", target).Build()
	}

	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		slog.Warn(fmt.Sprintf("%s not found", src), logfields.Subrepo(sub.Name), logfields.Locale(locale))
		lr.Outcome = metrics.OutcomeSkipped
		a.recorder.IncLocaleOutcome(locale, lr.Outcome)
		a.record(ctx, history.LocaleSkipped, sub.Name, locale, history.LocaleSkippedPayload{Source: src})
		return lr, nil
	}

	n, err := replaceDir(src, target)
	if err != nil {
		return lr, err
	}
	stats, err := a.rewriter.Tree(target, a.cfg.LocaleDir(locale), sub.Name)
	if err != nil {
		return lr, err
	}
	fp, err := fingerprintTree(target)
	if err != nil {
		return lr, err
	}
	lr.Outcome, lr.Files, lr.References, lr.Fingerprint = metrics.OutcomeCopied, n, stats.References, fp
	lr.Changed = a.fingerprintChanged(ctx, sub.Name, locale, fp)

	a.recorder.IncLocaleOutcome(locale, lr.Outcome)
	a.recorder.AddRewrittenReferences(sub.Name, stats.References)
	a.record(ctx, history.LocaleCopied, sub.Name, locale, history.LocaleCopiedPayload{
		Files:       n,
		References:  stats.References,
		Fingerprint: fp,
		Changed:     lr.Changed,
	})
	slog.Info("Copied subrepo docs",
		logfields.Subrepo(sub.Name),
		logfields.Locale(locale),
		logfields.Files(n),
		slog.Int("references", stats.References),
		slog.Bool("changed", lr.Changed))
	return lr, nil
}

// fingerprintChanged compares fp with the last recorded fingerprint. Without
// history every copy counts as a change.
func (a *Aggregator) fingerprintChanged(ctx context.Context, name, locale, fp string) bool {
	if a.history == nil {
		return true
	}
	prev, err := a.history.LastFingerprint(ctx, name, locale)
	if err != nil {
		slog.Warn("Failed to read previous fingerprint", logfields.Subrepo(name), logfields.Locale(locale), logfields.Error(err))
		return true
	}
	return prev != fp
}

// prune removes aggregated directories of subrepos that are no longer registered.
func (a *Aggregator) prune(names []string) ([]string, error) {
	var pruned []string
	cloneDir, _ := filepath.Abs(a.cloneDir)
	for _, locale := range a.cfg.Locales {
		root := a.cfg.AggregateRoot(locale)
		entries, err := os.ReadDir(root)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return pruned, errors.FileSystemError("failed to list aggregated directory").WithCause(err).WithContext("path", root).Build()
		}
		for _, e := range entries {
			if !e.IsDir() || slices.Contains(names, e.Name()) {
				continue
			}
			path := filepath.Join(root, e.Name())
			if abs, _ := filepath.Abs(path); abs == cloneDir {
				continue
			}
			if err := os.RemoveAll(path); err != nil {
				return pruned, errors.FileSystemError("failed to prune aggregated directory").WithCause(err).WithContext("path", path).Build()
			}
			slog.Info("Pruned unregistered subrepo docs", logfields.Locale(locale), logfields.Path(path))
			pruned = append(pruned, path)
		}
	}
	return pruned, nil
}

// record appends a history event. History is best effort: failures are logged.
func (a *Aggregator) record(ctx context.Context, typ history.EventType, subrepo, locale string, payload any) {
	if a.history == nil {
		return
	}
	e, err := history.NewEvent(a.runID, typ, subrepo, locale, payload)
	if err == nil {
		err = a.history.Append(context.WithoutCancel(ctx), e)
	}
	if err != nil {
		slog.Warn("Failed to record history event", logfields.RunID(a.runID), slog.String("event", string(typ)), logfields.Error(err))
	}
}
