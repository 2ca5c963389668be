package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/dlp3d-ai/subdocs/internal/aggregate"
	"github.com/dlp3d-ai/subdocs/internal/config"
	"github.com/dlp3d-ai/subdocs/internal/history"
	"github.com/dlp3d-ai/subdocs/internal/logfields"
	"github.com/dlp3d-ai/subdocs/internal/metrics"
	"github.com/dlp3d-ai/subdocs/internal/navindex"
	"github.com/dlp3d-ai/subdocs/internal/workspace"
)

// runtime carries the optional services shared by aggregate, index, run and
// daemon: the run history store and the Prometheus registry.
type runtime struct {
	cfg      *config.Config
	store    *history.SQLiteStore
	registry *prom.Registry
	recorder metrics.Recorder
}

func newRuntime(cfg *config.Config) (*runtime, error) {
	rt := &runtime{cfg: cfg, recorder: metrics.NoopRecorder{}}
	if cfg.History.DB != "" {
		store, err := history.NewSQLiteStore(cfg.History.DB)
		if err != nil {
			return nil, err
		}
		rt.store = store
	}
	if cfg.Metrics.Textfile != "" {
		rt.registry = prom.NewRegistry()
		rt.recorder = metrics.NewPrometheusRecorder(rt.registry)
	}
	return rt, nil
}

// flush writes the metrics textfile, if configured.
func (rt *runtime) flush() {
	if rt.registry == nil {
		return
	}
	if err := metrics.WriteTextfile(rt.registry, rt.cfg.Metrics.Textfile); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(rt.cfg.Metrics.Textfile), logfields.Error(err))
	}
}

func (rt *runtime) Close() {
	rt.flush()
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			slog.Warn("Failed to close history store", logfields.Error(err))
		}
	}
}

// aggregate performs one aggregation run. With fresh set the subrepos are
// cloned into a temporary workspace that is removed afterwards.
func (rt *runtime) aggregate(ctx context.Context, skipSync, fresh bool) (*aggregate.Report, error) {
	runID := uuid.NewString()
	opts := []aggregate.Option{
		aggregate.WithRunID(runID),
		aggregate.WithRecorder(rt.recorder),
		aggregate.WithSkipSync(skipSync),
	}
	if rt.store != nil {
		opts = append(opts, aggregate.WithHistory(rt.store))
	}

	ws := workspace.NewPersistentManager(rt.cfg.CloneDir)
	if fresh {
		ws = workspace.NewManager("")
	}
	if err := ws.Create(); err != nil {
		return nil, err
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to cleanup workspace", logfields.Path(ws.Path()), logfields.Error(err))
		}
	}()
	opts = append(opts, aggregate.WithCloneDir(ws.Path()))

	agg, err := aggregate.New(rt.cfg, opts...)
	if err != nil {
		return nil, err
	}
	return agg.Run(ctx)
}

// index writes the navigation fragment of every given locale.
func (rt *runtime) index(locales []string) ([]*navindex.Result, error) {
	gen := navindex.New(rt.cfg)
	results := make([]*navindex.Result, 0, len(locales))
	for _, locale := range locales {
		start := time.Now()
		res, err := gen.Write(locale)
		if err != nil {
			return results, err
		}
		rt.recorder.SetNavigationEntries(locale, len(res.Included), len(res.Missing))
		slog.Debug("Navigation fragment processed", logfields.Locale(locale), logfields.Duration(time.Since(start)))
		results = append(results, res)
	}
	return results, nil
}
