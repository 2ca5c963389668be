package commands

import (
	"context"
	"io"

	"github.com/dlp3d-ai/subdocs/internal/config"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	SkipSync bool `help:"Use the existing clones without fetching"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return RunAll(ctx, out(g), cfg, r.SkipSync)
}

// RunAll aggregates and then indexes every configured locale. The index is not
// touched when aggregation fails.
func RunAll(ctx context.Context, w io.Writer, cfg *config.Config, skipSync bool) error {
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()
	return rt.runAll(ctx, w, skipSync)
}

func (rt *runtime) runAll(ctx context.Context, w io.Writer, skipSync bool) error {
	report, err := rt.aggregate(ctx, skipSync, false)
	printAggregateReport(w, report)
	if err != nil {
		return err
	}
	results, err := rt.index(rt.cfg.Locales)
	printIndexResults(w, results)
	return err
}
