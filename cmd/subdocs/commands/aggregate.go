package commands

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dlp3d-ai/subdocs/internal/config"
	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
)

// AggregateCmd implements the 'aggregate' command.
type AggregateCmd struct {
	SkipSync bool `help:"Use the existing clones without fetching"`
	Fresh    bool `help:"Clone into a temporary workspace that is removed after the run"`
}

func (a *AggregateCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return RunAggregate(ctx, out(g), cfg, a.SkipSync, a.Fresh)
}

// RunAggregate syncs every subrepo and copies its docs into the aggregated tree.
func RunAggregate(ctx context.Context, w io.Writer, cfg *config.Config, skipSync, fresh bool) error {
	if skipSync && fresh {
		return errors.ValidationError("--skip-sync and --fresh are mutually exclusive").Build()
	}
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := rt.aggregate(ctx, skipSync, fresh)
	printAggregateReport(w, report)
	return err
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
