package commands

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/dlp3d-ai/subdocs/internal/config"
	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
	"github.com/dlp3d-ai/subdocs/internal/logfields"
	"github.com/dlp3d-ai/subdocs/internal/schedule"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Interval string `short:"i" help:"Time between runs (default: daemon.interval from the config)"`
}

func (d *DaemonCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	interval, err := daemonInterval(cfg, d.Interval)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return RunDaemon(ctx, out(g), cfg, interval)
}

func daemonInterval(cfg *config.Config, flag string) (time.Duration, error) {
	raw := flag
	if raw == "" {
		raw = cfg.Daemon.Interval
	}
	interval, err := time.ParseDuration(raw)
	if err != nil || interval <= 0 {
		return 0, errors.ValidationError("invalid daemon interval").WithCause(err).WithContext("interval", raw).Build()
	}
	return interval, nil
}

// RunDaemon runs aggregate + index for every locale immediately and then on
// every tick until ctx is canceled. A failed run is logged and retried on the
// next tick.
func RunDaemon(ctx context.Context, w io.Writer, cfg *config.Config, interval time.Duration) error {
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	sched, err := schedule.New()
	if err != nil {
		return err
	}
	_, err = sched.Every(interval, "aggregate", func(context.Context) {
		if ctx.Err() != nil {
			return
		}
		if err := rt.runAll(ctx, w, false); err != nil {
			slog.Error("Scheduled run failed", logfields.Error(err))
		}
		rt.flush()
	})
	if err != nil {
		return err
	}

	sched.Start()
	slog.Info("Daemon started, waiting for shutdown signal...", slog.Duration("interval", interval))
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping daemon...")
	if err := sched.Stop(); err != nil {
		return err
	}
	slog.Info("Daemon stopped successfully")
	return nil
}
