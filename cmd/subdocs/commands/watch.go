package commands

import (
	"context"
	"io"
	"log/slog"

	"github.com/dlp3d-ai/subdocs/internal/config"
	"github.com/dlp3d-ai/subdocs/internal/navindex"
	"github.com/dlp3d-ai/subdocs/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Locale string `short:"l" help:"Watch a single locale (default: every configured locale)"`
}

func (c *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	locales := cfg.Locales
	if c.Locale != "" {
		locale, err := cfg.ActiveLocale(c.Locale, nil)
		if err != nil {
			return err
		}
		locales = []string{locale}
	}
	ctx, cancel := signalContext()
	defer cancel()
	return RunWatch(ctx, out(g), cfg, locales)
}

// RunWatch regenerates navigation fragments until ctx is canceled.
func RunWatch(ctx context.Context, w io.Writer, cfg *config.Config, locales []string) error {
	gen := navindex.New(cfg)
	watcher, err := watch.New(cfg, gen, locales, watch.WithResultHandler(func(res *navindex.Result) {
		if res.Written {
			printIndexResults(w, []*navindex.Result{res})
		}
	}))
	if err != nil {
		return err
	}
	slog.Info("Watching aggregated docs", slog.Any("locales", locales))
	return watcher.Run(ctx)
}
