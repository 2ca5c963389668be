package commands

import (
	"context"
	"io"

	"github.com/dlp3d-ai/subdocs/internal/config"
	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
	"github.com/dlp3d-ai/subdocs/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of runs to show" default:"10"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	return RunHistory(context.Background(), out(g), cfg, h.Limit)
}

// RunHistory prints the most recent runs recorded in history.db.
func RunHistory(ctx context.Context, w io.Writer, cfg *config.Config, limit int) error {
	if cfg.History.DB == "" {
		return errors.ConfigError("run history is disabled").
			WithContext("hint", "set history.db in the configuration").
			Build()
	}
	store, err := history.NewSQLiteStore(cfg.History.DB)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.RecentRuns(ctx, limit)
	if err != nil {
		return err
	}
	printRuns(w, runs)
	return nil
}
