package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/dlp3d-ai/subdocs/internal/config"
)

// Global is bound into every command's Run method.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"subdocs.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Aggregate AggregateCmd `cmd:"" help:"Sync subrepos and copy their docs into the aggregated tree"`
	Index     IndexCmd     `cmd:"" help:"Regenerate the navigation fragment from aggregated entry points"`
	RunAll    RunCmd       `cmd:"" name:"run" help:"Aggregate, then regenerate the fragment of every locale"`
	Check     CheckCmd     `cmd:"" help:"Report asset references that do not resolve in the aggregated tree"`
	Init      InitCmd      `cmd:"" help:"Write a default configuration file"`
	Watch     WatchCmd     `cmd:"" help:"Regenerate navigation fragments when aggregated entry points change"`
	Daemon    DaemonCmd    `cmd:"" help:"Run aggregation and indexing periodically"`
	History   HistoryCmd   `cmd:"" help:"List recent aggregation runs"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	slog.Debug("Configuration loaded", slog.String("path", c.Config), slog.Int("subrepos", len(cfg.Subrepos)))
	return cfg, nil
}

func out(g *Global) io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}
