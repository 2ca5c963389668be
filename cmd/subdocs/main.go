package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/dlp3d-ai/subdocs/cmd/subdocs/commands"
	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
	"github.com/dlp3d-ai/subdocs/internal/version"
)

func main() {
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("subdocs"),
		kong.Description("Aggregate subrepository documentation into a Sphinx docs tree."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)
	if err := parser.Run(&commands.Global{Logger: slog.Default(), Out: os.Stdout}, &cli); err != nil {
		os.Exit(errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err))
	}
}
