package commands

import (
	"io"
	"os"

	"github.com/dlp3d-ai/subdocs/internal/assetcheck"
	"github.com/dlp3d-ai/subdocs/internal/config"
	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Locale string `short:"l" help:"Locale to check (default: $READTHEDOCS_LANGUAGE, then default_locale)"`
	All    bool   `help:"Check every configured locale"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	locales, err := selectLocales(cfg, c.Locale, c.All, os.LookupEnv)
	if err != nil {
		return err
	}
	return RunCheck(out(g), cfg, locales)
}

// RunCheck reports unresolved asset references and fails if any were found.
func RunCheck(w io.Writer, cfg *config.Config, locales []string) error {
	checker := assetcheck.New(cfg)
	unresolved := 0
	for _, locale := range locales {
		report, err := checker.Check(locale)
		if err != nil {
			return err
		}
		printCheckReport(w, report)
		unresolved += len(report.Problems)
	}
	if unresolved > 0 {
		return errors.NewError(errors.CategoryDocs, "unresolved asset references").
			WithContext("count", unresolved).
			Build()
	}
	return nil
}
