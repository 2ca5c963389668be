package commands

import (
	"io"
	"os"

	"github.com/dlp3d-ai/subdocs/internal/config"
)

// IndexCmd implements the 'index' command.
type IndexCmd struct {
	Locale string `short:"l" help:"Locale to index (default: $READTHEDOCS_LANGUAGE, then default_locale)"`
	All    bool   `help:"Index every configured locale"`
}

func (i *IndexCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	locales, err := selectLocales(cfg, i.Locale, i.All, os.LookupEnv)
	if err != nil {
		return err
	}
	return RunIndex(out(g), cfg, locales)
}

// RunIndex regenerates the navigation fragment of each locale.
func RunIndex(w io.Writer, cfg *config.Config, locales []string) error {
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	results, err := rt.index(locales)
	printIndexResults(w, results)
	return err
}

// selectLocales returns every configured locale when all is set, otherwise
// the single active locale.
func selectLocales(cfg *config.Config, explicit string, all bool, lookup config.LookupEnv) ([]string, error) {
	if all {
		return cfg.Locales, nil
	}
	locale, err := cfg.ActiveLocale(explicit, lookup)
	if err != nil {
		return nil, err
	}
	return []string{locale}, nil
}
