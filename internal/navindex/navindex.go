// Package navindex generates the Sphinx/MyST navigation fragment that links
// the aggregated subrepo documentation into a locale's table of contents.
package navindex

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dlp3d-ai/subdocs/internal/config"
	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
	"github.com/dlp3d-ai/subdocs/internal/logfields"
)

// Generator builds navigation fragments from the shared subrepo registry.
type Generator struct {
	cfg *config.Config
}

// Result describes one generation.
type Result struct {
	Locale   string
	Path     string
	Content  string
	Included []string // subrepo names with an entry point, registry order
	Missing  []string // subrepo names without one
	Written  bool     // false when the existing fragment already matched
}

func New(cfg *config.Config) *Generator { return &Generator{cfg: cfg} }

// Generate builds the fragment for locale without writing it.
func (g *Generator) Generate(locale string) (*Result, error) {
	if locale == "" {
		return nil, errors.ValidationError("locale must not be empty").Build()
	}
	res := &Result{Locale: locale, Path: g.cfg.FragmentPath(locale)}

	var lines []string
	for _, sub := range g.cfg.Subrepos {
		entry := filepath.Join(g.cfg.SubrepoTarget(locale, sub.Name), config.IndexFile)
		info, err := os.Stat(entry)
		if err != nil || info.IsDir() {
			slog.Warn(fmt.Sprintf("%s index file not found", sub.Name), logfields.Subrepo(sub.Name), logfields.Locale(locale), logfields.Path(entry))
			res.Missing = append(res.Missing, sub.Name)
			continue
		}
		lines = append(lines, g.block(sub)...)
		res.Included = append(res.Included, sub.Name)
	}
	res.Content = strings.Join(lines, "\n") + "\n"
	return res, nil
}

func (g *Generator) block(sub config.Subrepo) []string {
	lines := []string{"```{toctree}"}
	if g.cfg.Navigation.IsHidden() {
		lines = append(lines, ":hidden:")
	}
	caption := sub.Caption
	if caption == "" {
		caption = sub.Name
	}
	return append(lines,
		":caption: "+caption,
		fmt.Sprintf(":maxdepth: %d", g.cfg.Navigation.MaxDepth),
		path.Join(g.cfg.AggregateDir, sub.Name, config.IndexFile),
		"```",
	)
}

// Write generates the fragment for locale and writes it unless the file on
// disk already holds the same bytes.
func (g *Generator) Write(locale string) (*Result, error) {
	res, err := g.Generate(locale)
	if err != nil {
		return nil, err
	}

	if existing, rerr := os.ReadFile(res.Path); rerr == nil && bytes.Equal(existing, []byte(res.Content)) {
		slog.Info("content unchanged, skipping rewrite", logfields.Locale(locale), logfields.Path(res.Path))
		return res, nil
	}

	if err := os.MkdirAll(filepath.Dir(res.Path), 0o750); err != nil {
		return nil, errors.FileSystemError("failed to create locale directory").WithCause(err).WithContext("path", res.Path).Build()
	}
	if err := os.WriteFile(res.Path, []byte(res.Content), 0o644); err != nil { //nolint:gosec // docs are world readable
		return nil, errors.FileSystemError("failed to write navigation fragment").WithCause(err).WithContext("path", res.Path).Build()
	}
	res.Written = true
	slog.Info(fmt.Sprintf("Generated %d subrepo entries", len(res.Included)), logfields.Locale(locale), logfields.Path(res.Path))
	return res, nil
}
