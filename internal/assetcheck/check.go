// Package assetcheck verifies that relative asset references in aggregated
// documentation resolve to files on disk.
package assetcheck

import (
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dlp3d-ai/subdocs/internal/config"
	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
	"github.com/dlp3d-ai/subdocs/internal/logfields"
	"github.com/dlp3d-ai/subdocs/internal/markdown"
)

// Problem is an asset reference that does not resolve.
type Problem struct {
	Subrepo     string
	File        string // relative to the locale root
	Destination string
	Kind        markdown.RefKind
}

// Report summarises a check of one locale.
type Report struct {
	Locale     string
	Files      int
	References int
	Problems   []Problem
}

// OK reports whether every reference resolved.
func (r *Report) OK() bool { return len(r.Problems) == 0 }

// Checker scans the aggregated tree of a locale.
type Checker struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Checker { return &Checker{cfg: cfg} }

// Check inspects every markup file of every registered subrepo for locale.
// Subrepos without an aggregated directory are skipped.
func (c *Checker) Check(locale string) (*Report, error) {
	report := &Report{Locale: locale}
	localeRoot := c.cfg.LocaleDir(locale)
	exts := make(map[string]bool, len(c.cfg.Rewrite.Extensions))
	for _, e := range c.cfg.Rewrite.Extensions {
		exts[strings.ToLower(e)] = true
	}

	for _, sub := range c.cfg.Subrepos {
		dir := c.cfg.SubrepoTarget(locale, sub.Name)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			slog.Debug("Nothing aggregated, skipping check", logfields.Subrepo(sub.Name), logfields.Locale(locale))
			continue
		}
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !exts[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			body, rerr := os.ReadFile(filepath.Clean(path))
			if rerr != nil {
				return rerr
			}
			report.Files++
			rel, _ := filepath.Rel(localeRoot, path)
			for _, ref := range markdown.ExtractAssetRefs(body) {
				target, ok := localTarget(ref.Destination)
				if !ok {
					continue
				}
				report.References++
				if !c.resolves(localeRoot, filepath.Join(filepath.Dir(path), target)) {
					report.Problems = append(report.Problems, Problem{
						Subrepo:     sub.Name,
						File:        filepath.ToSlash(rel),
						Destination: ref.Destination,
						Kind:        ref.Kind,
					})
				}
			}
			return nil
		})
		if err != nil {
			return nil, errors.FileSystemError("failed to scan aggregated docs").
				WithCause(err).
				WithContext("path", dir).
				Build()
		}
	}

	sort.SliceStable(report.Problems, func(i, j int) bool { return report.Problems[i].File < report.Problems[j].File })
	for _, p := range report.Problems {
		slog.Warn("Unresolved asset reference", logfields.Subrepo(p.Subrepo), logfields.Locale(locale), logfields.Path(p.File), slog.String("ref", p.Destination))
	}
	return report, nil
}

// resolves reports whether a referenced file exists. The locale directory is
// the Sphinx source root, so references that climb to <locale>/<static_dir>
// are served from the shared <docs>/<static_dir>.
func (c *Checker) resolves(localeRoot, target string) bool {
	if _, err := os.Stat(target); err == nil {
		return true
	}
	rel, err := filepath.Rel(localeRoot, target)
	if err != nil || !strings.HasPrefix(rel, c.cfg.StaticDir+string(filepath.Separator)) {
		return false
	}
	_, err = os.Stat(filepath.Join(c.cfg.DocsDir, rel))
	return err == nil
}

// localTarget returns the filesystem path of a relative reference. Absolute
// URLs, site-absolute paths, data URIs and fragment-only links are ignored.
func localTarget(dest string) (string, bool) {
	dest = strings.TrimSpace(dest)
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "/") {
		return "", false
	}
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	if u.Path == "" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}
