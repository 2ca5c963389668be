// Package rewrite adjusts shared-asset references inside copied documentation.
//
// Subrepo pages refer to their assets as "_static/<file>", relative to the
// subrepo's own docs root. Once a page is nested under
// <locale>/_subrepos/<name>/ those references must climb back to the locale
// root and point into the subrepo's private static directory
// ("../../_static/<name>/<file>"). Rules are regular expressions with exactly
// one capture group around the asset path; only the captured span is replaced.
package rewrite

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/dlp3d-ai/subdocs/internal/config"
	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
	"github.com/dlp3d-ai/subdocs/internal/logfields"
	"github.com/dlp3d-ai/subdocs/internal/markdown"
)

const staticPrefix = "_static/"

// Rule is a compiled rewrite rule.
type Rule struct {
	Name string
	re   *regexp.Regexp
}

// Rewriter applies the configured rules to files with a matching extension.
type Rewriter struct {
	rules      []Rule
	extensions map[string]struct{}
}

// Stats counts the work done on a tree.
type Stats struct {
	Files      int // files inspected
	Changed    int // files rewritten on disk
	References int // asset references rewritten
}

// New compiles the rules of a rewrite configuration. Presets referenced by
// name must already have their pattern filled in (config does that).
func New(cfg config.RewriteConfig) (*Rewriter, error) {
	r := &Rewriter{extensions: make(map[string]struct{}, len(cfg.Extensions))}
	for _, ext := range cfg.Extensions {
		r.extensions[strings.ToLower(ext)] = struct{}{}
	}
	for _, rule := range cfg.Rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, errors.ValidationError("invalid rewrite rule pattern").
				WithCause(err).
				WithContext("rule", rule.Name).
				Build()
		}
		if re.NumSubexp() != 1 {
			return nil, errors.ValidationError("rewrite rule must have exactly one capture group").
				WithContext("rule", rule.Name).
				Build()
		}
		r.rules = append(r.rules, Rule{Name: rule.Name, re: re})
	}
	return r, nil
}

// Handles reports whether files at path are subject to rewriting.
func (r *Rewriter) Handles(path string) bool {
	_, ok := r.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Depth is the number of path separators in path relative to localeRoot.
func Depth(path, localeRoot string) (int, error) {
	rel, err := filepath.Rel(localeRoot, path)
	if err != nil {
		return 0, err
	}
	if rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return 0, errors.FileSystemError("file is outside the locale root").
			WithContext("path", path).
			WithContext("locale_root", localeRoot).
			Build()
	}
	return strings.Count(rel, string(filepath.Separator)), nil
}

// AssetPath rewrites a single captured asset path for a file at depth.
// The second result is false when the path is left untouched.
func AssetPath(captured string, depth int, name string) (string, bool) {
	if !strings.HasPrefix(captured, staticPrefix) {
		return captured, false
	}
	rel := strings.TrimPrefix(captured, staticPrefix)
	if !strings.HasPrefix(rel, name+"/") {
		rel = name + "/" + rel
	}
	out := strings.Repeat("../", depth) + staticPrefix + rel
	return out, out != captured
}

// Content applies every rule to content and returns the result with the
// number of references rewritten. Overlapping matches from different rules
// are applied once, first rule wins.
func (r *Rewriter) Content(content []byte, depth int, name string) ([]byte, int, error) {
	var edits []markdown.Edit
	for _, rule := range r.rules {
		for _, m := range rule.re.FindAllSubmatchIndex(content, -1) {
			start, end := m[2], m[3]
			if start < 0 {
				continue
			}
			replacement, changed := AssetPath(string(content[start:end]), depth, name)
			if !changed {
				continue
			}
			edits = append(edits, markdown.Edit{Start: start, End: end, Replacement: []byte(replacement)})
		}
	}
	edits = dropOverlaps(edits)
	if len(edits) == 0 {
		return content, 0, nil
	}
	out, err := markdown.ApplyEdits(content, edits)
	if err != nil {
		return nil, 0, errors.InternalError("failed to apply asset rewrites").WithCause(err).Build()
	}
	return out, len(edits), nil
}

func dropOverlaps(edits []markdown.Edit) []markdown.Edit {
	if len(edits) < 2 {
		return edits
	}
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].Start < edits[j].Start })
	kept := edits[:1]
	for _, e := range edits[1:] {
		if e.Start < kept[len(kept)-1].End {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// File rewrites one file in place. The file is only written when its content
// changed; its permission bits are preserved.
func (r *Rewriter) File(path, localeRoot, name string) (int, error) {
	depth, err := Depth(path, localeRoot)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.FileSystemError("failed to stat file").WithCause(err).WithContext("path", path).Build()
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return 0, errors.FileSystemError("failed to read file").WithCause(err).WithContext("path", path).Build()
	}
	out, n, err := r.Content(content, depth, name)
	if err != nil || n == 0 {
		return 0, err
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return 0, errors.FileSystemError("failed to write file").WithCause(err).WithContext("path", path).Build()
	}
	slog.Debug("Rewrote asset references", logfields.Subrepo(name), logfields.Path(path), slog.Int("references", n))
	return n, nil
}

// Tree rewrites every handled file below dir.
func (r *Rewriter) Tree(dir, localeRoot, name string) (Stats, error) {
	var stats Stats
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() || !r.Handles(path) {
			return nil
		}
		stats.Files++
		n, ferr := r.File(path, localeRoot, name)
		if ferr != nil {
			return ferr
		}
		if n > 0 {
			stats.Changed++
			stats.References += n
		}
		return nil
	})
	if err != nil {
		if _, ok := errors.AsClassified(err); ok {
			return stats, err
		}
		return stats, errors.FileSystemError("failed to walk tree").WithCause(err).WithContext("path", dir).Build()
	}
	return stats, nil
}
