// Package watch regenerates navigation fragments when aggregated subrepo
// entry points appear or disappear.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dlp3d-ai/subdocs/internal/config"
	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
	"github.com/dlp3d-ai/subdocs/internal/logfields"
	"github.com/dlp3d-ai/subdocs/internal/navindex"
)

// DefaultDebounce collapses the burst of events an aggregation run produces.
const DefaultDebounce = 500 * time.Millisecond

// Generator writes the navigation fragment of a locale.
type Generator interface {
	Write(locale string) (*navindex.Result, error)
}

// Watcher monitors <docs>/<locale>/_subrepos and one level below it.
type Watcher struct {
	cfg       *config.Config
	gen       Generator
	locales   []string
	debounce  time.Duration
	onResult  func(*navindex.Result)
	fsWatcher *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before regenerating.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithResultHandler is called after every regeneration.
func WithResultHandler(fn func(*navindex.Result)) Option { return func(w *Watcher) { w.onResult = fn } }

// New creates a watcher for the given locales.
func New(cfg *config.Config, gen Generator, locales []string, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.InternalError("failed to create file watcher").WithCause(err).Build()
	}
	w := &Watcher{cfg: cfg, gen: gen, locales: locales, debounce: DefaultDebounce, fsWatcher: fw}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run regenerates every locale once, then on changes, until ctx is done.
// All regenerations happen on the calling goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.fsWatcher.Close(); err != nil {
			slog.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	for _, locale := range w.locales {
		if err := w.watchLocale(locale); err != nil {
			return err
		}
		w.regenerate(locale)
	}
	slog.Info("Watching aggregated docs", slog.Any("locales", w.locales))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := map[string]struct{}{}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			locale, relevant := w.handle(event)
			if !relevant {
				continue
			}
			slog.Debug("Entry point change detected", logfields.Locale(locale), logfields.Path(event.Name), slog.String("op", event.Op.String()))
			pending[locale] = struct{}{}
			timer.Reset(w.debounce)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("Watcher error", logfields.Error(err))
		case <-timer.C:
			locales := make([]string, 0, len(pending))
			for l := range pending {
				locales = append(locales, l)
			}
			slices.Sort(locales)
			clear(pending)
			for _, l := range locales {
				w.regenerate(l)
			}
		}
	}
}

func (w *Watcher) watchLocale(locale string) error {
	root := w.cfg.AggregateRoot(locale)
	if err := os.MkdirAll(root, 0o750); err != nil {
		return errors.FileSystemError("failed to create aggregate directory").WithCause(err).WithContext("path", root).Build()
	}
	if err := w.fsWatcher.Add(root); err != nil {
		return errors.FileSystemError("failed to watch directory").WithCause(err).WithContext("path", root).Build()
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return errors.FileSystemError("failed to list aggregate directory").WithCause(err).WithContext("path", root).Build()
	}
	for _, e := range entries {
		if e.IsDir() {
			w.addDir(filepath.Join(root, e.Name()))
		}
	}
	return nil
}

func (w *Watcher) addDir(dir string) {
	if err := w.fsWatcher.Add(dir); err != nil {
		slog.Warn("Failed to watch subrepo directory", logfields.Path(dir), logfields.Error(err))
	}
}

// handle maps an event to its locale and reports whether it can change the
// fragment: a subrepo directory coming or going, or an entry point file event.
func (w *Watcher) handle(event fsnotify.Event) (string, bool) {
	for _, locale := range w.locales {
		root := w.cfg.AggregateRoot(locale)
		rel, err := filepath.Rel(root, event.Name)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		parts := strings.Split(rel, string(filepath.Separator))
		switch {
		case len(parts) == 1:
			if event.Has(fsnotify.Create) {
				if info, serr := os.Stat(event.Name); serr == nil && info.IsDir() {
					w.addDir(event.Name)
				}
			}
			return locale, true
		case len(parts) == 2 && parts[1] == config.IndexFile:
			return locale, event.Op != fsnotify.Chmod
		}
		return "", false
	}
	return "", false
}

func (w *Watcher) regenerate(locale string) {
	res, err := w.gen.Write(locale)
	if err != nil {
		slog.Error("Failed to regenerate navigation fragment", logfields.Locale(locale), logfields.Error(err))
		return
	}
	if w.onResult != nil {
		w.onResult(res)
	}
}
