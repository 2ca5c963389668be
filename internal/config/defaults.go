package config

import "path/filepath"

// Built-in values used when the configuration leaves a field empty.
const (
	DefaultDocsDir       = "docs"
	DefaultAggregateDir  = "_subrepos"
	DefaultStaticDir     = "_static"
	DefaultFragmentFile  = "_subrepos_index.md"
	DefaultLocale        = "en"
	DefaultLocaleEnv     = "READTHEDOCS_LANGUAGE"
	DefaultDocsPath      = "docs"
	DefaultMaxDepth      = 2
	DefaultDaemonPeriod  = "1h"
	DefaultRetryInitial  = "500ms"
	DefaultRetryMaxDelay = "10s"

	// IndexFile is the entry-point document expected in every aggregated subrepo.
	IndexFile = "index.md"
)

// DefaultLocales lists the locales processed when none are configured.
var DefaultLocales = []string{"en", "zh-cn"}

// DefaultRewriteExtensions selects the markup files whose asset references are rewritten.
var DefaultRewriteExtensions = []string{".md"}

// RewritePresets maps preset rule names to their patterns.
var RewritePresets = map[string]string{
	"html-src":        `src="(_static/[^"]+)"`,
	"html-src-single": `src='(_static/[^']+)'`,
	"markdown-image":  `!\[[^\]]*\]\((_static/[^)\s]+)`,
}

// DefaultRewriteRule is applied when no rules are configured.
const DefaultRewriteRule = "html-src"

// Default returns the configuration written by `subdocs init`.
func Default() *Config {
	cfg := &Config{
		DocsDir: DefaultDocsDir,
		Locales: append([]string(nil), DefaultLocales...),
		Subrepos: []Subrepo{
			{Name: "MotionDataViewer", URL: "https://github.com/dlp3d-ai/dlp3d_MotionDataViewer.git", Caption: "Motion Data Viewer"},
			{Name: "orchestrator", URL: "https://github.com/dlp3d-ai/orchestrator.git", Caption: "Orchestrator"},
			{Name: "web_backend", URL: "https://github.com/dlp3d-ai/web_backend.git", Caption: "Web Backend"},
			{Name: "speech2motion", URL: "https://github.com/dlp3d-ai/speech2motion.git", Caption: "Speech2Motion"},
			{Name: "audio2face", URL: "https://github.com/dlp3d-ai/audio2face.git", Caption: "Audio2Face"},
		},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.DocsDir == "" {
		c.DocsDir = DefaultDocsDir
	}
	if c.AggregateDir == "" {
		c.AggregateDir = DefaultAggregateDir
	}
	if c.CloneDir == "" {
		c.CloneDir = filepath.Join(c.DocsDir, DefaultAggregateDir)
	}
	if c.StaticDir == "" {
		c.StaticDir = DefaultStaticDir
	}
	if c.FragmentFile == "" {
		c.FragmentFile = DefaultFragmentFile
	}
	if len(c.Locales) == 0 {
		c.Locales = append([]string(nil), DefaultLocales...)
	}
	if c.DefaultLocale == "" {
		c.DefaultLocale = DefaultLocale
	}
	if c.LocaleEnv == "" {
		c.LocaleEnv = DefaultLocaleEnv
	}
	for i := range c.Subrepos {
		if c.Subrepos[i].Caption == "" {
			c.Subrepos[i].Caption = c.Subrepos[i].Name
		}
		if c.Subrepos[i].DocsPath == "" {
			c.Subrepos[i].DocsPath = DefaultDocsPath
		}
	}
	if len(c.Rewrite.Extensions) == 0 {
		c.Rewrite.Extensions = append([]string(nil), DefaultRewriteExtensions...)
	}
	if len(c.Rewrite.Rules) == 0 {
		c.Rewrite.Rules = []RewriteRule{{Name: DefaultRewriteRule}}
	}
	for i, r := range c.Rewrite.Rules {
		if r.Pattern == "" {
			c.Rewrite.Rules[i].Pattern = RewritePresets[r.Name]
		}
	}
	if c.Navigation.MaxDepth == 0 {
		c.Navigation.MaxDepth = DefaultMaxDepth
	}
	if mode := NormalizeRetryBackoff(string(c.Git.RetryBackoff)); mode != "" {
		c.Git.RetryBackoff = mode
	} else if c.Git.RetryBackoff == "" {
		c.Git.RetryBackoff = RetryBackoffLinear
	}
	if c.Git.RetryInitialDelay == "" {
		c.Git.RetryInitialDelay = DefaultRetryInitial
	}
	if c.Git.RetryMaxDelay == "" {
		c.Git.RetryMaxDelay = DefaultRetryMaxDelay
	}
	if c.Daemon.Interval == "" {
		c.Daemon.Interval = DefaultDaemonPeriod
	}
}
