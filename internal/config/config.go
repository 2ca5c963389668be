package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
)

// Config represents the application configuration.
type Config struct {
	DocsDir       string   `yaml:"docs_dir" toml:"docs_dir"`
	CloneDir      string   `yaml:"clone_dir,omitempty" toml:"clone_dir"`
	AggregateDir  string   `yaml:"aggregate_dir,omitempty" toml:"aggregate_dir"`
	StaticDir     string   `yaml:"static_dir,omitempty" toml:"static_dir"`
	FragmentFile  string   `yaml:"fragment_file,omitempty" toml:"fragment_file"`
	Locales       []string `yaml:"locales" toml:"locales"`
	DefaultLocale string   `yaml:"default_locale,omitempty" toml:"default_locale"`
	LocaleEnv     string   `yaml:"locale_env,omitempty" toml:"locale_env"`

	Subrepos   []Subrepo        `yaml:"subrepos" toml:"subrepos"`
	Rewrite    RewriteConfig    `yaml:"rewrite,omitempty" toml:"rewrite"`
	Navigation NavigationConfig `yaml:"navigation,omitempty" toml:"navigation"`
	Git        GitConfig        `yaml:"git,omitempty" toml:"git"`
	Daemon     DaemonConfig     `yaml:"daemon,omitempty" toml:"daemon"`
	Metrics    MetricsConfig    `yaml:"metrics,omitempty" toml:"metrics"`
	History    HistoryConfig    `yaml:"history,omitempty" toml:"history"`
}

// Subrepo is the single registry record shared by the aggregator and the
// navigation index generator.
type Subrepo struct {
	Name     string      `yaml:"name" toml:"name"`
	URL      string      `yaml:"url" toml:"url"`
	Caption  string      `yaml:"caption,omitempty" toml:"caption"`
	Branch   string      `yaml:"branch,omitempty" toml:"branch"`
	DocsPath string      `yaml:"docs_path,omitempty" toml:"docs_path"` // defaults to "docs"
	Auth     *AuthConfig `yaml:"auth,omitempty" toml:"auth"`
}

// AuthConfig represents authentication configuration for a subrepo remote.
type AuthConfig struct {
	Type     string `yaml:"type" toml:"type"` // "none", "ssh", "token", "basic"
	Username string `yaml:"username,omitempty" toml:"username"`
	Password string `yaml:"password,omitempty" toml:"password"`
	Token    string `yaml:"token,omitempty" toml:"token"`
	KeyPath  string `yaml:"key_path,omitempty" toml:"key_path"`
}

// RewriteConfig controls which copied files are rewritten and with which rules.
type RewriteConfig struct {
	Extensions []string      `yaml:"extensions,omitempty" toml:"extensions"`
	Rules      []RewriteRule `yaml:"rules,omitempty" toml:"rules"`
}

// RewriteRule names a preset or supplies a custom pattern. The pattern must
// contain exactly one capture group holding the asset path.
type RewriteRule struct {
	Name    string `yaml:"name" toml:"name"`
	Pattern string `yaml:"pattern,omitempty" toml:"pattern"`
}

// NavigationConfig controls the toctree blocks of the navigation fragment.
type NavigationConfig struct {
	MaxDepth int   `yaml:"max_depth,omitempty" toml:"max_depth"`
	Hidden   *bool `yaml:"hidden,omitempty" toml:"hidden"`
}

// IsHidden reports whether generated toctree blocks carry the :hidden: option.
func (n NavigationConfig) IsHidden() bool { return n.Hidden == nil || *n.Hidden }

// GitConfig holds clone/update behaviour.
type GitConfig struct {
	MaxRetries         int              `yaml:"max_retries,omitempty" toml:"max_retries"`
	RetryBackoff       RetryBackoffMode `yaml:"retry_backoff,omitempty" toml:"retry_backoff"`
	RetryInitialDelay  string           `yaml:"retry_initial_delay,omitempty" toml:"retry_initial_delay"`
	RetryMaxDelay      string           `yaml:"retry_max_delay,omitempty" toml:"retry_max_delay"`
	ShallowDepth       int              `yaml:"shallow_depth,omitempty" toml:"shallow_depth"`
	HardResetOnDiverge bool             `yaml:"hard_reset_on_diverge,omitempty" toml:"hard_reset_on_diverge"`
}

// DaemonConfig configures periodic aggregation.
type DaemonConfig struct {
	Interval string `yaml:"interval,omitempty" toml:"interval"`
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty" toml:"textfile"`
}

// HistoryConfig configures the run history database.
type HistoryConfig struct {
	DB string `yaml:"db,omitempty" toml:"db"`
}

// Load reads, expands, defaults and validates the configuration at configPath.
// Relative directories are resolved against the directory holding the file.
func Load(configPath string) (*Config, error) {
	loadEnvFile()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithCause(err).
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.ConfigError("failed to read config file").WithCause(err).WithContext("path", configPath).Build()
	}

	cfg, err := Parse(data, formatFor(configPath))
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(configPath))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Format identifies the configuration file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func formatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Parse decodes raw configuration bytes, expanding ${VAR} references and
// applying defaults. It does not validate.
func Parse(data []byte, format Format) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, errors.ConfigError("failed to decode TOML config").WithCause(err).Build()
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
			return nil, errors.ConfigError("failed to decode YAML config").WithCause(err).Build()
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) resolvePaths(base string) {
	if base == "" || base == "." {
		return
	}
	if !filepath.IsAbs(c.DocsDir) {
		c.DocsDir = filepath.Join(base, c.DocsDir)
	}
	if c.CloneDir != "" && !filepath.IsAbs(c.CloneDir) {
		c.CloneDir = filepath.Join(base, c.CloneDir)
	}
	if c.History.DB != "" && c.History.DB != ":memory:" && !filepath.IsAbs(c.History.DB) {
		c.History.DB = filepath.Join(base, c.History.DB)
	}
	if c.Metrics.Textfile != "" && !filepath.IsAbs(c.Metrics.Textfile) {
		c.Metrics.Textfile = filepath.Join(base, c.Metrics.Textfile)
	}
}

// Init writes the default configuration to configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	cfg := Default()
	var (
		data []byte
		err  error
	)
	if formatFor(configPath) == FormatTOML {
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(cfg)
		data = buf.Bytes()
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return errors.InternalError("failed to encode default config").WithCause(err).Build()
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.FileSystemError("failed to create config directory").WithCause(err).WithContext("path", dir).Build()
		}
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.FileSystemError("failed to write config file").WithCause(err).WithContext("path", configPath).Build()
	}
	return nil
}

// SubrepoByName returns the registry record with the given name.
func (c *Config) SubrepoByName(name string) (Subrepo, bool) {
	for _, s := range c.Subrepos {
		if s.Name == name {
			return s, true
		}
	}
	return Subrepo{}, false
}

// LocaleDir is the root of one locale's documentation tree.
func (c *Config) LocaleDir(locale string) string { return filepath.Join(c.DocsDir, locale) }

// AggregateRoot is the directory holding every aggregated subrepo for a locale.
func (c *Config) AggregateRoot(locale string) string {
	return filepath.Join(c.LocaleDir(locale), c.AggregateDir)
}

// SubrepoTarget is the aggregated copy of one subrepo for a locale.
func (c *Config) SubrepoTarget(locale, name string) string {
	return filepath.Join(c.AggregateRoot(locale), name)
}

// StaticTarget is the private copy of a subrepo's shared static assets.
func (c *Config) StaticTarget(name string) string {
	return filepath.Join(c.DocsDir, c.StaticDir, name)
}

// FragmentPath is the navigation fragment location for a locale.
func (c *Config) FragmentPath(locale string) string {
	return filepath.Join(c.LocaleDir(locale), c.FragmentFile)
}
