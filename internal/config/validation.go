package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
)

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	if err := c.validateLocales(); err != nil {
		return err
	}
	if err := c.validateSubrepos(); err != nil {
		return err
	}
	if err := c.validateRewrite(); err != nil {
		return err
	}
	return c.validateDurations()
}

func (c *Config) validateLocales() error {
	if len(c.Locales) == 0 {
		return errors.ValidationError("at least one locale must be configured").Build()
	}
	seen := make(map[string]bool, len(c.Locales))
	for _, l := range c.Locales {
		if seen[l] {
			return errors.ValidationError("duplicate locale").WithContext("locale", l).Build()
		}
		seen[l] = true
		if err := validateLocaleCode(l); err != nil {
			return err
		}
	}
	if !slices.Contains(c.Locales, c.DefaultLocale) {
		return errors.ValidationError("default locale is not in the locale list").WithContext("locale", c.DefaultLocale).Build()
	}
	return nil
}

func (c *Config) validateSubrepos() error {
	names := make(map[string]bool, len(c.Subrepos))
	for i, s := range c.Subrepos {
		if s.Name == "" {
			return errors.ValidationError(fmt.Sprintf("subrepo %d has no name", i)).Build()
		}
		if strings.ContainsAny(s.Name, `/\`) || s.Name == "." || s.Name == ".." {
			return errors.ValidationError("subrepo name must be a single path segment").WithContext("subrepo", s.Name).Build()
		}
		if names[s.Name] {
			return errors.ValidationError("duplicate subrepo name").WithContext("subrepo", s.Name).Build()
		}
		names[s.Name] = true
		if s.URL == "" {
			return errors.ValidationError("subrepo url cannot be empty").WithContext("subrepo", s.Name).Build()
		}
		if s.Auth != nil {
			if _, ok := NormalizeAuthType(s.Auth.Type); !ok {
				return errors.ValidationError("unsupported auth type").WithContext("subrepo", s.Name).WithContext("type", s.Auth.Type).Build()
			}
		}
	}
	return nil
}

func (c *Config) validateRewrite() error {
	for _, r := range c.Rewrite.Rules {
		if r.Pattern == "" {
			return errors.ValidationError("rewrite rule is neither a preset nor has a pattern").WithContext("rule", r.Name).Build()
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return errors.ValidationError("rewrite rule pattern does not compile").WithCause(err).WithContext("rule", r.Name).Build()
		}
		if re.NumSubexp() != 1 {
			return errors.ValidationError("rewrite rule pattern must have exactly one capture group").WithContext("rule", r.Name).Build()
		}
	}
	for _, ext := range c.Rewrite.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return errors.ValidationError("rewrite extension must start with a dot").WithContext("extension", ext).Build()
		}
	}
	return nil
}

func (c *Config) validateDurations() error {
	for key, raw := range map[string]string{
		"git.retry_initial_delay": c.Git.RetryInitialDelay,
		"git.retry_max_delay":     c.Git.RetryMaxDelay,
		"daemon.interval":         c.Daemon.Interval,
	} {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return errors.ValidationError("invalid duration").WithContext("field", key).WithContext("value", raw).Build()
		}
	}
	if c.Git.MaxRetries < 0 {
		return errors.ValidationError("git.max_retries cannot be negative").Build()
	}
	if NormalizeRetryBackoff(string(c.Git.RetryBackoff)) == "" {
		return errors.ValidationError("unknown retry backoff mode").WithContext("value", c.Git.RetryBackoff).Build()
	}
	return nil
}
