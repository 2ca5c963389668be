package config

import (
	"os"
	"slices"

	"golang.org/x/text/language"

	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
)

// LookupEnv matches os.LookupEnv so tests can inject an environment.
type LookupEnv func(string) (string, bool)

// ActiveLocale resolves the locale for a single-locale run: the explicit value
// if given, else the configured environment variable, else the default locale.
// The result must be one of the configured locales.
func (c *Config) ActiveLocale(explicit string, lookup LookupEnv) (string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	locale := explicit
	if locale == "" {
		if v, ok := lookup(c.LocaleEnv); ok && v != "" {
			locale = v
		}
	}
	if locale == "" {
		locale = c.DefaultLocale
	}
	if !slices.Contains(c.Locales, locale) {
		return "", errors.ValidationError("locale is not configured").
			WithContext("locale", locale).
			WithContext("locales", c.Locales).
			Build()
	}
	return locale, nil
}

// validateLocaleCode checks that code is a well-formed BCP 47 tag.
func validateLocaleCode(code string) error {
	if _, err := language.Parse(code); err != nil {
		return errors.ValidationError("invalid locale code").WithCause(err).WithContext("locale", code).Build()
	}
	return nil
}
