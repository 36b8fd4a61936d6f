package i18n

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultLocales is the locale set this site ships with.
var DefaultLocales = []string{"ko", "en", "ja"}

// DefaultFallbacks is the fallback order tried after the requested locale.
// The order is fixed regardless of the requested locale.
var DefaultFallbacks = []string{"ko", "en"}

var (
	ErrNoLocales       = errors.New("i18n: at least one locale is required")
	ErrUnknownFallback = errors.New("i18n: fallback locale is not a configured locale")
)

// Config captures the supported locales and the ordered fallback list.
type Config struct {
	Locales   []string
	Fallbacks []string
}

// DefaultConfig returns the shipped locale set with the ko then en fallback order.
func DefaultConfig() Config {
	return Config{
		Locales:   append([]string(nil), DefaultLocales...),
		Fallbacks: append([]string(nil), DefaultFallbacks...),
	}
}

// FromModuleConfig builds a Config from runtime configuration values, keeping
// the default fallback order when none is configured.
func FromModuleConfig(locales, fallbacks []string) Config {
	cfg := Config{
		Locales:   normalizeList(locales),
		Fallbacks: normalizeList(fallbacks),
	}
	if len(cfg.Locales) == 0 {
		cfg.Locales = append([]string(nil), DefaultLocales...)
	}
	if fallbacks == nil {
		cfg.Fallbacks = append([]string(nil), DefaultFallbacks...)
	}
	return cfg
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if len(normalizeList(c.Locales)) == 0 {
		return ErrNoLocales
	}
	for _, fallback := range normalizeList(c.Fallbacks) {
		if !c.Supports(fallback) {
			return fmt.Errorf("%w: %s", ErrUnknownFallback, fallback)
		}
	}
	return nil
}

// Supports reports whether the locale belongs to the configured set.
func (c Config) Supports(locale string) bool {
	locale = Normalize(locale)
	if locale == "" {
		return false
	}
	for _, candidate := range c.Locales {
		if Normalize(candidate) == locale {
			return true
		}
	}
	return false
}

// Chain returns the locale chain for a request under this configuration.
func (c Config) Chain(requested string) Chain {
	return NewChain(requested, c.Fallbacks...)
}

// Normalize lower-cases and trims a locale code.
func Normalize(locale string) string {
	return strings.ToLower(strings.TrimSpace(locale))
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if normalized := Normalize(value); normalized != "" {
			out = append(out, normalized)
		}
	}
	return out
}
