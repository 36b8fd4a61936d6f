package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-portfolio/internal/i18n"
)

var ErrLocalesRequired = errors.New("portfolio config: at least one locale is required")
var ErrFallbackLocaleUnknown = errors.New("portfolio config: fallback locale is not a configured locale")
var ErrStorageDriverUnknown = errors.New("portfolio config: storage driver is invalid")
var ErrStorageDSNRequired = errors.New("portfolio config: storage dsn is required for postgres")
var ErrCacheTTLInvalid = errors.New("portfolio config: cache ttl must be positive when cache is enabled")
var ErrInvalidationProviderUnknown = errors.New("portfolio config: invalidation provider is invalid")
var ErrRedisAddrRequired = errors.New("portfolio config: redis address is required for the redis invalidation provider")
var ErrLoggingProviderUnknown = errors.New("portfolio config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("portfolio config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("portfolio config: logging format is invalid")
var ErrMarkdownContentDirRequired = errors.New("portfolio config: markdown content directory is required when markdown is enabled")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	InvalidationNone  = "none"
	InvalidationLog   = "log"
	InvalidationRedis = "redis"
)

// Config aggregates the adapter bindings of the portfolio content core. The
// CLI fills it from YAML and environment variables.
type Config struct {
	I18N         I18NConfig         `mapstructure:"i18n"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Invalidation InvalidationConfig `mapstructure:"invalidation"`
	Writes       WritesConfig       `mapstructure:"writes"`
	Markdown     MarkdownConfig     `mapstructure:"markdown"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// I18NConfig lists the supported locales and the fallback order tried after
// the requested locale.
type I18NConfig struct {
	Locales   []string `mapstructure:"locales"`
	Fallbacks []string `mapstructure:"fallbacks"`
}

// StorageConfig selects the database.
type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
	Debug       bool   `mapstructure:"debug"`
}

// CacheConfig captures read-through repository cache behaviour.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// InvalidationConfig selects where stale page paths are reported.
type InvalidationConfig struct {
	Provider  string      `mapstructure:"provider"`
	BaseURL   string      `mapstructure:"base_url"`
	AdminPath string      `mapstructure:"admin_path"`
	Redis     RedisConfig `mapstructure:"redis"`
}

// RedisConfig addresses the rendered page cache.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// WritesConfig controls how a save is applied.
type WritesConfig struct {
	Transactional bool `mapstructure:"transactional"`
}

// MarkdownConfig captures markdown import behaviour.
type MarkdownConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ContentDir    string `mapstructure:"content_dir"`
	Pattern       string `mapstructure:"pattern"`
	Recursive     bool   `mapstructure:"recursive"`
	DefaultLocale string `mapstructure:"default_locale"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string `mapstructure:"provider"`
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
}

// DefaultConfig returns a local sqlite setup with ko, en and ja locales.
func DefaultConfig() Config {
	return Config{
		I18N: I18NConfig{
			Locales:   append([]string(nil), i18n.DefaultLocales...),
			Fallbacks: append([]string(nil), i18n.DefaultFallbacks...),
		},
		Storage: StorageConfig{
			Driver:      DriverSQLite,
			DSN:         "file:portfolio.db?cache=shared",
			AutoMigrate: true,
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     time.Minute,
		},
		Invalidation: InvalidationConfig{
			Provider:  InvalidationLog,
			AdminPath: "/admin",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "page:",
			},
		},
		Writes: WritesConfig{
			Transactional: true,
		},
		Markdown: MarkdownConfig{
			ContentDir:    "content",
			Pattern:       "*.md",
			Recursive:     true,
			DefaultLocale: "ko",
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Locales returns the locale configuration derived from I18N.
func (cfg Config) Locales() i18n.Config {
	return i18n.FromModuleConfig(cfg.I18N.Locales, cfg.I18N.Fallbacks)
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	locales := cfg.Locales()
	if len(cfg.I18N.Locales) == 0 {
		return ErrLocalesRequired
	}
	for _, fallback := range locales.Fallbacks {
		if !locales.Supports(fallback) {
			return fmt.Errorf("%w: %s", ErrFallbackLocaleUnknown, fallback)
		}
	}

	switch driver := normalize(cfg.Storage.Driver); driver {
	case DriverSQLite:
	case DriverPostgres:
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, driver)
	}

	if cfg.Cache.Enabled && cfg.Cache.TTL <= 0 {
		return ErrCacheTTLInvalid
	}

	switch provider := normalize(cfg.Invalidation.Provider); provider {
	case "", InvalidationNone, InvalidationLog:
	case InvalidationRedis:
		if strings.TrimSpace(cfg.Invalidation.Redis.Addr) == "" {
			return ErrRedisAddrRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidationProviderUnknown, provider)
	}

	if cfg.Markdown.Enabled && strings.TrimSpace(cfg.Markdown.ContentDir) == "" {
		return ErrMarkdownContentDirRequired
	}
	if locale := strings.TrimSpace(cfg.Markdown.DefaultLocale); locale != "" && !locales.Supports(locale) {
		return fmt.Errorf("%w: markdown default %s", ErrFallbackLocaleUnknown, locale)
	}

	provider := normalize(cfg.Logging.Provider)
	if provider != "" && !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
