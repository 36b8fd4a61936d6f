package main

import (
	"errors"
	"fmt"
	"strings"

	portfolio "github.com/goliatone/go-portfolio"
	"github.com/spf13/viper"
)

const (
	configFileName = "portfolio"
	configFileType = "yaml"
	envPrefix      = "PORTFOLIO"
)

// loadConfig reads the YAML file at path, or portfolio.yaml from the working
// directory when path is empty, and overlays PORTFOLIO_* environment
// variables. A missing default file is not an error.
func loadConfig(path string) (portfolio.Config, error) {
	v := viper.New()
	setDefaults(v, portfolio.DefaultConfig())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return portfolio.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg portfolio.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return portfolio.Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so environment variables can override keys
// the file leaves out.
func setDefaults(v *viper.Viper, cfg portfolio.Config) {
	v.SetDefault("i18n.locales", cfg.I18N.Locales)
	v.SetDefault("i18n.fallbacks", cfg.I18N.Fallbacks)

	v.SetDefault("storage.driver", cfg.Storage.Driver)
	v.SetDefault("storage.dsn", cfg.Storage.DSN)
	v.SetDefault("storage.auto_migrate", cfg.Storage.AutoMigrate)
	v.SetDefault("storage.debug", cfg.Storage.Debug)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)

	v.SetDefault("invalidation.provider", cfg.Invalidation.Provider)
	v.SetDefault("invalidation.base_url", cfg.Invalidation.BaseURL)
	v.SetDefault("invalidation.admin_path", cfg.Invalidation.AdminPath)
	v.SetDefault("invalidation.redis.addr", cfg.Invalidation.Redis.Addr)
	v.SetDefault("invalidation.redis.password", cfg.Invalidation.Redis.Password)
	v.SetDefault("invalidation.redis.db", cfg.Invalidation.Redis.DB)
	v.SetDefault("invalidation.redis.key_prefix", cfg.Invalidation.Redis.KeyPrefix)

	v.SetDefault("writes.transactional", cfg.Writes.Transactional)

	v.SetDefault("markdown.enabled", cfg.Markdown.Enabled)
	v.SetDefault("markdown.content_dir", cfg.Markdown.ContentDir)
	v.SetDefault("markdown.pattern", cfg.Markdown.Pattern)
	v.SetDefault("markdown.recursive", cfg.Markdown.Recursive)
	v.SetDefault("markdown.default_locale", cfg.Markdown.DefaultLocale)

	v.SetDefault("logging.provider", cfg.Logging.Provider)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.add_source", cfg.Logging.AddSource)
}
