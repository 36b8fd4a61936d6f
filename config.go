package portfolio

import "github.com/goliatone/go-portfolio/internal/runtimeconfig"

var (
	ErrLocalesRequired             = runtimeconfig.ErrLocalesRequired
	ErrFallbackLocaleUnknown       = runtimeconfig.ErrFallbackLocaleUnknown
	ErrStorageDriverUnknown        = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired          = runtimeconfig.ErrStorageDSNRequired
	ErrCacheTTLInvalid             = runtimeconfig.ErrCacheTTLInvalid
	ErrInvalidationProviderUnknown = runtimeconfig.ErrInvalidationProviderUnknown
	ErrRedisAddrRequired           = runtimeconfig.ErrRedisAddrRequired
	ErrLoggingProviderUnknown      = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid         = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid        = runtimeconfig.ErrLoggingFormatInvalid
	ErrMarkdownContentDirRequired  = runtimeconfig.ErrMarkdownContentDirRequired
)

type (
	Config             = runtimeconfig.Config
	I18NConfig         = runtimeconfig.I18NConfig
	StorageConfig      = runtimeconfig.StorageConfig
	CacheConfig        = runtimeconfig.CacheConfig
	InvalidationConfig = runtimeconfig.InvalidationConfig
	RedisConfig        = runtimeconfig.RedisConfig
	WritesConfig       = runtimeconfig.WritesConfig
	MarkdownConfig     = runtimeconfig.MarkdownConfig
	LoggingConfig      = runtimeconfig.LoggingConfig
)

// DefaultConfig returns a local sqlite setup serving ko, en and ja.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
