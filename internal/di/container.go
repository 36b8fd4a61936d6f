package di

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	contentcmd "github.com/goliatone/go-portfolio/internal/commands/content"
	"github.com/goliatone/go-portfolio/internal/content"
	"github.com/goliatone/go-portfolio/internal/coordinator"
	"github.com/goliatone/go-portfolio/internal/invalidation"
	"github.com/goliatone/go-portfolio/internal/logging"
	"github.com/goliatone/go-portfolio/internal/logging/gologger"
	"github.com/goliatone/go-portfolio/internal/markdown"
	"github.com/goliatone/go-portfolio/internal/reader"
	"github.com/goliatone/go-portfolio/internal/runtimeconfig"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
	"github.com/goliatone/go-portfolio/pkg/storage"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bundebug"
)

// Container wires the portfolio modules from a runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	registry       *content.Registry
	loggerProvider interfaces.LoggerProvider

	bunDB    *bun.DB
	ownsDB   bool
	inMemory bool

	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	repos content.RepositorySet

	planner     *invalidation.Planner
	invalidator interfaces.PathInvalidator
	redisClient *redis.Client

	now func() time.Time

	coordinator *coordinator.Coordinator
	reader      *reader.Service
	importer    *markdown.Importer
	commands    *contentcmd.HandlerSet
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB supplies an open database. The container does not close it.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithMemoryStorage backs every kind with an in-memory repository.
func WithMemoryStorage() Option {
	return func(c *Container) {
		c.inMemory = true
	}
}

// WithRegistry overrides the default kind registry.
func WithRegistry(registry *content.Registry) Option {
	return func(c *Container) {
		if registry != nil {
			c.registry = registry
		}
	}
}

// WithCache overrides the repository cache service.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithInvalidator overrides the sink selected by the invalidation config.
func WithInvalidator(invalidator interfaces.PathInvalidator) Option {
	return func(c *Container) {
		c.invalidator = invalidator
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Container) {
		if now != nil {
			c.now = now
		}
	}
}

// NewContainer validates cfg and builds every module. Storage is opened and
// migrated here, so ctx bounds the connection attempts.
func NewContainer(ctx context.Context, cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config:   cfg,
		registry: content.DefaultRegistry(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if err := c.configureStorage(ctx); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	c.configureRepositories()
	if err := c.configureInvalidation(ctx); err != nil {
		c.Close()
		return nil, err
	}
	c.configureServices()
	if err := c.configureCommands(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	logCfg := c.Config.Logging
	format := logCfg.Format
	if strings.EqualFold(strings.TrimSpace(logCfg.Provider), "console") || strings.TrimSpace(logCfg.Provider) == "" {
		format = "console"
	}
	provider, err := gologger.NewProvider(gologger.Config{
		Level:     logCfg.Level,
		Format:    format,
		AddSource: logCfg.AddSource,
	})
	if err != nil {
		return err
	}
	c.loggerProvider = provider
	return nil
}

func (c *Container) configureStorage(ctx context.Context) error {
	if c.inMemory || c.bunDB != nil {
		return nil
	}
	storageCfg := storage.Config{
		Driver: c.Config.Storage.Driver,
		DSN:    c.Config.Storage.DSN,
	}
	// sqlite allows one writer; a single connection keeps shared-cache
	// databases from reporting table locks.
	if storageCfg.Normalize().Driver == storage.DriverSQLite {
		storageCfg.MaxOpenConns = 1
	}
	db, err := storage.Open(ctx, storageCfg)
	if err != nil {
		return err
	}
	if c.Config.Storage.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	if c.Config.Storage.AutoMigrate {
		if err := storage.Migrate(ctx, db); err != nil {
			db.Close()
			return err
		}
	}
	c.bunDB = db
	c.ownsDB = true
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled || c.inMemory {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.Config.Cache.TTL > 0 {
			cfg.TTL = c.Config.Cache.TTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			logging.ContentLogger(c.loggerProvider).Warn("content.cache.disabled", "error", err)
			return
		}
		c.cacheService = service
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRepositories() {
	opts := []content.Option{
		content.WithClock(c.now),
		content.WithLogger(logging.ContentLogger(c.loggerProvider)),
	}
	if c.inMemory {
		c.repos = content.NewMemoryRepositories(c.registry, opts...)
		return
	}
	if c.cacheService != nil {
		opts = append(opts, content.WithCache(c.cacheService, c.keySerializer))
	}
	c.repos = content.NewBunRepositories(c.bunDB, c.registry, opts...)
}

func (c *Container) configureInvalidation(ctx context.Context) error {
	inv := c.Config.Invalidation
	planner, err := invalidation.NewPlanner(invalidation.Config{
		BaseURL:   inv.BaseURL,
		AdminPath: inv.AdminPath,
		Locales:   c.Config.I18N.Locales,
	})
	if err != nil {
		return err
	}
	c.planner = planner

	if c.invalidator != nil {
		return nil
	}
	logger := logging.InvalidationLogger(c.loggerProvider)
	switch strings.ToLower(strings.TrimSpace(inv.Provider)) {
	case runtimeconfig.InvalidationNone:
		c.invalidator = invalidation.Noop{}
	case runtimeconfig.InvalidationRedis:
		client, err := invalidation.ConnectRedis(ctx, invalidation.RedisConfig{
			Addr:      inv.Redis.Addr,
			Password:  inv.Redis.Password,
			DB:        inv.Redis.DB,
			KeyPrefix: inv.Redis.KeyPrefix,
		})
		if err != nil {
			return err
		}
		c.redisClient = client
		c.invalidator = invalidation.Multi{
			invalidation.NewLogInvalidator(logger),
			invalidation.NewRedisInvalidator(client, inv.Redis.KeyPrefix, logger),
		}
	default:
		c.invalidator = invalidation.NewLogInvalidator(logger)
	}
	return nil
}

func (c *Container) configureServices() {
	locales := c.Config.Locales()

	c.coordinator = coordinator.New(c.registry, c.repos,
		coordinator.WithLocales(locales),
		coordinator.WithClock(c.now),
		coordinator.WithTransactional(c.Config.Writes.Transactional),
		coordinator.WithInvalidation(c.planner, c.invalidator),
		coordinator.WithLogger(logging.CoordinatorLogger(c.loggerProvider)),
	)

	c.reader = reader.NewService(c.registry, c.repos,
		reader.WithLocales(locales),
		reader.WithLogger(logging.ContentLogger(c.loggerProvider)),
	)

	md := c.Config.Markdown
	c.importer = markdown.NewImporter(c.coordinator, c.repos, c.registry, markdown.Config{
		DefaultLocale: md.DefaultLocale,
		Loader: markdown.LoaderConfig{
			Pattern:   md.Pattern,
			Recursive: md.Recursive,
		},
	},
		markdown.WithLocales(locales),
		markdown.WithLogger(logging.MarkdownLogger(c.loggerProvider)),
	)
}

func (c *Container) configureCommands() error {
	set, err := contentcmd.RegisterContentCommands(nil, c.coordinator, c.importer, c.loggerProvider)
	if err != nil {
		return fmt.Errorf("di: register content commands: %w", err)
	}
	c.commands = set
	return nil
}

// Close releases the database and redis connections the container opened.
func (c *Container) Close() error {
	var errs []error
	if c.redisClient != nil {
		errs = append(errs, c.redisClient.Close())
		c.redisClient = nil
	}
	if c.ownsDB && c.bunDB != nil {
		errs = append(errs, c.bunDB.Close())
		c.bunDB = nil
	}
	return errors.Join(errs...)
}

// Registry exposes the kind registry.
func (c *Container) Registry() *content.Registry {
	return c.registry
}

// LoggerProvider exposes the configured logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// DB exposes the bun handle, nil with in-memory storage.
func (c *Container) DB() *bun.DB {
	return c.bunDB
}

// Repositories exposes the per-kind repositories.
func (c *Container) Repositories() content.RepositorySet {
	return c.repos
}

// Coordinator returns the write coordinator.
func (c *Container) Coordinator() *coordinator.Coordinator {
	return c.coordinator
}

// Reader returns the read service.
func (c *Container) Reader() *reader.Service {
	return c.reader
}

// Importer returns the markdown importer.
func (c *Container) Importer() *markdown.Importer {
	return c.importer
}

// Commands returns the content command handlers.
func (c *Container) Commands() *contentcmd.HandlerSet {
	return c.commands
}

// Invalidator returns the sink stale paths are reported to.
func (c *Container) Invalidator() interfaces.PathInvalidator {
	return c.invalidator
}
