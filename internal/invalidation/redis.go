package invalidation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-portfolio/internal/logging"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces rendered pages in the cache.
const DefaultKeyPrefix = "page:"

const scanBatch = 100

// RedisConfig holds the connection settings for the page cache.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisInvalidator purges rendered pages from a redis page cache. Keys are the
// prefix followed by the page path; variants with a query string are found by
// scanning for "<prefix><path>?*".
type RedisInvalidator struct {
	client redis.UniversalClient
	prefix string
	logger interfaces.Logger
}

var _ interfaces.PathInvalidator = (*RedisInvalidator)(nil)

// ConnectRedis opens a client and verifies it with a ping.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("invalidation: redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("invalidation: redis ping: %w", err)
	}
	return client, nil
}

// NewRedisInvalidator wraps an existing client.
func NewRedisInvalidator(client redis.UniversalClient, prefix string, logger interfaces.Logger) *RedisInvalidator {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if logger == nil {
		logger = logging.NoOp()
	}
	return &RedisInvalidator{client: client, prefix: prefix, logger: logger}
}

// Key returns the cache key of a page path.
func (r *RedisInvalidator) Key(path string) string {
	return r.prefix + path
}

func (r *RedisInvalidator) InvalidatePaths(ctx context.Context, paths []string) error {
	if r.client == nil || len(paths) == 0 {
		return nil
	}

	keys := make([]string, 0, len(paths))
	for _, path := range paths {
		keys = append(keys, r.Key(path))
	}
	var errs []error
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		errs = append(errs, fmt.Errorf("invalidation: redis del: %w", err))
	}

	deleted := 0
	for _, path := range paths {
		n, err := r.deleteMatching(ctx, r.Key(path)+"?*")
		if err != nil {
			errs = append(errs, err)
			continue
		}
		deleted += n
	}

	r.logger.Debug("invalidation.redis.purged", "paths", len(paths), "variants", deleted)
	return errors.Join(errs...)
}

func (r *RedisInvalidator) deleteMatching(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return deleted, fmt.Errorf("invalidation: redis scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return deleted, fmt.Errorf("invalidation: redis del: %w", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}
