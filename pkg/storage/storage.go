// Package storage opens the relational store behind the content repositories
// and applies the embedded goose migrations.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrUnsupportedDriver = errors.New("storage: unsupported driver")

//go:embed migrations
var embedMigrations embed.FS

// gooseMu serializes migrations; goose keeps its base FS and dialect in
// package globals.
var gooseMu sync.Mutex

// Config captures the connection settings for the store.
type Config struct {
	Driver string
	DSN    string
	// MaxOpenConns is applied when positive. SQLite in-memory databases need
	// a single connection to share one schema.
	MaxOpenConns int
}

// Normalize fills driver defaults.
func (c Config) Normalize() Config {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	switch c.Driver {
	case "", "sqlite3":
		c.Driver = DriverSQLite
	case "pg", "pgx", "postgresql":
		c.Driver = DriverPostgres
	}
	c.DSN = strings.TrimSpace(c.DSN)
	if c.Driver == DriverSQLite && c.DSN == "" {
		c.DSN = "file:portfolio.db?_foreign_keys=1"
	}
	return c
}

// Open connects to the configured store and returns a bun handle using the
// matching dialect. The connection is verified with a ping.
func Open(ctx context.Context, cfg Config) (*bun.DB, error) {
	cfg = cfg.Normalize()

	var (
		sqlDB *sql.DB
		db    *bun.DB
		err   error
	)
	switch cfg.Driver {
	case DriverSQLite:
		sqlDB, err = sql.Open("sqlite3", withForeignKeys(cfg.DSN))
		if err != nil {
			return nil, fmt.Errorf("storage: open sqlite: %w", err)
		}
		db = bun.NewDB(sqlDB, sqlitedialect.New())
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("storage: postgres dsn is required")
		}
		sqlDB, err = sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("storage: open postgres: %w", err)
		}
		db = bun.NewDB(sqlDB, pgdialect.New())
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, cfg.Driver)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("storage: ping %s: %w", cfg.Driver, err)
	}
	return db, nil
}

// Migrate applies every pending migration for the dialect of db.
func Migrate(ctx context.Context, db *bun.DB) error {
	if db == nil {
		return fmt.Errorf("storage: database is required")
	}
	dialect, dir, err := gooseTarget(db)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("storage: goose set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db.DB, dir); err != nil {
		return fmt.Errorf("storage: goose up: %w", err)
	}
	return nil
}

// Version reports the applied migration version.
func Version(ctx context.Context, db *bun.DB) (int64, error) {
	dialect, _, err := gooseTarget(db)
	if err != nil {
		return 0, err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("storage: goose set dialect: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, db.DB)
	if err != nil {
		return 0, fmt.Errorf("storage: goose version: %w", err)
	}
	return version, nil
}

func gooseTarget(db *bun.DB) (string, string, error) {
	switch db.Dialect().Name().String() {
	case "sqlite":
		return "sqlite3", "migrations/sqlite", nil
	case "pg":
		return "postgres", "migrations/postgres", nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedDriver, db.Dialect().Name())
	}
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=1"
	}
	if strings.HasPrefix(dsn, "file:") {
		return dsn + "?_foreign_keys=1"
	}
	return "file:" + dsn + "?_foreign_keys=1"
}
