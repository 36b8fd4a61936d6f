package testsupport

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/goliatone/go-portfolio/pkg/storage"
	"github.com/uptrace/bun"
)

var memoryDBSeq atomic.Int64

// NewMigratedDB opens a private in-memory SQLite database, applies the
// embedded migrations and closes it when the test ends.
func NewMigratedDB(t testing.TB) *bun.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=1", name, memoryDBSeq.Add(1))

	ctx := context.Background()
	db, err := storage.Open(ctx, storage.Config{
		Driver:       storage.DriverSQLite,
		DSN:          dsn,
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := storage.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
