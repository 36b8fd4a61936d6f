package content

import (
	"database/sql"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// classifyStoreError maps driver errors onto the content error kinds.
// Missing rows become NotFoundError, unique violations ErrConflict, and
// anything else is treated as the store being unavailable.
func classifyStoreError(op, resource, key string, err error) error {
	if err == nil {
		return nil
	}

	var (
		notFound   *NotFoundError
		validation *ValidationError
		storeErr   *StoreError
	)
	if errors.As(err, &notFound) || errors.As(err, &validation) || errors.As(err, &storeErr) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) || goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return &StoreError{Op: op, Class: ErrConflict, Err: err}
		case sqlite3.ErrConstraintForeignKey:
			return &NotFoundError{Resource: resource, Key: key}
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &StoreError{Op: op, Class: ErrConflict, Err: err}
		case pgForeignKeyViolation:
			return &NotFoundError{Resource: resource, Key: key}
		}
	}

	return &StoreError{Op: op, Class: ErrStoreUnavailable, Err: err}
}
