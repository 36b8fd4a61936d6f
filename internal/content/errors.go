package content

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("content: not found")
	ErrValidation        = errors.New("content: validation failed")
	ErrConflict          = errors.New("content: conflicting write")
	ErrPartialWrite      = errors.New("content: write only partially applied")
	ErrStoreUnavailable  = errors.New("content: store unavailable")
	ErrUnknownKind       = errors.New("content: unknown kind")
	ErrUnsupportedLocale = errors.New("content: unsupported locale")
	ErrTagsUnsupported   = errors.New("content: kind does not carry tags")
	ErrSlugInvalid       = errors.New("content: slug contains invalid characters")
)

// NotFoundError represents a missing base record for an id or slug.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ValidationError reports a missing or malformed shared or localized field.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	parts := []string{ErrValidation.Error()}
	if field := strings.TrimSpace(e.Field); field != "" {
		parts = append(parts, "field="+field)
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	return strings.Join(parts, ": ")
}

func (e *ValidationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Cause}
}

// StoreError wraps a persistence failure with its classification, either
// ErrConflict or ErrStoreUnavailable.
type StoreError struct {
	Op    string
	Class error
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Class, e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{e.Class, e.Err}
}

// PartialWriteError reports that the base record was written but a later
// step of the same logical write failed. The base row persists; callers retry
// the localized portion.
type PartialWriteError struct {
	Kind   string
	BaseID uuid.UUID
	Locale string
	Step   string
	Err    error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%s: kind=%s id=%s locale=%s step=%s: %v",
		ErrPartialWrite, e.Kind, e.BaseID, e.Locale, e.Step, e.Err)
}

func (e *PartialWriteError) Unwrap() []error {
	return []error{ErrPartialWrite, e.Err}
}

// IsNotFound reports whether err marks a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable reports whether the failure is transient infrastructure trouble
// that can be retried without further changes.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) && !errors.Is(err, ErrPartialWrite)
}
