package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-portfolio/internal/content"
)

// Text codes attached to command failures.
const (
	CodeContentValidation  = "CONTENT_VALIDATION_FAILED"
	CodeContentNotFound    = "CONTENT_NOT_FOUND"
	CodeContentConflict    = "CONTENT_CONFLICT"
	CodeContentPartial     = "CONTENT_PARTIAL_WRITE"
	CodeContentUnavailable = "CONTENT_STORE_UNAVAILABLE"

	commandValidationCode   = "COMMAND_VALIDATION_FAILED"
	commandContextCanceled  = "COMMAND_CONTEXT_CANCELED"
	commandContextTimeout   = "COMMAND_CONTEXT_TIMEOUT"
	commandContextErrorCode = "COMMAND_CONTEXT_ERROR"
	commandExecuteFailed    = "COMMAND_EXECUTION_FAILED"
)

type failureClass struct {
	match     error
	category  goerrors.Category
	message   string
	code      string
	retryable bool
}

// executeClasses is checked in order. Partial writes come before not found
// since a partial write may wrap a missing row.
var executeClasses = []failureClass{
	{content.ErrValidation, goerrors.CategoryValidation, "content validation failed", CodeContentValidation, false},
	{content.ErrPartialWrite, goerrors.CategoryCommand, "content write partially applied", CodeContentPartial, false},
	{content.ErrNotFound, goerrors.CategoryCommand, "content not found", CodeContentNotFound, false},
	{content.ErrConflict, goerrors.CategoryCommand, "content write conflicts with existing data", CodeContentConflict, false},
	{content.ErrStoreUnavailable, goerrors.CategoryCommand, "content store unavailable", CodeContentUnavailable, true},
	{context.DeadlineExceeded, goerrors.CategoryCommand, "command execution deadline exceeded", commandContextTimeout, false},
	{context.Canceled, goerrors.CategoryCommand, "command execution cancelled", commandContextCanceled, false},
}

// Failure is the error returned by a Handler. It carries the go-errors value
// and tells the go-command runner whether another attempt may succeed. Only
// an unavailable store is retryable: a retried partial create would insert
// a second base record.
type Failure struct {
	err       *goerrors.Error
	retryable bool
}

func (f *Failure) Error() string { return f.err.Error() }

func (f *Failure) Unwrap() error { return f.err }

// IsRetryable is consulted by the go-command runner before each retry.
func (f *Failure) IsRetryable() bool { return f.retryable }

// Retryable reports whether err may be retried.
func Retryable(err error) bool {
	var failure *Failure
	return errors.As(err, &failure) && failure.retryable
}

// TextCode returns the text code attached by the command layer, or empty.
func TextCode(err error) string {
	var wrapped *goerrors.Error
	if errors.As(err, &wrapped) {
		return wrapped.TextCode
	}
	return ""
}

func tag(err error, class failureClass) error {
	return &Failure{
		err:       goerrors.Wrap(err, class.category, class.message).WithTextCode(class.code),
		retryable: class.retryable,
	}
}

// passthrough reports whether err needs no wrapping.
func passthrough(err error) bool {
	var failure *Failure
	return err == nil || errors.As(err, &failure)
}

func wrapValidationError(err error) error {
	if passthrough(err) {
		return err
	}
	return tag(err, failureClass{category: goerrors.CategoryValidation, message: "command validation failed", code: commandValidationCode})
}

func wrapContextError(err error) error {
	if passthrough(err) {
		return err
	}
	for _, class := range executeClasses[len(executeClasses)-2:] {
		if err == class.match {
			return tag(err, class)
		}
	}
	return tag(err, failureClass{category: goerrors.CategoryCommand, message: "command context error", code: commandContextErrorCode})
}

// wrapExecuteError tags content failures so callers can tell a retryable
// partial write from a rejected input.
func wrapExecuteError(err error) error {
	if passthrough(err) {
		return err
	}
	for _, class := range executeClasses {
		if errors.Is(err, class.match) {
			return tag(err, class)
		}
	}
	return tag(err, failureClass{category: goerrors.CategoryCommand, message: "command execution failed", code: commandExecuteFailed})
}
