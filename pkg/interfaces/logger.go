// Package interfaces holds the contracts host applications implement to plug
// their own logging and cache invalidation into the portfolio core.
package interfaces

import "context"

// Logger is the leveled logger used by every portfolio component. Messages
// are dotted event names; args are alternating key/value pairs. A
// go-logger glog.Logger satisfies it through a thin adapter.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// FieldsLogger is implemented by loggers that can carry structured fields
// into every later line.
type FieldsLogger interface {
	Logger
	WithFields(fields map[string]any) Logger
}

// LoggerProvider returns the logger for a dotted module name such as
// "portfolio.coordinator".
type LoggerProvider interface {
	GetLogger(module string) Logger
}
