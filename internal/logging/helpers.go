package logging

import (
	"context"
	"maps"
	"sync"

	"github.com/goliatone/go-portfolio/pkg/interfaces"
)

// WithFields attaches structured fields to a logger when the implementation
// supports the optional FieldsLogger extension.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		maps.Copy(copied, fields)
		return fieldsLogger.WithFields(copied)
	}

	return logger
}

// Recorder is a logger that keeps entries in memory. Tests use it to assert
// on emitted events.
type Recorder struct {
	mu      sync.Mutex
	Entries []RecordedEntry
	fields  map[string]any
	parent  *Recorder
}

// RecordedEntry is one captured log line.
type RecordedEntry struct {
	Level  string
	Msg    string
	Args   []any
	Fields map[string]any
}

var (
	_ interfaces.Logger       = (*Recorder)(nil)
	_ interfaces.FieldsLogger = (*Recorder)(nil)
)

func (r *Recorder) Trace(msg string, args ...any) { r.record("trace", msg, args) }
func (r *Recorder) Debug(msg string, args ...any) { r.record("debug", msg, args) }
func (r *Recorder) Info(msg string, args ...any)  { r.record("info", msg, args) }
func (r *Recorder) Warn(msg string, args ...any)  { r.record("warn", msg, args) }
func (r *Recorder) Error(msg string, args ...any) { r.record("error", msg, args) }
func (r *Recorder) Fatal(msg string, args ...any) { r.record("fatal", msg, args) }

func (r *Recorder) WithFields(fields map[string]any) interfaces.Logger {
	merged := maps.Clone(r.fields)
	if merged == nil {
		merged = map[string]any{}
	}
	maps.Copy(merged, fields)
	return &Recorder{fields: merged, parent: r.root()}
}

func (r *Recorder) WithContext(context.Context) interfaces.Logger {
	return r
}

// Has reports whether an entry with the given message was recorded.
func (r *Recorder) Has(msg string) bool {
	root := r.root()
	root.mu.Lock()
	defer root.mu.Unlock()
	for _, entry := range root.Entries {
		if entry.Msg == msg {
			return true
		}
	}
	return false
}

func (r *Recorder) root() *Recorder {
	if r.parent != nil {
		return r.parent
	}
	return r
}

func (r *Recorder) record(level, msg string, args []any) {
	root := r.root()
	root.mu.Lock()
	defer root.mu.Unlock()
	root.Entries = append(root.Entries, RecordedEntry{
		Level:  level,
		Msg:    msg,
		Args:   args,
		Fields: maps.Clone(r.fields),
	})
}
