package invalidation

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-portfolio/internal/logging"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
)

// Recorder keeps every invalidated path in memory.
type Recorder struct {
	mu    sync.Mutex
	calls [][]string
}

var _ interfaces.PathInvalidator = (*Recorder)(nil)

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) InvalidatePaths(_ context.Context, paths []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string(nil), paths...))
	return nil
}

// Calls returns one slice per InvalidatePaths call.
func (r *Recorder) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.calls))
	for i, call := range r.calls {
		out[i] = append([]string(nil), call...)
	}
	return out
}

// Paths returns every recorded path in call order.
func (r *Recorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, call := range r.calls {
		out = append(out, call...)
	}
	return out
}

// Reset clears the recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// LogInvalidator writes invalidated paths to a logger. Hosts without a page
// cache use it to trace what would be purged.
type LogInvalidator struct {
	logger interfaces.Logger
}

// NewLogInvalidator returns a sink that logs every path at info level.
func NewLogInvalidator(logger interfaces.Logger) *LogInvalidator {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &LogInvalidator{logger: logger}
}

func (l *LogInvalidator) InvalidatePaths(ctx context.Context, paths []string) error {
	logger := l.logger.WithContext(ctx)
	for _, path := range paths {
		logger.Info("invalidation.path", "path", path)
	}
	return nil
}

// Multi fans a call out to every sink and joins their errors.
type Multi []interfaces.PathInvalidator

func (m Multi) InvalidatePaths(ctx context.Context, paths []string) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.InvalidatePaths(ctx, paths); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop drops every call.
type Noop struct{}

func (Noop) InvalidatePaths(context.Context, []string) error { return nil }
