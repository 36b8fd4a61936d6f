// Package commands adapts content operations to go-command messages.
package commands

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-portfolio/internal/logging"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
)

// DefaultTimeout bounds a single command run unless WithTimeout says otherwise.
const DefaultTimeout = 30 * time.Second

// HandlerOption configures a Handler.
type HandlerOption[T command.Message] func(*Handler[T])

// Handler runs a command function for one message type. Messages are
// validated first; failures come back as go-errors values carrying a
// portfolio text code.
type Handler[T command.Message] struct {
	run       command.CommandFunc[T]
	logger    interfaces.Logger
	timeout   time.Duration
	operation string
	clock     func() time.Time
}

// NewHandler wraps fn. It panics on a nil fn since that is a wiring bug.
func NewHandler[T command.Message](fn command.CommandFunc[T], opts ...HandlerOption[T]) *Handler[T] {
	if fn == nil {
		panic("commands: nil command function")
	}
	h := &Handler[T]{
		run:     fn,
		logger:  logging.NoOp(),
		timeout: DefaultTimeout,
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// WithTimeout replaces DefaultTimeout. Zero or less runs without a deadline.
func WithTimeout[T command.Message](timeout time.Duration) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.timeout = max(timeout, 0)
	}
}

// WithLogger sets the execution logger. nil restores the no-op logger.
func WithLogger[T command.Message](logger interfaces.Logger) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.logger = logger
		if logger == nil {
			h.logger = logging.NoOp()
		}
	}
}

// WithOperation names the operation in every log line.
func WithOperation[T command.Message](operation string) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.operation = operation
	}
}

// WithClock replaces the clock used to measure durations.
func WithClock[T command.Message](clock func() time.Time) HandlerOption[T] {
	return func(h *Handler[T]) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// Execute implements command.Commander[T].
func (h *Handler[T]) Execute(ctx context.Context, msg T) error {
	if err := command.ValidateMessage(msg); err != nil {
		return wrapValidationError(err)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var cancel context.CancelFunc = func() {}
	if h.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
	}
	defer cancel()

	if err := ctx.Err(); err != nil {
		return wrapContextError(err)
	}

	logger := h.scopedLogger(ctx, msg)
	logger.Debug("command.execute.start")
	started := h.clock()
	elapsed := func() time.Duration { return h.clock().Sub(started) }

	err := h.run(ctx, msg)
	switch {
	case err != nil:
		wrapped := wrapExecuteError(err)
		logger.Error("command.execute.failed", "error", err, "code", TextCode(wrapped), "duration", elapsed())
		return wrapped
	case ctx.Err() != nil:
		logger.Error("command.execute.context_error", "error", ctx.Err())
		return wrapContextError(ctx.Err())
	}
	logger.Info("command.execute.success", "duration", elapsed())
	return nil
}

func (h *Handler[T]) scopedLogger(ctx context.Context, msg T) interfaces.Logger {
	fields := map[string]any{"command": command.GetMessageType(msg)}
	if h.operation != "" {
		fields["operation"] = h.operation
	}
	return logging.WithFields(h.logger.WithContext(ctx), fields)
}
