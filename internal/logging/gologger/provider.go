// Package gologger backs the portfolio logger interfaces with go-logger.
package gologger

import (
	"context"
	"fmt"
	"maps"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-portfolio/internal/logging"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
)

// Config selects the go-logger output. Format is json, console or pretty.
type Config struct {
	Level     string
	Format    string
	AddSource bool
}

var formats = map[string]glog.Option{
	"":        glog.WithLoggerTypeJSON(),
	"json":    glog.WithLoggerTypeJSON(),
	"console": glog.WithLoggerTypeConsole(),
	"pretty":  glog.WithLoggerTypePretty(),
}

var levels = map[string]string{
	"trace":   glog.Trace,
	"debug":   glog.Debug,
	"info":    glog.Info,
	"warn":    glog.Warn,
	"warning": glog.Warn,
	"error":   glog.Error,
	"fatal":   glog.Fatal,
}

// Provider names child loggers after portfolio modules.
type Provider struct {
	base *glog.BaseLogger
}

var _ interfaces.LoggerProvider = (*Provider)(nil)

// NewProvider builds the root go-logger. Unknown levels keep the library
// default; unknown formats are an error.
func NewProvider(cfg Config) (*Provider, error) {
	format, ok := formats[strings.ToLower(strings.TrimSpace(cfg.Format))]
	if !ok {
		return nil, fmt.Errorf("logging: unsupported go-logger format %q", cfg.Format)
	}
	opts := []glog.Option{format}
	if level, ok := levels[strings.ToLower(strings.TrimSpace(cfg.Level))]; ok {
		opts = append(opts, glog.WithLevel(level))
	}
	if cfg.AddSource {
		opts = append(opts, glog.WithAddSource(true))
	}
	return &Provider{base: glog.NewLogger(opts...)}, nil
}

// GetLogger returns a child named module, or the root for a blank name.
func (p *Provider) GetLogger(module string) interfaces.Logger {
	if p == nil || p.base == nil {
		return logging.NoOp()
	}
	module = strings.TrimSpace(module)
	if module == "" {
		return adapt(p.base)
	}
	return adapt(p.base.GetLogger(module))
}

func adapt(inner glog.Logger) interfaces.Logger {
	if inner == nil {
		return logging.NoOp()
	}
	return &moduleLogger{glog: inner}
}

type moduleLogger struct {
	glog glog.Logger
}

var _ interfaces.FieldsLogger = (*moduleLogger)(nil)

func (m *moduleLogger) Trace(msg string, args ...any) { m.glog.Trace(msg, args...) }
func (m *moduleLogger) Debug(msg string, args ...any) { m.glog.Debug(msg, args...) }
func (m *moduleLogger) Info(msg string, args ...any)  { m.glog.Info(msg, args...) }
func (m *moduleLogger) Warn(msg string, args ...any)  { m.glog.Warn(msg, args...) }
func (m *moduleLogger) Error(msg string, args ...any) { m.glog.Error(msg, args...) }
func (m *moduleLogger) Fatal(msg string, args ...any) { m.glog.Fatal(msg, args...) }

// WithFields copies fields so later edits by the caller do not leak into
// the child logger.
func (m *moduleLogger) WithFields(fields map[string]any) interfaces.Logger {
	fl, ok := m.glog.(glog.FieldsLogger)
	if !ok || len(fields) == 0 {
		return m
	}
	return adapt(fl.WithFields(maps.Clone(fields)))
}

func (m *moduleLogger) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return m
	}
	return adapt(m.glog.WithContext(ctx))
}
