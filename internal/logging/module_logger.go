// Package logging names the portfolio logger modules and carries the small
// helpers shared by every component that logs.
package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-portfolio/pkg/interfaces"
)

// Module is a logger name handed to the provider.
type Module string

const (
	RootModule         Module = "portfolio"
	ContentModule      Module = "portfolio.content"
	CoordinatorModule  Module = "portfolio.coordinator"
	InvalidationModule Module = "portfolio.invalidation"
	MarkdownModule     Module = "portfolio.markdown"
	CommandsModule     Module = "portfolio.commands"
)

// Logger resolves m through provider and tags every line with the module
// name. Without a provider, or when it returns nil, lines are dropped.
func (m Module) Logger(provider interfaces.LoggerProvider) interfaces.Logger {
	if m == "" {
		m = RootModule
	}
	var logger interfaces.Logger
	if provider != nil {
		logger = provider.GetLogger(string(m))
	}
	if logger == nil {
		return NoOp()
	}
	return WithFields(logger, map[string]any{"module": string(m)})
}

// ModuleLogger is Module(name).Logger(provider).
func ModuleLogger(provider interfaces.LoggerProvider, name string) interfaces.Logger {
	return Module(name).Logger(provider)
}

func ContentLogger(p interfaces.LoggerProvider) interfaces.Logger      { return ContentModule.Logger(p) }
func CoordinatorLogger(p interfaces.LoggerProvider) interfaces.Logger  { return CoordinatorModule.Logger(p) }
func InvalidationLogger(p interfaces.LoggerProvider) interfaces.Logger { return InvalidationModule.Logger(p) }
func MarkdownLogger(p interfaces.LoggerProvider) interfaces.Logger     { return MarkdownModule.Logger(p) }
func CommandsLogger(p interfaces.LoggerProvider) interfaces.Logger     { return CommandsModule.Logger(p) }

// Field names attached by WithContentContext.
const (
	FieldKind   = "kind"
	FieldLocale = "locale"
	FieldEntry  = "entry_id"
)

// WithContentContext tags logger with the entry being worked on. Blank
// values are left out.
func WithContentContext(logger interfaces.Logger, kind, locale, entryID string) interfaces.Logger {
	fields := make(map[string]any, 3)
	for name, value := range map[string]string{FieldKind: kind, FieldLocale: locale, FieldEntry: entryID} {
		if value = strings.TrimSpace(value); value != "" {
			fields[name] = value
		}
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every line.
func NoOp() interfaces.Logger { return discard{} }

type discard struct{}

var _ interfaces.FieldsLogger = discard{}

func (discard) Trace(string, ...any)                            {}
func (discard) Debug(string, ...any)                            {}
func (discard) Info(string, ...any)                             {}
func (discard) Warn(string, ...any)                             {}
func (discard) Error(string, ...any)                            {}
func (discard) Fatal(string, ...any)                            {}
func (d discard) WithFields(map[string]any) interfaces.Logger   { return d }
func (d discard) WithContext(context.Context) interfaces.Logger { return d }
