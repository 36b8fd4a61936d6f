package gologger

import (
	"context"
	"testing"

	glog "github.com/goliatone/go-logger/glog"
)

func TestNewProviderFormats(t *testing.T) {
	for _, format := range []string{"", "json", "Console", " pretty "} {
		if _, err := NewProvider(Config{Format: format}); err != nil {
			t.Fatalf("format %q: %v", format, err)
		}
	}
	if _, err := NewProvider(Config{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNilProviderFallsBackToNoOp(t *testing.T) {
	var p *Provider
	if p.GetLogger("reader") == nil {
		t.Fatal("expected a no-op logger")
	}
}

func TestNewProviderCreatesNamedLoggers(t *testing.T) {
	p, err := NewProvider(Config{Level: "debug", Format: "console"})
	if err != nil {
		t.Fatalf("NewProvider returned error: %v", err)
	}

	logger := p.GetLogger("portfolio.coordinator")
	if logger == nil {
		t.Fatal("expected logger, got nil")
	}
	logger.WithContext(context.Background()).Debug("adapter.initialised")
}

func TestAdapterDelegatesAndClonesFields(t *testing.T) {
	stub := &stubLogger{}
	adapted := adapt(stub)

	adapted.Info("content.save.completed")
	adapted.Warn("content.save.partial")

	fields := map[string]any{"kind": "posts"}
	if child := adapted.(*moduleLogger).WithFields(fields); child == nil {
		t.Fatal("expected WithFields to return logger")
	}
	fields["kind"] = "skills"

	if len(stub.fields) != 1 || stub.fields[0]["kind"] != "posts" {
		t.Fatalf("expected cloned fields, got %v", stub.fields)
	}
	if len(stub.calls) != 2 || stub.calls[0] != "info" || stub.calls[1] != "warn" {
		t.Fatalf("unexpected calls %v", stub.calls)
	}
}

type stubLogger struct {
	calls  []string
	fields []map[string]any
}

var _ glog.Logger = (*stubLogger)(nil)
var _ glog.FieldsLogger = (*stubLogger)(nil)

func (s *stubLogger) Trace(string, ...any) { s.calls = append(s.calls, "trace") }
func (s *stubLogger) Debug(string, ...any) { s.calls = append(s.calls, "debug") }
func (s *stubLogger) Info(string, ...any)  { s.calls = append(s.calls, "info") }
func (s *stubLogger) Warn(string, ...any)  { s.calls = append(s.calls, "warn") }
func (s *stubLogger) Error(string, ...any) { s.calls = append(s.calls, "error") }
func (s *stubLogger) Fatal(string, ...any) { s.calls = append(s.calls, "fatal") }

func (s *stubLogger) WithContext(context.Context) glog.Logger { return s }

func (s *stubLogger) WithFields(fields map[string]any) glog.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	s.fields = append(s.fields, copied)
	return s
}
