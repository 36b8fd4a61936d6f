package portfolio_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	portfolio "github.com/goliatone/go-portfolio"
	"github.com/goliatone/go-portfolio/internal/di"
)

func newModule(t *testing.T) *portfolio.Module {
	t.Helper()
	cfg := portfolio.DefaultConfig()
	cfg.Invalidation.Provider = "none"

	module, err := portfolio.New(context.Background(), cfg, di.WithMemoryStorage())
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	t.Cleanup(func() { _ = module.Close() })
	return module
}

func TestModuleSaveGetAndDelete(t *testing.T) {
	module := newModule(t)
	ctx := context.Background()

	result, err := module.Save(ctx, portfolio.SaveRequest{
		Kind:      "posts",
		Shared:    &portfolio.SharedFields{Slug: "hello", Published: true},
		Locale:    "ko",
		Localized: &portfolio.LocalizedFields{Title: "안녕"},
		Tags:      []string{"go"},
		SetTags:   true,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := module.Save(ctx, portfolio.SaveRequest{
		Kind:      "posts",
		ID:        result.Entry.ID,
		Locale:    "en",
		Localized: &portfolio.LocalizedFields{Title: "Hello"},
	}); err != nil {
		t.Fatalf("save en: %v", err)
	}

	view, err := module.Get(ctx, "posts", "hello", "en")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.Title != "Hello" || view.Fallback {
		t.Fatalf("expected en title, got %+v", view)
	}

	tags, err := module.Tags(ctx, "posts", portfolio.ListOptions{})
	if err != nil || len(tags) != 1 || tags[0].Tag != "go" {
		t.Fatalf("unexpected tags %v (%v)", tags, err)
	}

	if _, err := module.Delete(ctx, "posts", result.Entry.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := module.Get(ctx, "posts", "hello", "en"); !errors.Is(err, portfolio.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestModuleImportMarkdown(t *testing.T) {
	module := newModule(t)
	fsys := fstest.MapFS{
		"skills/go.en.md":  {Data: []byte("---\ntitle: Go\nposition: 1\nfields:\n  category: Backend\n---\n")},
		"skills/vue.en.md": {Data: []byte("---\ntitle: Vue\nposition: 2\nfields:\n  category: Frontend\n---\n")},
	}

	report, err := module.ImportMarkdown(context.Background(), fsys, ".")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Created != 2 {
		t.Fatalf("expected two created entries, got %+v", report)
	}

	groups, err := module.Grouped(context.Background(), "skills", "ko")
	if err != nil {
		t.Fatalf("grouped: %v", err)
	}
	if len(groups) != 2 || groups[0].Name != "Backend" || groups[1].Name != "Frontend" {
		t.Fatalf("unexpected groups %+v", groups)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := portfolio.DefaultConfig()
	cfg.Storage.Driver = "oracle"

	if _, err := portfolio.New(context.Background(), cfg, di.WithMemoryStorage()); !errors.Is(err, portfolio.ErrStorageDriverUnknown) {
		t.Fatalf("expected ErrStorageDriverUnknown, got %v", err)
	}
}
