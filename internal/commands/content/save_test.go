package contentcmd

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-portfolio/internal/commands"
	"github.com/goliatone/go-portfolio/internal/content"
	"github.com/goliatone/go-portfolio/internal/coordinator"
	"github.com/goliatone/go-portfolio/internal/markdown"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type stubWriter struct {
	saves   []coordinator.SaveRequest
	deletes []uuid.UUID
	result  *coordinator.SaveResult
	err     error
}

func (s *stubWriter) Save(_ context.Context, req coordinator.SaveRequest) (*coordinator.SaveResult, error) {
	s.saves = append(s.saves, req)
	return s.result, s.err
}

func (s *stubWriter) Delete(_ context.Context, kind string, id uuid.UUID) (*coordinator.DeleteResult, error) {
	s.deletes = append(s.deletes, id)
	if s.err != nil {
		return nil, s.err
	}
	return &coordinator.DeleteResult{Entry: &content.Entry{ID: id, Kind: kind}}, nil
}

func TestSaveContentValidation(t *testing.T) {
	negative := -1
	cases := []struct {
		name string
		msg  SaveContentCommand
	}{
		{name: "missing kind", msg: SaveContentCommand{Locale: "en", Localized: &LocalizedInput{Title: "x"}}},
		{name: "localized without locale", msg: SaveContentCommand{Kind: "posts", Localized: &LocalizedInput{Title: "x"}}},
		{name: "empty update", msg: SaveContentCommand{Kind: "posts", ContentID: uuid.New()}},
		{name: "negative position", msg: SaveContentCommand{Kind: "skills", Shared: &SharedInput{Slug: "go", Position: &negative}}},
		{name: "blank tag", msg: SaveContentCommand{Kind: "posts", Tags: []string{"go", " "}, SetTags: true, ContentID: uuid.New()}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			writer := &stubWriter{}
			handler := NewSaveContentHandler(writer, nil)

			err := handler.Execute(context.Background(), tc.msg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
				t.Fatalf("expected validation category, got %v", err)
			}
			if len(writer.saves) != 0 {
				t.Fatal("writer must not run for invalid messages")
			}
		})
	}
}

func TestSaveContentMapsRequest(t *testing.T) {
	position := 2
	writer := &stubWriter{result: &coordinator.SaveResult{Entry: &content.Entry{ID: uuid.New()}, Created: true}}
	handler := NewSaveContentHandler(writer, nil)

	var got *coordinator.SaveResult
	err := handler.Execute(context.Background(), SaveContentCommand{
		Kind:      "skills",
		Locale:    "en",
		Shared:    &SharedInput{Slug: "go", Position: &position, Fields: map[string]any{"category": "Backend"}},
		Localized: &LocalizedInput{Title: "Go"},
		Result:    func(r *coordinator.SaveResult) { got = r },
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(writer.saves) != 1 {
		t.Fatalf("expected one save, got %d", len(writer.saves))
	}
	req := writer.saves[0]
	if req.Kind != "skills" || req.Locale != "en" || req.Shared == nil || req.Shared.Slug != "go" || *req.Shared.Position != 2 {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.Localized == nil || req.Localized.Title != "Go" {
		t.Fatalf("expected localized fields, got %+v", req.Localized)
	}
	if got == nil || !got.Created {
		t.Fatalf("expected result callback, got %+v", got)
	}
}

func TestSaveContentReportsPartialWrites(t *testing.T) {
	entry := &content.Entry{ID: uuid.New()}
	partial := &content.PartialWriteError{Kind: "posts", BaseID: entry.ID, Locale: "en", Step: "translation", Err: errors.New("disk full")}
	writer := &stubWriter{result: &coordinator.SaveResult{Entry: entry, Created: true}, err: partial}
	handler := NewSaveContentHandler(writer, nil)

	var got *coordinator.SaveResult
	err := handler.Execute(context.Background(), SaveContentCommand{
		Kind:      "posts",
		Locale:    "en",
		Shared:    &SharedInput{Slug: "hello"},
		Localized: &LocalizedInput{Title: "Hello"},
		Result:    func(r *coordinator.SaveResult) { got = r },
	})
	if err == nil {
		t.Fatal("expected partial write error")
	}
	if code := commands.TextCode(err); code != commands.CodeContentPartial {
		t.Fatalf("expected %s, got %s", commands.CodeContentPartial, code)
	}
	if got == nil || got.Entry.ID != entry.ID {
		t.Fatal("expected persisted base to be reported")
	}
}

func TestDeleteContent(t *testing.T) {
	writer := &stubWriter{}
	handler := NewDeleteContentHandler(writer, nil)

	if err := handler.Execute(context.Background(), DeleteContentCommand{Kind: "posts"}); !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error for missing id, got %v", err)
	}

	id := uuid.New()
	var got *coordinator.DeleteResult
	err := handler.Execute(context.Background(), DeleteContentCommand{
		Kind:      "posts",
		ContentID: id,
		Result:    func(r *coordinator.DeleteResult) { got = r },
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(writer.deletes) != 1 || writer.deletes[0] != id || got == nil || got.Entry.ID != id {
		t.Fatalf("unexpected delete state %v %+v", writer.deletes, got)
	}

	writer.err = &content.NotFoundError{Resource: "posts", Key: id.String()}
	err = handler.Execute(context.Background(), DeleteContentCommand{Kind: "posts", ContentID: id})
	if code := commands.TextCode(err); code != commands.CodeContentNotFound {
		t.Fatalf("expected %s, got %s (%v)", commands.CodeContentNotFound, code, err)
	}
}

type stubImporter struct {
	files []string
	dirs  []string
}

func (s *stubImporter) ImportFile(_ context.Context, _ fs.FS, name string) (*markdown.FileResult, error) {
	s.files = append(s.files, name)
	return &markdown.FileResult{Path: name, Created: true}, nil
}

func (s *stubImporter) ImportDir(_ context.Context, _ fs.FS, dir string) (*markdown.Report, error) {
	s.dirs = append(s.dirs, dir)
	return &markdown.Report{Updated: 2}, nil
}

func TestImportMarkdownDispatchesOnPathType(t *testing.T) {
	fsys := fstest.MapFS{
		"posts/hello.md": {Data: []byte("# hi")},
	}
	importer := &stubImporter{}
	handler := NewImportMarkdownHandler(importer, nil)

	var report *markdown.Report
	if err := handler.Execute(context.Background(), ImportMarkdownCommand{FS: fsys, Path: "posts/hello.md", Result: func(r *markdown.Report) { report = r }}); err != nil {
		t.Fatalf("import file: %v", err)
	}
	if len(importer.files) != 1 || report == nil || report.Created != 1 {
		t.Fatalf("expected single file import, got %v %+v", importer.files, report)
	}

	if err := handler.Execute(context.Background(), ImportMarkdownCommand{FS: fsys, Path: "posts", Result: func(r *markdown.Report) { report = r }}); err != nil {
		t.Fatalf("import dir: %v", err)
	}
	if len(importer.dirs) != 1 || report.Updated != 2 {
		t.Fatalf("expected directory import, got %v %+v", importer.dirs, report)
	}

	if err := handler.Execute(context.Background(), ImportMarkdownCommand{}); !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error without root, got %v", err)
	}
}

type recordingRegistry struct {
	handlers []any
}

func (r *recordingRegistry) RegisterCommand(handler any) error {
	r.handlers = append(r.handlers, handler)
	return nil
}

func TestRegisterContentCommands(t *testing.T) {
	reg := &recordingRegistry{}
	set, err := RegisterContentCommands(reg, &stubWriter{}, nil, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if set.Import != nil || len(reg.handlers) != 2 {
		t.Fatalf("expected save and delete only, got %d", len(reg.handlers))
	}

	if _, err := RegisterContentCommands(nil, nil, nil, nil); err == nil {
		t.Fatal("expected error without writer")
	}
}
