package markdown_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-portfolio/internal/content"
	"github.com/goliatone/go-portfolio/internal/coordinator"
	"github.com/goliatone/go-portfolio/internal/i18n"
	"github.com/goliatone/go-portfolio/internal/identity"
	"github.com/goliatone/go-portfolio/internal/markdown"
)

const koPost = `---
kind: posts
slug: hello-world
title: 안녕하세요
tags: [go, sql]
published: true
date: 2024-03-01
fields:
  cover_url: /images/hello.png
---
# 안녕

본문 **내용**
`

const enPost = `---
kind: posts
slug: hello-world
title: Hello
---
# Hello

Body **text**
`

type importHarness struct {
	registry *content.Registry
	repos    content.RepositorySet
	importer *markdown.Importer
}

func newImportHarness(cfg markdown.Config) *importHarness {
	registry := content.DefaultRegistry()
	repos := content.NewMemoryRepositories(registry)
	coord := coordinator.New(registry, repos)
	return &importHarness{
		registry: registry,
		repos:    repos,
		importer: markdown.NewImporter(coord, repos, registry, cfg, markdown.WithLocales(i18n.DefaultConfig())),
	}
}

func (h *importHarness) entry(t *testing.T, kind, slug string) *content.Entry {
	t.Helper()
	entry, err := h.repos[kind].FetchOne(context.Background(), slug)
	if err != nil {
		t.Fatalf("fetch %s/%s: %v", kind, slug, err)
	}
	return entry
}

func TestImportDirMergesLocaleFilesIntoOneEntry(t *testing.T) {
	fsys := fstest.MapFS{
		"content/ko/hello.md": {Data: []byte(koPost)},
		"content/en/hello.md": {Data: []byte(enPost)},
		"content/notes.txt":   {Data: []byte("ignored")},
	}
	h := newImportHarness(markdown.Config{Loader: markdown.LoaderConfig{Recursive: true}})

	report, err := h.importer.ImportDir(context.Background(), fsys, "content")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Created != 1 || report.Updated != 1 || len(report.Files) != 2 {
		t.Fatalf("unexpected report %+v", report)
	}

	entry := h.entry(t, "posts", "hello-world")
	if entry.ID != identity.EntryUUID("posts", "hello-world") {
		t.Fatalf("expected deterministic id, got %s", entry.ID)
	}
	if len(entry.Translations) != 2 {
		t.Fatalf("expected ko and en translations, got %d", len(entry.Translations))
	}
	if !entry.Published || entry.PublishedAt == nil || entry.PublishedAt.Format("2006-01-02") != "2024-03-01" {
		t.Fatalf("expected published on the frontmatter date, got %v %v", entry.Published, entry.PublishedAt)
	}
	if got := entry.TagValues(); len(got) != 2 || got[0] != "go" || got[1] != "sql" {
		t.Fatalf("expected tags from the ko file to survive, got %v", got)
	}
	if entry.Fields["cover_url"] != "/images/hello.png" {
		t.Fatalf("expected shared cover_url, got %v", entry.Fields)
	}

	en := entry.Translation("en")
	if en == nil || en.Title != "Hello" {
		t.Fatalf("expected en translation, got %+v", en)
	}
	if en.Content["type"] != markdown.DocumentType {
		t.Fatalf("expected markdown document, got %v", en.Content)
	}
	html, _ := en.Content["html"].(string)
	if !strings.Contains(html, "<strong>text</strong>") {
		t.Fatalf("expected rendered html, got %q", html)
	}
	source, _ := en.Content["source"].(string)
	if strings.Contains(source, "title:") {
		t.Fatalf("expected frontmatter stripped from source, got %q", source)
	}
}

func TestImportDirSkipsUnchangedFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"posts/hello.ko.md": {Data: []byte(koPost)},
	}
	h := newImportHarness(markdown.Config{Loader: markdown.LoaderConfig{Recursive: true}})

	if _, err := h.importer.ImportDir(context.Background(), fsys, "."); err != nil {
		t.Fatalf("first import: %v", err)
	}
	report, err := h.importer.ImportDir(context.Background(), fsys, ".")
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if report.Skipped != 1 || report.Created != 0 || report.Updated != 0 {
		t.Fatalf("expected unchanged file to be skipped, got %+v", report)
	}
}

func TestImportFileInfersKindLocaleAndSlugFromPath(t *testing.T) {
	fsys := fstest.MapFS{
		"skills/react.en.md": {Data: []byte("---\nfields:\n  category: Frontend\n---\nComponent library\n")},
	}
	h := newImportHarness(markdown.Config{})

	result, err := h.importer.ImportFile(context.Background(), fsys, "skills/react.en.md")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Kind != "skills" || result.Locale != "en" || result.Slug != "react" || !result.Created {
		t.Fatalf("unexpected result %+v", result)
	}

	entry := h.entry(t, "skills", "react")
	if entry.Fields["category"] != "Frontend" {
		t.Fatalf("expected category field, got %v", entry.Fields)
	}
	if tr := entry.Translation("en"); tr == nil || tr.Title != "React" {
		t.Fatalf("expected fallback title React, got %+v", tr)
	}
}

func TestImportFileUsesDefaults(t *testing.T) {
	fsys := fstest.MapFS{
		"misc/first-award.md": {Data: []byte("---\ntitle: Best Paper\nfields:\n  date: 2023-11\n---\n")},
	}
	h := newImportHarness(markdown.Config{DefaultKind: "awards", DefaultLocale: "ko"})

	result, err := h.importer.ImportFile(context.Background(), fsys, "misc/first-award.md")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Kind != "awards" || result.Locale != "ko" {
		t.Fatalf("expected defaults, got %+v", result)
	}
}

func TestImportFileWithoutKindFails(t *testing.T) {
	fsys := fstest.MapFS{
		"loose.md": {Data: []byte("# Loose")},
	}
	h := newImportHarness(markdown.Config{DefaultLocale: "en"})

	_, err := h.importer.ImportFile(context.Background(), fsys, "loose.md")
	if !errors.Is(err, content.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestImportDirReportsFailuresAndContinues(t *testing.T) {
	fsys := fstest.MapFS{
		"projects/good.en.md": {Data: []byte("---\ntitle: Good\n---\n")},
		"projects/bad.en.md":  {Data: []byte("---\ntitle: Bad\nfields:\n  repo_url: not-a-url\n---\n")},
	}
	h := newImportHarness(markdown.Config{Loader: markdown.LoaderConfig{Recursive: true}})

	report, err := h.importer.ImportDir(context.Background(), fsys, ".")
	if err == nil {
		t.Fatal("expected joined error")
	}
	if report.Created != 1 || len(report.Errors) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if !errors.Is(err, content.ErrValidation) {
		t.Fatalf("expected validation failure in joined error, got %v", err)
	}
}

func TestLoaderDiscoverHonoursRecursion(t *testing.T) {
	fsys := fstest.MapFS{
		"top.md":        {Data: []byte("a")},
		"nested/low.md": {Data: []byte("b")},
	}
	flat, err := markdown.NewLoader(fsys, markdown.LoaderConfig{}).Discover(context.Background(), ".")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(flat) != 1 || flat[0] != "top.md" {
		t.Fatalf("expected only top-level file, got %v", flat)
	}

	deep, err := markdown.NewLoader(fsys, markdown.LoaderConfig{Recursive: true}).Discover(context.Background(), ".")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(deep) != 2 {
		t.Fatalf("expected both files, got %v", deep)
	}
}

func TestParseFrontMatterNormalisesNestedMaps(t *testing.T) {
	meta, body, err := markdown.ParseFrontMatter([]byte("---\nfields:\n  links:\n    site: https://example.com\n---\nbody\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	links, ok := meta.Fields["links"].(map[string]any)
	if !ok || links["site"] != "https://example.com" {
		t.Fatalf("expected string keyed nested map, got %#v", meta.Fields["links"])
	}
	if meta.Published != nil || meta.HasTags {
		t.Fatalf("expected absent published and tags, got %+v", meta)
	}
	if strings.TrimSpace(string(body)) != "body" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestRendererSafeModeDropsRawHTML(t *testing.T) {
	out, err := markdown.NewRenderer(markdown.RenderOptions{SafeMode: true}).Render([]byte("<script>x</script>\n\n*hi*"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "<script>") || !strings.Contains(out, "<em>hi</em>") {
		t.Fatalf("unexpected html %q", out)
	}
}

func TestRendererExtensionSelection(t *testing.T) {
	plain := markdown.NewRenderer(markdown.RenderOptions{Extensions: []string{"footnote", "unknown"}})
	out, err := plain.Render([]byte("~~gone~~"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "<del>") {
		t.Fatalf("expected strikethrough disabled, got %q", out)
	}

	gfm := markdown.NewRenderer(markdown.RenderOptions{})
	out, err = gfm.Render([]byte("~~gone~~"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "<del>gone</del>") {
		t.Fatalf("expected gfm strikethrough, got %q", out)
	}
}
