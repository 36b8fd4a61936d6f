package markdown

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"unicode"

	"github.com/goliatone/go-portfolio/internal/content"
	"github.com/goliatone/go-portfolio/internal/coordinator"
	"github.com/goliatone/go-portfolio/internal/i18n"
	"github.com/goliatone/go-portfolio/internal/identity"
	"github.com/goliatone/go-portfolio/internal/logging"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
	slug "github.com/goliatone/go-slug"
	"github.com/google/uuid"
)

// DocumentType marks translation content produced from markdown.
const DocumentType = "markdown"

// Saver applies one localized write.
type Saver interface {
	Save(ctx context.Context, req coordinator.SaveRequest) (*coordinator.SaveResult, error)
}

// Config configures an Importer.
type Config struct {
	// DefaultKind is used when neither frontmatter nor path names a kind.
	DefaultKind string
	// DefaultLocale is used when neither frontmatter nor path names a locale.
	DefaultLocale string
	Loader        LoaderConfig
	Render        RenderOptions
}

// Document is a parsed markdown file ready to be saved.
type Document struct {
	Path     string
	Kind     string
	Slug     string
	Locale   string
	Meta     FrontMatter
	Body     []byte
	HTML     string
	Checksum string
}

// FileResult describes one imported file.
type FileResult struct {
	Path    string
	Kind    string
	Slug    string
	Locale  string
	EntryID uuid.UUID
	Created bool
	Skipped bool
}

// Report summarises a directory import.
type Report struct {
	Files   []FileResult
	Created int
	Updated int
	Skipped int
	Errors  []error
}

// Importer turns markdown files into entries. Entry ids derive from kind and
// slug, so importing the same file again updates the entry it created and
// each locale file of a slug lands on the same base record.
type Importer struct {
	saver         Saver
	repos         content.Repositories
	registry      *content.Registry
	locales       i18n.Config
	renderer      *Renderer
	logger        interfaces.Logger
	defaultKind   string
	defaultLocale string
	loaderConfig  LoaderConfig
}

// Option customises an Importer.
type Option func(*Importer)

// WithLogger sets the importer logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithLocales sets the locales recognised in paths.
func WithLocales(cfg i18n.Config) Option {
	return func(i *Importer) {
		i.locales = cfg
	}
}

// NewImporter returns an importer that looks entries up in repos and saves
// through saver.
func NewImporter(saver Saver, repos content.Repositories, registry *content.Registry, cfg Config, opts ...Option) *Importer {
	imp := &Importer{
		saver:         saver,
		repos:         repos,
		registry:      registry,
		locales:       i18n.DefaultConfig(),
		renderer:      NewRenderer(cfg.Render),
		logger:        logging.NoOp(),
		defaultKind:   strings.TrimSpace(cfg.DefaultKind),
		defaultLocale: i18n.Normalize(cfg.DefaultLocale),
		loaderConfig:  cfg.Loader,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(imp)
		}
	}
	return imp
}

// Parse reads the frontmatter and renders the body of src, filling kind,
// slug and locale from the path where the frontmatter leaves them out.
func (i *Importer) Parse(src *Source) (*Document, error) {
	meta, body, err := ParseFrontMatter(src.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Path, err)
	}
	html, err := i.renderer.Render(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Path, err)
	}

	doc := &Document{
		Path:     src.Path,
		Meta:     meta,
		Body:     body,
		HTML:     html,
		Checksum: src.Checksum,
	}
	stem, pathLocale := i.splitFileName(path.Base(src.Path))
	dirs := strings.Split(path.Dir(src.Path), "/")

	doc.Kind = meta.Kind
	if doc.Kind == "" {
		doc.Kind = i.kindFromDirs(dirs)
	}
	if doc.Kind == "" {
		doc.Kind = i.defaultKind
	}
	if doc.Kind == "" {
		return nil, &content.ValidationError{Field: "kind", Message: fmt.Sprintf("%s: no kind in frontmatter or path", src.Path)}
	}

	doc.Locale = i18n.Normalize(meta.Locale)
	if doc.Locale == "" {
		doc.Locale = i.localeFromDirs(dirs)
	}
	if doc.Locale == "" {
		doc.Locale = pathLocale
	}
	if doc.Locale == "" {
		doc.Locale = i.defaultLocale
	}

	raw := meta.Slug
	if raw == "" {
		raw = stem
	}
	normalized, err := slug.Normalize(raw)
	if err != nil || normalized == "" {
		return nil, &content.ValidationError{Field: "slug", Message: fmt.Sprintf("%s: slug %q is invalid", src.Path, raw), Cause: content.ErrSlugInvalid}
	}
	doc.Slug = normalized
	return doc, nil
}

// Request builds the coordinator write for doc. When existing is not nil the
// write updates it: shared values the frontmatter leaves out keep their
// stored value and shared fields merge key by key.
func (i *Importer) Request(doc *Document, existing *content.Entry) (coordinator.SaveRequest, error) {
	kind, err := i.registry.Get(doc.Kind)
	if err != nil {
		return coordinator.SaveRequest{}, &content.ValidationError{Field: "kind", Message: err.Error(), Cause: err}
	}
	id := identity.EntryUUID(kind.Name, doc.Slug)

	shared := content.SharedFields{}
	if existing != nil {
		shared = existing.Shared()
	}
	shared.Slug = doc.Slug
	if doc.Meta.Position != nil {
		shared.Position = doc.Meta.Position
	}
	if doc.Meta.Featured != nil {
		shared.Featured = *doc.Meta.Featured
	}
	if doc.Meta.Published != nil {
		shared.Published = *doc.Meta.Published
	}
	if doc.Meta.PublishedAt != nil {
		shared.PublishedAt = doc.Meta.PublishedAt
	}
	if len(doc.Meta.Fields) > 0 {
		merged := make(map[string]any, len(shared.Fields)+len(doc.Meta.Fields))
		for key, value := range shared.Fields {
			merged[key] = value
		}
		for key, value := range doc.Meta.Fields {
			merged[key] = value
		}
		shared.Fields = merged
	}

	title := doc.Meta.Title
	if title == "" {
		title = fallbackTitle(doc.Slug)
	}
	req := coordinator.SaveRequest{
		Kind:   kind.Name,
		Shared: &shared,
		Locale: doc.Locale,
		Localized: &content.LocalizedFields{
			Title:       title,
			Description: doc.Meta.Description,
			Content: map[string]any{
				"type":     DocumentType,
				"source":   string(doc.Body),
				"html":     doc.HTML,
				"checksum": doc.Checksum,
			},
			Fields: doc.Meta.Localized,
		},
	}
	if existing != nil {
		req.ID = existing.ID
	} else {
		req.EntryID = id
	}
	if kind.Tags && doc.Meta.HasTags {
		req.Tags = doc.Meta.Tags
		req.SetTags = true
	}
	return req, nil
}

// Save writes doc, creating the entry on first import. A file whose checksum
// matches the stored translation is skipped.
func (i *Importer) Save(ctx context.Context, doc *Document) (*FileResult, error) {
	kind, err := i.registry.Get(doc.Kind)
	if err != nil {
		return nil, &content.ValidationError{Field: "kind", Message: err.Error(), Cause: err}
	}
	repo, err := i.repos.For(kind.Name)
	if err != nil {
		return nil, err
	}
	id := identity.EntryUUID(kind.Name, doc.Slug)
	logger := logging.WithContentContext(i.logger.WithContext(ctx), kind.Name, doc.Locale, id.String())

	existing, err := repo.FetchByID(ctx, id)
	if err != nil && !content.IsNotFound(err) {
		return nil, fmt.Errorf("%s: %w", doc.Path, err)
	}
	if err != nil {
		existing = nil
	}

	file := &FileResult{
		Path:    doc.Path,
		Kind:    kind.Name,
		Slug:    doc.Slug,
		Locale:  doc.Locale,
		EntryID: id,
	}
	if unchanged(existing, doc) {
		logger.Debug("markdown.import.unchanged", "path", doc.Path)
		file.Skipped = true
		return file, nil
	}

	req, err := i.Request(doc, existing)
	if err != nil {
		return nil, err
	}
	if doc.Meta.HasTags && !req.SetTags {
		logger.Warn("markdown.import.tags_ignored", "path", doc.Path)
	}

	result, err := i.saver.Save(ctx, req)
	if err != nil {
		logger.Error("markdown.import.failed", "path", doc.Path, "error", err)
		return nil, fmt.Errorf("%s: %w", doc.Path, err)
	}

	logger.Debug("markdown.import.saved", "path", doc.Path, "created", result.Created)
	file.EntryID = result.Entry.ID
	file.Created = result.Created
	return file, nil
}

func unchanged(existing *content.Entry, doc *Document) bool {
	if existing == nil || doc.Checksum == "" {
		return false
	}
	tr := existing.Translation(doc.Locale)
	if tr == nil {
		return false
	}
	checksum, _ := tr.Content["checksum"].(string)
	return checksum == doc.Checksum
}

// ImportFile loads, parses and saves one file of fsys.
func (i *Importer) ImportFile(ctx context.Context, fsys fs.FS, name string) (*FileResult, error) {
	src, err := NewLoader(fsys, i.loaderConfig).Load(ctx, name)
	if err != nil {
		return nil, err
	}
	doc, err := i.Parse(src)
	if err != nil {
		return nil, err
	}
	return i.Save(ctx, doc)
}

// ImportDir imports every matching file under dir. A failing file does not
// stop the others; the report lists every failure and the returned error
// joins them.
func (i *Importer) ImportDir(ctx context.Context, fsys fs.FS, dir string) (*Report, error) {
	paths, err := NewLoader(fsys, i.loaderConfig).Discover(ctx, dir)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, name := range paths {
		if err := ctx.Err(); err != nil {
			report.Errors = append(report.Errors, err)
			break
		}
		result, err := i.ImportFile(ctx, fsys, name)
		if err != nil {
			report.Errors = append(report.Errors, err)
			continue
		}
		report.Files = append(report.Files, *result)
		switch {
		case result.Skipped:
			report.Skipped++
		case result.Created:
			report.Created++
		default:
			report.Updated++
		}
	}

	i.logger.Info("markdown.import.completed",
		"dir", dir,
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"failed", len(report.Errors),
	)
	return report, errors.Join(report.Errors...)
}

// splitFileName strips the extension and a trailing locale suffix, so
// "react.en.md" yields ("react", "en").
func (i *Importer) splitFileName(base string) (string, string) {
	stem := strings.TrimSuffix(base, path.Ext(base))
	if ext := path.Ext(stem); ext != "" {
		if candidate := i18n.Normalize(ext[1:]); i.locales.Supports(candidate) {
			return strings.TrimSuffix(stem, ext), candidate
		}
	}
	return stem, ""
}

func (i *Importer) kindFromDirs(dirs []string) string {
	for _, dir := range dirs {
		if _, err := i.registry.Get(dir); err == nil {
			return dir
		}
	}
	return ""
}

func (i *Importer) localeFromDirs(dirs []string) string {
	for _, dir := range dirs {
		if i.locales.Supports(dir) {
			return i18n.Normalize(dir)
		}
	}
	return ""
}

func fallbackTitle(value string) string {
	if value == "" {
		return "Untitled"
	}
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(value))
	for idx, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[idx] = string(runes)
	}
	return strings.Join(words, " ")
}
