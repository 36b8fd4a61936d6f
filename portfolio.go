// Package portfolio is the localized content core of a personal portfolio
// site. Every kind of content (projects, skills, posts and the rest) keeps one
// language independent base record plus one translation per locale; reads
// resolve a locale chain and writes keep the two in step.
package portfolio

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-portfolio/internal/content"
	"github.com/goliatone/go-portfolio/internal/coordinator"
	"github.com/goliatone/go-portfolio/internal/di"
	"github.com/goliatone/go-portfolio/internal/listing"
	"github.com/goliatone/go-portfolio/internal/markdown"
	"github.com/goliatone/go-portfolio/internal/reader"
	"github.com/google/uuid"
)

type (
	Kind            = content.Kind
	Entry           = content.Entry
	View            = content.View
	SharedFields    = content.SharedFields
	LocalizedFields = content.LocalizedFields
	SaveRequest     = coordinator.SaveRequest
	SaveResult      = coordinator.SaveResult
	DeleteResult    = coordinator.DeleteResult
	ListOptions     = reader.ListOptions
	Group           = listing.Group
	TagCount        = listing.TagCount
	ImportReport    = markdown.Report
)

var (
	ErrNotFound          = content.ErrNotFound
	ErrValidation        = content.ErrValidation
	ErrConflict          = content.ErrConflict
	ErrPartialWrite      = content.ErrPartialWrite
	ErrStoreUnavailable  = content.ErrStoreUnavailable
	ErrUnknownKind       = content.ErrUnknownKind
	ErrUnsupportedLocale = content.ErrUnsupportedLocale
	ErrTagsUnsupported   = content.ErrTagsUnsupported
)

// Module is the entry point for hosts embedding the content core.
type Module struct {
	container *di.Container
}

// New builds a module from cfg. The caller must Close it.
func New(ctx context.Context, cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container.
func (m *Module) Container() *di.Container {
	return m.container
}

// Kinds lists the registered kind names.
func (m *Module) Kinds() []string {
	return m.container.Registry().Names()
}

// Get returns one entry of kind by id or slug, resolved for locale.
func (m *Module) Get(ctx context.Context, kind, idOrSlug, locale string) (View, error) {
	return m.container.Reader().Get(ctx, kind, idOrSlug, locale)
}

// List returns the entries of kind resolved for locale in display order.
func (m *Module) List(ctx context.Context, kind, locale string, opts ListOptions) ([]View, error) {
	return m.container.Reader().List(ctx, kind, locale, opts)
}

// Grouped returns the entries of kind bucketed by the kind's group field.
func (m *Module) Grouped(ctx context.Context, kind, locale string) ([]Group, error) {
	return m.container.Reader().Grouped(ctx, kind, locale)
}

// Tags counts the tag rows of the entries of kind matching opts. Zero options
// count drafts too.
func (m *Module) Tags(ctx context.Context, kind string, opts ListOptions) ([]TagCount, error) {
	return m.container.Reader().Tags(ctx, kind, opts)
}

// Save applies one localized write.
func (m *Module) Save(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	return m.container.Coordinator().Save(ctx, req)
}

// Delete removes an entry with its translations and tags.
func (m *Module) Delete(ctx context.Context, kind string, id uuid.UUID) (*DeleteResult, error) {
	return m.container.Coordinator().Delete(ctx, kind, id)
}

// ImportMarkdown imports every markdown file below dir of fsys.
func (m *Module) ImportMarkdown(ctx context.Context, fsys fs.FS, dir string) (*ImportReport, error) {
	return m.container.Importer().ImportDir(ctx, fsys, dir)
}

// Close releases the connections the module opened.
func (m *Module) Close() error {
	return m.container.Close()
}
