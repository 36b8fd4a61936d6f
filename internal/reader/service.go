// Package reader serves localized reads: entries are fetched from the kind
// repository, resolved against the locale chain and shaped for listings.
package reader

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-portfolio/internal/content"
	"github.com/goliatone/go-portfolio/internal/i18n"
	"github.com/goliatone/go-portfolio/internal/listing"
	"github.com/goliatone/go-portfolio/internal/logging"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
)

// ListOptions narrows a listing. Nil flags leave the field unconstrained and
// a zero Limit returns every match.
type ListOptions struct {
	Tag       string
	Published *bool
	Featured  *bool
	Limit     int
}

// Service exposes the read side of every kind.
type Service struct {
	registry  *content.Registry
	repos     content.Repositories
	locales   i18n.Config
	assembler *listing.Assembler
	logger    interfaces.Logger
}

// Option configures the service.
type Option func(*Service)

// WithLocales sets the locale configuration used to build chains.
func WithLocales(cfg i18n.Config) Option {
	return func(s *Service) {
		s.locales = cfg
	}
}

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService returns a reader over the registry and repositories.
func NewService(registry *content.Registry, repos content.Repositories, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		repos:    repos,
		locales:  i18n.DefaultConfig(),
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.assembler = listing.NewAssembler(s.locales)
	return s
}

// Get resolves one entry by id or slug for the locale.
func (s *Service) Get(ctx context.Context, kindName, idOrSlug, locale string) (content.View, error) {
	_, repo, err := s.resolve(kindName)
	if err != nil {
		return content.View{}, err
	}
	entry, err := repo.FetchOne(ctx, strings.TrimSpace(idOrSlug))
	if err != nil {
		return content.View{}, err
	}
	view := content.Resolve(entry, s.locales.Chain(locale))
	if view.Fallback {
		logging.WithContentContext(s.logger, kindName, locale, entry.ID.String()).
			Debug("content.read.fallback", "resolved_locale", view.Locale)
	}
	return view, nil
}

// List resolves the entries of a kind for the locale in the kind's order.
// The limit applies after ordering.
func (s *Service) List(ctx context.Context, kindName, locale string, opts ListOptions) ([]content.View, error) {
	kind, entries, err := s.fetch(ctx, kindName, opts)
	if err != nil {
		return nil, err
	}
	views := s.assembler.Assemble(kind, entries, locale)
	if opts.Limit > 0 && len(views) > opts.Limit {
		views = views[:opts.Limit]
	}
	return views, nil
}

// Grouped lists the kind bucketed by its group field.
func (s *Service) Grouped(ctx context.Context, kindName, locale string) ([]listing.Group, error) {
	kind, entries, err := s.fetch(ctx, kindName, ListOptions{})
	if err != nil {
		return nil, err
	}
	return s.assembler.Grouped(kind, entries, locale), nil
}

// Tags counts the tag rows of the kind's entries matching opts. Zero options
// count every row, drafts included; set Published to count only what a public
// page would show. Limit is ignored.
func (s *Service) Tags(ctx context.Context, kindName string, opts ListOptions) ([]listing.TagCount, error) {
	kind, _, err := s.resolve(kindName)
	if err != nil {
		return nil, err
	}
	if !kind.Tags {
		return nil, fmt.Errorf("%w: %s", content.ErrTagsUnsupported, kind.Name)
	}
	opts.Limit = 0
	_, entries, err := s.fetch(ctx, kindName, opts)
	if err != nil {
		return nil, err
	}
	return listing.TagCounts(entries), nil
}

func (s *Service) fetch(ctx context.Context, kindName string, opts ListOptions) (content.Kind, []*content.Entry, error) {
	kind, repo, err := s.resolve(kindName)
	if err != nil {
		return content.Kind{}, nil, err
	}
	tag := strings.TrimSpace(opts.Tag)
	if tag != "" && !kind.Tags {
		return content.Kind{}, nil, fmt.Errorf("%w: %s", content.ErrTagsUnsupported, kind.Name)
	}
	entries, err := repo.FetchMany(ctx, content.Filter{
		Published: opts.Published,
		Featured:  opts.Featured,
		Tag:       tag,
	})
	if err != nil {
		return content.Kind{}, nil, err
	}
	return kind, entries, nil
}

func (s *Service) resolve(kindName string) (content.Kind, content.Repository, error) {
	kind, err := s.registry.Get(kindName)
	if err != nil {
		return content.Kind{}, nil, err
	}
	repo, err := s.repos.For(kind.Name)
	if err != nil {
		return content.Kind{}, nil, err
	}
	return kind, repo, nil
}
