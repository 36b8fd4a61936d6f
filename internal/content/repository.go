package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-portfolio/pkg/interfaces"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
)

// Repository reads and writes the entries of one kind together with their
// translations and tags. Every kind uses the same implementation; the kind
// name scopes every query.
type Repository interface {
	Kind() string
	// FetchOne looks an entry up by UUID, or by slug when the value does not
	// parse as a UUID.
	FetchOne(ctx context.Context, idOrSlug string) (*Entry, error)
	FetchByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	FetchMany(ctx context.Context, filter Filter) ([]*Entry, error)
	CreateBase(ctx context.Context, shared SharedFields, opts ...CreateOption) (*Entry, error)
	UpdateBase(ctx context.Context, id uuid.UUID, shared SharedFields) (*Entry, error)
	// UpsertTranslation inserts the (entry, locale) row or fully overwrites
	// its localized fields.
	UpsertTranslation(ctx context.Context, entryID uuid.UUID, locale string, fields LocalizedFields) (*Translation, error)
	// ReplaceTags deletes every tag of the entry and inserts the new set. An
	// empty set leaves the entry without tags.
	ReplaceTags(ctx context.Context, entryID uuid.UUID, tags []string) error
	DeleteBase(ctx context.Context, id uuid.UUID) error
}

// Transactor is implemented by repositories that can apply several writes
// atomically. The repository passed to fn is bound to the transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

// Filter narrows FetchMany. Nil pointers leave the flag unconstrained.
type Filter struct {
	Published *bool
	Featured  *bool
	// Tag restricts results to entries carrying the exact tag value.
	Tag   string
	Limit int
}

// CreateOption customizes CreateBase.
type CreateOption func(*Entry)

// WithID assigns the entry id instead of letting the store generate one.
func WithID(id uuid.UUID) CreateOption {
	return func(e *Entry) {
		if id != uuid.Nil {
			e.ID = id
		}
	}
}

// Option configures repository implementations.
type Option func(*options)

type options struct {
	now        func() time.Time
	cache      cache.CacheService
	serializer cache.KeySerializer
	logger     interfaces.Logger
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithCache enables read-through caching for repositories that support it.
func WithCache(service cache.CacheService, serializer cache.KeySerializer) Option {
	return func(o *options) {
		o.cache = service
		o.serializer = serializer
	}
}

// WithLogger sets the repository logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func applyOptions(opts []Option) options {
	cfg := options{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		value := strings.TrimSpace(tag)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

func parseIdentifier(idOrSlug string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(idOrSlug))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func newEntry(kind string, shared SharedFields, now time.Time, opts []CreateOption) *Entry {
	entry := &Entry{
		ID:        uuid.New(),
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyShared(entry, shared)
	for _, opt := range opts {
		if opt != nil {
			opt(entry)
		}
	}
	return entry
}

func applyShared(entry *Entry, shared SharedFields) {
	entry.Slug = strings.TrimSpace(shared.Slug)
	entry.Position = nil
	if shared.Position != nil {
		position := *shared.Position
		entry.Position = &position
	}
	entry.Featured = shared.Featured
	entry.Published = shared.Published
	entry.PublishedAt = nil
	if shared.PublishedAt != nil {
		publishedAt := shared.PublishedAt.UTC()
		entry.PublishedAt = &publishedAt
	}
	entry.Fields = cloneMap(shared.Fields)
}

// Shared extracts the shared fields of an entry.
func (e *Entry) Shared() SharedFields {
	if e == nil {
		return SharedFields{}
	}
	shared := SharedFields{
		Slug:      e.Slug,
		Featured:  e.Featured,
		Published: e.Published,
		Fields:    cloneMap(e.Fields),
	}
	if e.Position != nil {
		position := *e.Position
		shared.Position = &position
	}
	if e.PublishedAt != nil {
		publishedAt := *e.PublishedAt
		shared.PublishedAt = &publishedAt
	}
	return shared
}

// Repositories resolves the repository serving a kind.
type Repositories interface {
	For(kind string) (Repository, error)
}

// RepositorySet maps kind names to repositories.
type RepositorySet map[string]Repository

func (s RepositorySet) For(kind string) (Repository, error) {
	repo, ok := s[strings.TrimSpace(kind)]
	if !ok || repo == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return repo, nil
}

// NewMemoryRepositories builds one memory repository per registered kind.
func NewMemoryRepositories(registry *Registry, opts ...Option) RepositorySet {
	set := make(RepositorySet)
	for _, name := range registry.Names() {
		set[name] = NewMemoryRepository(name, opts...)
	}
	return set
}
