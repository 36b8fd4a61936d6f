package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-portfolio/internal/identity"
	"github.com/goliatone/go-portfolio/internal/logging"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const entryNamespace = "content_entry"

// BunRepository implements Repository on a relational store through bun.
// Lookups by id go through go-repository-bun, optionally behind a read-through
// cache keyed by the id string. Slug and filtered reads query bun directly so
// no cache key depends on a query closure. Writes use bun queries so they can
// join an open transaction.
type BunRepository struct {
	kind         string
	db           bun.IDB
	entries      repository.Repository[*Entry]
	cacheService cache.CacheService
	cachePrefix  string
	now          func() time.Time
	logger       interfaces.Logger
}

var (
	_ Repository = (*BunRepository)(nil)
	_ Transactor = (*BunRepository)(nil)
)

// NewEntryRepository builds the go-repository-bun handlers for entries.
func NewEntryRepository(db *bun.DB) repository.Repository[*Entry] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Entry]{
		NewRecord: func() *Entry { return &Entry{} },
		GetID: func(e *Entry) uuid.UUID {
			return e.ID
		},
		SetID: func(e *Entry, id uuid.UUID) {
			e.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(e *Entry) string {
			return e.Slug
		},
	})
}

// NewBunRepository returns the repository for one kind.
func NewBunRepository(db *bun.DB, kind string, opts ...Option) *BunRepository {
	cfg := applyOptions(opts)
	var entries repository.Repository[*Entry]
	if db != nil {
		entries = NewEntryRepository(db)
	}
	repo := &BunRepository{
		kind:   strings.TrimSpace(kind),
		db:     db,
		now:    cfg.now,
		logger: cfg.logger,
	}
	if repo.logger == nil {
		repo.logger = logging.NoOp()
	}
	if entries != nil && cfg.cache != nil && cfg.serializer != nil {
		entries = repositorycache.New(entries, cfg.cache, cfg.serializer)
		repo.cacheService = cfg.cache
		repo.cachePrefix = entryNamespace + cache.KeySeparator
	}
	repo.entries = entries
	return repo
}

func (r *BunRepository) Kind() string {
	return r.kind
}

func (r *BunRepository) FetchOne(ctx context.Context, idOrSlug string) (*Entry, error) {
	if id, ok := parseIdentifier(idOrSlug); ok {
		return r.FetchByID(ctx, id)
	}
	slug := strings.TrimSpace(idOrSlug)
	if slug == "" {
		return nil, &NotFoundError{Resource: r.kind, Key: idOrSlug}
	}
	records, err := r.selectEntries(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.slug = ?", slug).Limit(1)
	})
	if err != nil {
		return nil, classifyStoreError("fetch_one", r.kind, slug, err)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: r.kind, Key: slug}
	}
	return records[0], nil
}

func (r *BunRepository) FetchByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	if r.entries == nil {
		records, err := r.selectEntries(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.id = ?", id).Limit(1)
		})
		if err != nil {
			return nil, classifyStoreError("fetch_by_id", r.kind, id.String(), err)
		}
		if len(records) == 0 {
			return nil, &NotFoundError{Resource: r.kind, Key: id.String()}
		}
		return records[0], nil
	}

	// Every kind shares the entry namespace, so a cached row of another kind
	// must read as missing here.
	record, err := r.entries.GetByID(ctx, id.String())
	if err != nil {
		return nil, classifyStoreError("fetch_by_id", r.kind, id.String(), err)
	}
	if record == nil || record.Kind != r.kind {
		return nil, &NotFoundError{Resource: r.kind, Key: id.String()}
	}
	entry := cloneEntry(record)
	if err := r.loadChildren(ctx, entry); err != nil {
		return nil, classifyStoreError("fetch_by_id", r.kind, id.String(), err)
	}
	return entry, nil
}

func (r *BunRepository) FetchMany(ctx context.Context, filter Filter) ([]*Entry, error) {
	var ids []uuid.UUID
	tag := strings.TrimSpace(filter.Tag)
	if tag != "" {
		if err := r.db.NewSelect().
			Model((*Tag)(nil)).
			Column("entry_id").
			Where("?TableAlias.value = ?", tag).
			Scan(ctx, &ids); err != nil {
			return nil, classifyStoreError("fetch_tag_ids", r.kind, tag, err)
		}
		if len(ids) == 0 {
			return []*Entry{}, nil
		}
	}

	records, err := r.selectEntries(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		if filter.Published != nil {
			q = q.Where("?TableAlias.published = ?", *filter.Published)
		}
		if filter.Featured != nil {
			q = q.Where("?TableAlias.featured = ?", *filter.Featured)
		}
		if len(ids) > 0 {
			q = q.Where("?TableAlias.id IN (?)", bun.In(ids))
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		return q
	})
	if err != nil {
		return nil, classifyStoreError("fetch_many", r.kind, "", err)
	}
	if records == nil {
		records = []*Entry{}
	}
	return records, nil
}

func (r *BunRepository) CreateBase(ctx context.Context, shared SharedFields, opts ...CreateOption) (*Entry, error) {
	entry := newEntry(r.kind, shared, r.now().UTC(), opts)
	if _, err := r.db.NewInsert().Model(entry).Exec(ctx); err != nil {
		return nil, classifyStoreError("create_base", r.kind, entry.Slug, err)
	}
	r.invalidateCache(ctx)
	return cloneEntry(entry), nil
}

func (r *BunRepository) UpdateBase(ctx context.Context, id uuid.UUID, shared SharedFields) (*Entry, error) {
	entry := &Entry{ID: id, Kind: r.kind, UpdatedAt: r.now().UTC()}
	applyShared(entry, shared)

	res, err := r.db.NewUpdate().
		Model(entry).
		Column("slug", "position", "featured", "published", "published_at", "fields", "updated_at").
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.kind = ?", r.kind).
		Exec(ctx)
	if err != nil {
		return nil, classifyStoreError("update_base", r.kind, id.String(), err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, &NotFoundError{Resource: r.kind, Key: id.String()}
	}
	r.invalidateCache(ctx)
	return r.FetchByID(ctx, id)
}

func (r *BunRepository) UpsertTranslation(ctx context.Context, entryID uuid.UUID, locale string, fields LocalizedFields) (*Translation, error) {
	locale = normalizeLocale(locale)
	if locale == "" {
		return nil, &ValidationError{Field: "locale", Message: "locale is required"}
	}
	if err := r.ensureEntry(ctx, r.db, entryID); err != nil {
		return nil, err
	}

	now := r.now().UTC()
	record := &Translation{
		ID:          identity.TranslationUUID(entryID, locale),
		EntryID:     entryID,
		Locale:      locale,
		Title:       fields.Title,
		Description: fields.Description,
		Content:     cloneMap(fields.Content),
		Fields:      cloneMap(fields.Fields),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.db.NewInsert().
		Model(record).
		On("CONFLICT (entry_id, locale) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("description = EXCLUDED.description").
		Set("content = EXCLUDED.content").
		Set("fields = EXCLUDED.fields").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return nil, classifyStoreError("upsert_translation", r.kind, entryID.String()+"/"+locale, err)
	}
	r.invalidateCache(ctx)
	return cloneTranslation(record), nil
}

func (r *BunRepository) ReplaceTags(ctx context.Context, entryID uuid.UUID, tags []string) error {
	values := normalizeTags(tags)
	err := r.inTx(ctx, func(ctx context.Context, db bun.IDB) error {
		if err := r.ensureEntry(ctx, db, entryID); err != nil {
			return err
		}
		if _, err := db.NewDelete().
			Model((*Tag)(nil)).
			Where("?TableAlias.entry_id = ?", entryID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete tags: %w", err)
		}
		if len(values) == 0 {
			return nil
		}
		rows := make([]*Tag, 0, len(values))
		for i, value := range values {
			rows = append(rows, &Tag{
				ID:       identity.TagUUID(entryID, value, i),
				EntryID:  entryID,
				Value:    value,
				Position: i,
			})
		}
		if _, err := db.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert tags: %w", err)
		}
		return nil
	})
	if err != nil {
		return classifyStoreError("replace_tags", r.kind, entryID.String(), err)
	}
	r.invalidateCache(ctx)
	return nil
}

func (r *BunRepository) DeleteBase(ctx context.Context, id uuid.UUID) error {
	err := r.inTx(ctx, func(ctx context.Context, db bun.IDB) error {
		if _, err := db.NewDelete().
			Model((*Translation)(nil)).
			Where("?TableAlias.entry_id = ?", id).
			Where("?TableAlias.entry_id IN (SELECT id FROM content_entries WHERE kind = ?)", r.kind).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete translations: %w", err)
		}
		if _, err := db.NewDelete().
			Model((*Tag)(nil)).
			Where("?TableAlias.entry_id = ?", id).
			Where("?TableAlias.entry_id IN (SELECT id FROM content_entries WHERE kind = ?)", r.kind).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete tags: %w", err)
		}
		res, err := db.NewDelete().
			Model((*Entry)(nil)).
			Where("?TableAlias.id = ?", id).
			Where("?TableAlias.kind = ?", r.kind).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return &NotFoundError{Resource: r.kind, Key: id.String()}
		}
		return nil
	})
	if err != nil {
		return classifyStoreError("delete_base", r.kind, id.String(), err)
	}
	r.invalidateCache(ctx)
	return nil
}

// WithinTx runs fn with a repository bound to a single transaction. Cached
// reads are dropped once the transaction commits.
func (r *BunRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	db, ok := r.db.(*bun.DB)
	if !ok {
		return fn(ctx, r)
	}
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, r.bind(tx))
	})
	if err != nil {
		return err
	}
	r.invalidateCache(ctx)
	return nil
}

// InvalidateCache drops every cached entry read.
func (r *BunRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

func (r *BunRepository) bind(tx bun.Tx) *BunRepository {
	return &BunRepository{
		kind:   r.kind,
		db:     tx,
		now:    r.now,
		logger: r.logger,
	}
}

func (r *BunRepository) scope(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		Where("?TableAlias.kind = ?", r.kind).
		Relation("Translations", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.locale ASC")
		}).
		Relation("Tags", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.position ASC")
		}).
		OrderExpr("?TableAlias.created_at DESC").
		OrderExpr("?TableAlias.id ASC")
}

func (r *BunRepository) selectEntries(ctx context.Context, apply func(*bun.SelectQuery) *bun.SelectQuery) ([]*Entry, error) {
	var records []*Entry
	if err := apply(r.scope(r.db.NewSelect().Model(&records))).Scan(ctx); err != nil {
		return nil, err
	}
	return records, nil
}

// loadChildren reads the translations and tags of entry, ordered the same
// way scope orders relations.
func (r *BunRepository) loadChildren(ctx context.Context, entry *Entry) error {
	entry.Translations = nil
	if err := r.db.NewSelect().
		Model(&entry.Translations).
		Where("?TableAlias.entry_id = ?", entry.ID).
		OrderExpr("?TableAlias.locale ASC").
		Scan(ctx); err != nil {
		return fmt.Errorf("load translations: %w", err)
	}
	entry.Tags = nil
	if err := r.db.NewSelect().
		Model(&entry.Tags).
		Where("?TableAlias.entry_id = ?", entry.ID).
		OrderExpr("?TableAlias.position ASC").
		Scan(ctx); err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	return nil
}

func (r *BunRepository) ensureEntry(ctx context.Context, db bun.IDB, id uuid.UUID) error {
	exists, err := db.NewSelect().
		Model((*Entry)(nil)).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.kind = ?", r.kind).
		Exists(ctx)
	if err != nil {
		return classifyStoreError("ensure_entry", r.kind, id.String(), err)
	}
	if !exists {
		return &NotFoundError{Resource: r.kind, Key: id.String()}
	}
	return nil
}

func (r *BunRepository) inTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	if db, ok := r.db.(*bun.DB); ok {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return fn(ctx, tx)
		})
	}
	return fn(ctx, r.db)
}

func (r *BunRepository) invalidateCache(ctx context.Context) {
	if err := r.InvalidateCache(ctx); err != nil {
		r.logger.Warn("content.cache.invalidate_failed", "kind", r.kind, "error", err)
	}
}

// NewBunRepositories builds one repository per registered kind sharing db.
func NewBunRepositories(db *bun.DB, registry *Registry, opts ...Option) RepositorySet {
	set := make(RepositorySet)
	for _, name := range registry.Names() {
		set[name] = NewBunRepository(db, name, opts...)
	}
	return set
}
