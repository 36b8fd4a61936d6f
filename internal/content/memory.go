package content

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-portfolio/internal/identity"
	"github.com/google/uuid"
)

// MemoryRepository keeps the entries of one kind in memory. It honours the
// same uniqueness rules as the relational store: one translation per
// (entry, locale) and unique non-empty slugs.
type MemoryRepository struct {
	kind     string
	mu       sync.RWMutex
	entries  map[uuid.UUID]*Entry
	now      func() time.Time
	failures map[string]error
}

var (
	_ Repository = (*MemoryRepository)(nil)
	_ Transactor = (*MemoryRepository)(nil)
)

// NewMemoryRepository returns an empty repository for the kind.
func NewMemoryRepository(kind string, opts ...Option) *MemoryRepository {
	cfg := applyOptions(opts)
	return &MemoryRepository{
		kind:     strings.TrimSpace(kind),
		entries:  make(map[uuid.UUID]*Entry),
		now:      cfg.now,
		failures: make(map[string]error),
	}
}

// FailOn makes every later call of the named operation return err. Operation
// names match the write methods in snake case, for example
// "upsert_translation". A nil err clears the failure.
func (m *MemoryRepository) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

func (m *MemoryRepository) Kind() string {
	return m.kind
}

func (m *MemoryRepository) FetchOne(ctx context.Context, idOrSlug string) (*Entry, error) {
	if id, ok := parseIdentifier(idOrSlug); ok {
		return m.FetchByID(ctx, id)
	}
	slug := strings.TrimSpace(idOrSlug)

	m.mu.RLock()
	defer m.mu.RUnlock()
	if slug != "" {
		for _, entry := range m.entries {
			if entry.Slug == slug {
				return cloneEntry(entry), nil
			}
		}
	}
	return nil, &NotFoundError{Resource: m.kind, Key: slug}
}

func (m *MemoryRepository) FetchByID(_ context.Context, id uuid.UUID) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[id]
	if !ok {
		return nil, &NotFoundError{Resource: m.kind, Key: id.String()}
	}
	return cloneEntry(entry), nil
}

func (m *MemoryRepository) FetchMany(_ context.Context, filter Filter) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids map[uuid.UUID]struct{}
	tag := strings.TrimSpace(filter.Tag)
	if tag != "" {
		ids = make(map[uuid.UUID]struct{})
		for id, entry := range m.entries {
			for _, t := range entry.Tags {
				if t.Value == tag {
					ids[id] = struct{}{}
					break
				}
			}
		}
		if len(ids) == 0 {
			return []*Entry{}, nil
		}
	}

	out := make([]*Entry, 0, len(m.entries))
	for id, entry := range m.entries {
		if ids != nil {
			if _, ok := ids[id]; !ok {
				continue
			}
		}
		if filter.Published != nil && entry.Published != *filter.Published {
			continue
		}
		if filter.Featured != nil && entry.Featured != *filter.Featured {
			continue
		}
		out = append(out, cloneEntry(entry))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MemoryRepository) CreateBase(_ context.Context, shared SharedFields, opts ...CreateOption) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("create_base"); err != nil {
		return nil, err
	}

	entry := newEntry(m.kind, shared, m.now().UTC(), opts)
	if _, exists := m.entries[entry.ID]; exists {
		return nil, &StoreError{Op: "create_base", Class: ErrConflict, Err: errors.New("duplicate id " + entry.ID.String())}
	}
	if err := m.checkSlug(entry.ID, entry.Slug, "create_base"); err != nil {
		return nil, err
	}
	m.entries[entry.ID] = entry
	return cloneEntry(entry), nil
}

func (m *MemoryRepository) UpdateBase(_ context.Context, id uuid.UUID, shared SharedFields) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("update_base"); err != nil {
		return nil, err
	}

	entry, ok := m.entries[id]
	if !ok {
		return nil, &NotFoundError{Resource: m.kind, Key: id.String()}
	}
	if err := m.checkSlug(id, strings.TrimSpace(shared.Slug), "update_base"); err != nil {
		return nil, err
	}
	applyShared(entry, shared)
	entry.UpdatedAt = m.now().UTC()
	return cloneEntry(entry), nil
}

func (m *MemoryRepository) UpsertTranslation(_ context.Context, entryID uuid.UUID, locale string, fields LocalizedFields) (*Translation, error) {
	locale = normalizeLocale(locale)
	if locale == "" {
		return nil, &ValidationError{Field: "locale", Message: "locale is required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("upsert_translation"); err != nil {
		return nil, err
	}

	entry, ok := m.entries[entryID]
	if !ok {
		return nil, &NotFoundError{Resource: m.kind, Key: entryID.String()}
	}

	now := m.now().UTC()
	for _, existing := range entry.Translations {
		if existing.Locale != locale {
			continue
		}
		existing.Title = fields.Title
		existing.Description = fields.Description
		existing.Content = cloneMap(fields.Content)
		existing.Fields = cloneMap(fields.Fields)
		existing.UpdatedAt = now
		return cloneTranslation(existing), nil
	}

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
	entry.Translations = append(entry.Translations, record)
	sort.SliceStable(entry.Translations, func(i, j int) bool {
		return entry.Translations[i].Locale < entry.Translations[j].Locale
	})
	return cloneTranslation(record), nil
}

func (m *MemoryRepository) ReplaceTags(_ context.Context, entryID uuid.UUID, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("replace_tags"); err != nil {
		return err
	}

	entry, ok := m.entries[entryID]
	if !ok {
		return &NotFoundError{Resource: m.kind, Key: entryID.String()}
	}
	values := normalizeTags(tags)
	entry.Tags = make([]*Tag, 0, len(values))
	for i, value := range values {
		entry.Tags = append(entry.Tags, &Tag{
			ID:       identity.TagUUID(entryID, value, i),
			EntryID:  entryID,
			Value:    value,
			Position: i,
		})
	}
	return nil
}

func (m *MemoryRepository) DeleteBase(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("delete_base"); err != nil {
		return err
	}
	if _, ok := m.entries[id]; !ok {
		return &NotFoundError{Resource: m.kind, Key: id.String()}
	}
	delete(m.entries, id)
	return nil
}

// WithinTx stages fn's writes on a copy of the repository and swaps the copy
// in only when fn succeeds. Other callers wait until the transaction ends.
func (m *MemoryRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := &MemoryRepository{
		kind:     m.kind,
		entries:  make(map[uuid.UUID]*Entry, len(m.entries)),
		now:      m.now,
		failures: make(map[string]error, len(m.failures)),
	}
	for id, entry := range m.entries {
		staged.entries[id] = cloneEntry(entry)
	}
	for op, err := range m.failures {
		staged.failures[op] = err
	}

	if err := fn(ctx, staged); err != nil {
		return err
	}
	m.entries = staged.entries
	return nil
}

func (m *MemoryRepository) failure(op string) error {
	if err, ok := m.failures[op]; ok {
		return err
	}
	return nil
}

func (m *MemoryRepository) checkSlug(id uuid.UUID, slug, op string) error {
	if slug == "" {
		return nil
	}
	for otherID, other := range m.entries {
		if otherID != id && other.Slug == slug {
			return &StoreError{Op: op, Class: ErrConflict, Err: errors.New("slug " + slug + " already in use")}
		}
	}
	return nil
}
