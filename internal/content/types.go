package content

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Entry is the language independent base record of one content item. Every
// kind shares the table and is discriminated by Kind.
type Entry struct {
	bun.BaseModel `bun:"table:content_entries,alias:ce"`

	ID          uuid.UUID      `bun:",pk,type:uuid"         json:"id"`
	Kind        string         `bun:"kind,notnull"          json:"kind"`
	Slug        string         `bun:"slug,nullzero"         json:"slug,omitempty"`
	Position    *int           `bun:"position"              json:"position,omitempty"`
	Featured    bool           `bun:"featured,notnull"      json:"featured"`
	Published   bool           `bun:"published,notnull"     json:"published"`
	PublishedAt *time.Time     `bun:"published_at,nullzero" json:"published_at,omitempty"`
	Fields      map[string]any `bun:"fields,type:jsonb"     json:"fields,omitempty"`
	CreatedAt   time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`

	Translations []*Translation `bun:"rel:has-many,join:id=entry_id" json:"translations,omitempty"`
	Tags         []*Tag         `bun:"rel:has-many,join:id=entry_id" json:"tags,omitempty"`
}

// Translation holds the human-language fields of an entry for one locale.
// At most one row exists per (entry_id, locale).
type Translation struct {
	bun.BaseModel `bun:"table:content_translations,alias:ctr"`

	ID          uuid.UUID      `bun:",pk,type:uuid"              json:"id"`
	EntryID     uuid.UUID      `bun:"entry_id,notnull,type:uuid" json:"entry_id"`
	Locale      string         `bun:"locale,notnull"             json:"locale"`
	Title       string         `bun:"title,notnull"              json:"title"`
	Description string         `bun:"description,notnull"        json:"description"`
	Content     map[string]any `bun:"content,type:jsonb"         json:"content,omitempty"`
	Fields      map[string]any `bun:"fields,type:jsonb"          json:"fields,omitempty"`
	CreatedAt   time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Tag is a flat, non-localized label attached to an entry.
type Tag struct {
	bun.BaseModel `bun:"table:content_tags,alias:ctg"`

	ID       uuid.UUID `bun:",pk,type:uuid"              json:"id"`
	EntryID  uuid.UUID `bun:"entry_id,notnull,type:uuid" json:"entry_id"`
	Value    string    `bun:"value,notnull"              json:"value"`
	Position int       `bun:"position,notnull"           json:"position"`
}

// SharedFields are the language independent values written to an entry.
type SharedFields struct {
	Slug        string
	Position    *int
	Featured    bool
	Published   bool
	PublishedAt *time.Time
	Fields      map[string]any
}

// LocalizedFields are the values written to one translation row. A write
// always replaces every localized field of that row.
type LocalizedFields struct {
	Title       string
	Description string
	Content     map[string]any
	Fields      map[string]any
}

// TagValues returns the tag strings in stored order.
func (e *Entry) TagValues() []string {
	if e == nil || len(e.Tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(e.Tags))
	for _, tag := range e.Tags {
		if tag == nil {
			continue
		}
		out = append(out, tag.Value)
	}
	return out
}

// Translation returns the translation stored for the locale, or nil.
func (e *Entry) Translation(locale string) *Translation {
	if e == nil {
		return nil
	}
	for _, tr := range e.Translations {
		if tr != nil && normalizeLocale(tr.Locale) == normalizeLocale(locale) {
			return tr
		}
	}
	return nil
}

func cloneEntry(src *Entry) *Entry {
	if src == nil {
		return nil
	}
	copied := *src
	copied.Fields = cloneMap(src.Fields)
	if src.Position != nil {
		position := *src.Position
		copied.Position = &position
	}
	if src.PublishedAt != nil {
		publishedAt := *src.PublishedAt
		copied.PublishedAt = &publishedAt
	}
	copied.Translations = nil
	for _, tr := range src.Translations {
		if tr == nil {
			continue
		}
		copied.Translations = append(copied.Translations, cloneTranslation(tr))
	}
	copied.Tags = nil
	for _, tag := range src.Tags {
		if tag == nil {
			continue
		}
		local := *tag
		copied.Tags = append(copied.Tags, &local)
	}
	return &copied
}

func cloneTranslation(src *Translation) *Translation {
	if src == nil {
		return nil
	}
	copied := *src
	copied.Content = cloneMap(src.Content)
	copied.Fields = cloneMap(src.Fields)
	return &copied
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for key, value := range src {
		switch typed := value.(type) {
		case map[string]any:
			out[key] = cloneMap(typed)
		case []any:
			items := make([]any, len(typed))
			for i, item := range typed {
				if nested, ok := item.(map[string]any); ok {
					items[i] = cloneMap(nested)
					continue
				}
				items[i] = item
			}
			out[key] = items
		default:
			out[key] = value
		}
	}
	return out
}
