package content

import (
	"sort"
	"time"

	"github.com/goliatone/go-portfolio/internal/i18n"
	"github.com/google/uuid"
)

// View is the localized rendering of an entry: base fields merged with the
// translation picked for the request. It is computed on every read and never
// persisted.
type View struct {
	ID          uuid.UUID
	Kind        string
	Slug        string
	Position    *int
	Featured    bool
	Published   bool
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Locale is the locale of the chosen translation, empty when the entry has
	// none. RequestedLocale is the first locale of the chain.
	Locale          string
	RequestedLocale string
	Fallback        bool

	Title       string
	Description string
	Content     map[string]any
	// Fields holds the shared fields overlaid by the translation's fields.
	Fields map[string]any
	Tags   []string
}

// Translated reports whether a translation was found for the view.
func (v View) Translated() bool {
	return v.Locale != ""
}

// String returns the named merged field as a string, or empty.
func (v View) String(key string) string {
	value, ok := v.Fields[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

// Map returns the flat shallow merge of base and translation fields, with the
// translation winning on key collisions.
func (v View) Map() map[string]any {
	out := make(map[string]any, len(v.Fields)+12)
	out["id"] = v.ID.String()
	out["kind"] = v.Kind
	if v.Slug != "" {
		out["slug"] = v.Slug
	}
	if v.Position != nil {
		out["position"] = *v.Position
	}
	out["featured"] = v.Featured
	out["published"] = v.Published
	if v.PublishedAt != nil {
		out["published_at"] = *v.PublishedAt
	}
	out["created_at"] = v.CreatedAt
	out["updated_at"] = v.UpdatedAt
	if len(v.Tags) > 0 {
		out["tags"] = append([]string(nil), v.Tags...)
	}
	for key, value := range v.Fields {
		out[key] = value
	}
	if v.Locale != "" {
		out["locale"] = v.Locale
		out["title"] = v.Title
		out["description"] = v.Description
		if v.Content != nil {
			out["content"] = v.Content
		}
	}
	return out
}

// SelectTranslation walks the chain and returns the first translation whose
// locale matches. When nothing matches it returns the translation with the
// lowest locale code, so the pick never depends on storage order. It returns
// nil only when there are no translations.
func SelectTranslation(translations []*Translation, chain i18n.Chain) *Translation {
	if len(translations) == 0 {
		return nil
	}

	byLocale := make(map[string]*Translation, len(translations))
	for _, tr := range translations {
		if tr == nil {
			continue
		}
		locale := normalizeLocale(tr.Locale)
		if _, exists := byLocale[locale]; !exists {
			byLocale[locale] = tr
		}
	}
	if len(byLocale) == 0 {
		return nil
	}

	for _, locale := range chain {
		if tr, ok := byLocale[normalizeLocale(locale)]; ok {
			return tr
		}
	}

	locales := make([]string, 0, len(byLocale))
	for locale := range byLocale {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	return byLocale[locales[0]]
}

// Resolve merges the entry with its best translation for the chain. It is
// total: a nil entry yields the zero View and an entry without translations
// yields its base fields with empty localized fields.
func Resolve(entry *Entry, chain i18n.Chain) View {
	view := View{RequestedLocale: chain.Requested()}
	if entry == nil {
		return view
	}

	view.ID = entry.ID
	view.Kind = entry.Kind
	view.Slug = entry.Slug
	view.Featured = entry.Featured
	view.Published = entry.Published
	view.CreatedAt = entry.CreatedAt
	view.UpdatedAt = entry.UpdatedAt
	if entry.Position != nil {
		position := *entry.Position
		view.Position = &position
	}
	if entry.PublishedAt != nil {
		publishedAt := *entry.PublishedAt
		view.PublishedAt = &publishedAt
	}
	view.Tags = entry.TagValues()
	view.Fields = cloneMap(entry.Fields)
	if view.Fields == nil {
		view.Fields = map[string]any{}
	}

	tr := SelectTranslation(entry.Translations, chain)
	if tr == nil {
		return view
	}

	view.Locale = normalizeLocale(tr.Locale)
	view.Fallback = view.Locale != normalizeLocale(view.RequestedLocale)
	view.Title = tr.Title
	view.Description = tr.Description
	view.Content = cloneMap(tr.Content)
	for key, value := range tr.Fields {
		view.Fields[key] = value
	}
	return view
}

// ResolveAll resolves every entry with the same chain, preserving order.
func ResolveAll(entries []*Entry, chain i18n.Chain) []View {
	views := make([]View, 0, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		views = append(views, Resolve(entry, chain))
	}
	return views
}

func normalizeLocale(locale string) string {
	return i18n.Normalize(locale)
}
