// Package listing turns fetched entries into locale-resolved, ordered and
// grouped collections for index pages.
package listing

import (
	"sort"
	"strings"

	"github.com/goliatone/go-portfolio/internal/content"
	"github.com/goliatone/go-portfolio/internal/i18n"
)

// OtherGroup collects views without a group value. It sorts after every
// named group.
const OtherGroup = "Other"

// Group is one bucket of a grouped listing.
type Group struct {
	Name  string
	Items []content.View
}

// TagCount is the number of entries carrying a tag.
type TagCount struct {
	Tag   string
	Count int
}

// Assembler resolves and orders entries for a kind.
type Assembler struct {
	locales i18n.Config
}

// NewAssembler returns an assembler using the locale fallbacks of cfg.
func NewAssembler(cfg i18n.Config) *Assembler {
	return &Assembler{locales: cfg}
}

// Assemble resolves every entry for the locale and orders the views by the
// kind's rule.
func (a *Assembler) Assemble(kind content.Kind, entries []*content.Entry, locale string) []content.View {
	views := content.ResolveAll(entries, a.locales.Chain(locale))
	Sort(kind, views)
	return views
}

// Grouped assembles the entries and buckets them by the kind's group field.
func (a *Assembler) Grouped(kind content.Kind, entries []*content.Entry, locale string) []Group {
	return GroupBy(a.Assemble(kind, entries, locale), kind.GroupField)
}

// Sort orders views in place. Every rule falls back to newest first and then
// to the id so the order is total.
func Sort(kind content.Kind, views []content.View) {
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		switch kind.Order {
		case content.OrderPosition:
			if less, decided := comparePositions(a.Position, b.Position); decided {
				return less
			}
		case content.OrderFieldDesc:
			av, bv := a.String(kind.OrderField), b.String(kind.OrderField)
			if av != bv {
				if av == "" || bv == "" {
					return bv == ""
				}
				return av > bv
			}
		case content.OrderPublishedDesc:
			if less, decided := comparePublished(a, b); decided {
				return less
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}

func comparePositions(a, b *int) (bool, bool) {
	switch {
	case a == nil && b == nil:
		return false, false
	case a == nil:
		return false, true
	case b == nil:
		return true, true
	case *a != *b:
		return *a < *b, true
	}
	return false, false
}

func comparePublished(a, b content.View) (bool, bool) {
	switch {
	case a.PublishedAt == nil && b.PublishedAt == nil:
		return false, false
	case a.PublishedAt == nil:
		return false, true
	case b.PublishedAt == nil:
		return true, true
	case !a.PublishedAt.Equal(*b.PublishedAt):
		return a.PublishedAt.After(*b.PublishedAt), true
	}
	return false, false
}

// GroupBy buckets views by a merged field. Group names sort lexicographically
// with OtherGroup last; views keep their relative order inside a group. An
// empty field puts everything in OtherGroup.
func GroupBy(views []content.View, field string) []Group {
	buckets := make(map[string][]content.View)
	for _, view := range views {
		name := strings.TrimSpace(view.String(field))
		if field == "" || name == "" {
			name = OtherGroup
		}
		buckets[name] = append(buckets[name], view)
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		if name != OtherGroup {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := buckets[OtherGroup]; ok {
		names = append(names, OtherGroup)
	}

	groups := make([]Group, 0, len(names))
	for _, name := range names {
		groups = append(groups, Group{Name: name, Items: buckets[name]})
	}
	return groups
}

// TagCounts counts tag occurrences across entries, most frequent first. Ties
// keep the order in which tags were first seen.
func TagCounts(entries []*content.Entry) []TagCount {
	index := make(map[string]int)
	counts := make([]TagCount, 0)
	for _, entry := range entries {
		for _, tag := range entry.TagValues() {
			if i, ok := index[tag]; ok {
				counts[i].Count++
				continue
			}
			index[tag] = len(counts)
			counts = append(counts, TagCount{Tag: tag, Count: 1})
		}
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

// Filter keeps the views for which keep returns true.
func Filter(views []content.View, keep func(content.View) bool) []content.View {
	out := make([]content.View, 0, len(views))
	for _, view := range views {
		if keep(view) {
			out = append(out, view)
		}
	}
	return out
}
