package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
)

// FrontMatter is the metadata block of an importable markdown file. Unset
// values fall back to what the file path implies.
type FrontMatter struct {
	Kind        string
	Slug        string
	Locale      string
	Title       string
	Description string
	Tags        []string
	// HasTags distinguishes an explicit empty tag list from an absent one.
	HasTags     bool
	// Published and Featured are nil when the frontmatter leaves them out.
	Published   *bool
	PublishedAt *time.Time
	Position    *int
	Featured    *bool
	// Fields are shared, language independent values.
	Fields map[string]any
	// Localized are free-text fields stored on the translation row.
	Localized map[string]any
}

type frontMatterEnvelope struct {
	Kind        string         `yaml:"kind"`
	Slug        string         `yaml:"slug"`
	Locale      string         `yaml:"locale"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Tags        []string       `yaml:"tags"`
	Published   *bool          `yaml:"published"`
	Date        time.Time      `yaml:"date"`
	Position    *int           `yaml:"position"`
	Featured    *bool          `yaml:"featured"`
	Fields      map[string]any `yaml:"fields"`
	Localized   map[string]any `yaml:"localized"`
}

// ParseFrontMatter splits source into its metadata and the markdown body.
func ParseFrontMatter(source []byte) (FrontMatter, []byte, error) {
	var env frontMatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(source), &env)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	meta := FrontMatter{
		Kind:        strings.TrimSpace(env.Kind),
		Slug:        strings.TrimSpace(env.Slug),
		Locale:      strings.TrimSpace(env.Locale),
		Title:       strings.TrimSpace(env.Title),
		Description: strings.TrimSpace(env.Description),
		HasTags:     env.Tags != nil,
		Published:   env.Published,
		Position:    env.Position,
		Featured:    env.Featured,
		Fields:      normalizeMap(env.Fields),
		Localized:   normalizeMap(env.Localized),
	}
	for _, tag := range env.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			meta.Tags = append(meta.Tags, tag)
		}
	}
	if !env.Date.IsZero() {
		date := env.Date.UTC()
		meta.PublishedAt = &date
	}
	return meta, body, nil
}

// normalizeMap converts the interface keyed maps produced by the YAML decoder
// so field maps can be validated and stored as JSON.
func normalizeMap(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = normalizeValue(value)
	}
	return out
}

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return normalizeMap(typed)
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[fmt.Sprint(key)] = normalizeValue(item)
		}
		return out
	case []any:
		items := make([]any, len(typed))
		for i, item := range typed {
			items[i] = normalizeValue(item)
		}
		return items
	case time.Time:
		if typed.Hour() == 0 && typed.Minute() == 0 && typed.Second() == 0 {
			return typed.Format("2006-01-02")
		}
		return typed.UTC().Format(time.RFC3339)
	default:
		return value
	}
}
