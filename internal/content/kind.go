package content

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-portfolio/internal/validation"
)

// OrderRule selects how listings of a kind are sorted.
type OrderRule int

const (
	// OrderPosition sorts by explicit display position; entries without a
	// position follow, newest first.
	OrderPosition OrderRule = iota
	// OrderFieldDesc sorts by a shared date-like field, newest first.
	OrderFieldDesc
	// OrderPublishedDesc sorts by publish timestamp, newest first.
	OrderPublishedDesc
	// OrderCreatedDesc sorts by creation time, newest first.
	OrderCreatedDesc
)

// Kind describes one content kind as data: which optional features it uses,
// how listings are ordered and grouped, the schemas its field maps follow,
// and the public routes that render it.
type Kind struct {
	Name string
	// Tags enables the flat tag child collection.
	Tags bool
	// Publishable kinds stamp PublishedAt on the false to true transition.
	Publishable bool
	// RequireTitle demands at least one translation with a non-empty title.
	RequireTitle bool
	Order        OrderRule
	OrderField   string
	GroupField   string
	// SharedSchema validates Entry.Fields; LocalizedSchema validates the
	// localized payload (title, description and free-text fields).
	SharedSchema    map[string]any
	LocalizedSchema map[string]any
	// Routes names the public route families that embed this kind.
	Routes []string
}

// Registry holds the known kinds and their compiled schemas.
type Registry struct {
	kinds     map[string]Kind
	names     []string
	shared    map[string]*validation.Validator
	localized map[string]*validation.Validator
}

// NewRegistry validates and registers the supplied kinds.
func NewRegistry(kinds ...Kind) (*Registry, error) {
	reg := &Registry{
		kinds:     make(map[string]Kind, len(kinds)),
		shared:    make(map[string]*validation.Validator, len(kinds)),
		localized: make(map[string]*validation.Validator, len(kinds)),
	}
	for _, kind := range kinds {
		name := strings.TrimSpace(kind.Name)
		if name == "" {
			return nil, fmt.Errorf("content: kind name is required")
		}
		if _, exists := reg.kinds[name]; exists {
			return nil, fmt.Errorf("content: kind %q registered twice", name)
		}
		if kind.Order == OrderFieldDesc && strings.TrimSpace(kind.OrderField) == "" {
			return nil, fmt.Errorf("content: kind %q orders by field but names none", name)
		}

		shared, err := validation.Compile(kind.SharedSchema)
		if err != nil {
			return nil, fmt.Errorf("content: kind %q shared schema: %w", name, err)
		}
		localized, err := validation.Compile(kind.LocalizedSchema)
		if err != nil {
			return nil, fmt.Errorf("content: kind %q localized schema: %w", name, err)
		}

		kind.Name = name
		reg.kinds[name] = kind
		reg.shared[name] = shared
		reg.localized[name] = localized
		reg.names = append(reg.names, name)
	}
	sort.Strings(reg.names)
	return reg, nil
}

// MustNewRegistry panics when the kinds are invalid.
func MustNewRegistry(kinds ...Kind) *Registry {
	reg, err := NewRegistry(kinds...)
	if err != nil {
		panic(err)
	}
	return reg
}

// DefaultRegistry registers DefaultKinds.
func DefaultRegistry() *Registry {
	return MustNewRegistry(DefaultKinds()...)
}

// Get returns the kind registered under name.
func (r *Registry) Get(name string) (Kind, error) {
	if r == nil {
		return Kind{}, fmt.Errorf("%w: %s", ErrUnknownKind, name)
	}
	kind, ok := r.kinds[strings.TrimSpace(name)]
	if !ok {
		return Kind{}, fmt.Errorf("%w: %s", ErrUnknownKind, name)
	}
	return kind, nil
}

// Names lists registered kinds alphabetically.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.names...)
}

// ValidateShared checks the shared field map against the kind's schema.
func (r *Registry) ValidateShared(kind string, fields map[string]any) error {
	validator, ok := r.shared[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	if err := validator.Validate(fields); err != nil {
		return &ValidationError{Field: "fields", Message: err.Error(), Cause: err}
	}
	return nil
}

// ValidateLocalized checks a localized payload against the kind's schema.
func (r *Registry) ValidateLocalized(kind string, fields LocalizedFields) error {
	validator, ok := r.localized[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	payload := cloneMap(fields.Fields)
	if payload == nil {
		payload = map[string]any{}
	}
	payload["title"] = fields.Title
	payload["description"] = fields.Description
	if err := validator.Validate(payload); err != nil {
		return &ValidationError{Field: "translation", Message: err.Error(), Cause: err}
	}
	return nil
}

const datePattern = `^[0-9]{4}-[0-9]{2}(-[0-9]{2})?$`

func objectSchema(properties map[string]any) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": properties,
	}
}

func stringProp() map[string]any { return map[string]any{"type": "string"} }

func dateProp() map[string]any {
	return map[string]any{"type": "string", "pattern": datePattern}
}

func urlProp() map[string]any {
	return map[string]any{"type": "string", "pattern": `^(https?://|/)`}
}

func titledSchema(extra map[string]any) map[string]any {
	props := map[string]any{
		"title":       map[string]any{"type": "string", "maxLength": 200},
		"description": stringProp(),
	}
	for key, value := range extra {
		props[key] = value
	}
	return objectSchema(props)
}

// DefaultKinds returns the ten kinds the portfolio site renders.
func DefaultKinds() []Kind {
	return []Kind{
		{
			Name:   "profile",
			Order:  OrderCreatedDesc,
			Routes: []string{"home", "about"},
			SharedSchema: objectSchema(map[string]any{
				"avatar_url": urlProp(),
				"email":      stringProp(),
				"github_url": urlProp(),
				"resume_url": urlProp(),
			}),
			LocalizedSchema: titledSchema(map[string]any{
				"headline": stringProp(),
				"location": stringProp(),
			}),
		},
		{
			Name:         "projects",
			RequireTitle: true,
			Order:        OrderPosition,
			Routes:       []string{"home", "projects", "project"},
			SharedSchema: objectSchema(map[string]any{
				"cover_url":  urlProp(),
				"repo_url":   urlProp(),
				"demo_url":   urlProp(),
				"start_date": dateProp(),
				"end_date":   dateProp(),
				"stack":      map[string]any{"type": "array", "items": stringProp()},
			}),
			LocalizedSchema: titledSchema(map[string]any{"role": stringProp()}),
		},
		{
			Name:         "skills",
			RequireTitle: true,
			Order:        OrderPosition,
			GroupField:   "category",
			Routes:       []string{"home", "about"},
			SharedSchema: objectSchema(map[string]any{
				"category": stringProp(),
				"icon_url": urlProp(),
				"level":    map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
			}),
			LocalizedSchema: titledSchema(nil),
		},
		{
			Name:         "posts",
			Tags:         true,
			Publishable:  true,
			RequireTitle: true,
			Order:        OrderPublishedDesc,
			Routes:       []string{"home", "blog", "post"},
			SharedSchema: objectSchema(map[string]any{
				"cover_url": urlProp(),
			}),
			LocalizedSchema: titledSchema(map[string]any{"excerpt": stringProp()}),
		},
		{
			Name:         "education",
			RequireTitle: true,
			Order:        OrderFieldDesc,
			OrderField:   "start_date",
			Routes:       []string{"about"},
			SharedSchema: objectSchema(map[string]any{
				"start_date": dateProp(),
				"end_date":   dateProp(),
				"logo_url":   urlProp(),
			}),
			LocalizedSchema: titledSchema(map[string]any{
				"degree": stringProp(),
				"major":  stringProp(),
			}),
		},
		{
			Name:         "work",
			RequireTitle: true,
			Order:        OrderFieldDesc,
			OrderField:   "start_date",
			Routes:       []string{"home", "about"},
			SharedSchema: objectSchema(map[string]any{
				"start_date":  dateProp(),
				"end_date":    dateProp(),
				"company_url": urlProp(),
				"logo_url":    urlProp(),
			}),
			LocalizedSchema: titledSchema(map[string]any{
				"position": stringProp(),
				"location": stringProp(),
			}),
		},
		{
			Name:         "clubs",
			RequireTitle: true,
			Order:        OrderFieldDesc,
			OrderField:   "start_date",
			Routes:       []string{"about"},
			SharedSchema: objectSchema(map[string]any{
				"start_date": dateProp(),
				"end_date":   dateProp(),
				"url":        urlProp(),
			}),
			LocalizedSchema: titledSchema(map[string]any{"role": stringProp()}),
		},
		{
			Name:         "experiences",
			RequireTitle: true,
			Order:        OrderFieldDesc,
			OrderField:   "date",
			Routes:       []string{"about"},
			SharedSchema: objectSchema(map[string]any{
				"date": dateProp(),
				"url":  urlProp(),
			}),
			LocalizedSchema: titledSchema(nil),
		},
		{
			Name:         "awards",
			RequireTitle: true,
			Order:        OrderFieldDesc,
			OrderField:   "date",
			Routes:       []string{"about"},
			SharedSchema: objectSchema(map[string]any{
				"date": dateProp(),
			}),
			LocalizedSchema: titledSchema(map[string]any{"issuer": stringProp()}),
		},
		{
			Name:         "certifications",
			RequireTitle: true,
			Order:        OrderFieldDesc,
			OrderField:   "issued_at",
			Routes:       []string{"about"},
			SharedSchema: objectSchema(map[string]any{
				"issued_at":      dateProp(),
				"expires_at":     dateProp(),
				"credential_url": urlProp(),
			}),
			LocalizedSchema: titledSchema(map[string]any{"issuer": stringProp()}),
		},
	}
}
