package invalidation

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/goliatone/go-portfolio/internal/content"
	"github.com/goliatone/go-portfolio/internal/i18n"
	urlkit "github.com/goliatone/go-urlkit"
)

const (
	publicGroup      = "public"
	localeParam      = "locale"
	slugParam        = "slug"
	defaultAdminPath = "/admin"
)

// DefaultRoutes are the public path families of the site. Patterns use
// go-urlkit parameters; ":slug" marks a detail route.
var DefaultRoutes = map[string]string{
	"home":     "/:locale",
	"about":    "/:locale/about",
	"projects": "/:locale/projects",
	"project":  "/:locale/projects/:slug",
	"blog":     "/:locale/blog",
	"post":     "/:locale/blog/:slug",
}

// Config configures a Planner.
type Config struct {
	BaseURL   string
	AdminPath string
	Locales   []string
	Routes    map[string]string
}

// Planner enumerates every path that can render a kind so a write can mark
// them stale. Public paths are produced for every configured locale.
type Planner struct {
	group     *urlkit.Group
	routes    map[string]string
	locales   []string
	adminPath string
}

// NewPlanner builds the route table with go-urlkit.
func NewPlanner(cfg Config) (*Planner, error) {
	routes := cfg.Routes
	if len(routes) == 0 {
		routes = DefaultRoutes
	}
	locales := make([]string, 0, len(cfg.Locales))
	for _, locale := range cfg.Locales {
		if normalized := i18n.Normalize(locale); normalized != "" {
			locales = append(locales, normalized)
		}
	}
	if len(locales) == 0 {
		locales = append(locales, i18n.DefaultLocales...)
	}
	admin := strings.TrimRight(strings.TrimSpace(cfg.AdminPath), "/")
	if admin == "" {
		admin = defaultAdminPath
	}

	paths := make(map[string]string, len(routes))
	for name, pattern := range routes {
		paths[name] = pattern
	}
	manager := urlkit.NewRouteManager(&urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name:    publicGroup,
				BaseURL: strings.TrimSpace(cfg.BaseURL),
				Paths:   paths,
			},
		},
	})
	group, err := lookupGroup(manager, publicGroup)
	if err != nil {
		return nil, err
	}

	return &Planner{
		group:     group,
		routes:    paths,
		locales:   locales,
		adminPath: admin,
	}, nil
}

// MustNewPlanner panics when the route table is invalid.
func MustNewPlanner(cfg Config) *Planner {
	planner, err := NewPlanner(cfg)
	if err != nil {
		panic(err)
	}
	return planner
}

// Locales returns the locales paths are produced for.
func (p *Planner) Locales() []string {
	return append([]string(nil), p.locales...)
}

// Paths returns the admin listing path of the kind followed by each public
// route of the kind for every locale. Detail routes are produced once per
// distinct non-empty slug, so passing the previous slug of a renamed entry
// invalidates both the old and the new detail page.
func (p *Planner) Paths(kind content.Kind, slugs ...string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 1+len(kind.Routes)*len(p.locales))
	add := func(path string) {
		if path == "" {
			return
		}
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}

	add(p.adminPath + "/" + kind.Name)

	distinct := distinctSlugs(slugs)
	for _, route := range kind.Routes {
		pattern, ok := p.routes[route]
		if !ok {
			continue
		}
		detail := strings.Contains(pattern, ":"+slugParam)
		for _, locale := range p.locales {
			if !detail {
				add(p.build(route, locale, ""))
				continue
			}
			for _, slug := range distinct {
				add(p.build(route, locale, slug))
			}
		}
	}
	return out
}

func (p *Planner) build(route, locale, slug string) string {
	builder, err := safeBuilder(p.group, route)
	if err != nil || builder == nil {
		return ""
	}
	builder.WithParam(localeParam, locale)
	if slug != "" {
		builder.WithParam(slugParam, slug)
	}
	built, err := builder.Build()
	if err != nil {
		return ""
	}
	return pathOf(built)
}

// pathOf strips scheme and host so sinks receive site-relative paths.
func pathOf(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Path == "" {
		return raw
	}
	return parsed.Path
}

func distinctSlugs(slugs []string) []string {
	seen := make(map[string]struct{}, len(slugs))
	out := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		slug = strings.TrimSpace(slug)
		if slug == "" {
			continue
		}
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	if manager == nil {
		return nil, fmt.Errorf("invalidation: route manager not configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("invalidation: route group %q not found", name)
		}
	}()
	group = manager.Group(name)
	return group, err
}

func safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	if group == nil {
		return nil, fmt.Errorf("invalidation: urlkit group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("invalidation: urlkit builder panic: %v", rec)
		}
	}()
	builder = group.Builder(route)
	return builder, err
}
