package invalidation

import (
	"strings"
	"testing"

	"github.com/goliatone/go-portfolio/internal/content"
)

func hasPath(paths []string, want string) bool {
	for _, path := range paths {
		if path == want || strings.HasSuffix(path, want) {
			return true
		}
	}
	return false
}

func TestPlannerEnumeratesEveryLocale(t *testing.T) {
	planner := MustNewPlanner(Config{BaseURL: "https://example.com", Locales: []string{"ko", "en", "ja"}})
	kind := content.Kind{Name: "projects", Routes: []string{"home", "projects", "project"}}

	paths := planner.Paths(kind, "site")

	if paths[0] != "/admin/projects" {
		t.Fatalf("expected admin listing first, got %v", paths)
	}
	for _, locale := range []string{"ko", "en", "ja"} {
		for _, want := range []string{"/" + locale, "/" + locale + "/projects", "/" + locale + "/projects/site"} {
			if !hasPath(paths, want) {
				t.Fatalf("expected %s in %v", want, paths)
			}
		}
	}
	if len(paths) != 10 {
		t.Fatalf("expected 10 paths, got %d: %v", len(paths), paths)
	}
	for _, path := range paths {
		if strings.HasPrefix(path, "https://") {
			t.Fatalf("expected site-relative paths, got %s", path)
		}
	}
}

func TestPlannerSkipsDetailWithoutSlug(t *testing.T) {
	planner := MustNewPlanner(Config{Locales: []string{"en"}})
	kind := content.Kind{Name: "posts", Routes: []string{"blog", "post"}}

	paths := planner.Paths(kind)
	if len(paths) != 2 {
		t.Fatalf("expected admin and blog listing only, got %v", paths)
	}
	if !hasPath(paths, "/en/blog") {
		t.Fatalf("expected blog listing, got %v", paths)
	}
}

func TestPlannerIncludesPreviousSlug(t *testing.T) {
	planner := MustNewPlanner(Config{Locales: []string{"en"}, AdminPath: "/manage/"})
	kind := content.Kind{Name: "posts", Routes: []string{"post"}}

	paths := planner.Paths(kind, "new-title", "old-title", "new-title", "")
	if paths[0] != "/manage/posts" {
		t.Fatalf("expected custom admin path, got %v", paths)
	}
	if !hasPath(paths, "/en/blog/new-title") || !hasPath(paths, "/en/blog/old-title") {
		t.Fatalf("expected both detail paths, got %v", paths)
	}
	if len(paths) != 3 {
		t.Fatalf("expected duplicates removed, got %v", paths)
	}
}

func TestPlannerIgnoresUnknownRoutes(t *testing.T) {
	planner := MustNewPlanner(Config{Locales: []string{"en"}})
	paths := planner.Paths(content.Kind{Name: "awards", Routes: []string{"gallery"}})
	if len(paths) != 1 {
		t.Fatalf("expected only admin path, got %v", paths)
	}
}

func TestPlannerDefaultsLocales(t *testing.T) {
	planner := MustNewPlanner(Config{})
	if got := planner.Locales(); len(got) != 3 || got[0] != "ko" {
		t.Fatalf("expected default locales, got %v", got)
	}
}
