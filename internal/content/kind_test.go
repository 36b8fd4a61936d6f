package content

import (
	"errors"
	"testing"
)

func TestDefaultRegistryHasEveryKind(t *testing.T) {
	reg := DefaultRegistry()
	want := []string{"awards", "certifications", "clubs", "education", "experiences", "posts", "profile", "projects", "skills", "work"}
	got := reg.Names()
	if len(got) != len(want) {
		t.Fatalf("expected %d kinds, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	posts, err := reg.Get("posts")
	if err != nil {
		t.Fatalf("get posts: %v", err)
	}
	if !posts.Tags || !posts.Publishable {
		t.Fatalf("expected posts to carry tags and publish state, got %+v", posts)
	}
}

func TestRegistryUnknownKind(t *testing.T) {
	_, err := DefaultRegistry().Get("recipes")
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestRegistryRejectsInvalidKinds(t *testing.T) {
	if _, err := NewRegistry(Kind{Name: "a"}, Kind{Name: "a"}); err == nil {
		t.Fatal("expected duplicate kind error")
	}
	if _, err := NewRegistry(Kind{Name: "b", Order: OrderFieldDesc}); err == nil {
		t.Fatal("expected missing order field error")
	}
	if _, err := NewRegistry(Kind{Name: "c", SharedSchema: map[string]any{"type": 7}}); err == nil {
		t.Fatal("expected schema compile error")
	}
}

func TestRegistryValidatesFields(t *testing.T) {
	reg := DefaultRegistry()

	if err := reg.ValidateShared("skills", map[string]any{"category": "Frontend", "level": 80}); err != nil {
		t.Fatalf("expected valid skill fields, got %v", err)
	}
	err := reg.ValidateShared("education", map[string]any{"start_date": "last year"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "fields" {
		t.Fatalf("expected ValidationError for fields, got %v", err)
	}

	if err := reg.ValidateLocalized("posts", LocalizedFields{Title: "Hello", Fields: map[string]any{"excerpt": "hi"}}); err != nil {
		t.Fatalf("expected valid localized fields, got %v", err)
	}
	if err := reg.ValidateLocalized("posts", LocalizedFields{Title: "x", Fields: map[string]any{"excerpt": 5}}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected localized validation error, got %v", err)
	}
}
