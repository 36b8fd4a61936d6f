package coordinator_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-portfolio/internal/content"
	"github.com/goliatone/go-portfolio/internal/coordinator"
	"github.com/goliatone/go-portfolio/internal/invalidation"
	"github.com/goliatone/go-portfolio/internal/logging"
	"github.com/goliatone/go-portfolio/pkg/testsupport"
	"github.com/google/uuid"
)

type fixture struct {
	registry *content.Registry
	repos    content.RepositorySet
	recorder *invalidation.Recorder
	logger   *logging.Recorder
	clock    *fakeClock
	coord    *coordinator.Coordinator
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type failingInvalidator struct{}

func (failingInvalidator) InvalidatePaths(context.Context, []string) error {
	return errors.New("cache offline")
}

func newFixture(t *testing.T, opts ...coordinator.Option) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	registry := content.DefaultRegistry()
	repos := content.NewMemoryRepositories(registry, content.WithClock(clock.Now))
	recorder := invalidation.NewRecorder()
	logger := &logging.Recorder{}
	planner := invalidation.MustNewPlanner(invalidation.Config{Locales: []string{"ko", "en", "ja"}})

	base := []coordinator.Option{
		coordinator.WithClock(clock.Now),
		coordinator.WithLogger(logger),
		coordinator.WithInvalidation(planner, recorder),
	}
	return &fixture{
		registry: registry,
		repos:    repos,
		recorder: recorder,
		logger:   logger,
		clock:    clock,
		coord:    coordinator.New(registry, repos, append(base, opts...)...),
	}
}

func (f *fixture) memory(kind string) *content.MemoryRepository {
	return f.repos[kind].(*content.MemoryRepository)
}

func TestSaveCreatesEntryWithTranslation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.coord.Save(ctx, coordinator.SaveRequest{
		Kind:      "projects",
		Shared:    &content.SharedFields{Slug: "My Site", Fields: map[string]any{"repo_url": "https://github.com/x/site"}},
		Locale:    "EN",
		Localized: &content.LocalizedFields{Title: "My Site"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !result.Created {
		t.Fatal("expected created flag")
	}
	if result.Entry.Slug != "my-site" {
		t.Fatalf("expected normalized slug, got %q", result.Entry.Slug)
	}
	if tr := result.Entry.Translation("en"); tr == nil || tr.Title != "My Site" {
		t.Fatalf("expected en translation, got %+v", result.Entry.Translations)
	}
	if len(result.Paths) == 0 || result.Paths[0] != "/admin/projects" {
		t.Fatalf("expected invalidated paths, got %v", result.Paths)
	}
	if len(f.recorder.Calls()) != 1 {
		t.Fatalf("expected one invalidation call, got %d", len(f.recorder.Calls()))
	}
	if !f.logger.Has("coordinator.save.success") {
		t.Fatal("expected success log")
	}
}

func TestSaveLeavesOtherLocalesUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.coord.Save(ctx, coordinator.SaveRequest{
		Kind:      "skills",
		Shared:    &content.SharedFields{Slug: "react", Fields: map[string]any{"category": "Frontend"}},
		Locale:    "ko",
		Localized: &content.LocalizedFields{Title: "리액트"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := f.coord.Save(ctx, coordinator.SaveRequest{
		Kind:      "skills",
		ID:        created.Entry.ID,
		Locale:    "en",
		Localized: &content.LocalizedFields{Title: "React"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Created {
		t.Fatal("expected update, not create")
	}
	if ko := updated.Entry.Translation("ko"); ko == nil || ko.Title != "리액트" {
		t.Fatalf("expected ko translation untouched, got %+v", ko)
	}
	if updated.Entry.Fields["category"] != "Frontend" {
		t.Fatalf("expected shared fields untouched without Shared, got %v", updated.Entry.Fields)
	}
}

func TestPublishTimestampIsStable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft, err := f.coord.Save(ctx, coordinator.SaveRequest{
		Kind:      "posts",
		Shared:    &content.SharedFields{Slug: "hello"},
		Locale:    "en",
		Localized: &content.LocalizedFields{Title: "Hello"},
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if draft.Entry.PublishedAt != nil {
		t.Fatal("draft must not carry a publish time")
	}

	f.clock.Advance(time.Hour)
	published, err := f.coord.Save(ctx, coordinator.SaveRequest{
		Kind:   "posts",
		ID:     draft.Entry.ID,
		Shared: &content.SharedFields{Slug: "hello", Published: true},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	stamp := published.Entry.PublishedAt
	if stamp == nil || !stamp.Equal(f.clock.Now()) {
		t.Fatalf("expected publish stamp at %v, got %v", f.clock.Now(), stamp)
	}

	f.clock.Advance(24 * time.Hour)
	edited, err := f.coord.Save(ctx, coordinator.SaveRequest{
		Kind:      "posts",
		ID:        draft.Entry.ID,
		Shared:    &content.SharedFields{Slug: "hello", Published: true, Featured: true},
		Locale:    "en",
		Localized: &content.LocalizedFields{Title: "Hello again"},
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Entry.PublishedAt == nil || !edited.Entry.PublishedAt.Equal(*stamp) {
		t.Fatalf("expected publish stamp to stay %v, got %v", stamp, edited.Entry.PublishedAt)
	}

	unpublished, err := f.coord.Save(ctx, coordinator.SaveRequest{
		Kind:   "posts",
		ID:     draft.Entry.ID,
		Shared: &content.SharedFields{Slug: "hello"},
	})
	if err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if unpublished.Entry.PublishedAt != nil {
		t.Fatalf("expected publish stamp cleared, got %v", unpublished.Entry.PublishedAt)
	}
}

func TestSequentialSaveReportsPartialWrite(t *testing.T) {
	f := newFixture(t, coordinator.WithTransactional(false))
	ctx := context.Background()
	boom := errors.New("translation store down")
	f.memory("projects").FailOn("upsert_translation", boom)

	result, err := f.coord.Save(ctx, coordinator.SaveRequest{
		Kind:      "projects",
		Shared:    &content.SharedFields{Slug: "half"},
		Locale:    "en",
		Localized: &content.LocalizedFields{Title: "Half"},
	})
	if !errors.Is(err, content.ErrPartialWrite) {
		t.Fatalf("expected partial write, got %v", err)
	}
	var partial *content.PartialWriteError
	if !errors.As(err, &partial) || partial.Step != "translation" || !errors.Is(err, boom) {
		t.Fatalf("unexpected partial error %v", err)
	}
	if result == nil || result.Entry == nil {
		t.Fatal("expected persisted base in result")
	}

	stored, err := f.repos["projects"].FetchByID(ctx, partial.BaseID)
	if err != nil {
		t.Fatalf("expected base row to persist: %v", err)
	}
	if len(stored.Translations) != 0 {
		t.Fatal("expected no translation after failure")
	}
	if len(f.recorder.Calls()) != 1 {
		t.Fatal("expected invalidation after partial write")
	}
	if !f.logger.Has("coordinator.save.partial") {
		t.Fatal("expected partial write log")
	}
}

func TestSequentialBaseFailureAbortsBeforeTranslation(t *testing.T) {
	f := newFixture(t, coordinator.WithTransactional(false))
	ctx := context.Background()
	f.memory("projects").FailOn("create_base", &content.StoreError{Op: "create_base", Class: content.ErrStoreUnavailable, Err: errors.New("timeout")})

	result, err := f.coord.Save(ctx, coordinator.SaveRequest{
		Kind:      "projects",
		Locale:    "en",
		Localized: &content.LocalizedFields{Title: "Nope"},
	})
	if result != nil {
		t.Fatalf("expected nil result, got %+v", result)
	}
	if !content.IsRetryable(err) || errors.Is(err, content.ErrPartialWrite) {
		t.Fatalf("expected retryable total failure, got %v", err)
	}
	if len(f.recorder.Calls()) != 0 {
		t.Fatal("expected no invalidation on total failure")
	}
}

func TestTransactionalSaveRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boom := errors.New("tags store down")
	f.memory("posts").FailOn("replace_tags", boom)

	result, err := f.coord.Save(ctx, coordinator.SaveRequest{
		Kind:      "posts",
		Shared:    &content.SharedFields{Slug: "atomic"},
		Locale:    "en",
		Localized: &content.LocalizedFields{Title: "Atomic"},
		Tags:      []string{"go"},
		SetTags:   true,
	})
	if !errors.Is(err, boom) || errors.Is(err, content.ErrPartialWrite) {
		t.Fatalf("expected total failure, got %v", err)
	}
	if result != nil {
		t.Fatal("expected nil result")
	}
	if _, err := f.repos["posts"].FetchOne(ctx, "atomic"); !content.IsNotFound(err) {
		t.Fatalf("expected rollback to drop the base row, got %v", err)
	}
	if len(f.recorder.Calls()) != 0 {
		t.Fatal("expected no invalidation after rollback")
	}
}

func TestTransactionalSaveOnSQLite(t *testing.T) {
	db := testsupport.NewMigratedDB(t)
	registry := content.DefaultRegistry()
	repos := content.NewBunRepositories(db, registry)
	recorder := invalidation.NewRecorder()
	coord := coordinator.New(registry, repos,
		coordinator.WithInvalidation(invalidation.MustNewPlanner(invalidation.Config{Locales: []string{"en"}}), recorder),
	)
	ctx := context.Background()

	result, err := coord.Save(ctx, coordinator.SaveRequest{
		Kind:      "posts",
		Shared:    &content.SharedFields{Slug: "sqlite", Published: true},
		Locale:    "en",
		Localized: &content.LocalizedFields{Title: "SQLite"},
		Tags:      []string{"db", "go"},
		SetTags:   true,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := result.Entry.TagValues(); len(got) != 2 {
		t.Fatalf("expected tags, got %v", got)
	}
	if result.Entry.PublishedAt == nil {
		t.Fatal("expected publish stamp")
	}

	if _, err := coord.Save(ctx, coordinator.SaveRequest{
		Kind:      "posts",
		Shared:    &content.SharedFields{Slug: "sqlite"},
		Locale:    "en",
		Localized: &content.LocalizedFields{Title: "Duplicate"},
	}); !errors.Is(err, content.ErrConflict) {
		t.Fatalf("expected slug conflict, got %v", err)
	}
}

func TestSaveValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		req   coordinator.SaveRequest
		cause error
		field string
	}{
		{
			name:  "unknown kind",
			req:   coordinator.SaveRequest{Kind: "recipes"},
			cause: content.ErrUnknownKind,
			field: "kind",
		},
		{
			name:  "unsupported locale",
			req:   coordinator.SaveRequest{Kind: "projects", Locale: "fr", Localized: &content.LocalizedFields{Title: "Site"}},
			cause: content.ErrUnsupportedLocale,
			field: "locale",
		},
		{
			name:  "missing title",
			req:   coordinator.SaveRequest{Kind: "projects", Locale: "en", Localized: &content.LocalizedFields{Description: "no title"}},
			field: "title",
		},
		{
			name:  "tags on untagged kind",
			req:   coordinator.SaveRequest{Kind: "skills", Locale: "en", Localized: &content.LocalizedFields{Title: "Go"}, Tags: []string{"x"}, SetTags: true},
			cause: content.ErrTagsUnsupported,
			field: "tags",
		},
		{
			name:  "shared schema",
			req:   coordinator.SaveRequest{Kind: "education", Shared: &content.SharedFields{Fields: map[string]any{"start_date": "spring"}}, Locale: "en", Localized: &content.LocalizedFields{Title: "Uni"}},
			field: "fields",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.coord.Save(ctx, tc.req)
			if !errors.Is(err, content.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if tc.cause != nil && !errors.Is(err, tc.cause) {
				t.Fatalf("expected cause %v, got %v", tc.cause, err)
			}
			var vErr *content.ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tc.field {
				t.Fatalf("expected field %q, got %v", tc.field, err)
			}
		})
	}
	if len(f.recorder.Calls()) != 0 {
		t.Fatal("validation failures must not invalidate")
	}
}

func TestRequireTitleAcceptsExistingLocale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.coord.Save(ctx, coordinator.SaveRequest{
		Kind:      "awards",
		Locale:    "ko",
		Localized: &content.LocalizedFields{Title: "대상"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.coord.Save(ctx, coordinator.SaveRequest{
		Kind:      "awards",
		ID:        created.Entry.ID,
		Locale:    "en",
		Localized: &content.LocalizedFields{Description: "title pending"},
	}); err != nil {
		t.Fatalf("expected ko title to satisfy requirement, got %v", err)
	}

	_, err = f.coord.Save(ctx, coordinator.SaveRequest{
		Kind:      "awards",
		ID:        created.Entry.ID,
		Locale:    "ko",
		Localized: &content.LocalizedFields{},
	})
	if !errors.Is(err, content.ErrValidation) {
		t.Fatalf("expected blanking the only title to fail, got %v", err)
	}
}

func TestSaveUnknownIDIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.coord.Save(context.Background(), coordinator.SaveRequest{
		Kind:      "projects",
		ID:        uuid.New(),
		Locale:    "en",
		Localized: &content.LocalizedFields{Title: "Ghost"},
	})
	if !content.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSlugRenameInvalidatesBothDetailPaths(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.coord.Save(ctx, coordinator.SaveRequest{
		Kind:      "posts",
		Shared:    &content.SharedFields{Slug: "first"},
		Locale:    "en",
		Localized: &content.LocalizedFields{Title: "First"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.recorder.Reset()

	if _, err := f.coord.Save(ctx, coordinator.SaveRequest{
		Kind:   "posts",
		ID:     created.Entry.ID,
		Shared: &content.SharedFields{Slug: "second"},
	}); err != nil {
		t.Fatalf("rename: %v", err)
	}

	paths := strings.Join(f.recorder.Paths(), ",")
	for _, want := range []string{"/ko/blog/first", "/ko/blog/second", "/ja/blog/second", "/en/blog"} {
		if !strings.Contains(paths, want) {
			t.Fatalf("expected %s in %s", want, paths)
		}
	}
}

func TestInvalidationFailureDoesNotFailWrite(t *testing.T) {
	planner := invalidation.MustNewPlanner(invalidation.Config{Locales: []string{"en"}})
	f := newFixture(t, coordinator.WithInvalidation(planner, failingInvalidator{}))

	result, err := f.coord.Save(context.Background(), coordinator.SaveRequest{
		Kind:      "projects",
		Locale:    "en",
		Localized: &content.LocalizedFields{Title: "Resilient"},
	})
	if err != nil {
		t.Fatalf("expected save to succeed, got %v", err)
	}
	if len(result.Paths) == 0 {
		t.Fatal("expected planned paths in result")
	}
	if !f.logger.Has("coordinator.invalidate.failed") {
		t.Fatal("expected invalidation failure to be logged")
	}
}

func TestReplaceTagsWithEmptySet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.coord.Save(ctx, coordinator.SaveRequest{
		Kind:      "posts",
		Shared:    &content.SharedFields{Slug: "tagged"},
		Locale:    "en",
		Localized: &content.LocalizedFields{Title: "Tagged"},
		Tags:      []string{"go", "sql"},
		SetTags:   true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cleared, err := f.coord.Save(ctx, coordinator.SaveRequest{
		Kind:    "posts",
		ID:      created.Entry.ID,
		SetTags: true,
	})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(cleared.Entry.Tags) != 0 {
		t.Fatalf("expected tags cleared, got %v", cleared.Entry.TagValues())
	}
}

func TestDeleteInvalidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.coord.Save(ctx, coordinator.SaveRequest{
		Kind:      "projects",
		Shared:    &content.SharedFields{Slug: "gone"},
		Locale:    "en",
		Localized: &content.LocalizedFields{Title: "Gone"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.recorder.Reset()

	result, err := f.coord.Delete(ctx, "projects", created.Entry.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if result.Entry.Slug != "gone" {
		t.Fatalf("expected deleted entry in result, got %+v", result.Entry)
	}
	if !strings.Contains(strings.Join(f.recorder.Paths(), ","), "/en/projects/gone") {
		t.Fatalf("expected detail path invalidated, got %v", f.recorder.Paths())
	}
	if _, err := f.coord.Delete(ctx, "projects", created.Entry.ID); !content.IsNotFound(err) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestExplicitEntryID(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	result, err := f.coord.Save(context.Background(), coordinator.SaveRequest{
		Kind:      "profile",
		EntryID:   id,
		Locale:    "ko",
		Localized: &content.LocalizedFields{Title: "홍길동"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if result.Entry.ID != id {
		t.Fatalf("expected id %s, got %s", id, result.Entry.ID)
	}
}
