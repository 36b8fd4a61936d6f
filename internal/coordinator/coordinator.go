// Package coordinator sequences localized writes: a shared-field update, one
// translation upsert and optional tag replacement are applied as a single
// logical save, after which every affected page path is invalidated.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-portfolio/internal/content"
	"github.com/goliatone/go-portfolio/internal/i18n"
	"github.com/goliatone/go-portfolio/internal/logging"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
	slug "github.com/goliatone/go-slug"
	"github.com/google/uuid"
)

const (
	stepBase        = "base"
	stepTranslation = "translation"
	stepTags        = "tags"
)

// PathPlanner lists the page paths that render a kind.
type PathPlanner interface {
	Paths(kind content.Kind, slugs ...string) []string
}

// SaveRequest is one localized write. A nil ID creates a new entry. Shared is
// optional for updates; Localized is written to the Locale row only and never
// touches other locales.
type SaveRequest struct {
	Kind      string
	ID        uuid.UUID
	Shared    *content.SharedFields
	Locale    string
	Localized *content.LocalizedFields
	// Tags replaces the tag set when SetTags is true. An empty slice clears
	// every tag.
	Tags    []string
	SetTags bool
	// EntryID fixes the id of a newly created entry.
	EntryID uuid.UUID
}

// SaveResult describes a completed save.
type SaveResult struct {
	Entry       *content.Entry
	Translation *content.Translation
	Created     bool
	Paths       []string
}

// DeleteResult describes a completed delete.
type DeleteResult struct {
	Entry *content.Entry
	Paths []string
}

// Coordinator applies localized writes across the kind repositories.
type Coordinator struct {
	registry      *content.Registry
	repos         content.Repositories
	locales       i18n.Config
	planner       PathPlanner
	invalidator   interfaces.PathInvalidator
	logger        interfaces.Logger
	now           func() time.Time
	transactional bool
}

// Option configures the coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source used for publish timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLocales sets the supported locales.
func WithLocales(cfg i18n.Config) Option {
	return func(c *Coordinator) {
		c.locales = cfg
	}
}

// WithInvalidation wires the path planner and the sink that receives the
// planned paths after every write.
func WithInvalidation(planner PathPlanner, invalidator interfaces.PathInvalidator) Option {
	return func(c *Coordinator) {
		c.planner = planner
		c.invalidator = invalidator
	}
}

// WithTransactional toggles single-transaction saves on repositories that
// support them. When disabled, or unsupported, writes run one by one and a
// failure after the base write is reported as a partial write.
func WithTransactional(enabled bool) Option {
	return func(c *Coordinator) {
		c.transactional = enabled
	}
}

// New returns a coordinator over the registry and repositories.
func New(registry *content.Registry, repos content.Repositories, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry:      registry,
		repos:         repos,
		locales:       i18n.DefaultConfig(),
		logger:        logging.NoOp(),
		now:           time.Now,
		transactional: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Save applies the request. On a partial write the returned result still
// carries the persisted base entry and the invalidated paths, and the error
// is a *content.PartialWriteError.
func (c *Coordinator) Save(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	kind, repo, err := c.resolve(req.Kind)
	if err != nil {
		return nil, err
	}
	if err := c.validate(kind, &req); err != nil {
		return nil, err
	}

	logger := logging.WithContentContext(c.logger.WithContext(ctx), kind.Name, req.Locale, idString(req.ID))

	var (
		result   *SaveResult
		oldSlug  string
		applyErr error
	)
	tx, canTx := repo.(content.Transactor)
	if c.transactional && canTx {
		applyErr = tx.WithinTx(ctx, func(ctx context.Context, scoped content.Repository) error {
			var err error
			result, oldSlug, err = c.apply(ctx, scoped, kind, req, false)
			return err
		})
		if applyErr != nil {
			result = nil
		}
	} else {
		result, oldSlug, applyErr = c.apply(ctx, repo, kind, req, true)
	}

	if result == nil {
		logger.Error("coordinator.save.failed", "error", applyErr)
		return nil, applyErr
	}

	result.Paths = c.invalidate(ctx, logger, kind, result.Entry.Slug, oldSlug)
	if applyErr != nil {
		logger.Warn("coordinator.save.partial", "error", applyErr)
		return result, applyErr
	}
	logger.Info("coordinator.save.success", "created", result.Created, "paths", len(result.Paths))
	return result, nil
}

// Delete removes an entry with its translations and tags and invalidates the
// pages that rendered it.
func (c *Coordinator) Delete(ctx context.Context, kindName string, id uuid.UUID) (*DeleteResult, error) {
	kind, repo, err := c.resolve(kindName)
	if err != nil {
		return nil, err
	}
	logger := logging.WithContentContext(c.logger.WithContext(ctx), kind.Name, "", id.String())

	existing, err := repo.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := repo.DeleteBase(ctx, id); err != nil {
		logger.Error("coordinator.delete.failed", "error", err)
		return nil, err
	}

	paths := c.invalidate(ctx, logger, kind, existing.Slug, "")
	logger.Info("coordinator.delete.success", "paths", len(paths))
	return &DeleteResult{Entry: existing, Paths: paths}, nil
}

func (c *Coordinator) resolve(kindName string) (content.Kind, content.Repository, error) {
	kind, err := c.registry.Get(kindName)
	if err != nil {
		return content.Kind{}, nil, &content.ValidationError{Field: "kind", Message: err.Error(), Cause: err}
	}
	repo, err := c.repos.For(kind.Name)
	if err != nil {
		return content.Kind{}, nil, &content.ValidationError{Field: "kind", Message: err.Error(), Cause: err}
	}
	return kind, repo, nil
}

func (c *Coordinator) validate(kind content.Kind, req *SaveRequest) error {
	req.Locale = i18n.Normalize(req.Locale)
	if req.Localized != nil {
		if req.Locale == "" {
			return &content.ValidationError{Field: "locale", Message: "locale is required"}
		}
		if !c.locales.Supports(req.Locale) {
			return &content.ValidationError{
				Field:   "locale",
				Message: fmt.Sprintf("locale %q is not supported", req.Locale),
				Cause:   content.ErrUnsupportedLocale,
			}
		}
		if err := c.registry.ValidateLocalized(kind.Name, *req.Localized); err != nil {
			return err
		}
	}

	if req.ID == uuid.Nil && req.Shared == nil {
		req.Shared = &content.SharedFields{}
	}
	if req.Shared != nil {
		shared := *req.Shared
		normalized, err := normalizeSlug(shared.Slug)
		if err != nil {
			return err
		}
		shared.Slug = normalized
		if err := c.registry.ValidateShared(kind.Name, shared.Fields); err != nil {
			return err
		}
		req.Shared = &shared
	}

	if req.SetTags && !kind.Tags {
		return &content.ValidationError{
			Field:   "tags",
			Message: fmt.Sprintf("kind %q does not carry tags", kind.Name),
			Cause:   content.ErrTagsUnsupported,
		}
	}
	return nil
}

// apply runs the write steps against repo. With reportPartial set, a failure
// after the base write returns the persisted entry together with a
// PartialWriteError; otherwise any failure is returned as is so an enclosing
// transaction rolls back.
func (c *Coordinator) apply(ctx context.Context, repo content.Repository, kind content.Kind, req SaveRequest, reportPartial bool) (*SaveResult, string, error) {
	var existing *content.Entry
	if req.ID != uuid.Nil {
		found, err := repo.FetchByID(ctx, req.ID)
		if err != nil {
			return nil, "", err
		}
		existing = found
	}
	if err := checkTitle(kind, existing, req); err != nil {
		return nil, "", err
	}

	result := &SaveResult{Entry: existing}
	oldSlug := ""
	switch {
	case existing == nil:
		shared := *req.Shared
		shared.PublishedAt = publishedAt(kind, nil, shared, c.now())
		created, err := repo.CreateBase(ctx, shared, content.WithID(req.EntryID))
		if err != nil {
			return nil, "", err
		}
		result.Entry = created
		result.Created = true
	case req.Shared != nil:
		shared := *req.Shared
		shared.PublishedAt = publishedAt(kind, existing, shared, c.now())
		updated, err := repo.UpdateBase(ctx, existing.ID, shared)
		if err != nil {
			return nil, "", err
		}
		if existing.Slug != updated.Slug {
			oldSlug = existing.Slug
		}
		result.Entry = updated
	}

	entryID := result.Entry.ID
	partial := func(step string, err error) (*SaveResult, string, error) {
		if !reportPartial {
			return nil, "", err
		}
		return result, oldSlug, &content.PartialWriteError{
			Kind:   kind.Name,
			BaseID: entryID,
			Locale: req.Locale,
			Step:   step,
			Err:    err,
		}
	}

	if req.Localized != nil {
		tr, err := repo.UpsertTranslation(ctx, entryID, req.Locale, *req.Localized)
		if err != nil {
			return partial(stepTranslation, err)
		}
		result.Translation = tr
	}
	if req.SetTags {
		if err := repo.ReplaceTags(ctx, entryID, req.Tags); err != nil {
			return partial(stepTags, err)
		}
	}

	if refreshed, err := repo.FetchByID(ctx, entryID); err == nil {
		result.Entry = refreshed
	}
	return result, oldSlug, nil
}

func (c *Coordinator) invalidate(ctx context.Context, logger interfaces.Logger, kind content.Kind, slugs ...string) []string {
	if c.planner == nil {
		return nil
	}
	paths := c.planner.Paths(kind, slugs...)
	if c.invalidator == nil || len(paths) == 0 {
		return paths
	}
	if err := c.invalidator.InvalidatePaths(ctx, paths); err != nil {
		logger.Warn("coordinator.invalidate.failed", "error", err, "paths", len(paths))
	}
	return paths
}

// publishedAt applies the publish rule: the false to true transition stamps
// the time once, staying published keeps the original stamp and unpublishing
// clears it. Kinds without publish state keep the supplied value.
func publishedAt(kind content.Kind, existing *content.Entry, shared content.SharedFields, now time.Time) *time.Time {
	if !kind.Publishable {
		return shared.PublishedAt
	}
	if !shared.Published {
		return nil
	}
	if existing != nil && existing.Published && existing.PublishedAt != nil {
		stamp := *existing.PublishedAt
		return &stamp
	}
	if shared.PublishedAt != nil && !shared.PublishedAt.IsZero() {
		stamp := shared.PublishedAt.UTC()
		return &stamp
	}
	stamp := now.UTC()
	return &stamp
}

// checkTitle enforces RequireTitle: after the save at least one locale must
// carry a non-empty title.
func checkTitle(kind content.Kind, existing *content.Entry, req SaveRequest) error {
	if !kind.RequireTitle {
		return nil
	}
	if req.Localized != nil && strings.TrimSpace(req.Localized.Title) != "" {
		return nil
	}
	if existing != nil {
		for _, tr := range existing.Translations {
			if tr == nil || (req.Localized != nil && i18n.Normalize(tr.Locale) == req.Locale) {
				continue
			}
			if strings.TrimSpace(tr.Title) != "" {
				return nil
			}
		}
	}
	return &content.ValidationError{
		Field:   "title",
		Message: fmt.Sprintf("kind %q requires a title in at least one locale", kind.Name),
	}
}

func normalizeSlug(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	normalized, err := slug.Normalize(raw)
	if err != nil {
		return "", &content.ValidationError{Field: "slug", Message: err.Error(), Cause: errors.Join(content.ErrSlugInvalid, err)}
	}
	if normalized == "" || !slug.IsValid(normalized) {
		return "", &content.ValidationError{
			Field:   "slug",
			Message: fmt.Sprintf("slug %q is invalid", raw),
			Cause:   content.ErrSlugInvalid,
		}
	}
	return normalized, nil
}

func idString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
