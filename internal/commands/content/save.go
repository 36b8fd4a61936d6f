package contentcmd

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-portfolio/internal/commands"
	"github.com/goliatone/go-portfolio/internal/content"
	"github.com/goliatone/go-portfolio/internal/coordinator"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
	"github.com/google/uuid"
)

const (
	saveContentMessageType   = "portfolio.content.save"
	deleteContentMessageType = "portfolio.content.delete"
)

// Writer is the write surface the content commands drive.
type Writer interface {
	Save(ctx context.Context, req coordinator.SaveRequest) (*coordinator.SaveResult, error)
	Delete(ctx context.Context, kind string, id uuid.UUID) (*coordinator.DeleteResult, error)
}

// SharedInput carries the language independent fields of a save. Omitting it
// on an update leaves the base record untouched.
type SharedInput struct {
	Slug        string         `json:"slug,omitempty"`
	Position    *int           `json:"position,omitempty"`
	Featured    bool           `json:"featured,omitempty"`
	Published   bool           `json:"published,omitempty"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
}

// LocalizedInput carries the fields of one translation row.
type LocalizedInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Content     map[string]any `json:"content,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
}

// SaveContentCommand writes the shared fields, one locale and optionally the
// tag set of an entry. A nil ContentID creates the entry.
type SaveContentCommand struct {
	Kind      string          `json:"kind"`
	ContentID uuid.UUID       `json:"content_id,omitempty"`
	EntryID   uuid.UUID       `json:"entry_id,omitempty"`
	Locale    string          `json:"locale,omitempty"`
	Shared    *SharedInput    `json:"shared,omitempty"`
	Localized *LocalizedInput `json:"localized,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
	SetTags   bool            `json:"set_tags,omitempty"`

	// Result receives the outcome, including the persisted base of a partial
	// write.
	Result func(*coordinator.SaveResult) `json:"-"`
}

// Type implements command.Message.
func (SaveContentCommand) Type() string { return saveContentMessageType }

// Validate checks the message shape. Kind specific rules run in the
// coordinator.
func (m SaveContentCommand) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(m.Kind) == "" {
		errs["kind"] = validation.NewError("portfolio.content.save.kind_required", "kind is required")
	}
	if m.Localized != nil && strings.TrimSpace(m.Locale) == "" {
		errs["locale"] = validation.NewError("portfolio.content.save.locale_required", "locale is required with localized fields")
	}
	if m.ContentID != uuid.Nil && m.Shared == nil && m.Localized == nil && !m.SetTags {
		errs["content_id"] = validation.NewError("portfolio.content.save.empty", "update carries no changes")
	}
	if m.Shared != nil && m.Shared.Position != nil {
		if err := validation.Validate(*m.Shared.Position, validation.Min(0)); err != nil {
			errs["position"] = err
		}
	}
	for _, tag := range m.Tags {
		if strings.TrimSpace(tag) == "" {
			errs["tags"] = validation.NewError("portfolio.content.save.tag_empty", "tags cannot be blank")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (m SaveContentCommand) request() coordinator.SaveRequest {
	req := coordinator.SaveRequest{
		Kind:    m.Kind,
		ID:      m.ContentID,
		EntryID: m.EntryID,
		Locale:  m.Locale,
		Tags:    m.Tags,
		SetTags: m.SetTags,
	}
	if m.Shared != nil {
		req.Shared = &content.SharedFields{
			Slug:        m.Shared.Slug,
			Position:    m.Shared.Position,
			Featured:    m.Shared.Featured,
			Published:   m.Shared.Published,
			PublishedAt: m.Shared.PublishedAt,
			Fields:      m.Shared.Fields,
		}
	}
	if m.Localized != nil {
		req.Localized = &content.LocalizedFields{
			Title:       m.Localized.Title,
			Description: m.Localized.Description,
			Content:     m.Localized.Content,
			Fields:      m.Localized.Fields,
		}
	}
	return req
}

// SaveContentHandler runs saves through the coordinator.
type SaveContentHandler struct {
	inner *commands.Handler[SaveContentCommand]
}

// NewSaveContentHandler constructs a handler wired to the writer.
func NewSaveContentHandler(writer Writer, logger interfaces.Logger, opts ...commands.HandlerOption[SaveContentCommand]) *SaveContentHandler {
	exec := func(ctx context.Context, msg SaveContentCommand) error {
		result, err := writer.Save(ctx, msg.request())
		if result != nil && msg.Result != nil {
			msg.Result(result)
		}
		return err
	}

	handlerOpts := []commands.HandlerOption[SaveContentCommand]{
		commands.WithLogger[SaveContentCommand](logger),
		commands.WithOperation[SaveContentCommand]("content.save"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SaveContentHandler{
		inner: commands.NewHandler[SaveContentCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[SaveContentCommand].Execute.
func (h *SaveContentHandler) Execute(ctx context.Context, msg SaveContentCommand) error {
	return h.inner.Execute(ctx, msg)
}

// DeleteContentCommand removes an entry with its translations and tags.
type DeleteContentCommand struct {
	Kind      string    `json:"kind"`
	ContentID uuid.UUID `json:"content_id"`

	Result func(*coordinator.DeleteResult) `json:"-"`
}

// Type implements command.Message.
func (DeleteContentCommand) Type() string { return deleteContentMessageType }

// Validate ensures the message names the entry to delete.
func (m DeleteContentCommand) Validate() error {
	return validation.Errors{
		"kind": validation.Validate(strings.TrimSpace(m.Kind),
			validation.Required.ErrorObject(validation.NewError("portfolio.content.delete.kind_required", "kind is required"))),
		"content_id": validation.Validate(m.ContentID,
			validation.By(func(any) error {
				if m.ContentID == uuid.Nil {
					return validation.NewError("portfolio.content.delete.content_id_required", "content_id is required")
				}
				return nil
			})),
	}.Filter()
}

// DeleteContentHandler deletes entries through the coordinator.
type DeleteContentHandler struct {
	inner *commands.Handler[DeleteContentCommand]
}

// NewDeleteContentHandler constructs a handler wired to the writer.
func NewDeleteContentHandler(writer Writer, logger interfaces.Logger, opts ...commands.HandlerOption[DeleteContentCommand]) *DeleteContentHandler {
	exec := func(ctx context.Context, msg DeleteContentCommand) error {
		result, err := writer.Delete(ctx, msg.Kind, msg.ContentID)
		if err != nil {
			return err
		}
		if msg.Result != nil {
			msg.Result(result)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[DeleteContentCommand]{
		commands.WithLogger[DeleteContentCommand](logger),
		commands.WithOperation[DeleteContentCommand]("content.delete"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &DeleteContentHandler{
		inner: commands.NewHandler[DeleteContentCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[DeleteContentCommand].Execute.
func (h *DeleteContentHandler) Execute(ctx context.Context, msg DeleteContentCommand) error {
	return h.inner.Execute(ctx, msg)
}
