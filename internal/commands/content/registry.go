package contentcmd

import (
	"errors"

	"github.com/goliatone/go-portfolio/internal/commands"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
)

// CommandRegistry is the minimal registration contract expected when wiring
// command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// Subscription releases a dispatcher registration.
type Subscription interface {
	Unsubscribe()
}

// HandlerSet groups the content command handlers.
type HandlerSet struct {
	Save   *SaveContentHandler
	Delete *DeleteContentHandler
	Import *ImportMarkdownHandler
}

// RegisterContentCommands builds the content handlers and registers them with
// reg when one is supplied. Import is nil without an importer.
func RegisterContentCommands(reg CommandRegistry, writer Writer, importer MarkdownImporter, provider interfaces.LoggerProvider) (*HandlerSet, error) {
	if writer == nil {
		return nil, errors.New("content command registration: writer is nil")
	}
	logger := commands.CommandLogger(provider, "content")

	set := &HandlerSet{
		Save:   NewSaveContentHandler(writer, logger),
		Delete: NewDeleteContentHandler(writer, logger),
	}
	if importer != nil {
		set.Import = NewImportMarkdownHandler(importer, logger)
	}

	if reg != nil {
		for _, handler := range set.handlers() {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

// Subscribe registers the handlers with the go-command dispatcher so
// messages can be sent with dispatcher.Dispatch. Executions that fail on an
// unavailable store are retried up to retries times; every other failure is
// returned on the first attempt.
func (s *HandlerSet) Subscribe(retries int) []Subscription {
	subs := []Subscription{
		dispatcher.SubscribeCommand(s.Save, runner.WithMaxRetries(retries)),
		dispatcher.SubscribeCommand(s.Delete, runner.WithMaxRetries(retries)),
	}
	if s.Import != nil {
		subs = append(subs, dispatcher.SubscribeCommand(s.Import, runner.WithMaxRetries(retries)))
	}
	return subs
}

func (s *HandlerSet) handlers() []any {
	out := []any{s.Save, s.Delete}
	if s.Import != nil {
		out = append(out, s.Import)
	}
	return out
}
