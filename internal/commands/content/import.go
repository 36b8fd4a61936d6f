package contentcmd

import (
	"context"
	"io/fs"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-portfolio/internal/commands"
	"github.com/goliatone/go-portfolio/internal/markdown"
	"github.com/goliatone/go-portfolio/pkg/interfaces"
)

const importMarkdownMessageType = "portfolio.content.import_markdown"

// MarkdownImporter is the import surface the command drives.
type MarkdownImporter interface {
	ImportFile(ctx context.Context, fsys fs.FS, name string) (*markdown.FileResult, error)
	ImportDir(ctx context.Context, fsys fs.FS, dir string) (*markdown.Report, error)
}

// ImportMarkdownCommand imports a markdown file or every file of a directory
// below Root.
type ImportMarkdownCommand struct {
	Root string `json:"root"`
	Path string `json:"path,omitempty"`

	Result func(*markdown.Report) `json:"-"`
	// FS overrides the filesystem opened at Root.
	FS fs.FS `json:"-"`
}

// Type implements command.Message.
func (ImportMarkdownCommand) Type() string { return importMarkdownMessageType }

// Validate ensures a root is named when no filesystem is supplied.
func (m ImportMarkdownCommand) Validate() error {
	if m.FS != nil {
		return nil
	}
	return validation.Errors{
		"root": validation.Validate(strings.TrimSpace(m.Root),
			validation.Required.ErrorObject(validation.NewError("portfolio.content.import.root_required", "root is required"))),
	}.Filter()
}

// ImportMarkdownHandler runs markdown imports.
type ImportMarkdownHandler struct {
	inner *commands.Handler[ImportMarkdownCommand]
}

// NewImportMarkdownHandler constructs a handler wired to the importer.
func NewImportMarkdownHandler(importer MarkdownImporter, logger interfaces.Logger, opts ...commands.HandlerOption[ImportMarkdownCommand]) *ImportMarkdownHandler {
	exec := func(ctx context.Context, msg ImportMarkdownCommand) error {
		fsys := msg.FS
		if fsys == nil {
			fsys = os.DirFS(msg.Root)
		}
		target := strings.TrimSpace(msg.Path)
		if target == "" {
			target = "."
		}

		info, err := fs.Stat(fsys, target)
		if err != nil {
			return err
		}
		var report *markdown.Report
		if info.IsDir() {
			report, err = importer.ImportDir(ctx, fsys, target)
		} else {
			var file *markdown.FileResult
			file, err = importer.ImportFile(ctx, fsys, target)
			if file != nil {
				report = singleFileReport(*file)
			}
		}
		if report != nil && msg.Result != nil {
			msg.Result(report)
		}
		return err
	}

	handlerOpts := []commands.HandlerOption[ImportMarkdownCommand]{
		commands.WithLogger[ImportMarkdownCommand](logger),
		commands.WithOperation[ImportMarkdownCommand]("content.import_markdown"),
		commands.WithTimeout[ImportMarkdownCommand](0),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ImportMarkdownHandler{
		inner: commands.NewHandler[ImportMarkdownCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ImportMarkdownCommand].Execute.
func (h *ImportMarkdownHandler) Execute(ctx context.Context, msg ImportMarkdownCommand) error {
	return h.inner.Execute(ctx, msg)
}

func singleFileReport(file markdown.FileResult) *markdown.Report {
	report := &markdown.Report{Files: []markdown.FileResult{file}}
	switch {
	case file.Skipped:
		report.Skipped = 1
	case file.Created:
		report.Created = 1
	default:
		report.Updated = 1
	}
	return report
}
