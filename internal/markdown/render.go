package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// RenderOptions configures the goldmark engine.
type RenderOptions struct {
	// Extensions names goldmark extensions. Empty means gfm, linkify and
	// tasklist; unknown names are ignored.
	Extensions []string
	HardWraps  bool
	// SafeMode drops raw HTML from the output.
	SafeMode bool
}

var namedExtensions = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

var defaultExtensions = []string{"gfm", "linkify", "tasklist"}

// Renderer converts markdown bodies to HTML with one shared engine.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds the engine for opts.
func NewRenderer(opts RenderOptions) *Renderer {
	names := opts.Extensions
	if len(names) == 0 {
		names = defaultExtensions
	}
	var extenders []goldmark.Extender
	picked := make(map[goldmark.Extender]bool, len(names))
	for _, name := range names {
		ext, ok := namedExtensions[strings.ToLower(strings.TrimSpace(name))]
		if !ok || picked[ext] {
			continue
		}
		picked[ext] = true
		extenders = append(extenders, ext)
	}

	var htmlOpts []goldmark.Option
	if opts.HardWraps {
		htmlOpts = append(htmlOpts, goldmark.WithRendererOptions(html.WithHardWraps()))
	}
	if !opts.SafeMode {
		htmlOpts = append(htmlOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}

	md := goldmark.New(append([]goldmark.Option{
		goldmark.WithExtensions(extenders...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}, htmlOpts...)...)
	return &Renderer{md: md}
}

// Render returns the HTML for source.
func (r *Renderer) Render(source []byte) (string, error) {
	var out bytes.Buffer
	if err := r.md.Convert(source, &out); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	return out.String(), nil
}
