// Package markdown imports entries from markdown files. Frontmatter carries
// the kind, slug, locale and shared fields; the body is rendered with
// goldmark and stored as the translation's rich document.
package markdown
