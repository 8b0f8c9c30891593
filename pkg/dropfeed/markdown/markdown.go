// Package markdown renders post bodies to HTML for admin previews.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Renderer converts markdown source to HTML.
type Renderer interface {
	Render(source string) (string, error)
}

type goldmarkRenderer struct {
	md goldmark.Markdown
}

// NewRenderer returns a goldmark-backed renderer with GFM, typographer and
// footnote extensions. Raw HTML in the source is omitted.
func NewRenderer() Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			extension.Footnote,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &goldmarkRenderer{md: md}
}

func (r *goldmarkRenderer) Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}
