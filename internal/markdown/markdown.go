// Package markdown parses component documentation with goldmark and edits it
// in place by byte range, so untouched text is preserved exactly.
package markdown

import (
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// New returns a goldmark instance with GFM tables and strikethrough.
func New() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))
}

// ParseBody parses a Markdown body into a goldmark AST.
func ParseBody(body []byte) gmast.Node {
	return New().Parser().Parse(text.NewReader(body))
}
