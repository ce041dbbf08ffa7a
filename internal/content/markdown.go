// Package content converts generated article markdown into the HTML body
// sent to WordPress and spaces inline images through long-form content.
package content

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		// Generated content may legitimately contain raw HTML blocks.
		html.WithUnsafe(),
	),
)

// ToHTML renders markdown content to HTML. Content that already looks like an
// HTML document (starts with a tag) is returned unchanged so pre-rendered
// input is not escaped twice.
func ToHTML(input string) (string, error) {
	if looksLikeHTML(input) {
		return input, nil
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(input), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func looksLikeHTML(input string) bool {
	trimmed := strings.TrimSpace(input)
	return strings.HasPrefix(trimmed, "<")
}
