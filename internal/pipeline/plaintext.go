package pipeline

import (
	"html"
	"regexp"
	"strings"
)

var (
	lineBreakPattern = regexp.MustCompile(`(?i)<br\s*/?>`)
	htmlTagPattern   = regexp.MustCompile(`<[^>]*>`)
)

// PlainText decodes markup captured from HTML into the text handed to TeX:
// <br> becomes a newline, other tags are dropped, entities are decoded and
// non-breaking spaces become plain spaces.
func PlainText(markup string) string {
	s := lineBreakPattern.ReplaceAllString(markup, "\n")
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.ReplaceAll(s, "\u00a0", " ")
}

// markupEscaper escapes the characters that would let decoded TeX be
// re-parsed as HTML.
var markupEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeMarkup HTML-escapes &, < and > only. Quotes are left alone since
// the result is text content, never an attribute value.
func EscapeMarkup(s string) string {
	return markupEscaper.Replace(s)
}
