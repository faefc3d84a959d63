package texhtml

import (
	"fmt"
	"regexp"
	"strings"
)

// Document is one conversion target: the host's full HTML and the region
// of it being converted. Not safe for concurrent use.
type Document struct {
	FullText       string
	EditableRegion string
}

// NewDocument creates a Document. An empty selection selects the whole text.
func NewDocument(html, selection string) *Document {
	if selection == "" {
		selection = html
	}
	return &Document{FullText: html, EditableRegion: selection}
}

// region returns the editable region, checking it is still part of FullText.
func (d *Document) region() (string, error) {
	if d == nil {
		return "", ErrEmptyDocument
	}
	if d.EditableRegion == "" {
		d.EditableRegion = d.FullText
	}
	if !strings.Contains(d.FullText, d.EditableRegion) {
		return "", ErrSelectionNotFound
	}
	return d.EditableRegion, nil
}

// splice replaces the first occurrence of old in FullText with updated and
// makes updated the new editable region, so calls can be chained.
func (d *Document) splice(old, updated string) string {
	d.FullText = strings.Replace(d.FullText, old, updated, 1)
	d.EditableRegion = updated
	return d.FullText
}

// TagRule pairs a delimiter pattern with a rendering profile.
//
// Pattern's first capture group is the markup. Open and Close are the source
// delimiters, restored when an image is converted back to markup; Begin and
// End wrap the markup inside the TeX document.
type TagRule struct {
	Name    string
	Pattern *regexp.Regexp
	Open    string
	Close   string
	Begin   string
	End     string
}

// NewTagRule creates a rule matching open...close, non-greedy and across lines.
func NewTagRule(name, open, close, begin, end string) (TagRule, error) {
	return TagRule{Name: name, Open: open, Close: close, Begin: begin, End: end}.compile()
}

// DelimiterPattern returns the pattern derived from a delimiter pair.
func DelimiterPattern(open, close string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?s)` + regexp.QuoteMeta(open) + `(.+?)` + regexp.QuoteMeta(close))
}

// compile validates the rule and derives Pattern from Open and Close if unset.
func (r TagRule) compile() (TagRule, error) {
	if strings.TrimSpace(r.Name) == "" {
		return r, fmt.Errorf("%w: empty name", ErrInvalidTagRule)
	}
	if r.Pattern == nil {
		if r.Open == "" || r.Close == "" {
			return r, fmt.Errorf("%w: %s: pattern or both delimiters required", ErrInvalidTagRule, r.Name)
		}
		re, err := DelimiterPattern(r.Open, r.Close)
		if err != nil {
			return r, fmt.Errorf("%w: %s: %v", ErrInvalidTagRule, r.Name, err)
		}
		r.Pattern = re
	}
	if r.Pattern.NumSubexp() < 1 {
		return r, fmt.Errorf("%w: %s: pattern has no capture group", ErrInvalidTagRule, r.Name)
	}
	return r, nil
}

// DefaultTagRules returns the built-in rules in evaluation order.
// $$...$$ must run before $...$.
func DefaultTagRules() []TagRule {
	display := `$\displaystyle `
	return []TagRule{
		mustTagRule("display", "$$", "$$", display, "$"),
		mustTagRule("bracket", `\[`, `\]`, display, "$"),
		mustTagRule("paren", `\(`, `\)`, "$", "$"),
		mustTagRule("inline", "$", "$", "$", "$"),
	}
}

func mustTagRule(name, open, close, begin, end string) TagRule {
	r, err := NewTagRule(name, open, close, begin, end)
	if err != nil {
		panic(err)
	}
	return r
}

// MatchSpan is one occurrence of a rule's pattern in the editable region.
type MatchSpan struct {
	Rule         string
	OriginalText string // full match, delimiters included
	MarkupCode   string // capture group 1, still HTML-encoded
	Start        int    // byte offsets in the working string of the rule pass
	End          int
	Occurrence   int // 1-based rank among identical OriginalText in this pass
}

// Fragment is the HTML produced for a successfully rendered span.
// Script is the companion loader, empty unless deferred source is enabled.
type Fragment struct {
	ID     string
	HTML   string
	Script string
}

// Outcome is the result of rendering one span: exactly one of Fragment and
// Err is set.
type Outcome struct {
	Span     MatchSpan
	Fragment *Fragment
	Err      error
}

// Succeeded returns a successful Outcome.
func Succeeded(span MatchSpan, frag *Fragment) Outcome {
	return Outcome{Span: span, Fragment: frag}
}

// Failed returns a failed Outcome.
func Failed(span MatchSpan, err error) Outcome {
	return Outcome{Span: span, Err: err}
}

// OK reports whether the span rendered.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Fragment != nil
}

// EmbedMode selects how rendered images are carried in the HTML.
type EmbedMode string

const (
	// EmbedData inlines the image as a base64 data URI.
	EmbedData EmbedMode = "data"
	// EmbedStore writes the image into an ImageStore and references it by file URL.
	EmbedStore EmbedMode = "store"
)
