package pipeline

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Attribute names carried by generated fragments.
const (
	AttrTex       = "data-tex"
	AttrTexFor    = "data-tex-for"
	AttrTexSource = "data-tex-src"
)

var (
	imgTagPattern    = regexp.MustCompile(`(?is)<img\b[^>]*>`)
	companionPattern = regexp.MustCompile(`(?is)<script\b[^>]*\bdata-tex-for\s*=\s*["']?([^"'\s>]*)["']?[^>]*>.*?</script\s*>`)
)

// TexImage is an embedded tex image found in a string.
type TexImage struct {
	Text    string // the whole <img> tag
	Start   int
	End     int
	ID      string
	Encoded string // data-tex value, base64 of the source markup
}

// FindTexImages returns every <img> carrying a data-tex attribute, in order.
func FindTexImages(s string) []TexImage {
	var images []TexImage
	for _, loc := range imgTagPattern.FindAllStringIndex(s, -1) {
		tag := s[loc[0]:loc[1]]
		attrs := tagAttributes(tag)
		encoded, ok := attrs[AttrTex]
		if !ok {
			continue
		}
		images = append(images, TexImage{
			Text:    tag,
			Start:   loc[0],
			End:     loc[1],
			ID:      attrs["id"],
			Encoded: encoded,
		})
	}
	return images
}

// tagAttributes tokenizes a single start tag and returns its attributes.
// Keys are lower-cased and values unescaped by the tokenizer.
func tagAttributes(tag string) map[string]string {
	z := html.NewTokenizer(strings.NewReader(tag))
	switch z.Next() {
	case html.StartTagToken, html.SelfClosingTagToken:
	default:
		return nil
	}
	tok := z.Token()
	attrs := make(map[string]string, len(tok.Attr))
	for _, a := range tok.Attr {
		if _, dup := attrs[a.Key]; !dup {
			attrs[a.Key] = a.Val
		}
	}
	return attrs
}

// CompanionScript is a generated <script data-tex-for="ID"> element.
type CompanionScript struct {
	Start int
	End   int
	For   string
}

// FindCompanionScripts returns every companion script in s, in order.
func FindCompanionScripts(s string) []CompanionScript {
	var scripts []CompanionScript
	for _, loc := range companionPattern.FindAllStringSubmatchIndex(s, -1) {
		scripts = append(scripts, CompanionScript{
			Start: loc[0],
			End:   loc[1],
			For:   s[loc[2]:loc[3]],
		})
	}
	return scripts
}
