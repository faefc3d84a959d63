package pipeline

import "regexp"

// ErrorAnnotationPattern matches an inline error annotation left by a
// previous conversion. Error templates must produce markup it matches.
var ErrorAnnotationPattern = regexp.MustCompile(`(?is)<span\b[^>]*\bdata-tex-error\b[^>]*>.*?</span\s*>`)

// DefaultReferenceMarker matches the start of the host's trailing reference
// block (<hr SuperMemo> followed by reference metadata).
var DefaultReferenceMarker = regexp.MustCompile(`(?i)<hr\b[^>]*\bSuperMemo\b[^>]*>`)

// Patterns frozen before any tag rule runs.
var (
	ScriptPattern   = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)
	TexImagePattern = regexp.MustCompile(`(?is)<img\b[^>]*\bdata-tex\s*=[^>]*>`)
)

// StripErrorAnnotations removes every error annotation from s.
func StripErrorAnnotations(s string) string {
	return ErrorAnnotationPattern.ReplaceAllString(s, "")
}

// SplitReferences splits s at the first match of marker outside a script.
// refs holds the marker and everything after it; it is empty when marker is
// nil or absent.
func SplitReferences(s string, marker *regexp.Regexp) (body, refs string) {
	if marker == nil {
		return s, ""
	}
	for _, seg := range segmentOffsets(Freeze(s, ScriptPattern)) {
		if seg.Frozen {
			continue
		}
		if loc := marker.FindStringIndex(seg.Text); loc != nil {
			at := seg.offset + loc[0]
			return s[:at], s[at:]
		}
	}
	return s, ""
}

type placedSegment struct {
	Segment
	offset int
}

func segmentOffsets(segs Segments) []placedSegment {
	out := make([]placedSegment, len(segs))
	offset := 0
	for i, seg := range segs {
		out[i] = placedSegment{Segment: seg, offset: offset}
		offset += len(seg.Text)
	}
	return out
}
