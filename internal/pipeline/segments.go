package pipeline

import (
	"regexp"
	"strings"
)

// Segment is a run of the working string. Frozen runs are never matched by
// tag rules: existing scripts, existing tex images and fresh replacements.
type Segment struct {
	Text   string
	Frozen bool
}

// Segments is the working string as an ordered list of runs.
type Segments []Segment

// Match is one pattern match inside an unfrozen segment.
type Match struct {
	Text  string // full matched text
	Inner string // capture group 1
	Start int    // offset in Segments.String()
	End   int

	seg int // segment index
	lo  int // offsets within the segment
	hi  int
}

// Freeze splits s into segments, freezing every match of the given patterns.
func Freeze(s string, patterns ...*regexp.Regexp) Segments {
	segs := Segments{{Text: s}}
	for _, re := range patterns {
		var next Segments
		for _, seg := range segs {
			if seg.Frozen {
				next = append(next, seg)
				continue
			}
			pos := 0
			for _, loc := range re.FindAllStringIndex(seg.Text, -1) {
				if loc[0] > pos {
					next = append(next, Segment{Text: seg.Text[pos:loc[0]]})
				}
				next = append(next, Segment{Text: seg.Text[loc[0]:loc[1]], Frozen: true})
				pos = loc[1]
			}
			if pos < len(seg.Text) {
				next = append(next, Segment{Text: seg.Text[pos:]})
			}
		}
		segs = next
	}
	return segs
}

// String reassembles the working string.
func (ss Segments) String() string {
	var b strings.Builder
	for _, seg := range ss {
		b.WriteString(seg.Text)
	}
	return b.String()
}

// FindAll returns every match of re in the unfrozen segments, in document
// order. re must have at least one capture group.
func (ss Segments) FindAll(re *regexp.Regexp) []Match {
	var matches []Match
	offset := 0
	for i, seg := range ss {
		if !seg.Frozen {
			for _, loc := range re.FindAllStringSubmatchIndex(seg.Text, -1) {
				m := Match{
					Text:  seg.Text[loc[0]:loc[1]],
					Start: offset + loc[0],
					End:   offset + loc[1],
					seg:   i,
					lo:    loc[0],
					hi:    loc[1],
				}
				if len(loc) >= 4 && loc[2] >= 0 {
					m.Inner = seg.Text[loc[2]:loc[3]]
				}
				matches = append(matches, m)
			}
		}
		offset += len(seg.Text)
	}
	return matches
}

// Replace substitutes matches[i] with replacements[i] in a single pass and
// freezes the replacements. matches must come from FindAll on ss.
func (ss Segments) Replace(matches []Match, replacements []string) Segments {
	bySeg := make(map[int][]int, len(matches))
	for i, m := range matches {
		bySeg[m.seg] = append(bySeg[m.seg], i)
	}

	out := make(Segments, 0, len(ss)+2*len(matches))
	for i, seg := range ss {
		idx, ok := bySeg[i]
		if !ok {
			out = append(out, seg)
			continue
		}
		pos := 0
		for _, n := range idx {
			m := matches[n]
			if m.lo > pos {
				out = append(out, Segment{Text: seg.Text[pos:m.lo]})
			}
			out = append(out, Segment{Text: replacements[n], Frozen: true})
			pos = m.hi
		}
		if pos < len(seg.Text) {
			out = append(out, Segment{Text: seg.Text[pos:]})
		}
	}
	return out
}
