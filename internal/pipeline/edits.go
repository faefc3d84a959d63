package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrOverlappingEdits indicates two edits cover the same bytes.
var ErrOverlappingEdits = errors.New("overlapping edits")

// Edit replaces s[Start:End] with Text.
type Edit struct {
	Start int
	End   int
	Text  string
}

// ApplyEdits rewrites s once with all edits. Offsets refer to the original
// s; edits may be given in any order but must not overlap.
func ApplyEdits(s string, edits []Edit) (string, error) {
	if len(edits) == 0 {
		return s, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var b strings.Builder
	b.Grow(len(s))
	pos := 0
	for _, e := range sorted {
		if e.Start < pos || e.End < e.Start || e.End > len(s) {
			return "", fmt.Errorf("%w: [%d,%d) after offset %d", ErrOverlappingEdits, e.Start, e.End, pos)
		}
		b.WriteString(s[pos:e.Start])
		b.WriteString(e.Text)
		pos = e.End
	}
	b.WriteString(s[pos:])
	return b.String(), nil
}
