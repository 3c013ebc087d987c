package markdown

import (
	"bytes"
	"fmt"
	"slices"
)

// Edit replaces source[Start:End] with Replacement. Offsets always refer to
// the unedited source.
type Edit struct {
	Start       int
	End         int
	Replacement []byte
}

// ApplyEdits rewrites source with every edit applied in a single pass.
// Bytes outside the edited ranges are copied unchanged. Edits may arrive in
// any order but must not overlap.
func ApplyEdits(source []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return source, nil
	}
	ordered := slices.Clone(edits)
	slices.SortStableFunc(ordered, func(a, b Edit) int { return a.Start - b.Start })

	var buf bytes.Buffer
	buf.Grow(len(source))
	pos := 0
	for i, e := range ordered {
		switch {
		case e.Start < 0 || e.End > len(source) || e.End < e.Start:
			return nil, fmt.Errorf("edit %d: range [%d,%d) outside source of %d bytes", i, e.Start, e.End, len(source))
		case e.Start < pos:
			return nil, fmt.Errorf("edit %d: range [%d,%d) overlaps previous edit ending at %d", i, e.Start, e.End, pos)
		}
		buf.Write(source[pos:e.Start])
		buf.Write(e.Replacement)
		pos = e.End
	}
	buf.Write(source[pos:])
	return buf.Bytes(), nil
}

// ReorderRows returns the edit that rewrites the body rows of t in the given
// order, a permutation of the row indexes. Each row keeps its own bytes,
// including a trailing carriage return on CRLF input.
func ReorderRows(t Table, source []byte, order []int) (Edit, error) {
	if len(order) != len(t.Rows) {
		return Edit{}, fmt.Errorf("reorder %d rows with %d indexes", len(t.Rows), len(order))
	}
	if len(t.Rows) == 0 {
		return Edit{}, fmt.Errorf("table has no body rows")
	}
	seen := make([]bool, len(order))
	lines := make([][]byte, len(order))
	for i, idx := range order {
		if idx < 0 || idx >= len(t.Rows) || seen[idx] {
			return Edit{}, fmt.Errorf("row order %v is not a permutation", order)
		}
		seen[idx] = true
		lines[i] = t.Rows[idx].Text(source)
	}
	return Edit{
		Start:       t.Rows[0].Start,
		End:         t.Rows[len(t.Rows)-1].End,
		Replacement: bytes.Join(lines, []byte("\n")),
	}, nil
}
