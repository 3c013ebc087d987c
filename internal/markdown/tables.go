package markdown

import (
	"bytes"

	gmast "github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

// Row is one table line. Start and End delimit the line in the source,
// without its line terminator.
type Row struct {
	Start int
	End   int
	Cells []gmast.Node
}

// Text returns the raw line.
func (r Row) Text(source []byte) []byte { return source[r.Start:r.End] }

// Table is a GFM table located in the source.
type Table struct {
	Header Row
	Rows   []Row
}

// Tables returns every table of the document whose rows could all be
// located in the source.
func Tables(root gmast.Node, source []byte) []Table {
	var tables []Table
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering || n.Kind() != east.KindTable {
			return gmast.WalkContinue, nil
		}
		if t, ok := locateTable(n, source); ok {
			tables = append(tables, t)
		}
		return gmast.WalkSkipChildren, nil
	})
	return tables
}

func locateTable(n gmast.Node, source []byte) (Table, bool) {
	var t Table
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		row, ok := locateRow(c, source)
		if !ok {
			return Table{}, false
		}
		if c.Kind() == east.KindTableHeader {
			t.Header = row
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, true
}

func locateRow(n gmast.Node, source []byte) (Row, bool) {
	row := Row{Start: -1}
	for cell := n.FirstChild(); cell != nil; cell = cell.NextSibling() {
		row.Cells = append(row.Cells, cell)
		if row.Start >= 0 || cell.Lines().Len() == 0 {
			continue
		}
		pos := cell.Lines().At(0).Start
		row.Start = bytes.LastIndexByte(source[:pos], '\n') + 1
		if end := bytes.IndexByte(source[pos:], '\n'); end >= 0 {
			row.End = pos + end
		} else {
			row.End = len(source)
		}
	}
	return row, row.Start >= 0
}

// CellText returns the text of the first text node reached by descending
// through first children.
func CellText(cell gmast.Node, source []byte) string {
	n := cell
	for n != nil {
		if t, ok := n.(*gmast.Text); ok {
			return string(t.Segment.Value(source))
		}
		n = n.FirstChild()
	}
	return ""
}

// Struck reports whether the first-child chain of cell passes through a
// strikethrough.
func Struck(cell gmast.Node) bool {
	for n := cell; n != nil; n = n.FirstChild() {
		if n.Kind() == east.KindStrikethrough {
			return true
		}
	}
	return false
}
