package apidoc

import (
	"regexp"
	"slices"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ant-design/antd-tools/internal/markdown"
)

// SizeBreakpoints are the responsive size props, smallest first.
var SizeBreakpoints = []string{"xs", "sm", "md", "lg", "xl", "xxl"}

// eventNames are treated as events although they lack the on prefix.
var eventNames = []string{"afterChange", "beforeChange"}

var eventPattern = regexp.MustCompile(`^on[A-Z]`)

// Group is the section of an API table a prop sorts into.
type Group int

const (
	GroupStatic Group = iota
	GroupSize
	GroupEvent
	GroupDeprecated
)

// Classify assigns a prop to its group. Deprecation wins over every other group.
func Classify(name string, deprecated bool) Group {
	switch {
	case deprecated:
		return GroupDeprecated
	case eventPattern.MatchString(name) || slices.Contains(eventNames, name):
		return GroupEvent
	case slices.Contains(SizeBreakpoints, name):
		return GroupSize
	default:
		return GroupStatic
	}
}

// ComponentAPI lists the props of one component by group, in first-seen order.
type ComponentAPI struct {
	Static     []string `json:"static"`
	Size       []string `json:"size"`
	Dynamic    []string `json:"dynamic"`
	Deprecated []string `json:"deprecated"`
}

func newComponentAPI() *ComponentAPI {
	return &ComponentAPI{Static: []string{}, Size: []string{}, Dynamic: []string{}, Deprecated: []string{}}
}

func (c *ComponentAPI) add(g Group, name string) {
	list := &c.Static
	switch g {
	case GroupSize:
		list = &c.Size
	case GroupEvent:
		list = &c.Dynamic
	case GroupDeprecated:
		list = &c.Deprecated
	}
	if !slices.Contains(*list, name) {
		*list = append(*list, name)
	}
}

// Report maps a component name to its API.
type Report map[string]*ComponentAPI

type row struct {
	index int
	name  string
}

// SortTables reorders the body rows of every table in source: static props
// alphabetically, size props by breakpoint, events alphabetically, then
// deprecated props alphabetically. Only the table rows are rewritten. When
// rep is non-nil the props are recorded under component.
func SortTables(source []byte, component string, rep Report) ([]byte, error) {
	lower := cases.Lower(language.Und)
	key := func(s string) string { return lower.String(s) }

	var api *ComponentAPI
	if rep != nil {
		if api = rep[component]; api == nil {
			api = newComponentAPI()
			rep[component] = api
		}
	}

	var edits []markdown.Edit
	for _, t := range markdown.Tables(markdown.ParseBody(source), source) {
		if len(t.Rows) == 0 {
			continue
		}
		groups := make([][]row, GroupDeprecated+1)
		for i, r := range t.Rows {
			var name string
			var struck bool
			if len(r.Cells) > 0 {
				name = markdown.CellText(r.Cells[0], source)
				struck = markdown.Struck(r.Cells[0])
			}
			g := Classify(name, struck)
			groups[g] = append(groups[g], row{index: i, name: name})
			if api != nil {
				api.add(g, name)
			}
		}

		byName := func(rows []row) {
			sort.SliceStable(rows, func(i, j int) bool { return key(rows[i].name) < key(rows[j].name) })
		}
		byName(groups[GroupStatic])
		sort.SliceStable(groups[GroupSize], func(i, j int) bool {
			return slices.Index(SizeBreakpoints, key(groups[GroupSize][i].name)) < slices.Index(SizeBreakpoints, key(groups[GroupSize][j].name))
		})
		byName(groups[GroupEvent])
		byName(groups[GroupDeprecated])

		order := make([]int, 0, len(t.Rows))
		for _, g := range groups {
			for _, r := range g {
				order = append(order, r.index)
			}
		}
		edit, err := markdown.ReorderRows(t, source, order)
		if err != nil {
			return nil, err
		}
		edits = append(edits, edit)
	}
	return markdown.ApplyEdits(source, edits)
}
