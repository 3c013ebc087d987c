package apidoc

import (
	"io/fs"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/ant-design/antd-tools/internal/output"
)

// CollectionPattern selects every component document.
const CollectionPattern = "components/*/*.md"

var (
	propCell  = regexp.MustCompile(`^\s*\|\s*([^\s|]*)`)
	lowerHead = regexp.MustCompile(`^[a-z]`)
	lineBreak = regexp.MustCompile(`[\r\n]+`)
)

// PropUsage is one prop and the components declaring it.
type PropUsage struct {
	Name       string
	Components []string
}

// CollectProps reads the first cell of every table line of the component
// documents and returns the lower-case-initial prop names per component.
func CollectProps(fsys fs.FS) (map[string][]string, error) {
	files, err := MatchFiles(fsys, CollectionPattern)
	if err != nil {
		return nil, err
	}
	props := map[string][]string{}
	for _, rel := range files {
		component, ok := ComponentName(rel)
		if !ok {
			continue
		}
		data, err := fs.ReadFile(fsys, rel)
		if err != nil {
			return nil, err
		}
		for _, line := range lineBreak.Split(string(data), -1) {
			m := propCell.FindStringSubmatch(line)
			if m == nil || !lowerHead.MatchString(m[1]) {
				continue
			}
			if !slices.Contains(props[component], m[1]) {
				props[component] = append(props[component], m[1])
			}
		}
	}
	return props, nil
}

// SharedProps inverts props into per-prop usage, most used first and then
// by name.
func SharedProps(props map[string][]string) []PropUsage {
	components := make([]string, 0, len(props))
	for c := range props {
		components = append(components, c)
	}
	sort.Strings(components)

	byName := map[string]*PropUsage{}
	var usages []*PropUsage
	for _, c := range components {
		for _, p := range props[c] {
			u := byName[p]
			if u == nil {
				u = &PropUsage{Name: p}
				byName[p] = u
				usages = append(usages, u)
			}
			u.Components = append(u.Components, c)
		}
	}
	sort.SliceStable(usages, func(i, j int) bool {
		if len(usages[i].Components) != len(usages[j].Components) {
			return len(usages[i].Components) > len(usages[j].Components)
		}
		return usages[i].Name < usages[j].Name
	})
	out := make([]PropUsage, len(usages))
	for i, u := range usages {
		out[i] = *u
	}
	return out
}

// PrintCollection writes usages as a markdown table.
func PrintCollection(p *output.Printer, usages []PropUsage) {
	p.Line("| name | components | comments |")
	p.Line("| ---- | ---------- | -------- |")
	for _, u := range usages {
		p.Line("| " + u.Name + " | " + strings.Join(u.Components, ", ") + " | |")
	}
}
