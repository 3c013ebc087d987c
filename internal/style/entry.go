package style

import (
	"path"
	"strings"
)

// EntryNames are the style barrel stylesheets compiled to CSS; every other
// stylesheet is copied through untouched.
var EntryNames = []string{"index", "v2-compatible-reset"}

// IsEntry reports whether rel (slash separated) is a style entry point, i.e.
// style/index.less or style/v2-compatible-reset.less.
func IsEntry(rel string) bool {
	if path.Ext(rel) != ".less" {
		return false
	}
	dir := path.Base(path.Dir(rel))
	if dir != "style" {
		return false
	}
	name := strings.TrimSuffix(path.Base(rel), ".less")
	for _, n := range EntryNames {
		if name == n {
			return true
		}
	}
	return false
}

// CSSPath maps a Less file to its compiled output path.
func CSSPath(rel string) string {
	return strings.TrimSuffix(rel, ".less") + ".css"
}
