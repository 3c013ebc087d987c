package rewrite

import (
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var iconPattern = regexp.MustCompile(`^@ant-design/icons/([^/]*)$`)

// LibToES rewrites dependency imports in ES output from their CommonJS build
// (pkg/lib/x) to their ES build (pkg/es/x), and bare icon imports to the ES
// icon modules, whenever the target directory exists in node_modules.
type LibToES struct {
	NodeModules string
	// Exists reports whether a path exists; os.Stat when nil.
	Exists func(path string) bool
}

// Rewrite applies the rule to every import and export-from specifier.
func (r LibToES) Rewrite(content string) string {
	return replaceSpecifiers(esSpecifierPattern, content, r.specifier)
}

func (r LibToES) specifier(spec string) string {
	if strings.HasPrefix(spec, ".") {
		return spec
	}
	if strings.Contains(spec, "/lib/") {
		if es := strings.Replace(spec, "/lib/", "/es/", 1); r.present(es) {
			spec = es
		}
	}
	if m := iconPattern.FindStringSubmatch(spec); m != nil {
		if es := "@ant-design/icons/es/icons/" + m[1]; r.present(es) {
			spec = es
		}
	}
	return spec
}

func (r LibToES) present(spec string) bool {
	dir := filepath.Join(r.NodeModules, filepath.FromSlash(path.Dir(spec)))
	if r.Exists != nil {
		return r.Exists(dir)
	}
	_, err := os.Stat(dir)
	return err == nil
}
