package apidoc

import (
	"fmt"
	"io/fs"
	"regexp"
	"sort"

	"github.com/gobwas/glob"
)

// DefaultDocPattern selects the component API documents.
const DefaultDocPattern = "components/**/index.{zh-CN,en-US}.md"

var componentPattern = regexp.MustCompile(`^components/([^/]*)/`)

// ComponentName extracts the component directory from a root-relative doc path.
func ComponentName(rel string) (string, bool) {
	m := componentPattern.FindStringSubmatch(rel)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// MatchFiles returns the sorted slash paths under fsys matching pattern.
// node_modules is never entered.
func MatchFiles(fsys fs.FS, pattern string) ([]string, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	var files []string
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "node_modules" || (p != "." && d.Name()[0] == '.') {
				return fs.SkipDir
			}
			return nil
		}
		if g.Match(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
