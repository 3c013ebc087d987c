package compile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/ant-design/antd-tools/internal/project"
	"github.com/ant-design/antd-tools/internal/source"
)

// Include and exclude patterns, relative to the project root.
var (
	sourcePatterns = []string{
		"components/**.tsx",
		"components/**.ts",
		"typings/**.d.ts",
		"components/**.less",
		"components/**.{png,svg}",
	}
	jsxPattern      = "components/**.jsx"
	excludePatterns = []string{
		"**/__tests__/**",
		"**/demo/**",
		"**/design/**",
	}
)

// Matcher is a compiled include/exclude glob set over slash paths.
type Matcher struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewMatcher compiles the include and exclude patterns.
func NewMatcher(include, exclude []string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range include {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compile glob %q: %w", p, err)
		}
		m.include = append(m.include, g)
	}
	for _, p := range exclude {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compile glob %q: %w", p, err)
		}
		m.exclude = append(m.exclude, g)
	}
	return m, nil
}

// Match reports whether rel is included and not excluded.
func (m *Matcher) Match(rel string) bool {
	for _, g := range m.exclude {
		if g.Match(rel) {
			return false
		}
	}
	for _, g := range m.include {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Scanner discovers the source files of a project.
type Scanner struct {
	Project *project.Project
	AllowJS bool
}

// Scan walks components/ and typings/ and partitions every matching file.
// Component files get paths relative to components/; typings keep their
// root-relative path.
func (s Scanner) Scan() (*source.Set, error) {
	include := sourcePatterns
	if s.AllowJS {
		include = append([]string{jsxPattern}, include...)
	}
	m, err := NewMatcher(include, excludePatterns)
	if err != nil {
		return nil, err
	}

	set := &source.Set{}
	for _, dir := range []string{project.ComponentsDir, project.TypingsDir} {
		base := s.Project.Path(dir)
		err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == project.NodeModulesDir {
					return filepath.SkipDir
				}
				return nil
			}
			rootRel, err := filepath.Rel(s.Project.Root, p)
			if err != nil {
				return err
			}
			rootRel = filepath.ToSlash(rootRel)
			if !m.Match(rootRel) {
				return nil
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			rel := rootRel
			if dir == project.ComponentsDir {
				rel = strings.TrimPrefix(rootRel, project.ComponentsDir+"/")
			}
			set.Add(source.New(p, path.Clean(rel), data))
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("scan %s: %w", dir, err)
		}
	}
	return set, nil
}
