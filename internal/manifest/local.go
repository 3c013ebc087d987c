package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

const npmignore = ".npmignore"

// skippedDirs are never part of a package.
var skippedDirs = map[string]bool{"node_modules": true, ".git": true}

// alwaysIncluded reports files npm ships regardless of the files whitelist.
func alwaysIncluded(rel string) bool {
	if strings.Contains(rel, "/") {
		return false
	}
	if rel == "package.json" {
		return true
	}
	upper := strings.ToUpper(rel)
	for _, prefix := range []string{"README", "LICENSE", "LICENCE"} {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}

// rule is one compiled files or ignore entry. The last matching rule of a
// list decides.
type rule struct {
	globs  []glob.Glob
	negate bool
}

func (r rule) match(rel string) bool {
	for _, g := range r.globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// compileRule compiles patterns; a "/**/" also matches a single "/", as in
// npm's glob matching.
func compileRule(entry string, patterns []string) (rule, error) {
	r := rule{}
	for _, p := range patterns {
		if strings.Contains(p, "/**/") {
			patterns = append(patterns, strings.ReplaceAll(p, "/**/", "/"))
		}
	}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return rule{}, fmt.Errorf("compile entry %q: %w", entry, err)
		}
		r.globs = append(r.globs, g)
	}
	return r, nil
}

// lastMatch returns whether any rule matched rel and, if so, whether the
// deciding rule was a negation.
func lastMatch(rules []rule, rel string) (matched, negated bool) {
	for _, r := range rules {
		if r.match(rel) {
			matched, negated = true, r.negate
		}
	}
	return matched, negated
}

// Whitelist matches the package.json "files" entries. An entry names a file,
// a directory (and everything below it) or a glob; a leading "!" excludes
// what earlier entries included. Without entries every file is shipped
// except those matched by the .npmignore rules.
type Whitelist struct {
	files    []rule
	positive int
	ignore   []rule
}

// NewWhitelist compiles the entries. An empty list includes everything.
func NewWhitelist(entries []string) (*Whitelist, error) {
	w := &Whitelist{}
	for _, e := range entries {
		negate := strings.HasPrefix(e, "!")
		e = strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(e, "!"), "./"), "/")
		if e == "" {
			continue
		}
		r, err := compileRule(e, []string{e, e + "/**"})
		if err != nil {
			return nil, err
		}
		r.negate = negate
		if !negate {
			w.positive++
		}
		w.files = append(w.files, r)
	}
	return w, nil
}

// WithIgnore adds .npmignore rules, in gitignore syntax. npm only consults
// them when there is no files whitelist.
func (w *Whitelist) WithIgnore(content string) (*Whitelist, error) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		negate := strings.HasPrefix(line, "!")
		p := strings.TrimSuffix(strings.TrimPrefix(line, "!"), "/")
		anchored := strings.Contains(p, "/")
		p = strings.TrimPrefix(p, "/")
		if p == "" {
			continue
		}
		patterns := []string{p, p + "/**"}
		if !anchored {
			patterns = append(patterns, "**/"+p, "**/"+p+"/**")
		}
		r, err := compileRule(line, patterns)
		if err != nil {
			return nil, err
		}
		r.negate = negate
		w.ignore = append(w.ignore, r)
	}
	return w, nil
}

// Match reports whether the root-relative slash path is shipped.
func (w *Whitelist) Match(rel string) bool {
	if alwaysIncluded(rel) {
		return true
	}
	if w.positive > 0 {
		matched, negated := lastMatch(w.files, rel)
		return matched && !negated
	}
	if matched, negated := lastMatch(w.files, rel); matched && negated {
		return false
	}
	matched, negated := lastMatch(w.ignore, rel)
	return !matched || negated
}

// LocalFiles lists the files under dir that the package would ship, as
// sorted slash paths relative to dir. Without a whitelist the root
// .npmignore applies.
func LocalFiles(fsys fs.FS, whitelist []string) ([]string, error) {
	w, err := NewWhitelist(whitelist)
	if err != nil {
		return nil, err
	}
	if w.positive == 0 {
		data, err := fs.ReadFile(fsys, npmignore)
		switch {
		case err == nil:
			if w, err = w.WithIgnore(string(data)); err != nil {
				return nil, err
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("read %s: %w", npmignore, err)
		}
	}
	var files []string
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && skippedDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if p != npmignore && w.Match(p) {
			files = append(files, path.Clean(p))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk package files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// ExistsIn returns the paths of remote that do not exist under dir.
func ExistsIn(dir string, remote []string, exists func(string) bool) []string {
	var missing []string
	for _, rel := range remote {
		if !exists(filepath.Join(dir, filepath.FromSlash(rel))) {
			missing = append(missing, rel)
		}
	}
	return missing
}
