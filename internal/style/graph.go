package style

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ant-design/antd-tools/internal/project"
)

// importPattern matches @import statements, with optional (options) and url().
var importPattern = regexp.MustCompile(`@import\s*(?:\([^)]*\)\s*)?(?:url\(\s*)?(['"])([^'"\n]+)['"]`)

// PackagePrefix marks an import that resolves into the dependency tree.
const PackagePrefix = "~"

type node struct {
	path    string
	content string
	// imports maps each literal specifier to the resolved absolute path.
	imports map[string]string
}

// graph is every stylesheet reachable from an entry.
type graph struct {
	entry string
	nodes map[string]*node
	order []string
}

func skipImport(spec string) bool {
	return strings.HasPrefix(spec, "http://") ||
		strings.HasPrefix(spec, "https://") ||
		strings.HasPrefix(spec, "//") ||
		strings.HasSuffix(spec, ".css") ||
		interpolated(spec)
}

// interpolated reports whether spec depends on a Less variable and so can
// only be resolved by the compiler.
func interpolated(spec string) bool { return strings.Contains(spec, "@{") }

// maskComments blanks out // and /* */ comments, keeping offsets and line
// breaks. Quoted strings and unquoted url() arguments are left alone.
func maskComments(src string) string {
	out := []byte(src)
	blank := func(from, to int) {
		for i := from; i < to; i++ {
			if out[i] != '\n' {
				out[i] = ' '
			}
		}
	}
	for i := 0; i < len(src); {
		switch c := src[i]; {
		case c == '"' || c == '\'':
			i++
			for i < len(src) && src[i] != c && src[i] != '\n' {
				if src[i] == '\\' {
					i++
				}
				i++
			}
			i++
		case strings.HasPrefix(src[i:], "url("):
			end := strings.IndexByte(src[i:], ')')
			if end < 0 {
				return string(out)
			}
			i += end + 1
		case strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				blank(i, len(src))
				return string(out)
			}
			blank(i, i+2+end+2)
			i += 2 + end + 2
		case strings.HasPrefix(src[i:], "//"):
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src) - i
			}
			blank(i, i+end)
			i += end
		default:
			i++
		}
	}
	return string(out)
}

// importStmt is one live @import statement of a stylesheet.
type importStmt struct {
	start, end int
	quote      string
	spec       string
}

// scanImports returns the @import statements of content outside comments.
func scanImports(content string) []importStmt {
	masked := maskComments(content)
	var stmts []importStmt
	for _, m := range importPattern.FindAllStringSubmatchIndex(masked, -1) {
		stmts = append(stmts, importStmt{
			start: m[0],
			end:   m[1],
			quote: masked[m[2]:m[3]],
			spec:  masked[m[4]:m[5]],
		})
	}
	return stmts
}

// buildGraph reads entry and every stylesheet it imports, transitively.
func buildGraph(entry string, resolver project.Resolver) (*graph, error) {
	g := &graph{entry: entry, nodes: map[string]*node{}}
	var visit func(file string) error
	visit = func(file string) error {
		if _, seen := g.nodes[file]; seen {
			return nil
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return &CompileError{File: file, Err: err}
		}
		n := &node{path: file, content: string(data), imports: map[string]string{}}
		g.nodes[file] = n
		g.order = append(g.order, file)

		for _, stmt := range scanImports(n.content) {
			spec := stmt.spec
			if skipImport(spec) {
				continue
			}
			if _, done := n.imports[spec]; done {
				continue
			}
			resolved, err := resolveImport(spec, filepath.Dir(file), resolver)
			if err != nil {
				return &CompileError{File: file, Import: spec, Err: err}
			}
			n.imports[spec] = resolved
			if err := visit(resolved); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(entry); err != nil {
		return nil, err
	}
	return g, nil
}

func resolveImport(spec, fromDir string, resolver project.Resolver) (string, error) {
	if strings.HasPrefix(spec, PackagePrefix) {
		if resolver == nil {
			return "", errors.New("no module resolver for package import")
		}
		return resolver.Resolve(strings.TrimPrefix(spec, PackagePrefix), fromDir)
	}
	base := filepath.Join(fromDir, filepath.FromSlash(spec))
	candidates := []string{base}
	if filepath.Ext(base) == "" {
		candidates = append(candidates, base+".less", filepath.Join(base, "index.less"))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s", os.ErrNotExist, base)
}

// mirrorPath places an absolute source path under root.
func mirrorPath(root, abs string) string {
	clean := filepath.ToSlash(filepath.Clean(abs))
	clean = strings.ReplaceAll(clean, ":", "")
	return filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
}

// mirrorSpec returns the specifier written into the mirrored copy of n, or
// false to keep the statement unchanged.
func (n *node) mirrorSpec(root, spec string) (string, bool) {
	if resolved, ok := n.imports[spec]; ok {
		return filepath.ToSlash(mirrorPath(root, resolved)), true
	}
	// Interpolated relative imports keep pointing at the original directory.
	if interpolated(spec) && !strings.HasPrefix(spec, PackagePrefix) && !strings.HasPrefix(spec, "@{") &&
		!filepath.IsAbs(filepath.FromSlash(spec)) {
		return filepath.ToSlash(filepath.Join(filepath.Dir(n.path), filepath.FromSlash(spec))), true
	}
	return "", false
}

// rewriteImports returns the node content with every live import pointing
// into the mirror under root.
func (n *node) rewriteImports(root string) string {
	var b strings.Builder
	pos := 0
	for _, stmt := range scanImports(n.content) {
		target, ok := n.mirrorSpec(root, stmt.spec)
		if !ok {
			continue
		}
		text := n.content[stmt.start:stmt.end]
		b.WriteString(n.content[pos:stmt.start])
		b.WriteString(strings.Replace(text, stmt.quote+stmt.spec, stmt.quote+target, 1))
		pos = stmt.end
	}
	b.WriteString(n.content[pos:])
	return b.String()
}

// mirror writes every node under root with imports pointing at mirror paths
// and returns the mirrored entry.
func (g *graph) mirror(root string) (string, error) {
	for _, file := range g.order {
		n := g.nodes[file]
		content := n.rewriteImports(root)
		dst := mirrorPath(root, file)
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			return "", err
		}
		if err := os.WriteFile(dst, []byte(content), 0o600); err != nil {
			return "", err
		}
	}
	return mirrorPath(root, g.entry), nil
}
