package bundle

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/ant-design/antd-tools/internal/style"
)

const externalNamespace = "global-external"

// StyleTransformer compiles a Less file to CSS.
type StyleTransformer interface {
	Transform(ctx context.Context, file string, opts style.Options) (string, error)
}

// GlobalName derives the browser global for an external module: the
// configured name, else the camel-cased module name ("rc-util" -> "rcUtil").
func GlobalName(module string, globals map[string]string) string {
	if g, ok := globals[module]; ok && g != "" {
		return g
	}
	var b strings.Builder
	upper := false
	for _, r := range strings.TrimPrefix(module, "@") {
		if r == '-' || r == '/' || r == '.' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// externalsPlugin replaces imports of the external modules with reads from
// their browser globals.
func externalsPlugin(external []string, globals map[string]string) api.Plugin {
	names := append([]string(nil), external...)
	sort.Strings(names)
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	filter := "^(" + strings.Join(quoted, "|") + ")$"

	return api.Plugin{
		Name: "global-externals",
		Setup: func(build api.PluginBuild) {
			if len(names) == 0 {
				return
			}
			build.OnResolve(api.OnResolveOptions{Filter: filter}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				return api.OnResolveResult{Path: args.Path, Namespace: externalNamespace}, nil
			})
			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: externalNamespace}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				contents := fmt.Sprintf("module.exports = globalThis[%q];", GlobalName(args.Path, globals))
				return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}, nil
			})
		},
	}
}

// lessPlugin loads .less imports through the style transformer.
func lessPlugin(ctx context.Context, styles StyleTransformer, root string) api.Plugin {
	return api.Plugin{
		Name: "less",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: `\.less$`}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				if styles == nil {
					return api.OnLoadResult{}, fmt.Errorf("no style transformer for %s", args.Path)
				}
				css, err := styles.Transform(ctx, args.Path, style.Options{Cwd: root})
				if err != nil {
					return api.OnLoadResult{}, err
				}
				return api.OnLoadResult{Contents: &css, Loader: api.LoaderCSS}, nil
			})
		},
	}
}
