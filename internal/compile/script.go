package compile

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/ant-design/antd-tools/internal/project"
	"github.com/ant-design/antd-tools/internal/rewrite"
	"github.com/ant-design/antd-tools/internal/source"
)

// UseClientHeader is the directive prepended to client component modules.
const UseClientHeader = "\"use client\"\n"

// indexPattern matches components/index.ts and components/<name>/index.ts
// by their path relative to components/.
var indexPattern = regexp.MustCompile(`^([\w-]+/)?index\.ts$`)

// NeedsUseClient reports whether the ES output of the source at rel gets the
// "use client" directive.
func NeedsUseClient(rel string) bool {
	switch path.Ext(rel) {
	case ".tsx", ".jsx":
		return true
	}
	return indexPattern.MatchString(rel)
}

func hasUseClient(code []byte) bool {
	trimmed := bytes.TrimLeft(code, " \t\r\n")
	return bytes.HasPrefix(trimmed, []byte(`"use client"`)) || bytes.HasPrefix(trimmed, []byte(`'use client'`))
}

func loaderFor(rel string) api.Loader {
	switch path.Ext(rel) {
	case ".tsx":
		return api.LoaderTSX
	case ".ts":
		return api.LoaderTS
	case ".jsx":
		return api.LoaderJSX
	default:
		return api.LoaderJS
	}
}

// EsbuildTsconfig renders the compiler options for esbuild. "preserve" only
// makes sense for tsc, so emitted JS uses the automatic runtime instead.
func EsbuildTsconfig(opts project.CompilerOptions) string {
	if jsx, _ := opts["jsx"].(string); jsx == "" || jsx == "preserve" {
		opts = opts.With(project.CompilerOptions{"jsx": "react-jsx"})
	}
	return opts.Raw()
}

// ScriptTransformer strips types from one script and down-levels it to the
// target's module format.
type ScriptTransformer struct {
	Target *Target
	// TsconfigRaw is the merged {"compilerOptions": ...} JSON.
	TsconfigRaw string
	// LibToES rewrites lib/ imports to es/; only used for the ES target.
	LibToES *rewrite.LibToES
}

// Transform compiles f and returns every file to write for it: the module
// itself and, for style barrels, its css-only companion.
func (s ScriptTransformer) Transform(f source.File) ([]source.File, error) {
	result := api.Transform(string(f.Contents), api.TransformOptions{
		Loader:      loaderFor(f.Rel),
		Format:      s.Target.Format(),
		Target:      api.ES2017,
		JSX:         api.JSXAutomatic,
		TsconfigRaw: s.TsconfigRaw,
		Sourcefile:  f.Rel,
		Charset:     api.CharsetUTF8,
		LogLevel:    api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return nil, transformError(result.Errors)
	}

	code := result.Code
	if s.Target.ESM() {
		if NeedsUseClient(f.Rel) && !hasUseClient(code) {
			code = append([]byte(UseClientHeader), code...)
		}
		if s.LibToES != nil {
			code = []byte(s.LibToES.Rewrite(string(code)))
		}
	}
	out := f.WithRel(source.ReplaceExt(f.Rel, ".js"), code)
	return rewrite.Barrel(out), nil
}

func transformError(msgs []api.Message) error {
	errs := make([]error, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			errs = append(errs, fmt.Errorf("%d:%d: %s", m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		errs = append(errs, errors.New(m.Text))
	}
	return errors.Join(errs...)
}

// isTypings reports whether rel is a global typing. Typings are tsc inputs
// but never written to a target.
func isTypings(rel string) bool {
	return strings.HasPrefix(rel, "typings/")
}
