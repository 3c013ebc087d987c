package compile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ant-design/antd-tools/internal/command"
	"github.com/ant-design/antd-tools/internal/config"
	derrors "github.com/ant-design/antd-tools/internal/errors"
	"github.com/ant-design/antd-tools/internal/project"
	"github.com/ant-design/antd-tools/internal/source"
	"github.com/ant-design/antd-tools/internal/style"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// newProject lays out a small component library.
func newProject(t *testing.T) *project.Project {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"name":"antd","version":"5.0.0"}`)
	writeFile(t, filepath.Join(root, "components", "index.ts"), "export { default as Button } from './button';\n")
	writeFile(t, filepath.Join(root, "components", "button", "index.tsx"),
		"import * as React from 'react';\nexport interface ButtonProps { type?: string }\nconst Button = (props: ButtonProps) => <button type=\"button\">{props.type}</button>;\nexport default Button;\n")
	writeFile(t, filepath.Join(root, "components", "button", "style", "index.tsx"),
		"import '../../style/index.less';\nimport './index.less';\n")
	writeFile(t, filepath.Join(root, "components", "button", "style", "index.less"), ".ant-btn { color: red; }\n")
	writeFile(t, filepath.Join(root, "components", "button", "style", "mixin.less"), ".mixin() {}\n")
	writeFile(t, filepath.Join(root, "components", "button", "icon.svg"), "<svg/>")
	writeFile(t, filepath.Join(root, "components", "button", "__tests__", "index.test.tsx"), "it('works', () => {});\n")
	writeFile(t, filepath.Join(root, "components", "button", "demo", "basic.tsx"), "export default 1;\n")
	writeFile(t, filepath.Join(root, "components", "locale", "en_US.tsx"), "export default {};\n")
	writeFile(t, filepath.Join(root, "components", "locale", "zh_CN.ts"), "export default {};\n")
	writeFile(t, filepath.Join(root, "typings", "custom.d.ts"), "declare module '*.svg';\n")
	p, err := project.Load(root)
	require.NoError(t, err)
	return p
}

// fakeTsc answers tsc invocations by writing a stub declaration for every
// non-declaration input next to the generated tsconfig.json.
func fakeTsc(t *testing.T) *command.FakeRunner {
	return &command.FakeRunner{Handler: func(cmd command.Command) (command.Result, error) {
		if cmd.Name != "tsc" {
			return command.Result{}, nil
		}
		var cfg struct {
			CompilerOptions map[string]any `json:"compilerOptions"`
			Files           []string       `json:"files"`
		}
		data, err := os.ReadFile(cmd.Args[len(cmd.Args)-1])
		if err != nil {
			return command.Result{}, err
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return command.Result{}, err
		}
		outDir, _ := cfg.CompilerOptions["outDir"].(string)
		rootDir := filepath.Dir(cmd.Args[len(cmd.Args)-1])
		for _, f := range cfg.Files {
			rel, err := filepath.Rel(rootDir, f)
			if err != nil || strings.HasPrefix(rel, "..") || strings.HasSuffix(f, ".d.ts") {
				continue
			}
			dst := filepath.Join(outDir, source.ReplaceExt(rel, ".d.ts"))
			if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
				return command.Result{}, err
			}
			if err := os.WriteFile(dst, []byte("export {};\n"), 0o600); err != nil {
				return command.Result{}, err
			}
		}
		return command.Result{}, nil
	}}
}

type fakeStyles struct{ fail map[string]bool }

func (f fakeStyles) Transform(_ context.Context, file string, _ style.Options) (string, error) {
	if f.fail[filepath.Base(filepath.Dir(filepath.Dir(file)))] {
		return "", &style.CompileError{File: file, Err: os.ErrNotExist}
	}
	return "/* compiled */\n", nil
}

func newPipeline(p *project.Project, runner command.Runner) *Pipeline {
	return &Pipeline{
		Project:      p,
		Config:       config.Default(),
		Runner:       runner,
		Styles:       fakeStyles{},
		Declarations: TscEmitter{Runner: runner},
	}
}

func TestScanPartitionsAndExcludes(t *testing.T) {
	p := newProject(t)

	set, err := Scanner{Project: p}.Scan()
	require.NoError(t, err)

	rels := func(files []source.File) []string {
		var out []string
		for _, f := range files {
			out = append(out, f.Rel)
		}
		return out
	}
	assert.ElementsMatch(t, []string{"index.ts", "button/index.tsx", "button/style/index.tsx", "locale/en_US.tsx", "locale/zh_CN.ts"}, rels(set.Scripts))
	assert.ElementsMatch(t, []string{"button/style/index.less", "button/style/mixin.less"}, rels(set.Stylesheets))
	assert.Equal(t, []string{"typings/custom.d.ts"}, rels(set.Declarations))
	assert.Equal(t, []string{"button/icon.svg"}, rels(set.Assets))
}

func TestScanIncludesJSXOnlyWithAllowJS(t *testing.T) {
	p := newProject(t)
	writeFile(t, p.Path("components", "legacy", "index.jsx"), "export default () => <div/>;\n")

	set, err := Scanner{Project: p}.Scan()
	require.NoError(t, err)
	for _, f := range set.Scripts {
		assert.NotEqual(t, "legacy/index.jsx", f.Rel)
	}

	set, err = Scanner{Project: p, AllowJS: true}.Scan()
	require.NoError(t, err)
	var found bool
	for _, f := range set.Scripts {
		found = found || f.Rel == "legacy/index.jsx"
	}
	assert.True(t, found)
}

func TestNeedsUseClient(t *testing.T) {
	cases := map[string]bool{
		"button/index.tsx":      true,
		"legacy/index.jsx":      true,
		"index.ts":              true,
		"button/index.ts":       true,
		"date-picker/index.ts":  true,
		"button/hooks/index.ts": false,
		"button/util.ts":        false,
	}
	for rel, want := range cases {
		assert.Equal(t, want, NeedsUseClient(rel), rel)
	}
}

func TestScriptTransformByTarget(t *testing.T) {
	f := source.New("/x/button/index.tsx", "button/index.tsx",
		[]byte("import Icon from '@ant-design/icons/Smile';\nexport const A = (p: { n: number }) => <Icon>{p.n}</Icon>;\n"))

	es := ScriptTransformer{
		Target:      NewTarget(TargetES, "es"),
		TsconfigRaw: EsbuildTsconfig(project.DefaultCompilerOptions()),
	}
	out, err := es.Transform(f)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "button/index.js", out[0].Rel)
	assert.True(t, strings.HasPrefix(string(out[0].Contents), UseClientHeader))
	assert.Contains(t, string(out[0].Contents), "export")
	assert.NotContains(t, string(out[0].Contents), "number")
	assert.NotContains(t, string(out[0].Contents), "<Icon>")

	lib := ScriptTransformer{Target: NewTarget(TargetLib, "lib"), TsconfigRaw: EsbuildTsconfig(project.DefaultCompilerOptions())}
	out, err = lib.Transform(f)
	require.NoError(t, err)
	assert.NotContains(t, string(out[0].Contents), "use client")
	assert.Contains(t, string(out[0].Contents), "module.exports")
}

func TestScriptTransformAddsCSSBarrel(t *testing.T) {
	f := source.New("/x/button/style/index.tsx", "button/style/index.tsx",
		[]byte("import '../../style/index.less';\nimport './index.less';\n"))
	tr := ScriptTransformer{Target: NewTarget(TargetLib, "lib"), TsconfigRaw: "{}"}

	out, err := tr.Transform(f)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "button/style/index.js", out[0].Rel)
	assert.Equal(t, "button/style/css.js", out[1].Rel)
	assert.Contains(t, string(out[1].Contents), `"./index.css"`)
	assert.Contains(t, string(out[1].Contents), `"../../style/index.css"`)
	assert.NotContains(t, string(out[1].Contents), ".less")
}

func TestScriptTransformReportsSyntaxErrors(t *testing.T) {
	f := source.New("/x/a.ts", "a.ts", []byte("export const = ;"))
	_, err := ScriptTransformer{Target: NewTarget(TargetES, "es"), TsconfigRaw: "{}"}.Transform(f)
	assert.Error(t, err)
}

func TestDecodeHookOutput(t *testing.T) {
	f := source.New("/x/button/index.tsx", "button/index.tsx", []byte("src"))

	files, err := decodeHookOutput(f, []byte("  \n"))
	require.NoError(t, err)
	assert.Equal(t, []source.File{f}, files)

	files, err = decodeHookOutput(f, []byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = decodeHookOutput(f, []byte(`[{"path":"button/index.tsx","contents":"a"},{"path":"./button/extra.less","contents":"b"}]`))
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, source.KindScript, files[0].Kind)
	assert.Equal(t, "button/extra.less", files[1].Rel)
	assert.Equal(t, source.KindStylesheet, files[1].Kind)

	_, err = decodeHookOutput(f, []byte(`[{"path":"../escape.js","contents":""}]`))
	assert.Error(t, err)
	_, err = decodeHookOutput(f, []byte(`[not json`))
	assert.Error(t, err)

	files, err = decodeHookOutput(f, []byte("export const a = 1;\n"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "button/index.tsx", files[0].Rel)
	assert.Equal(t, "/x/button/index.tsx", files[0].Path)
	assert.Equal(t, "export const a = 1;\n", string(files[0].Contents))
}

func TestParseDiagnostics(t *testing.T) {
	out := "components/button/index.tsx(3,7): error TS2322: Type 'string' is not assignable to type 'number'.\nFound 1 error.\n"
	diags := ParseDiagnostics(out)
	require.Len(t, diags, 1)
	assert.Equal(t, Diagnostic{File: "components/button/index.tsx", Line: 3, Column: 7, Code: "TS2322", Message: "Type 'string' is not assignable to type 'number'."}, diags[0])
}

func TestGenerateLocaleRebuildsDirectory(t *testing.T) {
	p := newProject(t)
	writeFile(t, p.Path("locale", "stale.js"), "old")

	locales, err := GenerateLocale(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"en_US", "zh_CN"}, locales)

	assert.Equal(t, "module.exports = require('../lib/locale/en_US');", readFile(t, p.Path("locale", "en_US.js")))
	assert.Equal(t, LocaleDeclaration, readFile(t, p.Path("locale", "zh_CN.d.ts")))
	assert.NoFileExists(t, p.Path("locale", "stale.js"))
}

func TestTargetTransitions(t *testing.T) {
	tg := NewTarget(TargetLib, "lib")
	assert.Equal(t, StateNotStarted, tg.State())
	assert.False(t, tg.transition(StateWriting))
	assert.True(t, tg.transition(StateScanning))
	assert.True(t, tg.transition(StateTransforming))
	assert.True(t, tg.transition(StateWriting))
	assert.True(t, tg.transition(StateDone))
	assert.True(t, tg.State().Terminal())
	assert.False(t, tg.transition(StateFailed))
}

func TestPipelineRunBuildsBothTargets(t *testing.T) {
	p := newProject(t)
	writeFile(t, p.Path("lib", "stale.js"), "old")
	pl := newPipeline(p, fakeTsc(t))

	res, err := pl.Run(context.Background(), TargetES, TargetLib)
	require.NoError(t, err)
	require.Len(t, res.Targets, 2)
	for _, tr := range res.Targets {
		assert.Equal(t, StateDone, tr.State, tr.Target)
		assert.Empty(t, tr.Errors)
	}

	assert.NoFileExists(t, p.Path("lib", "stale.js"))
	for _, dir := range []string{"lib", "es"} {
		assert.FileExists(t, p.Path(dir, "button", "index.js"))
		assert.FileExists(t, p.Path(dir, "button", "index.d.ts"))
		assert.FileExists(t, p.Path(dir, "button", "style", "css.js"))
		assert.FileExists(t, p.Path(dir, "button", "style", "index.less"))
		assert.FileExists(t, p.Path(dir, "button", "style", "mixin.less"))
		assert.FileExists(t, p.Path(dir, "button", "style", "index.css"))
		assert.NoFileExists(t, p.Path(dir, "button", "style", "mixin.css"))
		assert.FileExists(t, p.Path(dir, "button", "icon.svg"))
		assert.NoDirExists(t, p.Path(dir, "button", "__tests__"))
		assert.NoDirExists(t, p.Path(dir, "button", "demo"))
		assert.NoDirExists(t, p.Path(dir, "typings"))
	}

	assert.True(t, strings.HasPrefix(readFile(t, p.Path("es", "button", "index.js")), UseClientHeader))
	assert.True(t, strings.HasPrefix(readFile(t, p.Path("es", "index.js")), UseClientHeader))
	assert.False(t, strings.HasPrefix(readFile(t, p.Path("lib", "button", "index.js")), UseClientHeader))
	assert.Contains(t, readFile(t, p.Path("es", "button", "style", "css.js")), "./index.css")
	assert.Equal(t, []string{"en_US", "zh_CN"}, res.Locales)
	assert.FileExists(t, p.Path("locale", "en_US.js"))

	entries, err := os.ReadDir(p.Root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "antd-tools-tsc-"), "scratch dir %s left behind", e.Name())
	}
}

func TestPipelineCollectsErrorsWithoutStopping(t *testing.T) {
	p := newProject(t)
	writeFile(t, p.Path("components", "broken", "index.ts"), "export const = ;\n")
	pl := newPipeline(p, fakeTsc(t))
	pl.Styles = fakeStyles{fail: map[string]bool{"button": true}}

	res, err := pl.Run(context.Background(), TargetLib)
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryCompile))

	require.Len(t, res.Targets, 1)
	assert.Equal(t, StateFailed, res.Targets[0].State)
	assert.Len(t, res.Targets[0].Errors, 2)
	styleErrs := 0
	for _, e := range res.Targets[0].Errors {
		if derrors.HasCategory(e, derrors.CategoryStyle) {
			styleErrs++
		}
	}
	assert.Equal(t, 1, styleErrs)
	assert.FileExists(t, p.Path("lib", "button", "index.js"))
	assert.NoFileExists(t, p.Path("lib", "button", "style", "index.css"))
	assert.FileExists(t, p.Path("lib", "button", "style", "index.less"))

	pl.IgnoreError = true
	_, err = pl.Run(context.Background(), TargetLib)
	assert.NoError(t, err)
}

func TestTscEmitterKeepsProjectLayout(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"name":"antd","version":"5.0.0"}`)

	var (
		cfg struct {
			CompilerOptions map[string]any `json:"compilerOptions"`
			Files           []string       `json:"files"`
		}
		scratch string
	)
	runner := &command.FakeRunner{Handler: func(cmd command.Command) (command.Result, error) {
		tsconfig := cmd.Args[len(cmd.Args)-1]
		scratch = filepath.Dir(tsconfig)
		data, err := os.ReadFile(tsconfig)
		if err != nil {
			return command.Result{}, err
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return command.Result{}, err
		}
		// Importing ../../package.json widens the common root to the project.
		outDir, _ := cfg.CompilerOptions["outDir"].(string)
		dst := filepath.Join(outDir, filepath.Base(scratch), "version", "index.d.ts")
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			return command.Result{}, err
		}
		return command.Result{}, os.WriteFile(dst, []byte("export declare const version: string;\n"), 0o600)
	}}

	script := source.New("", "version/index.ts", []byte("import pkg from '../../package.json';\nexport const version = pkg.version;\n"))
	typing := source.New("", "typings/custom.d.ts", []byte("declare module '*.svg';\n"))
	opts := project.CompilerOptions{
		"baseUrl":   ".",
		"typeRoots": []any{"./typings", "./node_modules/@types"},
		"rootDir":   "components",
	}

	files, diags, err := TscEmitter{Runner: runner}.Emit(context.Background(), DeclarationRequest{
		Root:    root,
		Scripts: []source.File{script},
		Typings: []source.File{typing},
		Options: opts,
	})
	require.NoError(t, err)
	assert.Empty(t, diags)

	assert.Equal(t, root, filepath.Dir(scratch))
	require.Len(t, cfg.Files, 2)
	assert.Equal(t, filepath.Join(root, "package.json"), filepath.Join(filepath.Dir(cfg.Files[0]), "..", "..", "package.json"))
	assert.Equal(t, filepath.Join(root, "typings", "custom.d.ts"), cfg.Files[1])
	assert.Equal(t, root, cfg.CompilerOptions["baseUrl"])
	assert.Equal(t, []any{filepath.Join(root, "typings"), filepath.Join(root, "node_modules", "@types")}, cfg.CompilerOptions["typeRoots"])
	assert.NotContains(t, cfg.CompilerOptions, "rootDir")

	require.Len(t, files, 1)
	assert.Equal(t, "version/index.d.ts", files[0].Rel)
	assert.NoDirExists(t, scratch)
}

func TestRebaseOptionsSetsBaseURLForPaths(t *testing.T) {
	opts := project.CompilerOptions{"paths": map[string]any{"@/*": []any{"components/*"}}, "rootDirs": []any{"components", "/abs/gen"}}
	rebaseOptions(opts, "/repo")

	assert.Equal(t, "/repo", opts["baseUrl"])
	assert.Equal(t, []any{"/repo/components", "/abs/gen"}, opts["rootDirs"])
}

func TestPipelineReportsTscDiagnostics(t *testing.T) {
	p := newProject(t)
	runner := &command.FakeRunner{Handler: func(cmd command.Command) (command.Result, error) {
		return command.Result{
			ExitCode: 2,
			Stdout:   []byte("components/button/index.tsx(1,1): error TS1005: ';' expected.\n"),
		}, command.ErrFailed
	}}
	pl := newPipeline(p, runner)

	res, err := pl.Run(context.Background(), TargetES)
	require.Error(t, err)
	require.Len(t, res.Targets[0].Errors, 1)
	var fe *FileError
	require.ErrorAs(t, res.Targets[0].Errors[0], &fe)
	assert.Equal(t, "components/button/index.tsx", fe.File)
	assert.FileExists(t, p.Path("es", "button", "index.js"))
}

func TestPipelineTransformHooks(t *testing.T) {
	p := newProject(t)
	runner := fakeTsc(t)
	inner := runner.Handler
	runner.Handler = func(cmd command.Command) (command.Result, error) {
		var rel string
		for _, kv := range cmd.Env {
			if v, ok := strings.CutPrefix(kv, HookFileEnv+"="); ok {
				rel = v
			}
		}
		switch cmd.Name {
		case "strip":
			out, _ := json.Marshal([]map[string]string{{"path": rel, "contents": strings.ReplaceAll(string(cmd.Stdin), "type?: string", "kind?: string")}})
			return command.Result{Stdout: out}, nil
		case "emit":
			out, _ := json.Marshal([]map[string]string{{"path": rel + ".txt", "contents": "raw"}})
			return command.Result{Stdout: out}, nil
		}
		return inner(cmd)
	}
	pl := newPipeline(p, runner)
	pl.Config.Compile.TransformTSFile = config.Hook{"strip"}
	pl.Config.Compile.TransformFile = config.Hook{"emit"}

	_, err := pl.Run(context.Background(), TargetES)
	require.NoError(t, err)

	assert.Equal(t, "raw", readFile(t, p.Path("es", "button", "index.tsx.txt")))
	assert.Len(t, runner.CallsTo("strip"), 5)
	assert.Len(t, runner.CallsTo("emit"), 3)
}

func TestFinalizeRunsHook(t *testing.T) {
	p := newProject(t)
	runner := &command.FakeRunner{}
	pl := newPipeline(p, runner)

	require.NoError(t, pl.Finalize(context.Background()))
	assert.Empty(t, runner.Calls())

	pl.Config.Compile.Finalize = config.Hook{"node", "scripts/finalize.js"}
	require.NoError(t, pl.Finalize(context.Background()))
	calls := runner.CallsTo("node")
	require.Len(t, calls, 1)
	assert.Equal(t, p.Root, calls[0].Dir)
}
