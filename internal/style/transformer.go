package style

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/ant-design/antd-tools/internal/command"
	"github.com/ant-design/antd-tools/internal/logfields"
	"github.com/ant-design/antd-tools/internal/project"
	"github.com/ant-design/antd-tools/internal/workspace"
)

// Compiler turns a Less file, whose imports are all absolute, into CSS.
type Compiler interface {
	Compile(ctx context.Context, entry string) (string, error)
}

// LesscCompiler runs the lessc executable.
type LesscCompiler struct {
	Runner command.Runner
	// Argv is the lessc command line prefix, e.g. ["lessc", "--js"].
	Argv []string
	Dir  string
	Env  []string
	Vars map[string]string
}

// Compile implements Compiler.
func (c LesscCompiler) Compile(ctx context.Context, entry string) (string, error) {
	argv := c.Argv
	if len(argv) == 0 {
		argv = []string{"lessc", "--js"}
	}
	args := append([]string{}, argv[1:]...)
	keys := make([]string, 0, len(c.Vars))
	for k := range c.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, fmt.Sprintf("--modify-var=%s=%s", k, c.Vars[k]))
	}
	args = append(args, entry)
	res, err := c.Runner.Run(ctx, command.Command{Name: argv[0], Args: args, Dir: c.Dir, Env: c.Env})
	if err != nil {
		return "", err
	}
	return string(res.Stdout), nil
}

// Prefix runs css through esbuild's CSS transform, which adds the vendor
// prefixes the engines need.
func Prefix(css, sourcefile string, engines []api.Engine) (string, error) {
	result := api.Transform(css, api.TransformOptions{
		Loader:     api.LoaderCSS,
		Engines:    engines,
		Sourcefile: sourcefile,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return "", fmt.Errorf("prefix %s: %s", sourcefile, messages(result.Errors))
	}
	return string(result.Code), nil
}

func messages(msgs []api.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			parts = append(parts, fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "; ")
}

var engineNames = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"safari":  api.EngineSafari,
	"ios":     api.EngineIOS,
	"opera":   api.EngineOpera,
	"ie":      api.EngineIE,
	"node":    api.EngineNode,
}

// ParseEngines converts targets such as "chrome80" or "safari13.1" to
// esbuild engines.
func ParseEngines(targets []string) ([]api.Engine, error) {
	engines := make([]api.Engine, 0, len(targets))
	for _, t := range targets {
		t = strings.ToLower(strings.TrimSpace(t))
		i := strings.IndexFunc(t, unicode.IsDigit)
		if i <= 0 {
			return nil, fmt.Errorf("invalid browser target %q", t)
		}
		name, ok := engineNames[t[:i]]
		if !ok {
			return nil, fmt.Errorf("unknown browser %q in target %q", t[:i], t)
		}
		if _, err := strconv.ParseFloat(t[i:], 64); err != nil {
			return nil, fmt.Errorf("invalid version in target %q", t)
		}
		engines = append(engines, api.Engine{Name: name, Version: t[i:]})
	}
	return engines, nil
}

// Transformer compiles style entry points.
type Transformer struct {
	Compiler Compiler
	Resolver project.Resolver
	Engines  []api.Engine
	// TempDir is where scratch mirrors are created; os.TempDir when empty.
	TempDir string
}

// Options tunes one Transform call.
type Options struct {
	// Cwd resolves a relative file path; the process directory when empty.
	Cwd string
}

// Transform compiles the Less file at file into prefixed CSS. Every failure
// is a *CompileError.
func (t *Transformer) Transform(ctx context.Context, file string, opts Options) (string, error) {
	if !filepath.IsAbs(file) {
		abs, err := filepath.Abs(filepath.Join(opts.Cwd, file))
		if err != nil {
			return "", &CompileError{File: file, Err: err}
		}
		file = abs
	}

	g, err := buildGraph(file, t.Resolver)
	if err != nil {
		return "", err
	}

	ws := workspace.NewManager(t.TempDir, "lessc")
	if err := ws.Create(); err != nil {
		return "", &CompileError{File: file, Err: err}
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to cleanup style workspace", logfields.Error(err))
		}
	}()

	entry, err := g.mirror(ws.Path())
	if err != nil {
		return "", &CompileError{File: file, Err: err}
	}

	css, err := t.Compiler.Compile(ctx, entry)
	if err != nil {
		return "", &CompileError{File: file, Err: err}
	}

	out, err := Prefix(css, filepath.Base(CSSPath(file)), t.Engines)
	if err != nil {
		return "", &CompileError{File: file, Err: err}
	}
	slog.Debug("Compiled stylesheet", logfields.File(file), logfields.Count(len(g.order)))
	return out, nil
}
