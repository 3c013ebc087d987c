package compile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ant-design/antd-tools/internal/command"
	"github.com/ant-design/antd-tools/internal/logfields"
	"github.com/ant-design/antd-tools/internal/project"
	"github.com/ant-design/antd-tools/internal/source"
	"github.com/ant-design/antd-tools/internal/workspace"
)

// Diagnostic is one tsc error.
type Diagnostic struct {
	File    string
	Line    int
	Column  int
	Code    string
	Message string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s(%d,%d): error %s: %s", d.File, d.Line, d.Column, d.Code, d.Message)
}

var diagnosticPattern = regexp.MustCompile(`^(.+?)\((\d+),(\d+)\): error (TS\d+): (.*)$`)

// ParseDiagnostics extracts diagnostics from non-pretty tsc output.
func ParseDiagnostics(output string) []Diagnostic {
	var diags []Diagnostic
	for _, line := range strings.Split(output, "\n") {
		m := diagnosticPattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		ln, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		diags = append(diags, Diagnostic{File: m[1], Line: ln, Column: col, Code: m[4], Message: m[5]})
	}
	return diags
}

// DeclarationRequest is the input of one declaration emit.
type DeclarationRequest struct {
	Root string
	// Scripts are component sources, relative to components/.
	Scripts []source.File
	// Typings are global declarations, relative to the project root.
	Typings []source.File
	Options project.CompilerOptions
}

// DeclarationEmitter produces .d.ts files for a set of scripts. Diagnostics
// are recoverable; err is reserved for failures to run the emitter at all.
type DeclarationEmitter interface {
	Emit(ctx context.Context, req DeclarationRequest) (files []source.File, diags []Diagnostic, err error)
}

// TscEmitter runs `tsc` with emitDeclarationOnly over a scratch copy of the
// component sources, so that hook-transformed content is what gets declared.
// The copy sits directly under the project root, at the same depth as
// components/, so relative imports that leave the component tree resolve
// exactly as they do for the real sources.
type TscEmitter struct {
	Runner command.Runner
	Env    []string
	// Argv overrides the compiler command line prefix; ["tsc"] when empty.
	Argv []string
}

// pathOptions are the compilerOptions holding a path relative to the
// tsconfig.json that declares them.
var pathOptions = []string{"baseUrl", "typeRoots", "rootDirs", "tsBuildInfoFile"}

// rebaseOptions resolves every relative path option against root.
func rebaseOptions(opts project.CompilerOptions, root string) {
	rebase := func(v any) any {
		s, ok := v.(string)
		if !ok || filepath.IsAbs(s) {
			return v
		}
		return filepath.Join(root, filepath.FromSlash(s))
	}
	for _, name := range pathOptions {
		switch v := opts[name].(type) {
		case string:
			opts[name] = rebase(v)
		case []any:
			out := make([]any, len(v))
			for i, item := range v {
				out[i] = rebase(item)
			}
			opts[name] = out
		}
	}
	// paths entries resolve against baseUrl, or the tsconfig directory without one.
	if _, ok := opts["paths"]; ok {
		if _, ok := opts["baseUrl"]; !ok {
			opts["baseUrl"] = root
		}
	}
}

// Emit implements DeclarationEmitter.
func (e TscEmitter) Emit(ctx context.Context, req DeclarationRequest) ([]source.File, []Diagnostic, error) {
	if len(req.Scripts) == 0 {
		return nil, nil, nil
	}
	srcWS := workspace.NewManager(req.Root, "tsc")
	if err := srcWS.Create(); err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := srcWS.Cleanup(); err != nil {
			slog.Warn("Failed to cleanup tsc workspace", logfields.Error(err))
		}
	}()
	outWS := workspace.NewManager("", "tsc-out")
	if err := outWS.Create(); err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := outWS.Cleanup(); err != nil {
			slog.Warn("Failed to cleanup tsc output", logfields.Error(err))
		}
	}()

	srcDir := srcWS.Path()
	outDir := outWS.Path()
	var files []string
	for _, f := range req.Scripts {
		files = append(files, filepath.Join(srcDir, filepath.FromSlash(f.Rel)))
	}
	for _, f := range req.Typings {
		files = append(files, filepath.Join(req.Root, filepath.FromSlash(f.Rel)))
	}
	if err := writeAll(srcDir, req.Scripts); err != nil {
		return nil, nil, err
	}

	opts := req.Options.With(project.CompilerOptions{
		"declaration":         true,
		"emitDeclarationOnly": true,
		"noEmit":              false,
		"pretty":              false,
		"outDir":              outDir,
		"declarationDir":      outDir,
	})
	delete(opts, "rootDir")
	delete(opts, "outFile")
	rebaseOptions(opts, req.Root)
	tsconfig, err := json.MarshalIndent(map[string]any{"compilerOptions": opts, "files": files}, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode tsconfig: %w", err)
	}
	tsconfigPath := filepath.Join(srcDir, "tsconfig.json")
	if err := os.WriteFile(tsconfigPath, tsconfig, 0o600); err != nil {
		return nil, nil, err
	}

	argv := e.Argv
	if len(argv) == 0 {
		argv = []string{"tsc"}
	}
	args := append(append([]string{}, argv[1:]...), "-p", tsconfigPath)
	res, runErr := e.Runner.Run(ctx, command.Command{Name: argv[0], Args: args, Dir: req.Root, Env: e.Env})

	diags := ParseDiagnostics(string(res.Stdout) + "\n" + string(res.Stderr))
	for i := range diags {
		diags[i].File = sourcePath(req.Root, srcDir, diags[i].File)
	}
	if runErr != nil && len(diags) == 0 {
		return nil, nil, runErr
	}

	emitted, err := readTree(outDir)
	if err != nil {
		return nil, diags, err
	}
	return scratchOutputs(emitted, filepath.Base(srcDir)), diags, nil
}

// scratchOutputs keeps the declarations of the scratch sources, relative to
// the scratch directory. tsc lays outputs out below the common directory of
// its inputs, which is the project root when a source imports a file outside
// the component tree.
func scratchOutputs(files []source.File, scratch string) []source.File {
	prefix := scratch + "/"
	nested := false
	for _, f := range files {
		if strings.HasPrefix(f.Rel, prefix) {
			nested = true
			break
		}
	}
	if !nested {
		return files
	}
	var out []source.File
	for _, f := range files {
		if rel, ok := strings.CutPrefix(f.Rel, prefix); ok {
			out = append(out, f.WithRel(rel, f.Contents))
		}
	}
	return out
}

// sourcePath maps a path printed by tsc back into the project tree.
func sourcePath(root, srcDir, printed string) string {
	abs := printed
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, printed)
	}
	if rel, err := filepath.Rel(srcDir, abs); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(filepath.Join(project.ComponentsDir, rel))
	}
	if rel, err := filepath.Rel(root, abs); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return printed
}

func writeAll(dir string, files []source.File) error {
	for _, f := range files {
		dst := filepath.Join(dir, filepath.FromSlash(f.Rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			return err
		}
		if err := os.WriteFile(dst, f.Contents, 0o600); err != nil {
			return err
		}
	}
	return nil
}

// readTree loads every file below dir with paths relative to it. A missing
// dir yields no files.
func readTree(dir string) ([]source.File, error) {
	var files []source.File
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, source.New(p, filepath.ToSlash(rel), data))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return files, err
}
