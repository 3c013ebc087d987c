package compile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/ant-design/antd-tools/internal/command"
	"github.com/ant-design/antd-tools/internal/config"
	derrors "github.com/ant-design/antd-tools/internal/errors"
	"github.com/ant-design/antd-tools/internal/logfields"
	"github.com/ant-design/antd-tools/internal/metrics"
	"github.com/ant-design/antd-tools/internal/project"
	"github.com/ant-design/antd-tools/internal/rewrite"
	"github.com/ant-design/antd-tools/internal/source"
	"github.com/ant-design/antd-tools/internal/style"
)

// StyleTransformer compiles a style entry point to CSS.
type StyleTransformer interface {
	Transform(ctx context.Context, file string, opts style.Options) (string, error)
}

// Pipeline compiles a project into its module format targets.
type Pipeline struct {
	Project      *project.Project
	Config       *config.Config
	Runner       command.Runner
	Styles       StyleTransformer
	Declarations DeclarationEmitter
	Recorder     metrics.Recorder
	// Env is the environment of child processes (hooks, tsc, lessc).
	Env []string
	// IgnoreError keeps the run successful when files failed.
	IgnoreError bool
	// Concurrency bounds the per-target transform and write workers.
	Concurrency int
}

// New wires the default collaborators: lessc + esbuild for styles and tsc
// for declarations.
func New(p *project.Project, cfg *config.Config, env config.Env, runner command.Runner) (*Pipeline, error) {
	engines, err := style.ParseEngines(cfg.Style.Browsers)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "invalid style.browsers").Build()
	}
	childEnv := command.Environ(env, p.Root)
	return &Pipeline{
		Project: p,
		Config:  cfg,
		Runner:  runner,
		Styles: &style.Transformer{
			Compiler: style.LesscCompiler{Runner: runner, Argv: cfg.Style.Lessc, Dir: p.Root, Env: childEnv, Vars: cfg.Style.Vars},
			Resolver: p.Resolver(".less", ".css"),
			Engines:  engines,
		},
		Declarations: TscEmitter{Runner: runner, Env: childEnv},
		Recorder:     metrics.NoopRecorder{},
		Env:          childEnv,
	}, nil
}

// TargetResult summarizes one target run.
type TargetResult struct {
	Target   TargetName
	State    State
	Files    int
	Errors   []error
	Duration time.Duration
}

// Result summarizes a pipeline run.
type Result struct {
	Targets []*TargetResult
	Locales []string
}

// Errors returns every per-file error across targets.
func (r *Result) Errors() []error {
	var errs []error
	for _, t := range r.Targets {
		errs = append(errs, t.Errors...)
	}
	return errs
}

// Run compiles the named targets concurrently. Each target owns its output
// directory and nothing else is shared between them. Once every target has
// finished, collected file errors fail the run unless IgnoreError is set.
func (p *Pipeline) Run(ctx context.Context, names ...TargetName) (*Result, error) {
	if len(names) == 0 {
		names = AllTargets
	}
	res := &Result{Targets: make([]*TargetResult, len(names))}

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			t := NewTarget(name, targetDir(p.Project, name))
			res.Targets[i] = p.runTarget(ctx, t)
			if name != TargetLib {
				return nil
			}
			locales, err := GenerateLocale(p.Project)
			if err != nil {
				return derrors.WrapError(err, derrors.CategoryFileSystem, "generate locale").Build()
			}
			res.Locales = locales
			slog.Info("Generated locale shims", logfields.Count(len(locales)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	if ctx.Err() != nil {
		return res, derrors.WrapError(ctx.Err(), derrors.CategoryAborted, "compile canceled").Build()
	}

	var merr *multierror.Error
	for _, e := range res.Errors() {
		merr = multierror.Append(merr, e)
	}
	if merr.ErrorOrNil() == nil {
		return res, nil
	}
	for _, e := range merr.Errors {
		slog.Error("Compile error", logfields.Error(e))
	}
	if p.IgnoreError {
		slog.Warn("Ignoring compile errors", logfields.Count(len(merr.Errors)))
		return res, nil
	}
	return res, derrors.CompileError(fmt.Sprintf("compile failed with %d error(s)", len(merr.Errors))).
		WithCause(merr).
		Build()
}

// Finalize runs the compile.finalize hook.
func (p *Pipeline) Finalize(ctx context.Context) error {
	hook := p.Config.Compile.Finalize
	if !hook.IsSet() {
		return nil
	}
	slog.Info("Compile finalization", logfields.Command(hook[0]))
	out, err := command.RunHook(ctx, p.Runner, hook, p.Project.Root, p.Env, nil)
	if s := out.Output(); s != "" {
		slog.Info("Finalize output", slog.String("output", s))
	}
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryBuild, "compile.finalize hook failed").Build()
	}
	return nil
}

// collector gathers outputs and per-file errors from concurrent workers.
type collector struct {
	target TargetName
	mu     sync.Mutex
	files  []source.File
	errs   []error
}

func (c *collector) add(files ...source.File) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = append(c.files, files...)
}

func (c *collector) fail(file string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, &FileError{Target: c.target, File: file, Err: err})
}

func (p *Pipeline) concurrency() int {
	if p.Concurrency > 0 {
		return p.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

func (p *Pipeline) recorder() metrics.Recorder {
	if p.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return p.Recorder
}

func (p *Pipeline) runTarget(ctx context.Context, t *Target) *TargetResult {
	start := time.Now()
	res := &TargetResult{Target: t.Name}
	c := &collector{target: t.Name}
	finish := func(state State) *TargetResult {
		t.transition(state)
		res.State = t.State()
		res.Errors = c.errs
		res.Duration = time.Since(start)
		rec := p.recorder()
		rec.AddTargetFiles(string(t.Name), res.Files)
		for range res.Errors {
			rec.IncTargetFileError(string(t.Name))
		}
		slog.Info("Compile target finished",
			logfields.Target(string(t.Name)),
			logfields.State(string(res.State)),
			logfields.Count(res.Files),
			logfields.DurationMS(float64(res.Duration.Milliseconds())))
		return res
	}

	t.transition(StateScanning)
	opts, err := p.Project.CompilerOptions()
	if err != nil {
		c.fail("tsconfig.json", err)
		return finish(StateFailed)
	}
	set, err := Scanner{Project: p.Project, AllowJS: opts.Bool("allowJs")}.Scan()
	if err != nil {
		c.fail(project.ComponentsDir, err)
		return finish(StateFailed)
	}
	if err := os.RemoveAll(t.OutDir); err != nil {
		c.fail(t.OutDir, err)
		return finish(StateFailed)
	}
	if err := os.MkdirAll(t.OutDir, 0o755); err != nil {
		c.fail(t.OutDir, err)
		return finish(StateFailed)
	}
	slog.Debug("Scanned sources",
		logfields.Target(string(t.Name)),
		slog.Int("scripts", len(set.Scripts)),
		slog.Int("stylesheets", len(set.Stylesheets)),
		slog.Int("declarations", len(set.Declarations)),
		slog.Int("assets", len(set.Assets)))

	t.transition(StateTransforming)
	declInputs := p.transform(ctx, t, set, opts, c)
	p.emitDeclarations(ctx, set, declInputs, opts, c)
	if ctx.Err() != nil {
		c.fail(string(t.Name), ctx.Err())
		return finish(StateFailed)
	}

	t.transition(StateWriting)
	res.Files = p.write(ctx, t, c)

	if len(c.errs) > 0 {
		return finish(StateFailed)
	}
	return finish(StateDone)
}

// transform runs every per-file step and returns the hook-transformed
// scripts, which are the declaration inputs.
func (p *Pipeline) transform(ctx context.Context, t *Target, set *source.Set, opts project.CompilerOptions, c *collector) []source.File {
	scriptHook := FileHook{Hook: p.Config.Compile.TransformTSFile, Runner: p.Runner, Dir: p.Project.Root, Env: p.Env}
	fileHook := FileHook{Hook: p.Config.Compile.TransformFile, Runner: p.Runner, Dir: p.Project.Root, Env: p.Env}
	scripts := ScriptTransformer{Target: t, TsconfigRaw: EsbuildTsconfig(opts)}
	if t.ESM() {
		scripts.LibToES = &rewrite.LibToES{NodeModules: p.Project.Path(project.NodeModulesDir)}
	}

	var (
		mu         sync.Mutex
		declInputs []source.File
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency())

	for _, f := range set.Scripts {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			hooked, err := scriptHook.Apply(gctx, f, t.Name)
			if err != nil {
				c.fail(f.Rel, err)
				return nil
			}
			for _, h := range hooked {
				if h.Kind != source.KindScript {
					c.add(h)
					continue
				}
				mu.Lock()
				declInputs = append(declInputs, h)
				mu.Unlock()
				out, err := scripts.Transform(h)
				if err != nil {
					c.fail(h.Rel, err)
					continue
				}
				c.add(out...)
			}
			return nil
		})
		if path.Ext(f.Rel) == ".tsx" && fileHook.Hook.IsSet() {
			g.Go(func() error {
				out, err := fileHook.Apply(gctx, f, t.Name)
				if err != nil {
					c.fail(f.Rel, err)
					return nil
				}
				c.add(out...)
				return nil
			})
		}
	}

	for _, f := range set.Stylesheets {
		c.add(f)
		if !style.IsEntry(f.Rel) || p.Styles == nil {
			continue
		}
		g.Go(func() error {
			css, err := p.Styles.Transform(gctx, f.Path, style.Options{Cwd: p.Project.Root})
			if err != nil {
				slog.Warn("Skipping stylesheet", logfields.File(f.Rel), logfields.Error(err))
				c.fail(f.Rel, derrors.StyleError("compile stylesheet").WithCause(err).WithContext("file", f.Rel).Build())
				return nil
			}
			c.add(f.WithRel(style.CSSPath(f.Rel), []byte(css)))
			return nil
		})
	}

	for _, f := range set.Declarations {
		if !isTypings(f.Rel) {
			c.add(f)
		}
	}
	c.add(set.Assets...)

	_ = g.Wait()
	return declInputs
}

func (p *Pipeline) emitDeclarations(ctx context.Context, set *source.Set, scripts []source.File, opts project.CompilerOptions, c *collector) {
	if p.Declarations == nil || ctx.Err() != nil {
		return
	}
	req := DeclarationRequest{Root: p.Project.Root, Options: opts}
	for _, f := range scripts {
		switch path.Ext(f.Rel) {
		case ".ts", ".tsx":
			req.Scripts = append(req.Scripts, f)
		case ".js", ".jsx":
			if opts.Bool("allowJs") {
				req.Scripts = append(req.Scripts, f)
			}
		}
	}
	for _, f := range set.Declarations {
		if isTypings(f.Rel) {
			req.Typings = append(req.Typings, f)
		} else {
			req.Scripts = append(req.Scripts, f)
		}
	}
	sort.Slice(req.Scripts, func(i, j int) bool { return req.Scripts[i].Rel < req.Scripts[j].Rel })

	files, diags, err := p.Declarations.Emit(ctx, req)
	if err != nil {
		c.fail("declarations", err)
		return
	}
	for _, d := range diags {
		c.fail(d.File, d)
	}
	c.add(files...)
}

// write persists every collected output concurrently and returns how many
// files were written.
func (p *Pipeline) write(ctx context.Context, t *Target, c *collector) int {
	c.mu.Lock()
	files := c.files
	c.mu.Unlock()

	var written int64
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency())
	for _, f := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			dst := filepath.Join(t.OutDir, filepath.FromSlash(f.Rel))
			if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
				c.fail(f.Rel, err)
				return nil
			}
			if err := os.WriteFile(dst, f.Contents, 0o644); err != nil {
				c.fail(f.Rel, err)
				return nil
			}
			mu.Lock()
			written++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return int(written)
}
