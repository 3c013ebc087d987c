package task

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ant-design/antd-tools/internal/apidoc"
	"github.com/ant-design/antd-tools/internal/bundle"
	"github.com/ant-design/antd-tools/internal/command"
	"github.com/ant-design/antd-tools/internal/compile"
	derrors "github.com/ant-design/antd-tools/internal/errors"
	"github.com/ant-design/antd-tools/internal/logfields"
	"github.com/ant-design/antd-tools/internal/manifest"
	"github.com/ant-design/antd-tools/internal/notify"
	"github.com/ant-design/antd-tools/internal/output"
	"github.com/ant-design/antd-tools/internal/project"
	"github.com/ant-design/antd-tools/internal/publish"
	"github.com/ant-design/antd-tools/internal/watch"
)

// Task names accepted by `antd-tools run`.
const (
	Clean           = "clean"
	Dist            = "dist"
	Compile         = "compile"
	CompileWithES   = "compile-with-es"
	CompileWithLib  = "compile-with-lib"
	CompileFinalize = "compile-finalize"
	PackageDiff     = "package-diff"
	Pub             = "pub"
	Guard           = "guard"
	SortAPITable    = "sort-api-table"
	APICollection   = "api-collection"
	Tsc             = "tsc"
	WatchTsc        = "watch-tsc"
	Install         = "install"
)

// Task is a named unit of work.
type Task struct {
	Name        string
	Description string
	Run         Func
}

var tasks = map[string]Task{}

func register(name, description string, fn Func) {
	tasks[name] = Task{Name: name, Description: description, Run: fn}
}

func init() {
	compileAll := Series(Parallel(compileTarget(compile.TargetES), compileTarget(compile.TargetLib)), compileFinalize)

	register(Clean, "Remove _site and _data", Parallel(removeDir(project.SiteDir), removeDir(project.DataDir)))
	register(Dist, "Build the UMD bundles into dist/", dist)
	register(CompileWithES, "Compile to es/ (ES modules)", compileTarget(compile.TargetES))
	register(CompileWithLib, "Compile to lib/ (CommonJS) and generate locale shims", compileTarget(compile.TargetLib))
	register(CompileFinalize, "Run the compile.finalize hook", compileFinalize)
	register(Compile, "Compile both targets, then finalize", compileAll)
	register(PackageDiff, "Compare the local files with the published package", packageDiff)
	register(Guard, "Fail unless the git worktree is clean", guard)
	register(Pub, "Check, build, publish and tag a release", pub(compileAll))
	register(SortAPITable, "Sort the API tables of component documents", sortAPITable)
	register(APICollection, "Print the props shared across components", apiCollection)
	register(Tsc, "Compile TypeScript sources to sibling .js files", tsc)
	register(WatchTsc, "Run tsc, then recompile on change", Series(tsc, watchTsc))
	register(Install, "Install dependencies with tnpm when available, else npm", install)
}

// Lookup returns the task registered under name.
func Lookup(name string) (Task, error) {
	t, ok := tasks[name]
	if !ok {
		return Task{}, derrors.ValidationError(fmt.Sprintf("unknown task %q", name)).
			WithContext("known", Names()).
			Build()
	}
	return t, nil
}

// Names lists every task name, sorted.
func Names() []string {
	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func removeDir(name string) Func {
	return func(_ context.Context, s *Session) error {
		dir := filepath.Join(s.Root, name)
		if err := os.RemoveAll(dir); err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "remove directory").WithContext("dir", dir).Build()
		}
		slog.Debug("Removed", logfields.Path(dir))
		return nil
	}
}

func install(ctx context.Context, s *Session) error {
	client := command.InstallClient(s.LookPath)
	s.Out.Linef("%s installing", client)
	_, err := s.Runner.Run(ctx, command.Command{
		Name: client,
		Args: []string{"install"},
		Dir:  s.Root,
		Env:  command.Environ(s.Env, s.Root),
	})
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryBuild, "install dependencies").WithContext("client", client).Build()
	}
	s.Out.Linef("%s install end", client)
	return nil
}

func compileTarget(name compile.TargetName) Func {
	return func(ctx context.Context, s *Session) error {
		p, err := s.Pipeline()
		if err != nil {
			return err
		}
		res, err := p.Run(ctx, name)
		if res != nil {
			for _, t := range res.Targets {
				if t == nil {
					continue
				}
				slog.Info("Compiled target",
					logfields.Target(string(t.Target)),
					logfields.Count(t.Files),
					slog.Int("errors", len(t.Errors)),
					logfields.DurationMS(float64(t.Duration.Milliseconds())))
			}
		}
		return err
	}
}

func compileFinalize(ctx context.Context, s *Session) error {
	p, err := s.Pipeline()
	if err != nil {
		return err
	}
	return p.Finalize(ctx)
}

func dist(ctx context.Context, s *Session) error {
	p, err := s.Pipeline()
	if err != nil {
		return err
	}
	b := &bundle.Bundler{
		Project: p.Project,
		Config:  s.Config,
		Env:     s.Env,
		Runner:  s.Runner,
		Styles:  p.Styles,
	}
	_, err = b.Run(ctx)
	return err
}

func packageDiff(ctx context.Context, s *Session) error {
	p, err := s.Project()
	if err != nil {
		return err
	}
	pkg := manifest.Package{Name: p.Package.Name, Version: p.Package.Version, Files: p.Package.Files}
	_, err = s.Checker().Check(ctx, pkg, s.Options.Version)
	return err
}

func guard(_ context.Context, s *Session) error {
	repo, err := s.Repo()
	if err != nil {
		return err
	}
	if err := repo.EnsureClean(); err != nil {
		return err
	}
	s.Out.Line(output.FormatCheckmark("git worktree is clean"))
	return nil
}

func pub(compileAll Func) Func {
	return func(ctx context.Context, s *Session) error {
		p, err := s.Project()
		if err != nil {
			return err
		}
		repo, err := s.Repo()
		if err != nil {
			return err
		}
		publisher := &publish.Publisher{
			Project:  p,
			Config:   s.Config,
			Env:      s.Env,
			Runner:   s.Runner,
			Repo:     repo,
			Compile:  func(ctx context.Context) error { return compileAll(ctx, s) },
			Dist:     func(ctx context.Context) error { return dist(ctx, s) },
			Diff:     s.Checker(),
			Recorder: s.recorder(),
		}
		if s.Notifier != nil {
			publisher.Notifier = s.Notifier
		} else if s.Config.Notify.NATSURL != "" {
			client, err := notify.NewNATSClient(s.Config.Notify)
			if err != nil {
				slog.Warn("Release notifications disabled", logfields.URL(s.Config.Notify.NATSURL), logfields.Error(err))
			} else {
				defer func() { _ = client.Close() }()
				publisher.Notifier = client
			}
		}

		rep, err := publisher.Run(ctx, publish.Options{
			NpmTag:      s.Options.NpmTag,
			SkipTag:     s.Options.SkipTag,
			DiffVersion: s.Options.Version,
		})
		if err != nil {
			s.Out.Line(output.FormatFailure(rep.Summary()))
			return err
		}
		s.Out.Line(output.FormatCheckmark(rep.Summary()))
		return nil
	}
}

func sortAPITable(_ context.Context, s *Session) error {
	sorter := &apidoc.Sorter{
		Root:       s.Root,
		Pattern:    s.Options.File,
		ReportOnly: s.Options.Report,
		Output:     s.Options.Output,
		Out:        s.Out,
	}
	_, err := sorter.Run()
	return err
}

func apiCollection(_ context.Context, s *Session) error {
	props, err := apidoc.CollectProps(os.DirFS(s.Root))
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "collect component props").Build()
	}
	apidoc.PrintCollection(s.Out, apidoc.SharedProps(props))
	return nil
}

func tsCompiler(s *Session) (*watch.Compiler, error) {
	opts, err := (&project.Project{Root: s.Root}).CompilerOptions()
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "load tsconfig.json").Build()
	}
	return &watch.Compiler{Root: s.Root, TsconfigRaw: compile.EsbuildTsconfig(opts)}, nil
}

func tsc(_ context.Context, s *Session) error {
	c, err := tsCompiler(s)
	if err != nil {
		return err
	}
	n, err := c.CompileAll()
	slog.Info("TypeScript compiled", logfields.Count(n))
	return err
}

func watchTsc(ctx context.Context, s *Session) error {
	c, err := tsCompiler(s)
	if err != nil {
		return err
	}
	w := &watch.Watcher{
		Compiler: c,
		Debounce: 100 * time.Millisecond,
		OnChange: func(compiled, removed []string) {
			for _, f := range compiled {
				s.Out.Line(output.FormatFileLine(output.MarkerAdded, f))
			}
			for _, f := range removed {
				s.Out.Line(output.FormatFileLine(output.MarkerMissing, f))
			}
		},
	}
	return w.Run(ctx)
}
