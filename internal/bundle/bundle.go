package bundle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/ant-design/antd-tools/internal/command"
	"github.com/ant-design/antd-tools/internal/config"
	derrors "github.com/ant-design/antd-tools/internal/errors"
	"github.com/ant-design/antd-tools/internal/logfields"
	"github.com/ant-design/antd-tools/internal/project"
)

var entryExtensions = []string{".tsx", ".ts", ".jsx", ".js"}

// Bundler builds dist/.
type Bundler struct {
	Project *project.Project
	Config  *config.Config
	Env     config.Env
	Runner  command.Runner
	Styles  StyleTransformer
}

// Flavor is one bundle variant.
type Flavor struct {
	Name    string
	Minify  bool
	NodeEnv string
}

// Flavors returns the development and production bundles for a global name.
func Flavors(globalName string) []Flavor {
	return []Flavor{
		{Name: globalName, NodeEnv: "development"},
		{Name: globalName + ".min", Minify: true, NodeEnv: "production"},
	}
}

// Result collects the outcome of every flavor.
type Result struct {
	Outputs  []OutputSize
	Errors   []string
	Warnings []string
	Analysis *Analysis
}

// Entry resolves the bundle entry point. With LIB_DIR set the compiled
// output (lib/ or es/) is bundled instead of the sources.
func (b *Bundler) Entry() (string, error) {
	base := b.Project.Path(project.ComponentsDir, b.Config.Dist.Entry)
	exts := entryExtensions
	if b.Env.LibDir != "" {
		base = b.Project.Path(b.Env.LibDir, b.Config.Dist.Entry)
		exts = []string{".js"}
	}
	for _, ext := range exts {
		if info, err := os.Stat(base + ext); err == nil && !info.IsDir() {
			return base + ext, nil
		}
	}
	return "", fmt.Errorf("no bundle entry %s{%v}", base, exts)
}

// Run clears dist/ and builds every flavor. Bundle errors are fatal only
// when bail is configured; otherwise they are reported and dist.finalize
// still runs.
func (b *Bundler) Run(ctx context.Context) (*Result, error) {
	distDir := b.Project.Path(project.DistDir)
	if err := os.RemoveAll(distDir); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "clear dist").Build()
	}
	entry, err := b.Entry()
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryBuild, "resolve dist entry").Fatal().Build()
	}

	res := &Result{}
	for _, flavor := range Flavors(b.Config.Dist.GlobalName) {
		if err := ctx.Err(); err != nil {
			return res, derrors.WrapError(err, derrors.CategoryAborted, "dist canceled").Build()
		}
		b.build(ctx, entry, distDir, flavor, res)
	}

	for _, w := range res.Warnings {
		slog.Warn("Bundle warning", slog.String("warning", w))
	}
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			slog.Error("Bundle error", slog.String("error", e))
		}
		if b.Config.Bail {
			return res, derrors.BuildError(fmt.Sprintf("dist failed with %d error(s)", len(res.Errors))).
				WithContext("errors", res.Errors).
				Build()
		}
	}
	for _, o := range res.Outputs {
		slog.Info("Bundle output", logfields.File(o.Path), slog.Int("bytes", o.Bytes))
	}
	if res.Analysis != nil {
		for _, in := range res.Analysis.Largest {
			slog.Debug("Bundle input", logfields.File(in.Path), slog.Int("bytes", in.BytesInOutput), slog.Float64("percent", in.Percentage))
		}
	}

	if hook := b.Config.Dist.Finalize; hook.IsSet() {
		slog.Info("Dist finalization", logfields.Command(hook[0]))
		out, err := command.RunHook(ctx, b.Runner, hook, b.Project.Root, command.Environ(b.productionEnv(), b.Project.Root), nil)
		if s := out.Output(); s != "" {
			slog.Info("Finalize output", slog.String("output", s))
		}
		if err != nil {
			return res, derrors.WrapError(err, derrors.CategoryBuild, "dist.finalize hook failed").Build()
		}
	}
	return res, nil
}

func (b *Bundler) productionEnv() config.Env {
	if b.Env.Production() {
		return b.Env
	}
	return b.Env.With("RUN_ENV", config.RunEnvProduction)
}

func (b *Bundler) build(ctx context.Context, entry, distDir string, flavor Flavor, res *Result) {
	result := api.Build(api.BuildOptions{
		EntryPoints:       []string{entry},
		Outfile:           filepath.Join(distDir, flavor.Name+".js"),
		AbsWorkingDir:     b.Project.Root,
		Bundle:            true,
		Write:             true,
		Metafile:          true,
		Format:            api.FormatIIFE,
		GlobalName:        b.Config.Dist.GlobalName,
		Platform:          api.PlatformBrowser,
		Target:            api.ES2017,
		JSX:               api.JSXAutomatic,
		Sourcemap:         api.SourceMapLinked,
		MinifySyntax:      flavor.Minify,
		MinifyWhitespace:  flavor.Minify,
		MinifyIdentifiers: flavor.Minify,
		NodePaths:         b.Project.ModulePaths,
		LogLevel:          api.LogLevelSilent,
		Loader: map[string]api.Loader{
			".svg": api.LoaderDataURL,
			".png": api.LoaderDataURL,
		},
		Define: map[string]string{
			"process.env.RUN_ENV":  fmt.Sprintf("%q", config.RunEnvProduction),
			"process.env.NODE_ENV": fmt.Sprintf("%q", flavor.NodeEnv),
		},
		Plugins: []api.Plugin{
			externalsPlugin(b.Config.Dist.External, b.Config.Dist.Globals),
			lessPlugin(ctx, b.Styles, b.Project.Root),
		},
	})
	for _, m := range result.Errors {
		res.Errors = append(res.Errors, formatMessage(flavor.Name, m))
	}
	for _, m := range result.Warnings {
		res.Warnings = append(res.Warnings, formatMessage(flavor.Name, m))
	}
	if len(result.Errors) > 0 || result.Metafile == "" {
		return
	}
	a, err := Analyze(result.Metafile, 10)
	if err != nil {
		res.Warnings = append(res.Warnings, err.Error())
		return
	}
	res.Outputs = append(res.Outputs, a.Outputs...)
	if !flavor.Minify || res.Analysis == nil {
		res.Analysis = a
	}
}

func formatMessage(flavor string, m api.Message) string {
	if m.Location != nil {
		return fmt.Sprintf("[%s] %s:%d:%d: %s", flavor, m.Location.File, m.Location.Line, m.Location.Column, m.Text)
	}
	return fmt.Sprintf("[%s] %s", flavor, m.Text)
}
