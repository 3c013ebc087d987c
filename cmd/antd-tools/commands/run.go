package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ant-design/antd-tools/internal/config"
	derrors "github.com/ant-design/antd-tools/internal/errors"
	"github.com/ant-design/antd-tools/internal/logfields"
	"github.com/ant-design/antd-tools/internal/metrics"
	"github.com/ant-design/antd-tools/internal/task"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Task string `arg:"" help:"Task name: ${tasks}."`

	IgnoreError bool   `name:"ignore-error" help:"Keep compiling and succeed when files fail"`
	NpmTag      string `name:"npm-tag" help:"npm dist-tag to publish under"`
	SkipTag     bool   `name:"skip-tag" help:"Do not create and push the git tag"`
	Path        string `help:"Directory holding the files compared against the published package"`
	PkgVersion  string `name:"version" help:"Published version or range to compare against"`
	Report      bool   `help:"sort-api-table: only write the API list"`
	Output      string `short:"o" help:"sort-api-table: API list path"`
	File        string `help:"sort-api-table: glob of the documents to sort"`
}

func (r *RunCmd) Run(_ *Global, root *CLI) error {
	dir, err := filepath.Abs(root.Dir)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryValidation, "resolve project root").Build()
	}
	env := config.LoadEnv(dir)
	cfg, err := config.Load(dir, env)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryConfig, "load config").Fatal().Build()
	}
	if cfg.Path != "" {
		slog.Debug("Loaded config", logfields.Path(cfg.Path))
	}

	s := task.NewSession(dir, r.options(), env, cfg)
	var recorder *metrics.PrometheusRecorder
	if cfg.Metrics.Textfile != "" {
		recorder = metrics.NewPrometheusRecorder(prometheus.NewRegistry())
		s.Recorder = recorder
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = task.Run(ctx, r.Task, s)

	if recorder != nil {
		path := cfg.Metrics.Textfile
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if werr := recorder.WriteTextfile(path); werr != nil {
			slog.Warn("Failed to write metrics", logfields.Path(path), logfields.Error(werr))
		}
	}
	return err
}

func (r *RunCmd) options() task.Options {
	return task.Options{
		IgnoreError: r.IgnoreError,
		NpmTag:      r.NpmTag,
		SkipTag:     r.SkipTag,
		Path:        r.Path,
		Version:     r.PkgVersion,
		Report:      r.Report,
		Output:      r.Output,
		File:        r.File,
	}
}
