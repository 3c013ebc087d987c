package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ant-design/antd-tools/internal/command"
	"github.com/ant-design/antd-tools/internal/config"
	derrors "github.com/ant-design/antd-tools/internal/errors"
	"github.com/ant-design/antd-tools/internal/git"
	"github.com/ant-design/antd-tools/internal/logfields"
	"github.com/ant-design/antd-tools/internal/manifest"
	"github.com/ant-design/antd-tools/internal/metrics"
	"github.com/ant-design/antd-tools/internal/notify"
	"github.com/ant-design/antd-tools/internal/project"
)

// Repo is the git working copy being released.
type Repo interface {
	EnsureClean() error
	Head() (branch, hash string, err error)
	CreateTag(name string) error
	Push(ctx context.Context, opts git.PushOptions) error
}

// DiffChecker compares the package with the last published version.
type DiffChecker interface {
	Check(ctx context.Context, pkg manifest.Package, override string) (*manifest.Report, error)
}

// Notifier announces a finished release.
type Notifier interface {
	Released(ctx context.Context, ev notify.ReleaseEvent) error
}

// Options are the pub task flags.
type Options struct {
	NpmTag  string
	SkipTag bool
	// DiffVersion overrides the registry version range compared against.
	DiffVersion string
}

// Publisher wires the release stages to their collaborators.
type Publisher struct {
	Project *project.Project
	Config  *config.Config
	Env     config.Env
	Runner  command.Runner
	Repo    Repo

	// Compile builds lib/ and es/ and runs compile.finalize.
	Compile func(ctx context.Context) error
	// Dist builds the UMD bundle.
	Dist func(ctx context.Context) error

	Diff     DiffChecker
	Notifier Notifier
	Recorder metrics.Recorder
}

// State is shared across the stages of one release.
type State struct {
	Options Options
	Report  *Report
	Diff    *manifest.Report
	Commit  string
}

// Stages returns the ordered stage list for opts.
func (p *Publisher) Stages(opts Options) []StageDef {
	defs := []StageDef{
		{StageGuard, p.stageGuard},
		{StageCompile, p.stageCompile},
		{StageDist, p.stageDist},
		{StagePackageDiff, p.stagePackageDiff},
		{StageNpmPublish, p.stageNpmPublish},
	}
	if !opts.SkipTag {
		defs = append(defs, StageDef{StageTag, p.stageTag})
	}
	if p.Notifier != nil {
		defs = append(defs, StageDef{StageNotify, p.stageNotify})
	}
	return defs
}

// Run executes the release. The report is returned even on failure and has
// been logged.
func (p *Publisher) Run(ctx context.Context, opts Options) (*Report, error) {
	rs := &State{Options: opts, Report: newReport(uuid.NewString())}
	rs.Report.Package = p.Project.Package.Name
	rs.Report.Version = p.Project.Package.Version
	rs.Report.DistTag = ResolveDistTag(opts.NpmTag, p.Config.Tag, p.Project.Package.Version)

	slog.Info("Release started",
		slog.String("run_id", rs.Report.RunID),
		logfields.Package(rs.Report.Package),
		logfields.Version(rs.Report.Version),
		logfields.Tag(rs.Report.DistTag))

	err := runStages(ctx, rs, p.Stages(opts), p.recorder())
	rs.Report.finish()
	rs.Report.Log()
	return rs.Report, err
}

func (p *Publisher) recorder() metrics.Recorder {
	if p.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return p.Recorder
}

func (p *Publisher) stageGuard(_ context.Context, rs *State) error {
	if err := p.Repo.EnsureClean(); err != nil {
		return newFatalStageError(StageGuard, err)
	}
	if _, hash, err := p.Repo.Head(); err == nil {
		rs.Commit = hash
	}
	return nil
}

func (p *Publisher) stageCompile(ctx context.Context, _ *State) error {
	return p.Compile(ctx)
}

func (p *Publisher) stageDist(ctx context.Context, _ *State) error {
	return p.Dist(ctx)
}

func (p *Publisher) stagePackageDiff(ctx context.Context, rs *State) error {
	pkg := manifest.Package{
		Name:    p.Project.Package.Name,
		Version: p.Project.Package.Version,
		Files:   p.Project.Package.Files,
	}
	rep, err := p.Diff.Check(ctx, pkg, rs.Options.DiffVersion)
	rs.Diff = rep
	if err != nil {
		return newFatalStageError(StagePackageDiff, err)
	}
	if rep != nil && len(rep.Diff.Added) > 0 && !rep.Diff.Blocking() {
		return newWarnStageError(StagePackageDiff, fmt.Errorf("%d file(s) added since %s@%s", len(rep.Diff.Added), rep.Name, rep.Version))
	}
	return nil
}

func (p *Publisher) stageNpmPublish(ctx context.Context, rs *State) error {
	client := command.PublishClient(p.Env)
	args := NpmPublishArgs(rs.Report.DistTag)
	slog.Info("Publishing", logfields.Command(client+" "+strings.Join(args, " ")), logfields.Tag(rs.Report.DistTag))
	out, err := p.Runner.Run(ctx, command.Command{
		Name: client,
		Args: args,
		Dir:  p.Project.Root,
		Env:  command.Environ(p.Env, p.Project.Root),
	})
	if err != nil {
		return newFatalStageError(StageNpmPublish, derrors.PublishError(client+" publish failed").
			WithCause(err).
			WithContext("output", out.Output()).
			Build())
	}
	return nil
}

func (p *Publisher) stageTag(ctx context.Context, rs *State) error {
	tag := p.Project.Package.Version
	if err := p.Repo.CreateTag(tag); err != nil {
		return newFatalStageError(StageTag, err)
	}
	err := p.Repo.Push(ctx, git.PushOptions{
		Remote: p.Config.Publish.Remote,
		Tag:    tag,
		Branch: p.Config.Publish.Branch,
		Auth:   p.Config.Publish.Auth,
	})
	if err != nil {
		return newFatalStageError(StageTag, err)
	}
	return nil
}

func (p *Publisher) stageNotify(ctx context.Context, rs *State) error {
	ev := notify.ReleaseEvent{
		RunID:   rs.Report.RunID,
		Package: rs.Report.Package,
		Version: rs.Report.Version,
		DistTag: rs.Report.DistTag,
		Commit:  rs.Commit,
	}
	if !rs.Options.SkipTag {
		ev.GitTag = rs.Report.Version
	}
	if err := p.Notifier.Released(ctx, ev); err != nil {
		return newWarnStageError(StageNotify, err)
	}
	return nil
}
