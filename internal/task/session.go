package task

import (
	"io"
	"os"
	"sync"

	"github.com/ant-design/antd-tools/internal/command"
	"github.com/ant-design/antd-tools/internal/compile"
	"github.com/ant-design/antd-tools/internal/config"
	derrors "github.com/ant-design/antd-tools/internal/errors"
	"github.com/ant-design/antd-tools/internal/git"
	"github.com/ant-design/antd-tools/internal/manifest"
	"github.com/ant-design/antd-tools/internal/metrics"
	"github.com/ant-design/antd-tools/internal/output"
	"github.com/ant-design/antd-tools/internal/project"
	"github.com/ant-design/antd-tools/internal/publish"
	"github.com/ant-design/antd-tools/internal/registry"
)

// Options carries the run flags.
type Options struct {
	IgnoreError bool
	NpmTag      string
	SkipTag     bool
	// Path is the directory, relative to the root, holding the files compared
	// against the published package.
	Path string
	// Version overrides the published version range compared against.
	Version string
	// Report leaves API documents untouched and only writes the API list.
	Report bool
	// Output is the API list path for sort-api-table.
	Output string
	// File overrides the API document glob for sort-api-table.
	File string
}

// Session holds what the tasks of one invocation share. Collaborators left
// nil are built from Config on first use.
type Session struct {
	Root     string
	Options  Options
	Env      config.Env
	Config   *config.Config
	Runner   command.Runner
	Recorder metrics.Recorder
	In       io.Reader
	Out      *output.Printer

	Registry manifest.Registry
	OpenRepo func(dir string) (publish.Repo, error)
	Notifier publish.Notifier
	// LookPath finds executables for client detection; nil uses the PATH.
	LookPath func(file string) (string, error)

	projectOnce sync.Once
	project     *project.Project
	projectErr  error

	pipelineOnce sync.Once
	pipeline     *compile.Pipeline
	pipelineErr  error
}

// NewSession returns a session over root with production collaborators.
func NewSession(root string, opts Options, env config.Env, cfg *config.Config) *Session {
	return &Session{
		Root:     root,
		Options:  opts,
		Env:      env,
		Config:   cfg,
		Runner:   command.ExecRunner{},
		Recorder: metrics.NoopRecorder{},
		In:       os.Stdin,
		Out:      output.NewPrinter(os.Stdout),
	}
}

// Project loads package.json once.
func (s *Session) Project() (*project.Project, error) {
	s.projectOnce.Do(func() {
		s.project, s.projectErr = project.Load(s.Root)
		if s.projectErr != nil {
			s.projectErr = derrors.WrapError(s.projectErr, derrors.CategoryConfig, "load project").
				WithContext("root", s.Root).
				Fatal().
				Build()
		}
	})
	return s.project, s.projectErr
}

// Pipeline builds the compile pipeline once; both targets share it.
func (s *Session) Pipeline() (*compile.Pipeline, error) {
	s.pipelineOnce.Do(func() {
		p, err := s.Project()
		if err != nil {
			s.pipelineErr = err
			return
		}
		s.pipeline, s.pipelineErr = compile.New(p, s.Config, s.Env, s.Runner)
		if s.pipelineErr != nil {
			return
		}
		s.pipeline.Recorder = s.recorder()
		s.pipeline.IgnoreError = s.Options.IgnoreError
	})
	return s.pipeline, s.pipelineErr
}

// Repo opens the git checkout containing the root.
func (s *Session) Repo() (publish.Repo, error) {
	if s.OpenRepo != nil {
		return s.OpenRepo(s.Root)
	}
	r, err := git.Open(s.Root)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Checker builds the package diff checker.
func (s *Session) Checker() *manifest.Checker {
	reg := s.Registry
	if reg == nil {
		reg = registry.NewClient(s.Config.Registry)
	}
	return &manifest.Checker{
		Registry: reg,
		Mode:     s.Config.PackageDiff.Mode,
		Root:     s.Root,
		Prefix:   s.Options.Path,
		In:       s.In,
		Out:      s.Out,
	}
}

func (s *Session) recorder() metrics.Recorder {
	if s.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return s.Recorder
}
