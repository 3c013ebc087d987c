package task

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ant-design/antd-tools/internal/command"
	"github.com/ant-design/antd-tools/internal/config"
	derrors "github.com/ant-design/antd-tools/internal/errors"
	"github.com/ant-design/antd-tools/internal/git"
	"github.com/ant-design/antd-tools/internal/metrics"
	"github.com/ant-design/antd-tools/internal/output"
	"github.com/ant-design/antd-tools/internal/publish"
	"github.com/ant-design/antd-tools/internal/registry"
)

type fakeRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes map[string]string
}

func (f *fakeRecorder) IncTaskOutcome(task, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.outcomes == nil {
		f.outcomes = map[string]string{}
	}
	f.outcomes[task] = outcome
}

type fakeRepo struct {
	dirty error
}

func (f *fakeRepo) EnsureClean() error { return f.dirty }
func (f *fakeRepo) Head() (string, string, error) { return "master", "abc123", nil }
func (f *fakeRepo) CreateTag(string) error { return nil }
func (f *fakeRepo) Push(context.Context, git.PushOptions) error { return nil }

type fakeRegistry struct {
	files []string
}

func (f *fakeRegistry) Manifest(_ context.Context, name, _ string) (*registry.Manifest, error) {
	return &registry.Manifest{Name: name, Version: "5.0.0", Files: f.files}, nil
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func newTestSession(t *testing.T, root string) (*Session, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	s := NewSession(root, Options{}, config.NewEnv(nil), config.Default())
	s.Out = output.NewPrinter(&out)
	s.In = strings.NewReader("")
	return s, &out
}

func TestSeriesStopsAtFirstFailure(t *testing.T) {
	var ran []string
	step := func(name string, err error) Func {
		return func(context.Context, *Session) error {
			ran = append(ran, name)
			return err
		}
	}
	boom := errors.New("boom")

	err := Series(step("a", nil), step("b", boom), step("c", nil))(context.Background(), &Session{})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, ran)
}

func TestSeriesHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false

	err := Series(func(context.Context, *Session) error { called = true; return nil })(ctx, &Session{})

	require.Error(t, err)
	assert.False(t, called)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryAborted))
}

func TestParallelWaitsForAllAndJoinsErrors(t *testing.T) {
	var mu sync.Mutex
	var finished int
	fn := func(err error) Func {
		return func(context.Context, *Session) error {
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			finished++
			mu.Unlock()
			return err
		}
	}
	errES := errors.New("es failed")
	errLib := errors.New("lib failed")

	err := Parallel(fn(errES), fn(nil), fn(errLib))(context.Background(), &Session{})

	require.Error(t, err)
	assert.Equal(t, 3, finished)
	assert.ErrorIs(t, err, errES)
	assert.ErrorIs(t, err, errLib)

	single := Parallel(fn(nil), fn(errES))(context.Background(), &Session{})
	assert.Equal(t, errES, single)
}

func TestLookupUnknownTask(t *testing.T) {
	_, err := Lookup("deploy")
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryValidation))

	for _, name := range []string{Clean, Dist, Compile, CompileWithES, CompileWithLib, CompileFinalize,
		PackageDiff, Pub, Guard, SortAPITable, APICollection, Tsc, WatchTsc, Install} {
		_, err := Lookup(name)
		assert.NoError(t, err, name)
	}
	assert.Len(t, Names(), 14)
}

func TestCleanRemovesSiteAndData(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "_site/index.html", "x")
	writeFile(t, root, "_data/api.json", "{}")
	writeFile(t, root, "lib/index.js", "x")
	s, _ := newTestSession(t, root)
	rec := &fakeRecorder{}
	s.Recorder = rec

	require.NoError(t, Run(context.Background(), Clean, s))

	assert.NoDirExists(t, filepath.Join(root, "_site"))
	assert.NoDirExists(t, filepath.Join(root, "_data"))
	assert.FileExists(t, filepath.Join(root, "lib/index.js"))
	assert.Equal(t, OutcomeSuccess, rec.outcomes[Clean])
}

func TestInstallPrefersTnpm(t *testing.T) {
	root := t.TempDir()
	s, out := newTestSession(t, root)
	runner := &command.FakeRunner{}
	s.Runner = runner
	s.LookPath = func(file string) (string, error) { return "/usr/local/bin/" + file, nil }

	require.NoError(t, Run(context.Background(), Install, s))

	calls := runner.CallsTo("tnpm")
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"install"}, calls[0].Args)
	assert.Equal(t, root, calls[0].Dir)
	assert.Contains(t, out.String(), "tnpm install end")
}

func TestInstallFailureIsBuildError(t *testing.T) {
	s, _ := newTestSession(t, t.TempDir())
	s.Runner = &command.FakeRunner{Handler: func(command.Command) (command.Result, error) {
		return command.Result{ExitCode: 1}, command.ErrFailed
	}}
	s.LookPath = func(string) (string, error) { return "", errors.New("not found") }

	err := Run(context.Background(), Install, s)

	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryBuild))
	assert.ErrorIs(t, err, command.ErrFailed)
}

func TestGuardReportsDirtyWorktree(t *testing.T) {
	s, out := newTestSession(t, t.TempDir())
	rec := &fakeRecorder{}
	s.Recorder = rec
	dirty := derrors.GitError("git worktree is not clean").Fatal().Build()
	s.OpenRepo = func(string) (publish.Repo, error) { return &fakeRepo{dirty: dirty}, nil }

	err := Run(context.Background(), Guard, s)

	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryGit))
	assert.Equal(t, OutcomeFailed, rec.outcomes[Guard])

	s.OpenRepo = func(string) (publish.Repo, error) { return &fakeRepo{}, nil }
	require.NoError(t, Run(context.Background(), Guard, s))
	assert.Contains(t, out.String(), "clean")
}

func TestPackageDiffWithoutDiscrepancies(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"name":"antd","version":"5.1.0","files":["lib"]}`)
	writeFile(t, root, "lib/index.js", "x")
	s, _ := newTestSession(t, root)
	s.Registry = &fakeRegistry{files: []string{"package.json", "lib/index.js"}}

	require.NoError(t, Run(context.Background(), PackageDiff, s))
}

func TestPackageDiffDeclinedPrompt(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"name":"antd","version":"5.1.0","files":["lib"]}`)
	writeFile(t, root, "lib/index.js", "x")
	s, out := newTestSession(t, root)
	s.Registry = &fakeRegistry{files: []string{"package.json", "lib/index.js", "lib/style.css"}}
	s.In = strings.NewReader("maybe\nNO\n")

	err := Run(context.Background(), PackageDiff, s)

	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryAborted))
	assert.Contains(t, out.String(), "lib/style.css")
}

func TestPackageDiffRequiresPackageJSON(t *testing.T) {
	s, _ := newTestSession(t, t.TempDir())
	s.Registry = &fakeRegistry{}

	err := Run(context.Background(), PackageDiff, s)

	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryConfig))
}

func TestAPICollectionPrintsSharedProps(t *testing.T) {
	root := t.TempDir()
	table := "| Property | Description |\n| --- | --- |\n"
	writeFile(t, root, "components/button/index.en-US.md", table+"| size | Size |\n| onClick | Click |\n")
	writeFile(t, root, "components/input/index.en-US.md", table+"| size | Size |\n")
	s, out := newTestSession(t, root)

	require.NoError(t, Run(context.Background(), APICollection, s))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, "| name | components | comments |", lines[0])
	assert.Equal(t, "| size | button, input | |", lines[2])
}

func TestTscCompilesSources(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "scripts/hello.ts", "export const greet = (name: string): string => `hi ${name}`;\n")
	writeFile(t, root, "scripts/types.d.ts", "export type X = string;\n")
	writeFile(t, root, "node_modules/dep/index.ts", "export const x: number = 1;\n")
	s, _ := newTestSession(t, root)

	require.NoError(t, Run(context.Background(), Tsc, s))

	data, err := os.ReadFile(filepath.Join(root, "scripts/hello.js"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "greet")
	assert.NotContains(t, string(data), ": string")
	assert.NoFileExists(t, filepath.Join(root, "scripts/types.d.js"))
	assert.NoFileExists(t, filepath.Join(root, "node_modules/dep/index.js"))
}
