// Package command runs the external tools the build drives (tsc, lessc, npm,
// hook scripts) behind a Runner interface so stages can be tested with a fake.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ant-design/antd-tools/internal/config"
	"github.com/ant-design/antd-tools/internal/logfields"
)

var (
	ErrNotFound = errors.New("command not found")
	ErrFailed   = errors.New("command failed")
)

// Command describes one external process invocation.
type Command struct {
	Name  string
	Args  []string
	Dir   string
	Env   []string
	Stdin []byte

	// Stdout and Stderr, when set, receive the streams as well as the Result.
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Output returns stderr, or stdout when stderr is empty.
func (r Result) Output() string {
	if s := strings.TrimSpace(string(r.Stderr)); s != "" {
		return s
	}
	return strings.TrimSpace(string(r.Stdout))
}

// Runner abstracts process execution.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner. A non-zero exit yields ErrFailed together with the
// captured Result.
func (ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	bin, err := lookPath(c.Name, c.Env)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrNotFound, c.Name, err)
	}
	cmd := exec.CommandContext(ctx, bin, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = c.Env
	}
	if c.Stdin != nil {
		cmd.Stdin = bytes.NewReader(c.Stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = teeTo(&stdout, c.Stdout)
	cmd.Stderr = teeTo(&stderr, c.Stderr)

	start := time.Now()
	slog.Debug("Running command", logfields.Command(c.String()), logfields.Path(c.Dir))
	err = cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	slog.Debug("Command finished",
		logfields.Command(c.Name),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			res.ExitCode = ee.ExitCode()
		} else {
			res.ExitCode = -1
		}
		if out := res.Output(); out != "" {
			return res, fmt.Errorf("%w: %s: %w: %s", ErrFailed, c.Name, err, out)
		}
		return res, fmt.Errorf("%w: %s: %w", ErrFailed, c.Name, err)
	}
	return res, nil
}

// lookPath resolves name against the PATH in env, falling back to the
// process PATH. exec.Command alone would only consult the latter.
func lookPath(name string, env []string) (string, error) {
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		return exec.LookPath(name)
	}
	for _, kv := range env {
		k, v, _ := strings.Cut(kv, "=")
		if !strings.EqualFold(k, "PATH") {
			continue
		}
		for _, dir := range filepath.SplitList(v) {
			if dir == "" {
				continue
			}
			if found, err := exec.LookPath(filepath.Join(dir, name)); err == nil {
				return found, nil
			}
		}
	}
	return exec.LookPath(name)
}

func teeTo(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

// Environ renders env for a child process run in root, with the project's
// node_modules/.bin prepended to PATH.
func Environ(env config.Env, root string) []string {
	bin := filepath.Join(root, "node_modules", ".bin")
	vars := env.Environ()
	pathKey := "PATH"
	for i, kv := range vars {
		k, v, _ := strings.Cut(kv, "=")
		if strings.EqualFold(k, "PATH") {
			pathKey = k
			vars[i] = k + "=" + bin + string(filepath.ListSeparator) + v
			return vars
		}
	}
	return append(vars, pathKey+"="+bin)
}

// PublishClient returns the package manager used for `publish`:
// PUBLISH_NPM_CLI when set, npm otherwise.
func PublishClient(env config.Env) string {
	if env.PublishNpmCLI != "" {
		return env.PublishNpmCLI
	}
	return "npm"
}

// InstallClient prefers tnpm when it is available on PATH.
func InstallClient(lookPath func(string) (string, error)) string {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if _, err := lookPath("tnpm"); err == nil {
		return "tnpm"
	}
	return "npm"
}

// RunHook executes a configured hook in dir. An unset hook is a no-op.
func RunHook(ctx context.Context, r Runner, hook config.Hook, dir string, env []string, stdin []byte) (Result, error) {
	if !hook.IsSet() {
		return Result{}, nil
	}
	return r.Run(ctx, Command{Name: hook[0], Args: hook[1:], Dir: dir, Env: env, Stdin: stdin})
}
