package manifest

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ant-design/antd-tools/internal/config"
	derrors "github.com/ant-design/antd-tools/internal/errors"
	"github.com/ant-design/antd-tools/internal/logfields"
	"github.com/ant-design/antd-tools/internal/output"
	"github.com/ant-design/antd-tools/internal/registry"
)

// Registry fetches published file lists.
type Registry interface {
	Manifest(ctx context.Context, name, version string) (*registry.Manifest, error)
}

// Package identifies the package being released.
type Package struct {
	Name    string
	Version string
	// Files is the package.json "files" whitelist.
	Files []string
}

// Report is the outcome of one comparison.
type Report struct {
	Name  string
	Range string
	// Version is the resolved published version; empty when the registry failed.
	Version     string
	Diff        Diff
	RegistryErr error
}

// NeedsConfirmation reports whether the release must be confirmed.
func (r *Report) NeedsConfirmation() bool {
	return r.RegistryErr != nil || r.Diff.Blocking()
}

// Checker compares the local package with the last published one.
type Checker struct {
	Registry Registry
	Mode     config.DiffMode
	Root     string
	// Prefix is the --path directory, relative to Root, where local files are looked up.
	Prefix string
	In     io.Reader
	Out    *output.Printer
}

func (c *Checker) dir() string {
	if c.Prefix == "" {
		return c.Root
	}
	return filepath.Join(c.Root, c.Prefix)
}

// Compare resolves both file lists concurrently and diffs them. A registry
// failure is recorded on the report, not returned.
func (c *Checker) Compare(ctx context.Context, pkg Package, override string) (*Report, error) {
	rep := &Report{Name: pkg.Name, Range: VersionRange(pkg.Version, override)}
	dir := c.dir()

	var (
		remote *registry.Manifest
		local  []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := c.Registry.Manifest(gctx, pkg.Name, rep.Range)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return err
			}
			rep.RegistryErr = err
			return nil
		}
		remote = m
		return nil
	})
	if c.Mode != config.DiffModeMissing {
		g.Go(func() error {
			files, err := LocalFiles(os.DirFS(dir), pkg.Files)
			if err != nil {
				return derrors.WrapError(err, derrors.CategoryFileSystem, "list local package files").
					WithContext("dir", dir).Build()
			}
			local = files
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if remote == nil {
		return rep, nil
	}

	rep.Version = remote.Version
	if c.Mode == config.DiffModeMissing {
		rep.Diff = Diff{Mode: c.Mode, Missing: ExistsIn(dir, remote.Files, fileExists)}
		return rep, nil
	}
	rep.Diff = Compare(c.Mode, local, remote.Files)
	return rep, nil
}

// Check compares and, when needed, prints the discrepancies and waits for
// the user to type YES or NO.
func (c *Checker) Check(ctx context.Context, pkg Package, override string) (*Report, error) {
	rep, err := c.Compare(ctx, pkg, override)
	if err != nil {
		return nil, err
	}
	c.print(rep)
	if !rep.NeedsConfirmation() {
		return rep, nil
	}
	if err := Confirm(c.In, c.Out); err != nil {
		return rep, err
	}
	return rep, nil
}

func (c *Checker) print(rep *Report) {
	if rep.RegistryErr != nil {
		slog.Warn("Package diff unavailable",
			logfields.Package(rep.Name),
			logfields.Version(rep.Range),
			logfields.Error(rep.RegistryErr))
		c.Out.Line(output.FormatFailure("Fetch " + rep.Name + "@" + rep.Range + " failed: " + rep.RegistryErr.Error()))
		return
	}
	slog.Info("Package diff",
		logfields.Package(rep.Name),
		logfields.Version(rep.Version),
		slog.Int("missing", len(rep.Diff.Missing)),
		slog.Int("added", len(rep.Diff.Added)))
	if rep.Diff.Empty() {
		c.Out.Line(output.FormatCheckmark("Package files match " + rep.Name + "@" + rep.Version))
		return
	}
	c.Out.Files(output.FormatFailure("Files missing compared with "+rep.Name+"@"+rep.Version+":"), output.MarkerMissing, rep.Diff.Missing)
	c.Out.Files(output.FormatWarning("Files added compared with "+rep.Name+"@"+rep.Version+":"), output.MarkerAdded, rep.Diff.Added)
}

// Prompt is written before every read of the answer.
const Prompt = "Please type 'YES' to confirm it is fine, or 'NO' to abort: "

// Confirm blocks until the user answers YES or NO; any other answer asks
// again. NO or end of input aborts.
func Confirm(in io.Reader, out *output.Printer) error {
	sc := bufio.NewScanner(in)
	for {
		_, _ = io.WriteString(out.Writer(), Prompt)
		if !sc.Scan() {
			return derrors.AbortedError("no confirmation received").Build()
		}
		switch strings.TrimSpace(sc.Text()) {
		case "YES":
			return nil
		case "NO":
			return derrors.AbortedError("user cancelled the release").Build()
		}
	}
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
