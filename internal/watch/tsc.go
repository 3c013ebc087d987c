package watch

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/hashicorp/go-multierror"

	derrors "github.com/ant-design/antd-tools/internal/errors"
	"github.com/ant-design/antd-tools/internal/logfields"
)

// IsSource reports whether name is a TypeScript source that compiles to JS.
// Declaration files are not.
func IsSource(name string) bool {
	if strings.HasSuffix(name, ".d.ts") {
		return false
	}
	switch filepath.Ext(name) {
	case ".ts", ".tsx":
		return true
	}
	return false
}

// Sibling is the JS path written for src.
func Sibling(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + ".js"
}

func skipDir(name string) bool {
	return name == "node_modules" || (len(name) > 1 && name[0] == '.')
}

// Compiler compiles TypeScript files in place.
type Compiler struct {
	Root string
	// TsconfigRaw is the {"compilerOptions": ...} JSON handed to esbuild.
	TsconfigRaw string
}

// CompileFile writes the sibling .js of the source at path.
func (c *Compiler) CompileFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "read source").WithContext("file", path).Build()
	}
	loader := api.LoaderTS
	if filepath.Ext(path) == ".tsx" {
		loader = api.LoaderTSX
	}
	rel, relErr := filepath.Rel(c.Root, path)
	if relErr != nil {
		rel = path
	}
	result := api.Transform(string(data), api.TransformOptions{
		Loader:      loader,
		Format:      api.FormatCommonJS,
		Target:      api.ES2017,
		JSX:         api.JSXAutomatic,
		TsconfigRaw: c.TsconfigRaw,
		Sourcefile:  filepath.ToSlash(rel),
		LogLevel:    api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		m := result.Errors[0]
		msg := m.Text
		if m.Location != nil {
			msg = fmt.Sprintf("%d:%d: %s", m.Location.Line, m.Location.Column, m.Text)
		}
		return derrors.CompileError(msg).WithContext("file", filepath.ToSlash(rel)).Build()
	}
	if err := os.WriteFile(Sibling(path), result.Code, 0o644); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "write output").WithContext("file", Sibling(path)).Build()
	}
	slog.Debug("Compiled", logfields.File(filepath.ToSlash(rel)))
	return nil
}

// CompileAll compiles every source under Root outside node_modules. All
// files are attempted; failures are returned together.
func (c *Compiler) CompileAll() (int, error) {
	var (
		n    int
		merr *multierror.Error
	)
	err := filepath.WalkDir(c.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != c.Root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsSource(d.Name()) {
			return nil
		}
		if err := c.CompileFile(p); err != nil {
			merr = multierror.Append(merr, err)
			return nil
		}
		n++
		return nil
	})
	if err != nil {
		return n, derrors.WrapError(err, derrors.CategoryFileSystem, "walk sources").Build()
	}
	return n, merr.ErrorOrNil()
}
