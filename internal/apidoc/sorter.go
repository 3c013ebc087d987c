package apidoc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	derrors "github.com/ant-design/antd-tools/internal/errors"
	"github.com/ant-design/antd-tools/internal/logfields"
	"github.com/ant-design/antd-tools/internal/output"
)

// DefaultReportFile is where the collected component APIs are written.
const DefaultReportFile = "~component-api.json"

// Sorter runs sort-api-table over a project.
type Sorter struct {
	Root string
	// Pattern selects documents, relative to Root; DefaultDocPattern when empty.
	Pattern string
	// ReportOnly leaves the documents untouched.
	ReportOnly bool
	// Output is the API list path, relative to Root; DefaultReportFile when empty.
	Output string
	Out    *output.Printer
}

// SortResult summarizes a run.
type SortResult struct {
	Files      []string
	Changed    []string
	Report     Report
	ReportPath string
}

// Run sorts every matching document and writes the API list.
func (s *Sorter) Run() (*SortResult, error) {
	pattern := s.Pattern
	if pattern == "" {
		pattern = DefaultDocPattern
	}
	files, err := MatchFiles(os.DirFS(s.Root), pattern)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "find API documents").Build()
	}

	res := &SortResult{Files: files, Report: Report{}}
	for _, rel := range files {
		component, ok := ComponentName(rel)
		if !ok {
			continue
		}
		path := filepath.Join(s.Root, filepath.FromSlash(rel))
		data, err := os.ReadFile(path)
		if err != nil {
			return res, derrors.WrapError(err, derrors.CategoryFileSystem, "read API document").WithContext("file", rel).Build()
		}
		sorted, err := SortTables(data, component, res.Report)
		if err != nil {
			return res, derrors.WrapError(err, derrors.CategoryInternal, "sort API tables").WithContext("file", rel).Build()
		}
		if s.ReportOnly {
			s.Out.Line(output.StyleNoun.Render("report " + rel))
			continue
		}
		if string(sorted) == string(data) {
			continue
		}
		if err := os.WriteFile(path, sorted, 0o644); err != nil {
			return res, derrors.WrapError(err, derrors.CategoryFileSystem, "write API document").WithContext("file", rel).Build()
		}
		res.Changed = append(res.Changed, rel)
		slog.Debug("Sorted API tables", logfields.File(rel))
	}

	out := s.Output
	if out == "" {
		out = DefaultReportFile
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(s.Root, out)
	}
	data, err := json.MarshalIndent(res.Report, "", "  ")
	if err != nil {
		return res, fmt.Errorf("marshal API list: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return res, derrors.WrapError(err, derrors.CategoryFileSystem, "write API list").WithContext("file", out).Build()
	}
	res.ReportPath = out
	s.Out.Line(output.StyleNoun.Render("API list file: " + out))
	s.Out.Line(output.FormatCheckmark(fmt.Sprintf("sorted API tables in %d file(s)", len(res.Changed))))
	return res, nil
}
