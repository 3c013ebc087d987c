// Package source defines the files that flow through the compile pipeline.
package source

import (
	"path"
	"strings"
)

// Kind discriminates how the pipeline treats a file.
type Kind int

const (
	KindScript Kind = iota
	KindStylesheet
	KindTypeDefinition
	KindAsset
)

func (k Kind) String() string {
	switch k {
	case KindStylesheet:
		return "stylesheet"
	case KindTypeDefinition:
		return "type-definition"
	case KindAsset:
		return "asset"
	default:
		return "script"
	}
}

// File is one file discovered under the component tree. Rel is the slash
// separated path relative to the source base (e.g. "button/style/index.tsx")
// and is what decides the output location.
type File struct {
	Path     string
	Rel      string
	Contents []byte
	Kind     Kind
}

// Classify derives the Kind of a path from its name.
func Classify(name string) Kind {
	switch {
	case strings.HasSuffix(name, ".d.ts"):
		return KindTypeDefinition
	case strings.HasSuffix(name, ".less"), strings.HasSuffix(name, ".css"):
		return KindStylesheet
	case strings.HasSuffix(name, ".ts"), strings.HasSuffix(name, ".tsx"),
		strings.HasSuffix(name, ".js"), strings.HasSuffix(name, ".jsx"):
		return KindScript
	default:
		return KindAsset
	}
}

// New builds a File and classifies it.
func New(absPath, rel string, contents []byte) File {
	return File{Path: absPath, Rel: rel, Contents: contents, Kind: Classify(rel)}
}

// WithRel returns a copy of f at a new relative path and content.
func (f File) WithRel(rel string, contents []byte) File {
	return File{Path: f.Path, Rel: rel, Contents: contents, Kind: Classify(rel)}
}

// ReplaceExt swaps the extension of a slash path.
func ReplaceExt(rel, ext string) string {
	for _, long := range []string{".d.ts"} {
		if strings.HasSuffix(rel, long) {
			return strings.TrimSuffix(rel, long) + ext
		}
	}
	return strings.TrimSuffix(rel, path.Ext(rel)) + ext
}

// Set partitions files by Kind.
type Set struct {
	Scripts      []File
	Stylesheets  []File
	Declarations []File
	Assets       []File
}

// Add places f in the bucket for its Kind.
func (s *Set) Add(f File) {
	switch f.Kind {
	case KindStylesheet:
		s.Stylesheets = append(s.Stylesheets, f)
	case KindTypeDefinition:
		s.Declarations = append(s.Declarations, f)
	case KindAsset:
		s.Assets = append(s.Assets, f)
	default:
		s.Scripts = append(s.Scripts, f)
	}
}

// Len is the total number of files in the set.
func (s *Set) Len() int {
	return len(s.Scripts) + len(s.Stylesheets) + len(s.Declarations) + len(s.Assets)
}
