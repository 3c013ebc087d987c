package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotResolved is returned when no resolver tier can satisfy a request.
var ErrNotResolved = errors.New("module not resolved")

// Resolver maps a bare module request ("pkg/sub/path") imported from fromDir
// to a file on disk.
type Resolver interface {
	Resolve(request, fromDir string) (string, error)
}

// NodeModulesResolver searches node_modules directories from fromDir upwards.
type NodeModulesResolver struct {
	Extensions []string
}

// Resolve implements Resolver.
func (r NodeModulesResolver) Resolve(request, fromDir string) (string, error) {
	dir := fromDir
	for {
		if found, ok := resolveIn(filepath.Join(dir, NodeModulesDir), request, r.Extensions); ok {
			return found, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: %s from %s", ErrNotResolved, request, fromDir)
		}
		dir = parent
	}
}

// DirResolver resolves requests inside a fixed list of module directories.
type DirResolver struct {
	Dirs       []string
	Extensions []string
}

// Resolve implements Resolver.
func (r DirResolver) Resolve(request, _ string) (string, error) {
	for _, dir := range r.Dirs {
		if found, ok := resolveIn(dir, request, r.Extensions); ok {
			return found, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrNotResolved, request, strings.Join(r.Dirs, string(os.PathListSeparator)))
}

// ChainResolver tries each resolver in order and returns the first hit.
type ChainResolver []Resolver

// Resolve implements Resolver.
func (c ChainResolver) Resolve(request, fromDir string) (string, error) {
	var errs []error
	for _, r := range c {
		found, err := r.Resolve(request, fromDir)
		if err == nil {
			return found, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotResolved, request)
	}
	return "", errors.Join(errs...)
}

// NewResolver builds the primary tier (nearest node_modules of the importing
// file) followed by the fallback tier (the project's own node_modules, then
// extra module directories such as NODE_PATH entries).
func NewResolver(root string, extra []string, extensions ...string) Resolver {
	fallback := []string{filepath.Join(root, NodeModulesDir)}
	for _, p := range extra {
		if p != "" {
			fallback = append(fallback, p)
		}
	}
	return ChainResolver{
		NodeModulesResolver{Extensions: extensions},
		DirResolver{Dirs: fallback, Extensions: extensions},
	}
}

// resolveIn tries base, base+ext and base/index+ext for every extension.
func resolveIn(dir, request string, extensions []string) (string, bool) {
	base := filepath.Join(dir, filepath.FromSlash(request))
	candidates := []string{base}
	for _, ext := range extensions {
		candidates = append(candidates, base+ext)
	}
	for _, ext := range extensions {
		candidates = append(candidates, filepath.Join(base, "index"+ext))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}
	return "", false
}
