// Package project describes the component library being built: its root
// directory, its package.json, its TypeScript options and how module
// requests resolve inside its dependency tree.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Conventional directories relative to the project root.
const (
	ComponentsDir  = "components"
	TypingsDir     = "typings"
	LibDir         = "lib"
	ESDir          = "es"
	DistDir        = "dist"
	LocaleDir      = "locale"
	SiteDir        = "_site"
	DataDir        = "_data"
	NodeModulesDir = "node_modules"
)

// PackageJSON holds the package.json fields the tool reads.
type PackageJSON struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Files            []string          `json:"files,omitempty"`
	Main             string            `json:"main,omitempty"`
	Module           string            `json:"module,omitempty"`
	Typings          string            `json:"typings,omitempty"`
	Types            string            `json:"types,omitempty"`
	Unpkg            string            `json:"unpkg,omitempty"`
	Dependencies     map[string]string `json:"dependencies,omitempty"`
	PeerDependencies map[string]string `json:"peerDependencies,omitempty"`
}

// Project is a component library checkout.
type Project struct {
	Root    string
	Package PackageJSON
	// ModulePaths are extra fallback module directories (NODE_PATH).
	ModulePaths []string
}

// Load reads package.json from root.
func Load(root string) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	data, err := os.ReadFile(filepath.Join(abs, "package.json"))
	if err != nil {
		return nil, fmt.Errorf("read package.json: %w", err)
	}
	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parse package.json: %w", err)
	}
	if pkg.Name == "" {
		return nil, fmt.Errorf("package.json in %s has no name", abs)
	}
	return &Project{Root: abs, Package: pkg}, nil
}

// Path joins elem onto the project root.
func (p *Project) Path(elem ...string) string {
	return filepath.Join(append([]string{p.Root}, elem...)...)
}

// Exists reports whether the root-relative path exists.
func (p *Project) Exists(elem ...string) bool {
	_, err := os.Stat(p.Path(elem...))
	return err == nil
}

// Resolver returns the two-tier module resolver for this project.
func (p *Project) Resolver(extensions ...string) Resolver {
	return NewResolver(p.Root, p.ModulePaths, extensions...)
}
