package compile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/ant-design/antd-tools/internal/project"
)

// LocaleDeclaration is written next to every locale shim.
const LocaleDeclaration = `import type { Locale } from '../lib/locale';
declare const localeValues: Locale;
export default localeValues;`

var localeSource = regexp.MustCompile(`^(.+)\.tsx?$`)

// LocaleShim is the CommonJS re-export for one locale.
func LocaleShim(locale string) string {
	return fmt.Sprintf("module.exports = require('../lib/locale/%s');", locale)
}

// Locales lists the locales defined in components/locale, sorted.
func Locales(p *project.Project) ([]string, error) {
	entries, err := os.ReadDir(p.Path(project.ComponentsDir, "locale"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read locale dir: %w", err)
	}
	var locales []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if m := localeSource.FindStringSubmatch(e.Name()); m != nil && filepath.Ext(m[1]) != ".d" {
			locales = append(locales, m[1])
		}
	}
	sort.Strings(locales)
	return locales, nil
}

// GenerateLocale clears locale/ and writes a shim and a declaration stub for
// every locale.
func GenerateLocale(p *project.Project) ([]string, error) {
	locales, err := Locales(p)
	if err != nil {
		return nil, err
	}
	dir := p.Path(project.LocaleDir)
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("clear locale dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create locale dir: %w", err)
	}
	for _, l := range locales {
		if err := os.WriteFile(filepath.Join(dir, l+".js"), []byte(LocaleShim(l)), 0o644); err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(dir, l+".d.ts"), []byte(LocaleDeclaration), 0o644); err != nil {
			return nil, err
		}
	}
	return locales, nil
}
