package rewrite

import (
	"regexp"
	"strings"

	"github.com/ant-design/antd-tools/internal/source"
)

// NonWebMarker in a barrel's content means it targets React Native, which
// consumes the preprocessor sources directly.
const NonWebMarker = "react-native"

var barrelPattern = regexp.MustCompile(`(^|/)style/index(\.web)?\.js$`)

// IsBarrel reports whether rel is a generated style barrel module.
func IsBarrel(rel string) bool { return barrelPattern.MatchString(rel) }

// IsWebVariant reports whether rel is the explicit web barrel (index.web.js).
func IsWebVariant(rel string) bool { return strings.HasSuffix(rel, "/index.web.js") || rel == "style/index.web.js" }

// HasCompanion reports whether a barrel with this path and content gets a
// css-only sibling.
func HasCompanion(rel, content string) bool {
	return !(strings.Contains(content, NonWebMarker) && !IsWebVariant(rel))
}

// CSSPath maps a barrel path to its css-only sibling:
// style/index.js -> style/css.js, style/index.web.js -> style/css.web.js.
func CSSPath(rel string) string {
	i := strings.LastIndex(rel, "/index.")
	if i < 0 {
		return strings.Replace(rel, "index.", "css.", 1)
	}
	return rel[:i] + "/css." + rel[i+len("/index."):]
}

// CSSInjection points every stylesheet reference at its compiled CSS: a
// ".less" file becomes ".css" and a ".../style" barrel import becomes
// ".../style/css". Applying it twice equals applying it once.
func CSSInjection(content string) string {
	return Specifiers(content, cssSpecifier)
}

func cssSpecifier(spec string) string {
	switch {
	case strings.HasSuffix(spec, ".less"):
		return strings.TrimSuffix(spec, ".less") + ".css"
	case strings.HasSuffix(spec, "/style"):
		return spec + "/css"
	case strings.HasSuffix(spec, "/style/"):
		return spec + "css"
	default:
		return spec
	}
}

// CSSBarrel derives the css-only sibling of a barrel. ok is false when f is
// not a barrel or the barrel declines (non-web runtime).
func CSSBarrel(f source.File) (companion source.File, ok bool) {
	if !IsBarrel(f.Rel) {
		return source.File{}, false
	}
	content := string(f.Contents)
	if !HasCompanion(f.Rel, content) {
		return source.File{}, false
	}
	return f.WithRel(CSSPath(f.Rel), []byte(CSSInjection(content))), true
}

// Barrel maps one generated module to the files to write: the module itself,
// followed by its css-only sibling when one is due.
func Barrel(f source.File) []source.File {
	if companion, ok := CSSBarrel(f); ok {
		return []source.File{f, companion}
	}
	return []source.File{f}
}
