package rewrite

import "regexp"

// specifierPattern matches a module specifier introduced by import, from,
// import( or require(. Group 1 is the introducer, 2 and 4 the quotes and 3
// the specifier itself.
var specifierPattern = regexp.MustCompile(`(\bimport\s*\(?\s*|\bfrom\s*|\brequire\s*\(\s*)(['"])([^'"\n]*)(['"])`)

// esSpecifierPattern is specifierPattern without require(.
var esSpecifierPattern = regexp.MustCompile(`(\bimport\s*\(?\s*|\bfrom\s*)(['"])([^'"\n]*)(['"])`)

// Specifiers applies fn to every module specifier in content.
func Specifiers(content string, fn func(string) string) string {
	return replaceSpecifiers(specifierPattern, content, fn)
}

func replaceSpecifiers(re *regexp.Regexp, content string, fn func(string) string) string {
	return re.ReplaceAllStringFunc(content, func(match string) string {
		m := re.FindStringSubmatch(match)
		if m[2] != m[4] {
			return match
		}
		return m[1] + m[2] + fn(m[3]) + m[4]
	})
}
