// Package rewrite holds the pure text transforms applied to generated
// modules: the css-only style barrel derivation and the ES-target module
// path rewrites. Only module specifiers (the string argument of import,
// export ... from, and require) are touched; other text is left alone.
package rewrite
