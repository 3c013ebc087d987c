// Package style compiles Less style entry points into browser-ready CSS.
//
// The import graph of an entry is resolved first: relative imports against the
// importing file's directory and "~pkg/path" imports through the project's
// module resolver. The graph is mirrored into a scratch workspace with every
// import rewritten to an absolute mirror path, compiled with lessc and passed
// through esbuild's CSS transform for vendor prefixes.
package style
