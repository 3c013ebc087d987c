// Package bundle produces the browser bundles in dist/ with esbuild: an
// IIFE exposing the library under its global name, in a development and a
// minified production flavor, with peer dependencies read from globals.
package bundle
