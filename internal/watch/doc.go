// Package watch compiles stand-alone TypeScript files to sibling CommonJS
// modules, once or continuously as they change.
package watch
