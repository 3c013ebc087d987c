// Package compile turns the component tree into the lib (CommonJS) and es
// (ES module) distributions.
//
// Each Target walks not-started → scanning → transforming → writing and ends
// in done or failed. Per-file problems (script transform errors, style
// compile errors, tsc diagnostics, hook failures) are collected and never
// stop the remaining files from being written; the pipeline reports them
// once both targets have finished. After the lib target the locale/ shims are
// regenerated.
package compile
