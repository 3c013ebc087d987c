// Package manifest compares the files a release would ship with the files
// of the last published version and asks for confirmation when they differ.
package manifest
