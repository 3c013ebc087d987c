// Package workspace manages scratch directories: the lessc mirror of a
// stylesheet's import graph and the tsc declaration tree. Each Manager owns
// one uniquely named directory (antd-tools-<prefix>-<timestamp>-XXXX), so
// concurrent targets never share scratch space.
package workspace
