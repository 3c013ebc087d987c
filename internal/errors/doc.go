// Package errors provides the classified error type used across antd-tools.
//
// A ClassifiedError carries a category (config, git, registry, compile, ...),
// a severity, a retry strategy and a context map. The CLI adapter maps the
// category onto a process exit code.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryGit, "working tree not clean").
//		Fatal().
//		WithContext("untracked", 3).
//		Build()
package errors
