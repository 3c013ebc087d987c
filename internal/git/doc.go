// Package git wraps the go-git operations a release needs.
//
// This package handles:
//   - Worktree cleanliness checks before a release starts
//   - Lightweight release tags on HEAD
//   - Pushing the release tag and the mainline branch with SSH, token or basic auth
//
// Failures are returned as ClassifiedErrors in the git category so callers can
// map them to exit codes.
package git
