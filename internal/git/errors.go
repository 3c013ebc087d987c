package git

import (
	"strings"

	derrors "github.com/ant-design/antd-tools/internal/errors"
)

// ClassifyGitError translates go-git errors into ClassifiedErrors. Network
// failures stay retryable; everything else is fatal for the release.
func ClassifyGitError(err error, op, remote string) error {
	if err == nil {
		return nil
	}
	if _, ok := derrors.AsClassified(err); ok {
		return err
	}

	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "remote hung up") || strings.Contains(l, "connection reset") ||
		strings.Contains(l, "timeout") || strings.Contains(l, "no route to host"):
		return derrors.WrapError(err, derrors.CategoryNetwork, "git "+op+" failed").
			Retryable().
			WithContext("op", op).
			WithContext("remote", remote).
			Build()
	case strings.Contains(l, "authentication") || strings.Contains(l, "authorization") ||
		strings.Contains(l, "permission denied"):
		return derrors.GitError("git "+op+" failed: not authorized").
			WithCause(err).
			WithContext("op", op).
			WithContext("remote", remote).
			UserAction().
			Build()
	case strings.Contains(l, "non-fast-forward"):
		return derrors.GitError("git "+op+" rejected: remote has diverged").
			WithCause(err).
			WithContext("op", op).
			WithContext("remote", remote).
			WithContext("diverged", true).
			UserAction().
			Build()
	}
	return derrors.GitError("git "+op+" failed").
		WithCause(err).
		WithContext("op", op).
		WithContext("remote", remote).
		Build()
}
