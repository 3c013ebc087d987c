package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", ".antd-tools.yml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())

		file, exists := err.Context().Get("file")
		assert.True(t, exists)
		assert.Equal(t, ".antd-tools.yml", file)
	})

	t.Run("Wrapped classification is found", func(t *testing.T) {
		inner := GitError("working tree not clean").WithContext("untracked", []string{"a.ts", "b.ts"}).Build()
		wrapped := fmt.Errorf("guard: %w", inner)

		assert.True(t, HasCategory(wrapped, CategoryGit))
		ce, ok := AsClassified(wrapped)
		require.True(t, ok)
		assert.True(t, ce.IsFatal())
		assert.Equal(t, []string{"a.ts", "b.ts"}, ce.Context().Strings("untracked"))
		assert.Nil(t, ce.Context().Strings("missing"))
	})

	t.Run("Unclassified defaults", func(t *testing.T) {
		err := stderrors.New("plain")
		assert.False(t, HasCategory(err, CategoryInternal))
		assert.False(t, IsTransient(err))
		assert.False(t, StyleError("less failed").Build().IsFatal())
	})
}

func TestErrorBuilder(t *testing.T) {
	original := stderrors.New("connection refused")
	err := WrapError(original, CategoryNetwork, "registry unreachable").
		Warning().
		Retryable().
		WithContext("host", "unpkg.com").
		Build()

	assert.Equal(t, SeverityWarning, err.Severity())
	assert.Equal(t, RetryBackoff, err.RetryStrategy())
	assert.True(t, err.CanRetry())
	assert.True(t, stderrors.Is(err, original))
	host, ok := err.Context().Get("host")
	require.True(t, ok)
	assert.Equal(t, "unpkg.com", host)
}

func TestCLIErrorAdapterExitCodes(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", stderrors.New("boom"), 1},
		{"validation", ValidationError("unknown task").Build(), 2},
		{"aborted", AbortedError("user declined").Build(), 3},
		{"git", GitError("dirty").Build(), 8},
		{"compile", CompileError("syntax").Build(), 11},
		{"publish", PublishError("npm publish failed").Build(), 12},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, adapter.ExitCodeFor(tc.err))
		})
	}
}

func TestCLIErrorAdapterFormat(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)
	assert.Equal(t, "unknown task", adapter.FormatError(ValidationError("unknown task").Build()))
	assert.Equal(t, "git: dirty", adapter.FormatError(GitError("dirty").Build()))

	verbose := NewCLIErrorAdapter(true, nil)
	assert.Equal(t, "[git:fatal] dirty", verbose.FormatError(GitError("dirty").Build()))
}
