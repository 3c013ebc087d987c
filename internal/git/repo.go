package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	appcfg "github.com/ant-design/antd-tools/internal/config"
	derrors "github.com/ant-design/antd-tools/internal/errors"
	"github.com/ant-design/antd-tools/internal/logfields"
)

// Repo is an opened working copy.
type Repo struct {
	path string
	repo *git.Repository
}

// Open opens the repository containing dir.
func Open(dir string) (*Repo, error) {
	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, derrors.GitError("open repository").
			WithCause(err).
			WithContext("dir", dir).
			Fatal().
			Build()
	}
	return &Repo{path: dir, repo: r}, nil
}

// Changes lists the dirty paths of a worktree.
type Changes struct {
	Untracked []string
	Modified  []string
}

// Clean reports whether there is nothing to commit.
func (c Changes) Clean() bool { return len(c.Untracked) == 0 && len(c.Modified) == 0 }

// Status collects untracked and modified (staged or not) paths.
func (r *Repo) Status() (Changes, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return Changes{}, fmt.Errorf("open worktree: %w", err)
	}
	st, err := wt.Status()
	if err != nil {
		return Changes{}, fmt.Errorf("worktree status: %w", err)
	}
	var c Changes
	for path, s := range st {
		switch {
		case s.Worktree == git.Untracked:
			c.Untracked = append(c.Untracked, path)
		case s.Worktree != git.Unmodified || s.Staging != git.Unmodified:
			c.Modified = append(c.Modified, path)
		}
	}
	sort.Strings(c.Untracked)
	sort.Strings(c.Modified)
	return c, nil
}

// EnsureClean fails with a fatal git error when the worktree has untracked
// or modified files.
func (r *Repo) EnsureClean() error {
	c, err := r.Status()
	if err != nil {
		return derrors.GitError("check worktree status").WithCause(err).Fatal().Build()
	}
	if c.Clean() {
		return nil
	}
	b := derrors.GitError("git status is not clean; commit or stash your changes before publishing").Fatal()
	if len(c.Untracked) > 0 {
		b.WithContext("untracked", c.Untracked)
	}
	if len(c.Modified) > 0 {
		b.WithContext("modified", c.Modified)
	}
	return b.Build()
}

// Head returns the short branch name (empty when detached) and commit hash.
func (r *Repo) Head() (branch, hash string, err error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", "", fmt.Errorf("resolve HEAD: %w", err)
	}
	if ref.Name().IsBranch() {
		branch = ref.Name().Short()
	}
	return branch, ref.Hash().String(), nil
}

// CreateTag creates a lightweight tag on HEAD.
func (r *Repo) CreateTag(name string) error {
	head, err := r.repo.Head()
	if err != nil {
		return derrors.GitError("resolve HEAD").WithCause(err).Fatal().Build()
	}
	if _, err := r.repo.CreateTag(name, head.Hash(), nil); err != nil {
		return derrors.GitError("create tag").
			WithCause(err).
			WithContext("tag", name).
			Fatal().
			Build()
	}
	slog.Info("Tag created", logfields.Tag(name), slog.String("commit", head.Hash().String()[:8]))
	return nil
}

// PushOptions selects what Push sends.
type PushOptions struct {
	Remote string
	Tag    string
	Branch string
	Auth   *appcfg.AuthConfig
}

// Push pushes the tag, then the branch, to the remote. Each ref is pushed on
// its own so a rejected branch still leaves the tag published.
func (r *Repo) Push(ctx context.Context, opts PushOptions) error {
	auth, err := AuthMethod(opts.Auth)
	if err != nil {
		return derrors.ConfigError("git push authentication").WithCause(err).Build()
	}
	var specs []config.RefSpec
	if opts.Tag != "" {
		ref := plumbing.NewTagReferenceName(opts.Tag)
		specs = append(specs, config.RefSpec(ref+":"+ref))
	}
	if opts.Branch != "" {
		ref := plumbing.NewBranchReferenceName(opts.Branch)
		specs = append(specs, config.RefSpec(ref+":"+ref))
	}
	for _, spec := range specs {
		err := r.repo.PushContext(ctx, &git.PushOptions{
			RemoteName: opts.Remote,
			RefSpecs:   []config.RefSpec{spec},
			Auth:       auth,
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return ClassifyGitError(err, "push", opts.Remote)
		}
		slog.Info("Pushed", slog.String("refspec", spec.String()), slog.String("remote", opts.Remote))
	}
	return nil
}
