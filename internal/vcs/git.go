// Package vcs resolves repository metadata used to stamp reports and
// baselines, so runs can be correlated with the commits that produced them.
package vcs

import (
	"github.com/go-git/go-git/v5"
)

// Info identifies the repository state at analysis time.
type Info struct {
	Commit string // short hash
	Branch string // empty on detached HEAD
}

// Describer resolves repository info for a path.
type Describer interface {
	Describe(path string) (Info, error)
}

// GitDescriber resolves info with go-git, detecting .git in parents.
type GitDescriber struct{}

// NewGitDescriber creates a GitDescriber.
func NewGitDescriber() *GitDescriber {
	return &GitDescriber{}
}

// Describe returns the commit and branch for the repository containing path.
func (GitDescriber) Describe(path string) (Info, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return Info{}, err
	}
	head, err := repo.Head()
	if err != nil {
		return Info{}, err
	}

	info := Info{Commit: head.Hash().String()[:7]}
	if name := head.Name(); name.IsBranch() {
		info.Branch = name.Short()
	}
	return info, nil
}

// DescribeOrEmpty returns repository info, or zero Info when path is not
// inside a repository. Reports outside a checkout simply go unstamped.
func DescribeOrEmpty(d Describer, path string) Info {
	info, err := d.Describe(path)
	if err != nil {
		return Info{}
	}
	return info
}
