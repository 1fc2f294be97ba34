package vcs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeDescriber struct {
	info Info
	err  error
}

func (f fakeDescriber) Describe(string) (Info, error) {
	return f.info, f.err
}

func TestDescribeOrEmpty(t *testing.T) {
	ok := fakeDescriber{info: Info{Commit: "abc1234", Branch: "main"}}
	assert.Equal(t, "abc1234", DescribeOrEmpty(ok, ".").Commit)

	failing := fakeDescriber{err: errors.New("not a repository")}
	assert.Equal(t, Info{}, DescribeOrEmpty(failing, "."))
}

func TestDescribe_NotARepo(t *testing.T) {
	_, err := NewGitDescriber().Describe(t.TempDir())
	assert.Error(t, err)
}
