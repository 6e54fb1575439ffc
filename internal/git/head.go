package git

import (
	"github.com/go-git/go-git/v5"
)

// ReadRepoHead returns the commit hash checked out in the working copy at repoPath.
// It works for both backends and for detached heads.
func ReadRepoHead(repoPath string) (string, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", err
	}
	ref, err := repo.Head()
	if err != nil {
		return "", err
	}
	return ref.Hash().String(), nil
}
