// Package git reads the local repository to fill in build defaults: the
// branch to build and the GitHub repository it belongs to. It uses go-git,
// so no git binary is needed.
package git

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
)

// ErrDetachedHead is returned by CurrentBranch when HEAD is not a branch.
var ErrDetachedHead = errors.New("HEAD is detached")

// openRepo opens the repository containing path, walking up to the nearest
// .git. An empty path means the working directory.
func openRepo(path string) (*git.Repository, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return repo, nil
}

// CurrentBranch returns the short name of the checked out branch.
func CurrentBranch(path string) (string, error) {
	repo, err := openRepo(path)
	if err != nil {
		return "", err
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD reference: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", ErrDetachedHead
	}
	return head.Name().Short(), nil
}

// HeadCommit returns the full hash HEAD points at.
func HeadCommit(path string) (string, error) {
	repo, err := openRepo(path)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD reference: %w", err)
	}
	return head.Hash().String(), nil
}

// Ref returns the branch name, or the commit hash when HEAD is detached.
// This is the value builds check out as CI_COMMIT.
func Ref(path string) (string, error) {
	branch, err := CurrentBranch(path)
	if errors.Is(err, ErrDetachedHead) {
		return HeadCommit(path)
	}
	return branch, err
}

// RemoteSlug returns "owner/name" for the given remote's first URL, e.g.
// "eddywashere/sample-create-react-app" for
// git@github.com:eddywashere/sample-create-react-app.git.
func RemoteSlug(path, remote string) (string, error) {
	repo, err := openRepo(path)
	if err != nil {
		return "", err
	}
	r, err := repo.Remote(remote)
	if err != nil {
		return "", fmt.Errorf("looking up remote %s: %w", remote, err)
	}
	urls := r.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", remote)
	}
	return slugFromURL(urls[0])
}

func slugFromURL(url string) (string, error) {
	s := strings.TrimSuffix(strings.TrimSuffix(url, "/"), ".git")

	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
		if j := strings.Index(s, "/"); j >= 0 {
			s = s[j+1:]
		} else {
			s = ""
		}
	} else if i := strings.Index(s, ":"); i >= 0 {
		// scp-like: git@host:owner/name
		s = s[i+1:]
	}

	parts := strings.Split(strings.Trim(s, "/"), "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", fmt.Errorf("cannot derive owner/name from %q", url)
	}
	return parts[len(parts)-2] + "/" + parts[len(parts)-1], nil
}
