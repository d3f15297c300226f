// Package gitremote derives the hosted repository name from a local git
// checkout.
package gitremote

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/danielolaszy/autochangelog/internal/logging"
)

// DefaultRemote is the remote whose URL names the repository.
const DefaultRemote = "origin"

// Repository returns the "owner/repo" name of the remote of the git
// repository containing path. An empty path means the current directory.
func Repository(path, remote string) (string, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
	}

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return "", fmt.Errorf("opening repository at %s: %w", path, err)
	}

	r, err := repo.Remote(remote)
	if err != nil {
		return "", fmt.Errorf("getting remote %s: %w", remote, err)
	}

	urls := r.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no url", remote)
	}

	logging.Debug("found git remote", "remote", remote, "url", urls[0])
	return ParseRemoteURL(urls[0])
}

// ParseRemoteURL extracts "owner/repo" from an https, ssh, or scp-like
// ("git@host:owner/repo.git") remote URL.
func ParseRemoteURL(remoteURL string) (string, error) {
	path := remoteURL
	if strings.Contains(remoteURL, "://") {
		u, err := url.Parse(remoteURL)
		if err != nil {
			return "", fmt.Errorf("invalid remote url %q: %w", remoteURL, err)
		}
		path = u.Path
	} else if _, after, ok := strings.Cut(remoteURL, ":"); ok {
		path = after
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", fmt.Errorf("remote url %q does not name a repository", remoteURL)
	}
	return parts[len(parts)-2] + "/" + parts[len(parts)-1], nil
}
