// Package models defines data structures shared across the application.
package models

import (
	"time"
)

// Release represents a published release of a repository together with the
// changelog block that belongs to it.
type Release struct {
	// TagName is the git tag the release was published from (e.g., "v1.2.0")
	TagName string

	// URL is the web page of the release
	URL string

	// Description is the raw release body as authored on the hosting platform
	Description string

	// CreatedAt is the timestamp when the release was created
	CreatedAt time.Time

	// CommitSHA is the commit the tag points to. It is empty when the tag
	// has been deleted after the release was published.
	CommitSHA string

	// Content is the rendered changelog block for this release. An empty
	// Content means the release is left out of the changelog.
	Content string
}

// Commit represents a commit on the changelog branch.
type Commit struct {
	// SHA is the full commit hash
	SHA string

	// Message is the full, possibly multi-line, commit message
	Message string

	// URL is the web page of the commit
	URL string

	// PullRequests holds the pull requests associated with the commit. It
	// is filled in lazily, only for commits whose release gets rendered.
	PullRequests []PullRequestLink
}

// PullRequestLink identifies a pull request that introduced a commit.
type PullRequestLink struct {
	// Number is the pull request number (e.g., 42)
	Number int

	// URL is the web page of the pull request
	URL string
}

// RepositoryFile is a file stored in a repository at a given branch.
type RepositoryFile struct {
	// Path is the repository-relative path of the file
	Path string

	// SHA is the blob SHA, required when updating the file
	SHA string

	// Content is the decoded file content
	Content string
}

// Author identifies the person recorded as author and committer of the
// changelog commit.
type Author struct {
	Name  string
	Email string
}
