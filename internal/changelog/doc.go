// Package changelog renders release notes grouped by conventional-commit type
// and scope, and reconciles them with a previously generated CHANGELOG.
//
// The package is free of I/O: releases, tags, and commits are handed in by
// the caller, and pull requests for a commit are looked up through a
// PullRequestResolver only when the commit's release is actually rendered.
package changelog
