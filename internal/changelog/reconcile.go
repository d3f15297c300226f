package changelog

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielolaszy/autochangelog/internal/logging"
	"github.com/danielolaszy/autochangelog/pkg/models"
)

// PullRequestResolver looks up the pull requests associated with a commit.
type PullRequestResolver interface {
	PullRequestsForCommit(ctx context.Context, sha string) ([]models.PullRequestLink, error)
}

// Input is a snapshot of the repository history and the existing changelog.
type Input struct {
	// Releases are ordered most recent first.
	Releases []models.Release

	// TagCommits maps a tag name to the SHA of the commit it points to.
	TagCommits map[string]string

	// Previous maps a release tag to its block in the existing changelog.
	Previous map[string]string

	// Commits are the commits of the changelog branch, most recent first.
	Commits []models.Commit
}

// Result is the outcome of a reconciliation.
type Result struct {
	// Releases are ordered as they appear in the changelog, with Unreleased
	// first when it is included. Content holds the block to write.
	Releases []models.Release

	// Regenerated lists the tags rendered during this run.
	Regenerated []string

	// Remaining lists the tags that should have been rendered but were not.
	// They keep the block of the existing changelog, if any.
	Remaining []string

	// Err is set when rendering was aborted by a failed pull request lookup.
	Err error
}

// Changelog assembles the document for the result.
func (r *Result) Changelog() string {
	return Assemble(r.Releases)
}

// Engine decides which releases to render and renders them from the commits
// between consecutive release tags.
type Engine struct {
	opts  Options
	pulls PullRequestResolver
}

// NewEngine creates an engine. pulls may be nil, in which case commits are
// rendered without pull request links.
func NewEngine(opts Options, pulls PullRequestResolver) *Engine {
	return &Engine{opts: opts, pulls: pulls}
}

// slotState tracks a release through a run.
type slotState int

const (
	// slotReused releases keep their block from the existing changelog.
	slotReused slotState = iota
	// slotPending releases are eligible but their bucket has not opened yet.
	slotPending
	// slotCollecting releases are accumulating the commits of their bucket.
	slotCollecting
	// slotDone releases have been rendered.
	slotDone
)

type slot struct {
	release *models.Release
	state   slotState
	bucket  []models.Commit
}

type run struct {
	engine  *Engine
	slots   map[string]*slot
	owners  map[string]string
	pending int
	current *slot
}

// Reconcile renders the releases eligible for regeneration and reuses the
// existing block of every other release.
//
// A release is eligible when it is among the RegenerateCount most recent
// releases or is missing from the existing changelog. Commits are walked
// newest first; a commit a tag points to closes the bucket of the release
// being collected and opens the bucket of the tag's release. The walk stops
// as soon as no eligible release is left.
//
// A failed pull request lookup aborts the remaining rendering: releases
// rendered before the failure keep their new content and the rest keep their
// previous block. The failure is reported in Result.Err.
func (e *Engine) Reconcile(ctx context.Context, in Input) *Result {
	result := &Result{}
	r := e.newRun(in, result)

	if r.pending == 0 {
		logging.Info("no releases to regenerate")
		return result
	}

	r.current = r.slots[UnreleasedTag]
	if r.current != nil {
		r.current.state = slotCollecting
	}

	finished := false
	for _, commit := range in.Commits {
		tag, boundary := r.owners[commit.SHA]
		if !boundary {
			r.collect(commit)
			continue
		}

		if err := r.close(ctx, result); err != nil {
			result.Err = err
			finished = true
			break
		}
		if r.pending == 0 {
			logging.Info("all regenerated releases are generated")
			finished = true
			break
		}
		r.open(tag)
		r.collect(commit)
	}

	if !finished && r.current != nil && len(r.current.bucket) > 0 {
		if err := r.close(ctx, result); err != nil {
			result.Err = err
		}
	}

	for _, release := range result.Releases {
		s := r.slots[release.TagName]
		if s.state == slotPending || s.state == slotCollecting {
			result.Remaining = append(result.Remaining, release.TagName)
		}
	}
	if len(result.Remaining) > 0 {
		logging.Warn("failed to generate all the releases", "remaining", result.Remaining)
	}

	return result
}

func (e *Engine) newRun(in Input, result *Result) *run {
	r := &run{
		engine: e,
		slots:  make(map[string]*slot),
		owners: make(map[string]string),
	}

	releases := make([]models.Release, 0, len(in.Releases)+1)
	if e.opts.IncludeUnreleased {
		releases = append(releases, models.Release{TagName: UnreleasedTag})
	}
	for _, release := range in.Releases {
		release.CommitSHA = in.TagCommits[release.TagName]
		release.Content = in.Previous[release.TagName]
		releases = append(releases, release)
	}
	result.Releases = releases

	var eligible []string
	for i := range releases {
		release := &releases[i]
		s := &slot{release: release, state: slotReused}
		if release.TagName == UnreleasedTag || e.isEligible(release.TagName, i, in.Previous) {
			s.state = slotPending
			r.pending++
			eligible = append(eligible, release.TagName)
		}
		r.slots[release.TagName] = s

		// A later (older) release wins when two tags point to the same commit.
		if release.CommitSHA != "" {
			r.owners[release.CommitSHA] = release.TagName
		}
	}

	logging.Info("regenerating releases", "releases", eligible)
	return r
}

// isEligible reports whether the release at position i (Unreleased
// included) must be rendered again.
func (e *Engine) isEligible(tag string, i int, previous map[string]string) bool {
	if _, ok := previous[tag]; !ok {
		return true
	}
	if e.opts.IncludeUnreleased {
		i--
	}
	return e.opts.RegenerateCount < 0 || i < e.opts.RegenerateCount
}

func (r *run) collect(commit models.Commit) {
	if r.current == nil || r.current.state != slotCollecting {
		return
	}
	r.current.bucket = append(r.current.bucket, commit)
}

func (r *run) open(tag string) {
	r.current = r.slots[tag]
	if r.current.state == slotPending {
		r.current.state = slotCollecting
	}
}

// close renders the release being collected, if it is eligible.
func (r *run) close(ctx context.Context, result *Result) error {
	s := r.current
	if s == nil || s.state != slotCollecting {
		return nil
	}

	bucket := s.bucket
	s.bucket = nil
	if err := r.engine.resolvePullRequests(ctx, bucket); err != nil {
		logging.Error("failed to get release content",
			"tag", s.release.TagName,
			"status_code", statusCode(err),
			"error", err)
		return fmt.Errorf("rendering release %s: %w", s.release.TagName, err)
	}

	s.release.Content = RenderRelease(*s.release, bucket, r.engine.opts)
	s.state = slotDone
	r.pending--
	result.Regenerated = append(result.Regenerated, s.release.TagName)
	logging.Debug("rendered release", "tag", s.release.TagName, "commits", len(bucket))
	return nil
}

func (e *Engine) resolvePullRequests(ctx context.Context, commits []models.Commit) error {
	if e.pulls == nil {
		return nil
	}
	for i := range commits {
		if commits[i].PullRequests != nil {
			continue
		}
		pulls, err := e.pulls.PullRequestsForCommit(ctx, commits[i].SHA)
		if err != nil {
			return fmt.Errorf("listing pull requests for commit %s: %w", shortSHA(commits[i].SHA), err)
		}
		commits[i].PullRequests = pulls
	}
	return nil
}

// statusCode returns the HTTP status carried by err, or 0.
func statusCode(err error) int {
	var coder interface{ StatusCode() int }
	if errors.As(err, &coder) {
		return coder.StatusCode()
	}
	return 0
}
