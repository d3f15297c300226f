package changelog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/autochangelog/pkg/models"
)

// fakeResolver returns one pull request per commit and records the lookups.
type fakeResolver struct {
	calls  []string
	failOn string
	err    error
}

func (f *fakeResolver) PullRequestsForCommit(_ context.Context, sha string) ([]models.PullRequestLink, error) {
	f.calls = append(f.calls, sha)
	if sha == f.failOn {
		return nil, f.err
	}
	return []models.PullRequestLink{{Number: len(f.calls), URL: "https://example.com/pull/" + sha}}, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string   { return fmt.Sprintf("status %d", e.code) }
func (e *statusError) StatusCode() int { return e.code }

func commit(sha, message string) models.Commit {
	return models.Commit{SHA: sha, Message: message, URL: "https://example.com/commit/" + sha}
}

// history returns the releases and commits shared by most tests:
// R1 is tagged at C3 and R0 at C1, C4 is not released yet.
func history() Input {
	created := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	return Input{
		Releases: []models.Release{
			{TagName: "R1", URL: "https://example.com/R1", Description: "Second", CreatedAt: created.AddDate(0, 1, 0)},
			{TagName: "R0", URL: "https://example.com/R0", Description: "First", CreatedAt: created},
		},
		TagCommits: map[string]string{"R1": "C3", "R0": "C1"},
		Commits: []models.Commit{
			commit("C4", "feat: four"),
			commit("C3", "feat: three"),
			commit("C2", "fix: two"),
			commit("C1", "feat: one"),
		},
	}
}

func contentOf(t *testing.T, result *Result, tag string) string {
	t.Helper()
	for _, release := range result.Releases {
		if release.TagName == tag {
			return release.Content
		}
	}
	t.Fatalf("release %s not in result", tag)
	return ""
}

func tagsOf(result *Result) []string {
	tags := make([]string, 0, len(result.Releases))
	for _, release := range result.Releases {
		tags = append(tags, release.TagName)
	}
	return tags
}

func TestReconcileBuckets(t *testing.T) {
	opts := testOptions(t)
	opts.IncludeUnreleased = true
	resolver := &fakeResolver{}

	result := NewEngine(opts, resolver).Reconcile(context.Background(), history())
	require.NoError(t, result.Err)

	assert.Equal(t, []string{UnreleasedTag, "R1", "R0"}, tagsOf(result))
	assert.Equal(t, []string{UnreleasedTag, "R1", "R0"}, result.Regenerated)
	assert.Empty(t, result.Remaining)
	assert.Equal(t, []string{"C4", "C3", "C2", "C1"}, resolver.calls)

	unreleased := contentOf(t, result, UnreleasedTag)
	assert.Contains(t, unreleased, "four")
	assert.NotContains(t, unreleased, "three")

	r1 := contentOf(t, result, "R1")
	assert.True(t, strings.HasPrefix(r1, "## [R1](https://example.com/R1) - 2022-02-01 00:00:00\n\nSecond"))
	assert.Contains(t, r1, "three ([C3](https://example.com/commit/C3)) ([#2](https://example.com/pull/C3))")
	assert.Contains(t, r1, "### Bug Fixes\n\n- general:\n  - two")
	assert.NotContains(t, r1, "one")

	r0 := contentOf(t, result, "R0")
	assert.Contains(t, r0, "one")
	assert.NotContains(t, r0, "two")
}

func TestReconcileReusesPreviousBlocks(t *testing.T) {
	opts := testOptions(t)
	opts.IncludeUnreleased = true
	opts.RegenerateCount = 1
	resolver := &fakeResolver{}

	in := history()
	in.Previous = map[string]string{
		"R1": "## [R1](https://example.com/R1) - stale",
		"R0": "## [R0](https://example.com/R0) - kept as is",
	}

	result := NewEngine(opts, resolver).Reconcile(context.Background(), in)
	require.NoError(t, result.Err)

	assert.Equal(t, []string{UnreleasedTag, "R1"}, result.Regenerated)
	assert.Equal(t, "## [R0](https://example.com/R0) - kept as is", contentOf(t, result, "R0"))
	assert.NotEqual(t, "## [R1](https://example.com/R1) - stale", contentOf(t, result, "R1"))
	// The walk stops once R1 is closed, so the pull requests of C1 are never fetched.
	assert.Equal(t, []string{"C4", "C3", "C2"}, resolver.calls)
}

func TestReconcileEligibility(t *testing.T) {
	previous := map[string]string{
		"R1": "## [R1](u) - old R1",
		"R0": "## [R0](u) - old R0",
	}

	testCases := []struct {
		name            string
		regenerateCount int
		previous        map[string]string
		expected        []string
	}{
		{
			name:            "Nothing new and count zero",
			regenerateCount: 0,
			previous:        previous,
			expected:        nil,
		},
		{
			name:            "Most recent release",
			regenerateCount: 1,
			previous:        previous,
			expected:        []string{"R1"},
		},
		{
			name:            "Negative count regenerates everything",
			regenerateCount: -1,
			previous:        previous,
			expected:        []string{"R1", "R0"},
		},
		{
			name:            "Count larger than the number of releases",
			regenerateCount: 10,
			previous:        previous,
			expected:        []string{"R1", "R0"},
		},
		{
			name:            "New releases are always regenerated",
			regenerateCount: 0,
			previous:        map[string]string{"R1": "## [R1](u) - old R1"},
			expected:        []string{"R0"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := testOptions(t)
			opts.RegenerateCount = tc.regenerateCount

			in := history()
			in.Previous = tc.previous

			result := NewEngine(opts, &fakeResolver{}).Reconcile(context.Background(), in)
			require.NoError(t, result.Err)
			assert.Equal(t, tc.expected, result.Regenerated)

			for tag, block := range tc.previous {
				if slices.Contains(tc.expected, tag) {
					continue
				}
				assert.Equal(t, block, contentOf(t, result, tag))
			}
		})
	}
}

func TestReconcileWithoutUnreleased(t *testing.T) {
	opts := testOptions(t)
	resolver := &fakeResolver{}

	result := NewEngine(opts, resolver).Reconcile(context.Background(), history())
	require.NoError(t, result.Err)

	assert.Equal(t, []string{"R1", "R0"}, tagsOf(result))
	// C4 is not collected by anyone, so its pull requests are not fetched.
	assert.Equal(t, []string{"C3", "C2", "C1"}, resolver.calls)
	assert.NotContains(t, Assemble(result.Releases), "four")
}

func TestReconcileAbortsOnLookupFailure(t *testing.T) {
	opts := testOptions(t)
	opts.IncludeUnreleased = true
	opts.RegenerateCount = -1
	resolver := &fakeResolver{failOn: "C2", err: &statusError{code: 403}}

	in := history()
	in.Previous = map[string]string{"R1": "## [R1](u) - previous R1"}

	result := NewEngine(opts, resolver).Reconcile(context.Background(), in)
	require.Error(t, result.Err)
	assert.Equal(t, 403, statusCode(result.Err))

	assert.Equal(t, []string{UnreleasedTag}, result.Regenerated)
	assert.Equal(t, []string{"R1", "R0"}, result.Remaining)
	assert.Contains(t, contentOf(t, result, UnreleasedTag), "four")
	assert.Equal(t, "## [R1](u) - previous R1", contentOf(t, result, "R1"))
	assert.Empty(t, contentOf(t, result, "R0"))
	assert.Equal(t, []string{"C4", "C3", "C2"}, resolver.calls)
}

func TestReconcileDeletedTagMergesIntoNewerRelease(t *testing.T) {
	opts := testOptions(t)
	in := Input{
		Releases: []models.Release{
			{TagName: "R2", URL: "u2", Description: "Third"},
			{TagName: "R1", URL: "u1", Description: "Second"},
			{TagName: "R0", URL: "u0", Description: "First"},
		},
		TagCommits: map[string]string{"R2": "C5", "R0": "C1"},
		Commits: []models.Commit{
			commit("C5", "feat: five"),
			commit("C4", "feat: four"),
			commit("C3", "feat: three"),
			commit("C2", "feat: two"),
			commit("C1", "feat: one"),
		},
	}

	result := NewEngine(opts, nil).Reconcile(context.Background(), in)
	require.NoError(t, result.Err)

	r2 := contentOf(t, result, "R2")
	for _, subject := range []string{"five", "four", "three", "two"} {
		assert.Contains(t, r2, subject)
	}
	assert.NotContains(t, r2, "one")
	assert.Equal(t, []string{"R1"}, result.Remaining)
	assert.Empty(t, contentOf(t, result, "R1"))
}

func TestReconcileTagCommitOutsideBranch(t *testing.T) {
	opts := testOptions(t)
	in := history()
	in.TagCommits["R1"] = "elsewhere"
	in.Previous = map[string]string{"R0": "## [R0](u) - old R0"}
	opts.RegenerateCount = -1

	result := NewEngine(opts, nil).Reconcile(context.Background(), in)
	require.NoError(t, result.Err)

	assert.Equal(t, []string{"R0"}, result.Regenerated)
	assert.Equal(t, []string{"R1"}, result.Remaining)
	assert.Empty(t, contentOf(t, result, "R1"))
}

func TestReconcileIsIdempotent(t *testing.T) {
	opts := testOptions(t)
	opts.IncludeUnreleased = true

	first := NewEngine(opts, &fakeResolver{}).Reconcile(context.Background(), history())
	require.NoError(t, first.Err)
	doc := first.Changelog()

	previous, err := ParseDocument(doc)
	require.NoError(t, err)
	require.Len(t, previous, 2)

	in := history()
	in.Previous = previous
	resolver := &fakeResolver{}
	second := NewEngine(opts, resolver).Reconcile(context.Background(), in)
	require.NoError(t, second.Err)

	assert.Equal(t, []string{UnreleasedTag}, second.Regenerated)
	assert.Equal(t, doc, second.Changelog())
}

func TestReconcileWithoutCommits(t *testing.T) {
	opts := testOptions(t)
	opts.IncludeUnreleased = true
	in := history()
	in.Commits = nil

	result := NewEngine(opts, nil).Reconcile(context.Background(), in)
	require.NoError(t, result.Err)

	assert.Empty(t, result.Regenerated)
	assert.Equal(t, []string{UnreleasedTag, "R1", "R0"}, result.Remaining)
	assert.Equal(t, Title+"\n\n"+Signature+"\n", result.Changelog())
}
