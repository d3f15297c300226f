package changelog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/danielolaszy/autochangelog/pkg/models"
)

const (
	// UnreleasedTag is the tag of the synthetic release holding commits newer
	// than the latest release.
	UnreleasedTag = "Unreleased"

	// releaseDateLayout is the date format of a release heading.
	releaseDateLayout = "2006-01-02 15:04:05"

	shortSHALength = 7
)

var hiddenRegion = regexp.MustCompile(`(?s)<!-- HIDE IN CHANGELOG BEGIN -->.*?<!-- HIDE IN CHANGELOG END -->`)

// RenderSection renders the commits matching one section as a bullet list
// grouped by scope. Scopes keep the order in which they are first seen and
// commits keep their order within a scope. It returns an empty string if no
// commit matches.
func RenderSection(commits []models.Commit, section Section, defaultScope string, suppressUnscoped bool) string {
	var scopes []string
	grouped := make(map[string][]ClassifiedCommit)

	for i := range commits {
		classified, ok := section.Classify(&commits[i], defaultScope, suppressUnscoped)
		if !ok {
			continue
		}
		if _, seen := grouped[classified.Scope]; !seen {
			scopes = append(scopes, classified.Scope)
		}
		grouped[classified.Scope] = append(grouped[classified.Scope], classified)
	}

	var sb strings.Builder
	for _, scope := range scopes {
		fmt.Fprintf(&sb, "- %s:\n", scope)
		for _, c := range grouped[scope] {
			fmt.Fprintf(&sb, "  - %s ([%s](%s))", c.Subject, shortSHA(c.Commit.SHA), c.Commit.URL)
			for _, pr := range c.Commit.PullRequests {
				fmt.Fprintf(&sb, " ([#%d](%s))", pr.Number, pr.URL)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderBody renders every configured section of a release in order,
// skipping sections without matching commits.
func RenderBody(commits []models.Commit, opts Options) string {
	var sb strings.Builder
	for _, section := range opts.Sections {
		content := RenderSection(commits, section, opts.DefaultScope, opts.SuppressUnscoped)
		if content == "" {
			continue
		}
		sb.WriteString("### " + section.Heading + "\n\n" + content)
	}
	return sb.String()
}

// RenderHeader renders the release heading and description. The Unreleased
// release has no description of its own and always uses emptyReleaseInfo.
func RenderHeader(release models.Release, emptyReleaseInfo string) string {
	if release.TagName == UnreleasedTag {
		return "## " + UnreleasedTag + "\n\n" + emptyReleaseInfo
	}

	description := ReleaseDescription(release.Description)
	if description == "" {
		description = strings.Trim(emptyReleaseInfo, "\n")
	}

	return fmt.Sprintf("## [%s](%s) - %s\n\n%s",
		release.TagName,
		release.URL,
		release.CreatedAt.UTC().Format(releaseDateLayout),
		description)
}

// ReleaseDescription normalises a raw release body and removes the regions
// marked as hidden from the changelog. The fragments around a hidden region
// are joined by a single blank line.
func ReleaseDescription(body string) string {
	body = strings.Trim(strings.ReplaceAll(body, "\r\n", "\n"), "\n")

	fragments := hiddenRegion.Split(body, -1)
	if len(fragments) == 1 {
		return body
	}

	kept := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		fragment = strings.Trim(fragment, "\n")
		if fragment != "" {
			kept = append(kept, fragment)
		}
	}
	return strings.Join(kept, "\n\n")
}

// RenderRelease renders the complete changelog block of a release from the
// commits in its bucket. It returns an empty string when the block has
// nothing to show: no commit matched a section and the release has no
// description of its own (the Unreleased release never has one).
func RenderRelease(release models.Release, commits []models.Commit, opts Options) string {
	body := strings.Trim(RenderBody(commits, opts), "\n")
	header := strings.Trim(RenderHeader(release, opts.EmptyReleaseInfo), "\n")

	if body == "" {
		if release.TagName == UnreleasedTag || ReleaseDescription(release.Description) == "" {
			return ""
		}
		return header
	}
	return header + "\n\n" + body
}

func shortSHA(sha string) string {
	if len(sha) <= shortSHALength {
		return sha
	}
	return sha[:shortSHALength]
}
