package changelog

import (
	"fmt"
	"regexp"
	"strings"
)

// docsType is the type pattern whose "changelog" scope is never rendered, so
// the commits that update the changelog itself stay out of it.
const docsType = "docs"

// Section maps a conventional-commit type pattern to the heading its commits
// are rendered under (e.g., "feat" -> "Feature").
type Section struct {
	// Type is a regular expression matched at the start of a commit head.
	Type string

	// Heading is the label of the "### " heading in a release body.
	Heading string

	head    *regexp.Regexp
	subject *regexp.Regexp
}

// NewSection compiles the type pattern of a section. It returns an error if
// the pattern is empty or not a valid regular expression.
func NewSection(typePattern, heading string) (Section, error) {
	if typePattern == "" {
		return Section{}, fmt.Errorf("empty type pattern for heading %q", heading)
	}

	head, err := regexp.Compile(`^(?:` + typePattern + `)(?:[(](?P<scope>.+?)[)])?`)
	if err != nil {
		return Section{}, fmt.Errorf("invalid type pattern %q: %w", typePattern, err)
	}
	subject := regexp.MustCompile(head.String() + `\s?:\s?`)

	return Section{
		Type:    typePattern,
		Heading: heading,
		head:    head,
		subject: subject,
	}, nil
}

// ParseSections parses "type:Heading" entries into sections, keeping their
// order. The entry is split on the first colon.
func ParseSections(entries []string) ([]Section, error) {
	sections := make([]Section, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		typePattern, heading, ok := strings.Cut(entry, ":")
		if !ok || heading == "" {
			return nil, fmt.Errorf("invalid type entry %q, expected format: type:Heading", entry)
		}

		section, err := NewSection(typePattern, heading)
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}
	return sections, nil
}

// Options is the immutable configuration of a changelog run.
type Options struct {
	// Sections lists the rendered types in the order they appear in a release.
	Sections []Section

	// DefaultScope labels commits without an explicit scope.
	DefaultScope string

	// SuppressUnscoped drops commits without an explicit scope instead of
	// filing them under DefaultScope.
	SuppressUnscoped bool

	// EmptyReleaseInfo replaces an empty release description, and is the
	// description of the Unreleased block.
	EmptyReleaseInfo string

	// RegenerateCount is the number of most recent releases rendered again
	// even when the existing changelog already has them. Negative means all.
	RegenerateCount int

	// IncludeUnreleased adds an Unreleased block for commits newer than the
	// latest release.
	IncludeUnreleased bool
}
