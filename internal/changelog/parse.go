package changelog

import (
	"errors"
	"regexp"
	"strings"

	"github.com/danielolaszy/autochangelog/internal/logging"
)

const (
	// Title is the first line of a generated changelog.
	Title = "# CHANGELOG"

	// Signature is the last line of a generated changelog. It is shared with
	// earlier generators so their documents are recognised and reused.
	Signature = `\* *This CHANGELOG was automatically generated by [auto-generate-changelog](https://github.com/BobAnkh/auto-generate-changelog)*`

	blockSeparator = "\n\n## "
)

// ErrMalformedDocument is returned when an existing changelog does not start
// with Title or does not end with Signature.
var ErrMalformedDocument = errors.New("changelog is not in the expected format")

var tagLink = regexp.MustCompile(`\[.*?\]`)

// ParseDocument splits a previously generated changelog into its release
// blocks, keyed by release tag. The Unreleased block is never returned since
// it is rendered again on every run.
//
// An empty document yields an empty mapping. A document with the wrong
// envelope yields an empty mapping and ErrMalformedDocument; the caller
// should regenerate every release. Blocks without a tag link are logged
// and dropped.
func ParseDocument(doc string) (map[string]string, error) {
	blocks := make(map[string]string)
	if doc == "" {
		return blocks, nil
	}

	suffix := Signature + "\n"
	if !strings.HasPrefix(doc, Title) || !strings.HasSuffix(doc, suffix) || len(doc) < len(Title)+len(suffix) {
		return blocks, ErrMalformedDocument
	}
	body := doc[len(Title) : len(doc)-len(suffix)]

	for _, segment := range strings.Split(body, blockSeparator) {
		if strings.Trim(segment, "\n") == "" || strings.HasPrefix(segment, UnreleasedTag) {
			continue
		}

		link := tagLink.FindString(segment)
		if link == "" {
			heading, _, _ := strings.Cut(segment, "\n")
			logging.Warn("ignoring malformed release block", "heading", heading)
			continue
		}

		tag := link[1 : len(link)-1]
		blocks[tag] = "## " + strings.Trim(segment, "\n")
	}

	return blocks, nil
}
