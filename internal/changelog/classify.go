package changelog

import (
	"strings"

	"github.com/danielolaszy/autochangelog/pkg/models"
)

// ellipses are the markers the hosting platform uses when it moves the end of
// an overlong subject line into the message body.
var ellipses = []string{"...", "…"}

// ClassifiedCommit is a commit whose head matched a section's type.
type ClassifiedCommit struct {
	Type    string
	Scope   string
	Subject string
	Commit  *models.Commit
}

// commitHead returns the first paragraph of a commit message. A subject that
// was truncated into "subject tha..." / "...t continues" is spliced back.
func commitHead(message string) string {
	paragraphs := strings.Split(message, "\n\n")
	head := paragraphs[0]
	if len(paragraphs) < 2 {
		return head
	}

	truncated, ok := cutEllipsis(head, strings.CutSuffix)
	if !ok {
		return head
	}
	firstLine, _, _ := strings.Cut(paragraphs[1], "\n")
	continuation, ok := cutEllipsis(firstLine, strings.CutPrefix)
	if !ok {
		return head
	}

	return strings.ReplaceAll(truncated+continuation, "  ", " ")
}

func cutEllipsis(s string, cut func(s, marker string) (string, bool)) (string, bool) {
	for _, marker := range ellipses {
		if rest, ok := cut(s, marker); ok {
			return rest, true
		}
	}
	return s, false
}

// Classify matches the commit against the section's type. It reports false
// when the commit does not belong in this section: the type does not match,
// the commit is unscoped while unscoped commits are suppressed, or it is a
// docs(changelog) commit.
func (s Section) Classify(commit *models.Commit, defaultScope string, suppressUnscoped bool) (ClassifiedCommit, bool) {
	head := commitHead(commit.Message)

	match := s.head.FindStringSubmatch(head)
	if match == nil {
		return ClassifiedCommit{}, false
	}

	scope := match[s.head.SubexpIndex("scope")]
	if scope == "" {
		if suppressUnscoped {
			return ClassifiedCommit{}, false
		}
		scope = defaultScope
	}
	if s.Type == docsType && strings.EqualFold(scope, "changelog") {
		return ClassifiedCommit{}, false
	}

	return ClassifiedCommit{
		Type:    s.Type,
		Scope:   scope,
		Subject: s.subject.ReplaceAllLiteralString(head, ""),
		Commit:  commit,
	}, true
}
