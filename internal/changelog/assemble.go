package changelog

import (
	"strings"

	"github.com/danielolaszy/autochangelog/pkg/models"
)

// Assemble joins the content of the releases, in order, into a changelog
// document framed by Title and Signature. Releases without content are left
// out.
func Assemble(releases []models.Release) string {
	var sb strings.Builder
	sb.WriteString(Title)
	for _, release := range releases {
		content := strings.Trim(release.Content, "\n")
		if content == "" {
			continue
		}
		sb.WriteString("\n\n" + content)
	}
	sb.WriteString("\n\n" + Signature + "\n")
	return sb.String()
}
