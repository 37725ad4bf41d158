package pipeline

import (
	"regexp"
	"strings"
)

var linkPattern = regexp.MustCompile(`https?://[^\s\p{Z}\x{FEFF}]+`)

// ExtractResourceLinks returns every http(s) URL in text in order of
// appearance. Duplicates are kept. A URL runs until the next whitespace,
// Unicode spaces included.
func ExtractResourceLinks(text string) []string {
	links := linkPattern.FindAllString(text, -1)
	if links == nil {
		return []string{}
	}
	return links
}

// ComposeComment renders the tracker comment for an update.
func ComposeComment(oneLiner, summary string, links []string) string {
	var b strings.Builder
	b.WriteString("Update from meeting discussion:\n\n")
	b.WriteString(oneLiner)
	b.WriteString("\n\nDetails:\n")
	b.WriteString(summary)
	if len(links) > 0 {
		b.WriteString("\n\nResources:\n")
		b.WriteString(strings.Join(links, "\n"))
	}
	return b.String()
}
