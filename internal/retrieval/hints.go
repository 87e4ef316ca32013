package retrieval

import (
	"regexp"
	"strconv"
)

var (
	pageHintRe   = regexp.MustCompile(`(?i)page\s+(\d+)`)
	paraHintRe   = regexp.MustCompile(`(?i)para(?:graph)?\s+(\d+)`)
	pageMarkerRe = regexp.MustCompile(`--- Page (\d+) ---`)
)

// ParseCitationHints recovers page and paragraph numbers from free-text
// citations like "report.pdf, Page 3, Paragraph 2". Textual references are
// 1-based; the returned indices are 0-based.
func ParseCitationHints(citation string) (page, para *int) {
	if m := pageHintRe.FindStringSubmatch(citation); m != nil {
		page = oneBased(m[1])
	}
	if m := paraHintRe.FindStringSubmatch(citation); m != nil {
		para = oneBased(m[1])
	}
	return page, para
}

// ExtractPageMarker finds the first page marker the PDF extractor embeds in
// passage text, returning a 0-based page index.
func ExtractPageMarker(text string) *int {
	m := pageMarkerRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return oneBased(m[1])
}

func oneBased(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return nil
	}
	n--
	return &n
}
