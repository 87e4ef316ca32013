package themes

import (
	"sort"
	"strings"
)

// ExtractKeySections picks the parts of a document worth sending upstream:
// the opening paragraph always, then the remaining paragraphs by descending
// length, capped at maxSections total. Length is a crude but serviceable
// proxy for substance in prose documents.
func ExtractKeySections(content string, maxSections int) []string {
	if maxSections <= 0 {
		maxSections = 5
	}
	paras := make([]string, 0)
	for _, p := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n\n") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paras = append(paras, trimmed)
		}
	}
	if len(paras) == 0 {
		return nil
	}
	sections := []string{paras[0]}
	rest := make([]string, len(paras)-1)
	copy(rest, paras[1:])
	sort.SliceStable(rest, func(i, j int) bool { return len(rest[i]) > len(rest[j]) })
	for _, p := range rest {
		if len(sections) >= maxSections {
			break
		}
		sections = append(sections, p)
	}
	return sections
}
