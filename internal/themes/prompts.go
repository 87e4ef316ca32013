package themes

import (
	"fmt"
	"strings"
)

// sectionThemeLimit caps how many themes a single section may contribute;
// sections are small and more than two themes per section is noise.
const sectionThemeLimit = 2

type sourceExcerpt struct {
	ID      string
	Content string
}

func buildThemePrompt(docs []sourceExcerpt, themeCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following document excerpts and identify exactly %d common themes across them.\n\n", themeCount)
	b.WriteString("Document excerpts:\n")
	for _, d := range docs {
		fmt.Fprintf(&b, "SOURCE: %s\n%s\n\n", d.ID, d.Content)
	}
	fmt.Fprintf(&b, `For each theme provide:
1. A short theme name
2. A one-to-two sentence summary of the theme
3. The list of source identifiers (exactly as given above) that support the theme
4. A brief quote or paraphrase from the excerpts as evidence

Respond with ONLY a JSON array of exactly %d objects, no other text:
[
  {
    "theme_name": "...",
    "summary": "...",
    "supporting_documents": ["..."],
    "evidence": "..."
  }
]`, themeCount)
	return b.String()
}

func buildSectionPrompt(section string, limit int) string {
	return fmt.Sprintf(`Identify up to %d key themes in the following text.

Text:
%s

For each theme provide a short name, a one-sentence summary, a relevance score between 0.0 and 1.0, and a brief quote from the text as evidence.

Respond with ONLY a JSON array, no other text:
[
  {
    "theme_name": "...",
    "summary": "...",
    "relevance": 0.0,
    "evidence": "..."
  }
]`, limit, section)
}
