// Package citation resolves raw retrieval matches against a document's
// segmentation index and formats the one externally guaranteed string:
//
//	Filename[, Page N][, Para M][, Sentence S]
//
// Indices are stored 0-based and displayed 1-based.
package citation

import (
	"fmt"
	"strings"
)

// Level is the granularity of source attribution. Levels form an ordered
// hierarchy: document < paragraph < sentence.
type Level int

const (
	LevelDocument Level = iota
	LevelParagraph
	LevelSentence
)

func (l Level) String() string {
	switch l {
	case LevelDocument:
		return "document"
	case LevelSentence:
		return "sentence"
	default:
		return "paragraph"
	}
}

// ParseLevel maps a free-text level name to a Level. Unknown names are not
// an error; they resolve to the paragraph default.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "document":
		return LevelDocument
	case "sentence":
		return LevelSentence
	default:
		return LevelParagraph
	}
}

// Format renders the citation string with strict field ordering, omitting
// absent fields. All indices arrive 0-based.
func Format(filename string, page, para, sentence *int) string {
	b := strings.Builder{}
	b.WriteString(filename)
	if page != nil {
		fmt.Fprintf(&b, ", Page %d", *page+1)
	}
	if para != nil {
		fmt.Fprintf(&b, ", Para %d", *para+1)
	}
	if sentence != nil {
		fmt.Fprintf(&b, ", Sentence %d", *sentence+1)
	}
	return b.String()
}
