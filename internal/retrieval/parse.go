package retrieval

import (
	"encoding/json"
	"strconv"
	"strings"

	"docquery/internal/models"
)

// rawMatch is the boundary shape for one upstream match. Field types are
// deliberately loose: models variously return numbers as strings, string
// IDs as numbers, and positions only inside the citation text.
type rawMatch struct {
	ID          flexString `json:"id"`
	Filename    string     `json:"filename"`
	MatchedText string     `json:"matched_text"`
	Paragraph   *flexInt   `json:"paragraph"`
	Page        *flexInt   `json:"page"`
	Relevance   float64    `json:"relevance"`
	Citation    string     `json:"citation"`
}

// normalize converts a rawMatch into the internal Match: relevance bounded
// to [0,1], 1-based upstream positions shifted to 0-based, and positions
// recovered from the citation text when structured fields are absent.
func (r rawMatch) normalize(byID map[string]models.Document) (models.Match, bool) {
	text := strings.TrimSpace(r.MatchedText)
	if text == "" {
		return models.Match{}, false
	}
	m := models.Match{
		DocumentID:  string(r.ID),
		Filename:    strings.TrimSpace(r.Filename),
		MatchedText: text,
		Relevance:   clamp01(r.Relevance),
		Citation:    strings.TrimSpace(r.Citation),
	}
	if d, ok := byID[m.DocumentID]; ok && m.Filename == "" {
		m.Filename = d.Filename
	}
	m.Paragraph = toZeroBased(r.Paragraph)
	m.Page = toZeroBased(r.Page)
	if m.Paragraph == nil || m.Page == nil {
		page, para := ParseCitationHints(m.Citation)
		if m.Page == nil {
			m.Page = page
		}
		if m.Paragraph == nil {
			m.Paragraph = para
		}
	}
	return m, true
}

func toZeroBased(v *flexInt) *int {
	if v == nil {
		return nil
	}
	n := int(*v) - 1
	if n < 0 {
		return nil
	}
	return &n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// flexString decodes from a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	*f = ""
	return nil
}

// flexInt decodes from a JSON number or numeric string; anything else
// decodes to nothing rather than failing the whole match.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexInt(n)
		return nil
	}
	var fl float64
	if err := json.Unmarshal(b, &fl); err == nil {
		*f = flexInt(int(fl))
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if parsed, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			*f = flexInt(parsed)
			return nil
		}
	}
	*f = 0
	return nil
}
