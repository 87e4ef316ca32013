package retrieval

import (
	"strings"

	"docquery/internal/citation"
	"docquery/internal/models"
)

const (
	termIncrement  = 0.1
	relevanceFloor = 0.2
)

// keywordSearch is the no-credential strategy: each query term present in a
// unit of text adds a fixed increment, capped at 1.0. Units follow the
// citation level — whole document, paragraph, or sentence. A fixed floor
// gates inclusion independent of the caller's requested threshold, so the
// fallback stays useful even with strict thresholds tuned for the assisted
// strategy.
func (e *Engine) keywordSearch(req Request, contents []docContent) []models.Match {
	terms := strings.Fields(strings.ToLower(req.Query))
	if len(terms) == 0 {
		return []models.Match{}
	}

	matches := make([]models.Match, 0)
	for _, c := range contents {
		for _, u := range e.searchUnits(c, req.Level) {
			lower := strings.ToLower(u.text)
			relevance := 0.0
			for _, term := range terms {
				if strings.Contains(lower, term) {
					relevance += termIncrement
				}
			}
			if relevance < relevanceFloor {
				continue
			}
			if relevance > 1.0 {
				relevance = 1.0
			}
			m := models.Match{
				DocumentID:  c.doc.DocumentID,
				Filename:    c.doc.Filename,
				MatchedText: u.text,
				Relevance:   relevance,
			}
			if u.paragraph >= 0 {
				p := u.paragraph
				m.Paragraph = &p
			}
			matches = append(matches, m)
		}
	}
	return matches
}

type searchUnit struct {
	text      string
	paragraph int // -1 when the unit is the whole document
}

func (e *Engine) searchUnits(c docContent, level citation.Level) []searchUnit {
	if level == citation.LevelDocument {
		return []searchUnit{{text: c.content, paragraph: -1}}
	}
	analysis := e.segmenter.Segment(c.doc.DocumentID, c.content)
	if analysis.Error != "" {
		e.logger.Warn("segmentation unavailable for fallback search; using whole document")
		return []searchUnit{{text: c.content, paragraph: -1}}
	}
	if level == citation.LevelSentence {
		units := make([]searchUnit, 0, len(analysis.Sentences))
		for _, s := range analysis.Sentences {
			units = append(units, searchUnit{text: s.Content, paragraph: s.ParagraphIndex})
		}
		return units
	}
	units := make([]searchUnit, 0, len(analysis.Paragraphs))
	for _, p := range analysis.Paragraphs {
		units = append(units, searchUnit{text: p.Content, paragraph: p.Index})
	}
	return units
}
