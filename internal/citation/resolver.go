package citation

import (
	"strings"

	"docquery/internal/models"
	"docquery/internal/textseg"
)

// Resolve enriches a match with the most precise paragraph/sentence
// reference the segmentation index supports at the requested level, and
// formats the citation string. The match is returned by value; the input is
// not mutated.
//
// Resolution order at paragraph/sentence level: an explicit paragraph index
// carried by the match wins when it is in range (cheap and authoritative
// when upstream supplied it); otherwise the first paragraph containing the
// matched text verbatim wins. When no paragraph contains the text the match
// keeps only its filename/page fields. Duplicate paragraph text resolves to
// the earliest occurrence; that is a known precision limit.
func Resolve(m models.Match, level Level, analysis *textseg.Analysis) models.Match {
	if level == LevelDocument {
		m.Citation = m.Filename
		return m
	}
	if analysis == nil {
		m.Citation = Format(m.Filename, m.Page, nil, nil)
		return m
	}

	para, ok := resolveParagraph(m, analysis)
	if !ok {
		m.Paragraph = nil
		m.Sentence = nil
		m.Citation = Format(m.Filename, m.Page, nil, nil)
		return m
	}
	idx := para.Index
	m.Paragraph = &idx
	m.Sentence = nil

	if level == LevelSentence {
		if sent, ok := resolveSentence(m.MatchedText, analysis.SentencesOf(para.Index)); ok {
			sidx := sent.Index
			m.Sentence = &sidx
		}
	}
	m.Citation = Format(m.Filename, m.Page, m.Paragraph, m.Sentence)
	return m
}

func resolveParagraph(m models.Match, analysis *textseg.Analysis) (models.Paragraph, bool) {
	if m.Paragraph != nil && *m.Paragraph >= 0 && *m.Paragraph < len(analysis.Paragraphs) {
		return analysis.Paragraphs[*m.Paragraph], true
	}
	text := strings.TrimSpace(m.MatchedText)
	if text == "" {
		return models.Paragraph{}, false
	}
	for _, p := range analysis.Paragraphs {
		if strings.Contains(p.Content, text) {
			return p, true
		}
	}
	return models.Paragraph{}, false
}

// resolveSentence prefers an exact-or-substring hit; failing that it selects
// the sentence with the largest case-insensitive word-set overlap with the
// matched text, first occurrence on ties.
func resolveSentence(matchedText string, sents []models.Sentence) (models.Sentence, bool) {
	if len(sents) == 0 {
		return models.Sentence{}, false
	}
	text := strings.TrimSpace(matchedText)
	for _, s := range sents {
		if s.Content == text || strings.Contains(s.Content, text) {
			return s, true
		}
	}

	matchWords := wordSet(text)
	if len(matchWords) == 0 {
		return models.Sentence{}, false
	}
	best := -1
	bestOverlap := 0
	for i, s := range sents {
		overlap := overlapCount(matchWords, wordSet(s.Content))
		if overlap > bestOverlap {
			best = i
			bestOverlap = overlap
		}
	}
	if best < 0 {
		return models.Sentence{}, false
	}
	return sents[best], true
}

func wordSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		out[w] = struct{}{}
	}
	return out
}

func overlapCount(a, b map[string]struct{}) int {
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}
