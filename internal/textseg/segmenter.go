// Package textseg derives the paragraph/sentence segmentation index of a
// document's raw text. The index is rebuilt on demand and is deterministic:
// segmenting the same text twice yields byte-identical offsets.
package textseg

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"docquery/internal/models"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

const idHashChars = 12

// GenerateTextID returns a stable content-derived identifier: the first 12
// hex characters of the md5 of the unit's leading 100 characters. Distinct
// inputs that agree on the hashed prefix collide; callers accept that.
func GenerateTextID(text string) string {
	sample := strings.TrimSpace(text)
	runes := []rune(sample)
	if len(runes) > 100 {
		sample = strings.TrimSpace(string(runes[:100]))
	}
	sum := md5.Sum([]byte(sample))
	return hex.EncodeToString(sum[:])[:idHashChars]
}

type Stats struct {
	ParagraphCount int `json:"paragraph_count"`
	SentenceCount  int `json:"sentence_count"`
}

// Analysis is the segmentation index of one document. An empty index with a
// non-empty Error means "no structure available", not "no content".
type Analysis struct {
	DocumentID string             `json:"document_id"`
	Paragraphs []models.Paragraph `json:"paragraphs"`
	Sentences  []models.Sentence  `json:"sentences"`
	Stats      Stats              `json:"statistics"`
	Error      string             `json:"error,omitempty"`
}

// SentencesOf returns the sentences belonging to the paragraph with the
// given index, in sentence order.
func (a *Analysis) SentencesOf(paragraphIndex int) []models.Sentence {
	out := make([]models.Sentence, 0, 4)
	for _, s := range a.Sentences {
		if s.ParagraphIndex == paragraphIndex {
			out = append(out, s)
		}
	}
	return out
}

type Segmenter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

func New() (*Segmenter, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load sentence tokenizer: %w", err)
	}
	return &Segmenter{tokenizer: tok}, nil
}

// Segment builds the full segmentation index for a document. It never
// panics: a failure inside tokenization is captured on the Analysis so
// callers can continue with the remaining documents of a request.
func (s *Segmenter) Segment(documentID, text string) (out Analysis) {
	out = Analysis{DocumentID: documentID, Paragraphs: []models.Paragraph{}, Sentences: []models.Sentence{}}
	defer func() {
		if r := recover(); r != nil {
			out = Analysis{
				DocumentID: documentID,
				Paragraphs: []models.Paragraph{},
				Sentences:  []models.Sentence{},
				Error:      fmt.Sprintf("segment document: %v", r),
			}
		}
	}()

	out.Paragraphs = s.splitParagraphs(documentID, text)
	for _, p := range out.Paragraphs {
		out.Sentences = append(out.Sentences, s.splitSentences(documentID, p)...)
	}
	out.Stats = Stats{ParagraphCount: len(out.Paragraphs), SentenceCount: len(out.Sentences)}
	return out
}

// splitParagraphs splits on blank-line boundaries. The scan cursor only ever
// moves forward, so offsets stay non-decreasing even when a paragraph's text
// recurs earlier in the document.
func (s *Segmenter) splitParagraphs(documentID, text string) []models.Paragraph {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	raw := strings.Split(text, "\n\n")
	paragraphs := make([]models.Paragraph, 0, len(raw))
	cursor := 0
	for _, candidate := range raw {
		trimmed := strings.TrimSpace(candidate)
		if trimmed == "" {
			// Keep the cursor moving past the separator so later
			// lookups stay monotonic.
			cursor += len("\n\n")
			continue
		}
		rel := strings.Index(text[cursor:], trimmed)
		if rel < 0 {
			continue
		}
		start := cursor + rel
		end := start + len(trimmed)
		paragraphs = append(paragraphs, models.Paragraph{
			Index:      len(paragraphs),
			Content:    trimmed,
			Position:   models.Span{Start: start, End: end},
			ID:         GenerateTextID(trimmed),
			DocumentID: documentID,
		})
		cursor = end
	}
	return paragraphs
}

// splitSentences applies the language-aware boundary detector to one
// paragraph and converts paragraph-relative offsets to absolute ones.
// Sentences whose text cannot be located are dropped rather than producing
// a malformed span.
func (s *Segmenter) splitSentences(documentID string, p models.Paragraph) []models.Sentence {
	tokens := s.tokenizer.Tokenize(p.Content)
	out := make([]models.Sentence, 0, len(tokens))
	cursor := 0
	for _, tok := range tokens {
		sent := strings.TrimSpace(tok.Text)
		if sent == "" {
			continue
		}
		rel := strings.Index(p.Content[cursor:], sent)
		if rel < 0 {
			continue
		}
		start := p.Position.Start + cursor + rel
		out = append(out, models.Sentence{
			Index:          len(out),
			ParagraphIndex: p.Index,
			Content:        sent,
			Position:       models.Span{Start: start, End: start + len(sent)},
			ID:             GenerateTextID(sent),
			DocumentID:     documentID,
		})
		cursor = cursor + rel + len(sent)
	}
	return out
}
