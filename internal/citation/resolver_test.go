package citation

import (
	"testing"

	"docquery/internal/models"
	"docquery/internal/textseg"
)

func segment(t *testing.T, text string) *textseg.Analysis {
	t.Helper()
	s, err := textseg.New()
	if err != nil {
		t.Fatalf("new segmenter: %v", err)
	}
	a := s.Segment("doc1", text)
	if a.Error != "" {
		t.Fatalf("segment: %s", a.Error)
	}
	return &a
}

func TestResolveParagraphLevel(t *testing.T) {
	analysis := segment(t, "First paragraph.\n\nSecond paragraph.\n\nThe needle is right here.")
	m := Resolve(models.Match{
		DocumentID:  "doc1",
		Filename:    "report.pdf",
		MatchedText: "The needle is right here.",
	}, LevelParagraph, analysis)

	if m.Paragraph == nil || *m.Paragraph != 2 {
		t.Fatalf("expected paragraph 2, got %+v", m.Paragraph)
	}
	if m.Citation != "report.pdf, Para 3" {
		t.Fatalf("unexpected citation: %q", m.Citation)
	}
}

func TestResolveExplicitParagraphWins(t *testing.T) {
	analysis := segment(t, "Same words.\n\nSame words.")
	m := Resolve(models.Match{
		Filename:    "report.pdf",
		MatchedText: "Same words.",
		Paragraph:   intp(1),
	}, LevelParagraph, analysis)
	if m.Paragraph == nil || *m.Paragraph != 1 {
		t.Fatalf("explicit in-range index must win, got %+v", m.Paragraph)
	}
}

func TestResolveSentenceLevel(t *testing.T) {
	analysis := segment(t, "Opening remark. The quick brown fox jumps. Closing remark.")
	m := Resolve(models.Match{
		Filename:    "report.pdf",
		MatchedText: "The quick brown fox jumps.",
	}, LevelSentence, analysis)
	if m.Sentence == nil || *m.Sentence != 1 {
		t.Fatalf("expected sentence 1, got %+v", m.Sentence)
	}
	if m.Citation != "report.pdf, Para 1, Sentence 2" {
		t.Fatalf("unexpected citation: %q", m.Citation)
	}
}

func TestResolveSentenceByWordOverlap(t *testing.T) {
	analysis := segment(t, "Cats sleep all day long. Dogs chase the red ball outside.")
	// Paraphrased text: no sentence contains it verbatim, overlap decides.
	m := Resolve(models.Match{
		Filename:    "report.pdf",
		MatchedText: "dogs chase ball",
		Paragraph:   intp(0),
	}, LevelSentence, analysis)
	if m.Sentence == nil || *m.Sentence != 1 {
		t.Fatalf("expected overlap to pick sentence 1, got %+v", m.Sentence)
	}
	if m.Citation != "report.pdf, Para 1, Sentence 2" {
		t.Fatalf("unexpected citation: %q", m.Citation)
	}
}

func TestResolveDocumentLevelPassesThrough(t *testing.T) {
	m := Resolve(models.Match{
		Filename:    "report.pdf",
		MatchedText: "anything",
		Paragraph:   intp(4),
		Page:        intp(2),
	}, LevelDocument, nil)
	if m.Citation != "report.pdf" {
		t.Fatalf("document-level citation must be the filename, got %q", m.Citation)
	}
	if m.Paragraph == nil || *m.Paragraph != 4 {
		t.Fatal("document-level resolution must not touch position fields")
	}
}

func TestResolveNoContainingParagraph(t *testing.T) {
	analysis := segment(t, "Completely unrelated content here.")
	m := Resolve(models.Match{
		Filename:    "report.pdf",
		MatchedText: "text that appears nowhere",
		Page:        intp(0),
	}, LevelParagraph, analysis)
	if m.Paragraph != nil || m.Sentence != nil {
		t.Fatalf("unresolvable match must drop position fields: %+v", m)
	}
	if m.Citation != "report.pdf, Page 1" {
		t.Fatalf("unexpected citation: %q", m.Citation)
	}
}

func TestResolveNilAnalysis(t *testing.T) {
	m := Resolve(models.Match{Filename: "report.pdf", MatchedText: "x", Page: intp(1)}, LevelParagraph, nil)
	if m.Citation != "report.pdf, Page 2" {
		t.Fatalf("unexpected citation: %q", m.Citation)
	}
}
