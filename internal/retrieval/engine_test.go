package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"docquery/internal/citation"
	"docquery/internal/models"
	"docquery/internal/providers"
	"docquery/internal/textseg"
)

type fakeSource struct {
	docs     []models.Document
	contents map[string]string
}

func (f *fakeSource) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return f.docs, nil
}

func (f *fakeSource) ListDocumentsByIDs(ctx context.Context, ids []string) ([]models.Document, error) {
	want := map[string]struct{}{}
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]models.Document, 0)
	for _, d := range f.docs {
		if _, ok := want[d.DocumentID]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeSource) LoadContent(d models.Document) (string, error) {
	content, ok := f.contents[d.DocumentID]
	if !ok {
		return "", errors.New("no content")
	}
	return content, nil
}

type stubLLM struct {
	respond func(req providers.GenerateRequest) (string, error)
	calls   int
}

func (s *stubLLM) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	s.calls++
	text, err := s.respond(req)
	return providers.GenerateResponse{Text: text}, providers.ProviderInfo{Name: "stub", Model: "stub"}, err
}

func newTestEngine(t *testing.T, src *fakeSource, opts ...Option) *Engine {
	t.Helper()
	seg, err := textseg.New()
	if err != nil {
		t.Fatalf("new segmenter: %v", err)
	}
	return NewEngine(src, seg, opts...)
}

func singleDocSource() *fakeSource {
	return &fakeSource{
		docs:     []models.Document{{DocumentID: "d1", Filename: "one.pdf"}},
		contents: map[string]string{"d1": "Alpha beta gamma.\n\nDelta epsilon."},
	}
}

func TestRetrieveAssistedFiltersAndSorts(t *testing.T) {
	llm := &stubLLM{respond: func(req providers.GenerateRequest) (string, error) {
		return `[
			{"id":"d1","filename":"one.pdf","matched_text":"low","relevance":0.5},
			{"id":"d1","filename":"one.pdf","matched_text":"high","relevance":0.9},
			{"id":"d1","filename":"one.pdf","matched_text":"mid","relevance":0.75}
		]`, nil
	}}
	e := newTestEngine(t, singleDocSource(), WithLLM(llm))

	matches, err := e.Retrieve(context.Background(), Request{Query: "q", RelevanceThreshold: 0.7})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches above threshold, got %d", len(matches))
	}
	if matches[0].MatchedText != "high" || matches[1].MatchedText != "mid" {
		t.Fatalf("matches not sorted by relevance: %+v", matches)
	}
}

func TestRetrieveAssistedFencedResponse(t *testing.T) {
	llm := &stubLLM{respond: func(req providers.GenerateRequest) (string, error) {
		return "```json\n[{\"id\":\"d1\",\"matched_text\":\"found it\",\"relevance\":0.8,\"paragraph\":2}]\n```", nil
	}}
	e := newTestEngine(t, singleDocSource(), WithLLM(llm))

	matches, err := e.Retrieve(context.Background(), Request{Query: "q"})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if m.Filename != "one.pdf" {
		t.Fatalf("filename must be backfilled from the batch, got %q", m.Filename)
	}
	if m.Paragraph == nil || *m.Paragraph != 1 {
		t.Fatalf("1-based upstream paragraph must convert to 0-based, got %+v", m.Paragraph)
	}
}

func TestRetrieveAssistedBadBatchDegrades(t *testing.T) {
	src := &fakeSource{
		docs: []models.Document{
			{DocumentID: "d1", Filename: "one.pdf"},
			{DocumentID: "d2", Filename: "two.pdf"},
		},
		contents: map[string]string{"d1": "content one", "d2": "content two"},
	}
	llm := &stubLLM{respond: func(req providers.GenerateRequest) (string, error) {
		if strings.Contains(req.Prompt, "DOCUMENT ID: d1") {
			return `[{"id":"d1","matched_text":"good","relevance":0.9}]`, nil
		}
		return "", errors.New("upstream exploded")
	}}
	e := newTestEngine(t, src, WithLLM(llm), WithLimits(1, 0, 1, 0))

	matches, err := e.Retrieve(context.Background(), Request{Query: "q"})
	if err != nil {
		t.Fatalf("a failing batch must not fail the query: %v", err)
	}
	if len(matches) != 1 || matches[0].DocumentID != "d1" {
		t.Fatalf("expected the surviving batch only, got %+v", matches)
	}
	if llm.calls != 2 {
		t.Fatalf("expected one call per batch, got %d", llm.calls)
	}
}

func TestRetrieveKeywordFallback(t *testing.T) {
	src := &fakeSource{
		docs:     []models.Document{{DocumentID: "d1", Filename: "one.pdf"}},
		contents: map[string]string{"d1": "The solar panel output was high.\n\nWind turbines spun slowly."},
	}
	e := newTestEngine(t, src)

	matches, err := e.Retrieve(context.Background(), Request{Query: "solar panel", Level: citation.LevelParagraph})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 paragraph above the floor, got %d", len(matches))
	}
	m := matches[0]
	if m.Relevance < 0.19 || m.Relevance > 0.21 {
		t.Fatalf("two terms should score 0.2, got %f", m.Relevance)
	}
	if m.Paragraph == nil || *m.Paragraph != 0 {
		t.Fatalf("paragraph-level fallback must set the paragraph index, got %+v", m.Paragraph)
	}
}

func TestRetrieveKeywordFloorExcludesSingleTerm(t *testing.T) {
	src := &fakeSource{
		docs:     []models.Document{{DocumentID: "d1", Filename: "one.pdf"}},
		contents: map[string]string{"d1": "Only wind is mentioned here."},
	}
	e := newTestEngine(t, src)

	matches, err := e.Retrieve(context.Background(), Request{Query: "wind solar", Level: citation.LevelDocument})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("a single matching term scores 0.1 and must stay below the floor, got %+v", matches)
	}
}

func TestRetrieveTruncatesToMaxMatches(t *testing.T) {
	paras := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		paras = append(paras, fmt.Sprintf("solar and wind paragraph %d.", i))
	}
	src := &fakeSource{
		docs:     []models.Document{{DocumentID: "d1", Filename: "one.pdf"}},
		contents: map[string]string{"d1": strings.Join(paras, "\n\n")},
	}
	e := newTestEngine(t, src, WithLimits(0, 0, 0, 3))

	matches, err := e.Retrieve(context.Background(), Request{Query: "solar wind", Level: citation.LevelParagraph})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected result capped at 3, got %d", len(matches))
	}
}

func TestRetrieveNoDocuments(t *testing.T) {
	e := newTestEngine(t, &fakeSource{contents: map[string]string{}})
	matches, err := e.Retrieve(context.Background(), Request{Query: "anything"})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %+v", matches)
	}
}
