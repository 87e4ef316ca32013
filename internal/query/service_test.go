package query

import (
	"context"
	"errors"
	"testing"

	"docquery/internal/models"
	"docquery/internal/providers"
	"docquery/internal/retrieval"
	"docquery/internal/textseg"
	"docquery/internal/themes"
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
}

func (s *stubLLM) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	text, err := s.respond(req)
	return providers.GenerateResponse{Text: text}, providers.ProviderInfo{Name: "stub", Model: "stub"}, err
}

func newService(t *testing.T, src *fakeSource, llm providers.LLMProvider, agg *themes.Aggregator) *Service {
	t.Helper()
	seg, err := textseg.New()
	if err != nil {
		t.Fatalf("new segmenter: %v", err)
	}
	opts := []retrieval.Option{}
	if llm != nil {
		opts = append(opts, retrieval.WithLLM(llm))
	}
	engine := retrieval.NewEngine(src, seg, opts...)
	return NewService(src, engine, seg, agg, nil)
}

func TestAnswerSentenceLevelCitation(t *testing.T) {
	src := &fakeSource{
		docs:     []models.Document{{DocumentID: "d1", Filename: "one.pdf"}},
		contents: map[string]string{"d1": "Para one.\n\nPara two. Second sentence."},
	}
	llm := &stubLLM{respond: func(providers.GenerateRequest) (string, error) {
		return `[{"id":"d1","matched_text":"Second sentence.","relevance":0.9}]`, nil
	}}
	svc := newService(t, src, llm, nil)

	resp, err := svc.Answer(context.Background(), Request{Query: "what is the second sentence", CitationLevel: "sentence"})
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
	if got := resp.Results[0].Citation; got != "one.pdf, Para 2, Sentence 2" {
		t.Fatalf("unexpected citation: %q", got)
	}
	if resp.CitationLevel != "sentence" {
		t.Fatalf("unexpected level echo: %q", resp.CitationLevel)
	}
}

func TestAnswerDocumentLevelCitation(t *testing.T) {
	src := &fakeSource{
		docs:     []models.Document{{DocumentID: "d1", Filename: "one.pdf"}},
		contents: map[string]string{"d1": "Alpha beta gamma content here."},
	}
	svc := newService(t, src, nil, nil)

	resp, err := svc.Answer(context.Background(), Request{Query: "alpha beta", CitationLevel: "document"})
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 keyword result, got %d", len(resp.Results))
	}
	if resp.Results[0].Citation != "one.pdf" {
		t.Fatalf("document-level citation must be the filename, got %q", resp.Results[0].Citation)
	}
}

func TestAnswerEmptyQuery(t *testing.T) {
	svc := newService(t, &fakeSource{}, nil, nil)
	if _, err := svc.Answer(context.Background(), Request{}); err == nil {
		t.Fatal("empty query must be rejected")
	}
}

func TestAnswerWithThemes(t *testing.T) {
	src := &fakeSource{
		docs:     []models.Document{{DocumentID: "d1", Filename: "one.pdf"}},
		contents: map[string]string{"d1": "Solar power grew quickly this year."},
	}
	llm := &stubLLM{respond: func(req providers.GenerateRequest) (string, error) {
		if req.Operation == "themes" {
			return `[{"theme_name":"Growth","summary":"s","supporting_documents":["one.pdf"],"evidence":"e"}]`, nil
		}
		return `[{"id":"d1","matched_text":"Solar power grew quickly this year.","relevance":0.8}]`, nil
	}}
	svc := newService(t, src, llm, themes.New(llm))

	resp, err := svc.Answer(context.Background(), Request{
		Query:         "solar growth",
		IncludeThemes: true,
		ThemeCount:    1,
	})
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if len(resp.Themes) != 1 || resp.Themes[0].ThemeName != "Growth" {
		t.Fatalf("expected the identified theme, got %+v", resp.Themes)
	}
}

func TestAnswerUnreadableDocumentDegrades(t *testing.T) {
	src := &fakeSource{
		docs: []models.Document{{DocumentID: "d1", Filename: "one.pdf"}},
		// no content entry: retrieval skips the doc entirely
		contents: map[string]string{},
	}
	svc := newService(t, src, nil, nil)
	resp, err := svc.Answer(context.Background(), Request{Query: "anything"})
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("expected no results, got %+v", resp.Results)
	}
}
