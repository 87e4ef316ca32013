package themes

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docquery/internal/models"
	"docquery/internal/providers"
)

type stubLLM struct {
	respond func(req providers.GenerateRequest) (string, error)
	calls   int
}

func (s *stubLLM) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	s.calls++
	text, err := s.respond(req)
	return providers.GenerateResponse{Text: text}, providers.ProviderInfo{Name: "stub", Model: "stub"}, err
}

func TestIdentifyThemesEmptyInputMakesNoCalls(t *testing.T) {
	llm := &stubLLM{respond: func(providers.GenerateRequest) (string, error) { return "[]", nil }}
	a := New(llm)
	out := a.IdentifyThemes(context.Background(), nil, 3)
	if len(out) != 0 {
		t.Fatalf("expected no themes, got %+v", out)
	}
	if llm.calls != 0 {
		t.Fatalf("empty input must not call upstream, got %d calls", llm.calls)
	}
}

func TestIdentifyThemesNoProvider(t *testing.T) {
	a := New(nil)
	out := a.IdentifyThemes(context.Background(), []models.Match{{Filename: "a.pdf", MatchedText: "x"}}, 3)
	if len(out) != 0 {
		t.Fatalf("expected no themes without a provider, got %+v", out)
	}
}

func TestIdentifyThemesVerifiesSupportingDocuments(t *testing.T) {
	llm := &stubLLM{respond: func(providers.GenerateRequest) (string, error) {
		return "```json\n" + `[
			{"theme_name":"Energy","summary":"s","supporting_documents":["a.pdf","DOC999"],"evidence":"e"},
			{"theme_name":"Phantom","summary":"s","supporting_documents":["DOC999"],"evidence":"e"}
		]` + "\n```", nil
	}}
	a := New(llm)
	matches := []models.Match{
		{Filename: "a.pdf", MatchedText: "solar output rose"},
		{Filename: "b.pdf", MatchedText: "wind output fell"},
	}
	out := a.IdentifyThemes(context.Background(), matches, 2)
	if len(out) != 1 {
		t.Fatalf("theme with no verifiable support must be dropped, got %+v", out)
	}
	if out[0].ThemeName != "Energy" {
		t.Fatalf("unexpected theme: %+v", out[0])
	}
	if len(out[0].SupportingDocuments) != 1 || out[0].SupportingDocuments[0] != "a.pdf" {
		t.Fatalf("unverifiable references must be removed, got %+v", out[0].SupportingDocuments)
	}
}

func TestIdentifyThemesFillsDefaults(t *testing.T) {
	llm := &stubLLM{respond: func(providers.GenerateRequest) (string, error) {
		return `[{"supporting_documents":["a.pdf"]}]`, nil
	}}
	a := New(llm)
	out := a.IdentifyThemes(context.Background(), []models.Match{{Filename: "a.pdf", MatchedText: "x"}}, 1)
	if len(out) != 1 {
		t.Fatalf("expected 1 theme, got %d", len(out))
	}
	if out[0].ThemeName != "Theme 1" || out[0].Summary != "No summary provided" || out[0].Evidence != "No evidence provided" {
		t.Fatalf("missing fields must get defaults: %+v", out[0])
	}
}

func TestIdentifyThemesUpstreamFailure(t *testing.T) {
	llm := &stubLLM{respond: func(providers.GenerateRequest) (string, error) {
		return "", errors.New("insufficient_quota")
	}}
	a := New(llm)
	out := a.IdentifyThemes(context.Background(), []models.Match{{Filename: "a.pdf", MatchedText: "x"}}, 3)
	if len(out) != 0 {
		t.Fatalf("failures must degrade to an empty list, got %+v", out)
	}
}

func TestIdentifyThemesPromptNamesSources(t *testing.T) {
	var prompt string
	llm := &stubLLM{respond: func(req providers.GenerateRequest) (string, error) {
		prompt = req.Prompt
		return "[]", nil
	}}
	a := New(llm)
	a.IdentifyThemes(context.Background(), []models.Match{
		{Filename: "a.pdf", MatchedText: "x"},
		{DocumentID: "abc123", MatchedText: "y"},
	}, 2)
	if !strings.Contains(prompt, "SOURCE: a.pdf") {
		t.Fatalf("prompt must list the filename source:\n%s", prompt)
	}
	if !strings.Contains(prompt, "SOURCE: Doc abc123") {
		t.Fatalf("prompt must fall back to the document id:\n%s", prompt)
	}
	if !strings.Contains(prompt, "exactly 2") {
		t.Fatalf("prompt must pin the theme count:\n%s", prompt)
	}
}

func TestIdentifyAcrossDocuments(t *testing.T) {
	llm := &stubLLM{respond: func(req providers.GenerateRequest) (string, error) {
		return `[
			{"theme_name":"Shared Theme","summary":"s","relevance":0.9,"evidence":"e1"},
			{"theme_name":"Weak Theme","summary":"s","relevance":0.2,"evidence":"e2"}
		]`, nil
	}}
	a := New(llm, WithWorkers(2))
	docs := []DocumentInput{
		{ID: "a.pdf", Content: "Only one paragraph."},
		{ID: "b.pdf", Content: "Also one paragraph."},
	}
	out := a.IdentifyAcrossDocuments(context.Background(), docs, 5, 0.5)
	if len(out) != 1 {
		t.Fatalf("duplicate names must merge and weak themes drop, got %+v", out)
	}
	if len(out[0].SupportingDocuments) != 2 {
		t.Fatalf("merged theme must carry both documents, got %+v", out[0].SupportingDocuments)
	}
	if out[0].Relevance != 0.9 {
		t.Fatalf("merged relevance must be the maximum, got %f", out[0].Relevance)
	}
}

func TestIdentifyAcrossDocumentsFailingDocDegrades(t *testing.T) {
	llm := &stubLLM{respond: func(req providers.GenerateRequest) (string, error) {
		if strings.Contains(req.Prompt, "healthy") {
			return `[{"theme_name":"Alive","relevance":0.8}]`, nil
		}
		return "", errors.New("timeout")
	}}
	a := New(llm, WithWorkers(1))
	docs := []DocumentInput{
		{ID: "bad.pdf", Content: "broken doc"},
		{ID: "good.pdf", Content: "healthy doc"},
	}
	out := a.IdentifyAcrossDocuments(context.Background(), docs, 5, 0.5)
	if len(out) != 1 || out[0].ThemeName != "Alive" {
		t.Fatalf("the healthy document must still contribute, got %+v", out)
	}
}
