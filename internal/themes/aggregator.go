// Package themes identifies cross-document themes over retrieval matches.
// Themes are evidence-bound by construction: a theme may only cite
// supporting documents that actually appeared in its input, whatever the
// upstream model claims.
package themes

import (
	"context"
	"fmt"
	"sync"

	"docquery/internal/llmjson"
	"docquery/internal/models"
	"docquery/internal/providers"

	"go.uber.org/zap"
)

type Aggregator struct {
	llm         providers.LLMProvider
	logger      *zap.Logger
	similarity  float64
	maxWorkers  int
	maxSections int
}

type Option func(*Aggregator)

func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// WithSimilarity overrides the name-overlap threshold used when merging
// near-duplicate themes.
func WithSimilarity(threshold float64) Option {
	return func(a *Aggregator) { a.similarity = threshold }
}

func WithWorkers(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxWorkers = n
		}
	}
}

// WithSections caps how many sections of each document the cross-document
// variant sends upstream.
func WithSections(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxSections = n
		}
	}
}

// New builds an aggregator. llm may be nil, in which case every operation
// short-circuits to an empty result without attempting an upstream call.
func New(llm providers.LLMProvider, opts ...Option) *Aggregator {
	a := &Aggregator{
		llm:         llm,
		logger:      zap.NewNop(),
		similarity:  0.8,
		maxWorkers:  4,
		maxSections: 5,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// IdentifyThemes extracts exactly themeCount candidate themes across the
// given matches, then verifies supporting-document references against the
// input set. Failures degrade to an empty list; they never propagate.
func (a *Aggregator) IdentifyThemes(ctx context.Context, matches []models.Match, themeCount int) []models.Theme {
	if len(matches) == 0 {
		a.logger.Warn("no matches provided for theme identification")
		return []models.Theme{}
	}
	if a.llm == nil {
		a.logger.Error("cannot identify themes: no generation provider configured")
		return []models.Theme{}
	}
	if themeCount <= 0 {
		themeCount = 3
	}

	docs := make([]sourceExcerpt, 0, len(matches))
	for _, m := range matches {
		docs = append(docs, sourceExcerpt{ID: sourceID(m), Content: m.MatchedText})
	}

	resp, info, err := a.llm.Generate(ctx, providers.GenerateRequest{
		Operation: "themes",
		Prompt:    buildThemePrompt(docs, themeCount),
	})
	if err != nil {
		a.logger.Error("theme identification call failed",
			zap.String("provider", info.Name),
			zap.String("error_type", string(providers.ClassifyError(err))),
			zap.Error(err))
		return []models.Theme{}
	}

	parsed, err := llmjson.DecodeArray[models.Theme](resp.Text, "themes")
	if err != nil {
		a.logger.Warn("theme response not parseable", zap.String("response", resp.Text))
		return []models.Theme{}
	}

	known := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		known[d.ID] = struct{}{}
	}
	return verifyThemes(parsed, known)
}

// verifyThemes drops unverifiable supporting-document references and then
// any theme left without evidence in the input set.
func verifyThemes(parsed []models.Theme, known map[string]struct{}) []models.Theme {
	out := make([]models.Theme, 0, len(parsed))
	for i, t := range parsed {
		if t.ThemeName == "" {
			t.ThemeName = fmt.Sprintf("Theme %d", i+1)
		}
		if t.Summary == "" {
			t.Summary = "No summary provided"
		}
		if t.Evidence == "" {
			t.Evidence = "No evidence provided"
		}
		valid := make([]string, 0, len(t.SupportingDocuments))
		for _, id := range t.SupportingDocuments {
			if _, ok := known[id]; ok {
				valid = append(valid, id)
			}
		}
		t.SupportingDocuments = valid
		if len(valid) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// DocumentInput is one full document handed to the cross-document variant.
type DocumentInput struct {
	ID      string
	Content string
}

// IdentifyAcrossDocuments splits each document into weighted sections, runs
// per-section extraction on a bounded worker pool, and merges near-duplicate
// themes. A failing document contributes nothing; the rest still merge.
func (a *Aggregator) IdentifyAcrossDocuments(ctx context.Context, docs []DocumentInput, maxThemes int, relevanceThreshold float64) []models.Theme {
	if len(docs) == 0 || a.llm == nil {
		if a.llm == nil && len(docs) > 0 {
			a.logger.Error("cannot identify themes: no generation provider configured")
		}
		return []models.Theme{}
	}
	if maxThemes <= 0 {
		maxThemes = 5
	}

	workers := a.maxWorkers
	if workers > len(docs) {
		workers = len(docs)
	}
	sem := make(chan struct{}, workers)
	perDoc := make([][]models.Theme, len(docs))
	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc DocumentInput) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error("theme extraction panicked", zap.String("document", doc.ID), zap.Any("panic", r))
				}
			}()
			sem <- struct{}{}
			defer func() { <-sem }()
			perDoc[i] = a.documentThemes(ctx, doc, relevanceThreshold)
		}(i, doc)
	}
	wg.Wait()

	all := make([]models.Theme, 0)
	for _, ts := range perDoc {
		all = append(all, ts...)
	}
	merged := MergeSimilarThemes(all, a.similarity)
	sortByRelevance(merged)
	if len(merged) > maxThemes {
		merged = merged[:maxThemes]
	}
	return merged
}

func (a *Aggregator) documentThemes(ctx context.Context, doc DocumentInput, relevanceThreshold float64) []models.Theme {
	out := make([]models.Theme, 0)
	for _, section := range ExtractKeySections(doc.Content, a.maxSections) {
		themes := a.sectionThemes(ctx, doc.ID, section, relevanceThreshold)
		out = append(out, themes...)
	}
	return out
}

func (a *Aggregator) sectionThemes(ctx context.Context, docID, section string, relevanceThreshold float64) []models.Theme {
	resp, info, err := a.llm.Generate(ctx, providers.GenerateRequest{
		Operation: "section_themes",
		Prompt:    buildSectionPrompt(section, sectionThemeLimit),
	})
	if err != nil {
		a.logger.Error("section theme call failed",
			zap.String("document", docID),
			zap.String("provider", info.Name),
			zap.Error(err))
		return nil
	}
	parsed, err := llmjson.DecodeArray[models.Theme](resp.Text, "themes")
	if err != nil {
		a.logger.Warn("section theme response not parseable",
			zap.String("document", docID),
			zap.String("response", resp.Text))
		return nil
	}
	out := make([]models.Theme, 0, len(parsed))
	for _, t := range parsed {
		if t.ThemeName == "" || t.Relevance < relevanceThreshold {
			continue
		}
		t.SupportingDocuments = []string{docID}
		out = append(out, t)
	}
	return out
}

func sourceID(m models.Match) string {
	if m.Filename != "" {
		return m.Filename
	}
	return fmt.Sprintf("Doc %s", m.DocumentID)
}
