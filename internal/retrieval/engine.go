// Package retrieval fans a free-text query out over the document set and
// produces ranked matches. Two strategies exist: an LLM-assisted search used
// when a generation provider is available, and a keyword-containment
// fallback used when none is. Either way a single bad document or batch
// degrades that unit only, never the whole query.
package retrieval

import (
	"context"
	"sort"

	"docquery/internal/citation"
	"docquery/internal/models"
	"docquery/internal/providers"
	"docquery/internal/textseg"

	"go.uber.org/zap"
)

type DocumentSource interface {
	ListDocuments(ctx context.Context) ([]models.Document, error)
	ListDocumentsByIDs(ctx context.Context, ids []string) ([]models.Document, error)
	LoadContent(d models.Document) (string, error)
}

type Request struct {
	Query              string
	DocumentIDs        []string
	RelevanceThreshold float64
	AdvancedMode       bool
	Level              citation.Level
}

type Engine struct {
	docs      DocumentSource
	segmenter *textseg.Segmenter
	llm       providers.LLMProvider
	logger    *zap.Logger

	batchSize      int
	maxDocChars    int
	maxConcurrency int
	maxMatches     int
}

type Option func(*Engine)

// WithLLM sets the text-generation provider. A nil provider selects the
// keyword fallback strategy.
func WithLLM(p providers.LLMProvider) Option {
	return func(e *Engine) { e.llm = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithLimits(batchSize, maxDocChars, maxConcurrency, maxMatches int) Option {
	return func(e *Engine) {
		if batchSize > 0 {
			e.batchSize = batchSize
		}
		if maxDocChars > 0 {
			e.maxDocChars = maxDocChars
		}
		if maxConcurrency > 0 {
			e.maxConcurrency = maxConcurrency
		}
		if maxMatches > 0 {
			e.maxMatches = maxMatches
		}
	}
}

func NewEngine(docs DocumentSource, segmenter *textseg.Segmenter, opts ...Option) *Engine {
	e := &Engine{
		docs:           docs,
		segmenter:      segmenter,
		logger:         zap.NewNop(),
		batchSize:      5,
		maxDocChars:    8000,
		maxConcurrency: 4,
		maxMatches:     10,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type docContent struct {
	doc     models.Document
	content string
}

// Retrieve runs the query and returns at most maxMatches matches, sorted by
// relevance descending. Ties keep original batch-then-scan order.
func (e *Engine) Retrieve(ctx context.Context, req Request) ([]models.Match, error) {
	docs, err := e.resolveDocuments(ctx, req.DocumentIDs)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		e.logger.Warn("no documents available for search")
		return []models.Match{}, nil
	}

	contents := e.loadContents(docs)
	if len(contents) == 0 {
		e.logger.Warn("no document contents available for search")
		return []models.Match{}, nil
	}

	var matches []models.Match
	if e.llm != nil {
		matches = e.assistedSearch(ctx, req, contents)
	} else {
		matches = e.keywordSearch(req, contents)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Relevance > matches[j].Relevance
	})
	if len(matches) > e.maxMatches {
		matches = matches[:e.maxMatches]
	}
	return matches, nil
}

// resolveDocuments narrows the search set. Requested IDs that do not exist
// are logged and skipped so the rest of the call can proceed.
func (e *Engine) resolveDocuments(ctx context.Context, ids []string) ([]models.Document, error) {
	if len(ids) == 0 {
		return e.docs.ListDocuments(ctx)
	}
	found, err := e.docs.ListDocumentsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		present := make(map[string]struct{}, len(found))
		for _, d := range found {
			present[d.DocumentID] = struct{}{}
		}
		missing := make([]string, 0)
		for _, id := range ids {
			if _, ok := present[id]; !ok {
				missing = append(missing, id)
			}
		}
		e.logger.Warn("some requested documents not found", zap.Strings("missing", missing))
	}
	return found, nil
}

func (e *Engine) loadContents(docs []models.Document) []docContent {
	out := make([]docContent, 0, len(docs))
	for _, d := range docs {
		content, err := e.docs.LoadContent(d)
		if err != nil {
			e.logger.Error("skipping unreadable document", zap.String("document_id", d.DocumentID), zap.Error(err))
			continue
		}
		out = append(out, docContent{doc: d, content: content})
	}
	return out
}
