// Package query ties retrieval, segmentation, citation resolution, and
// theme identification into the one call a frontend needs.
package query

import (
	"context"
	"fmt"

	"docquery/internal/citation"
	"docquery/internal/models"
	"docquery/internal/retrieval"
	"docquery/internal/textseg"
	"docquery/internal/themes"

	"go.uber.org/zap"
)

type Request struct {
	Query              string   `json:"query"`
	DocumentIDs        []string `json:"document_ids,omitempty"`
	RelevanceThreshold float64  `json:"relevance_threshold"`
	AdvancedMode       bool     `json:"advanced_mode"`
	CitationLevel      string   `json:"citation_level"`
	IncludeThemes      bool     `json:"include_themes"`
	ThemeCount         int      `json:"theme_count"`
}

type Response struct {
	Query         string         `json:"query"`
	CitationLevel string         `json:"citation_level"`
	Results       []models.Match `json:"results"`
	Themes        []models.Theme `json:"themes,omitempty"`
}

type Service struct {
	docs       retrieval.DocumentSource
	engine     *retrieval.Engine
	segmenter  *textseg.Segmenter
	aggregator *themes.Aggregator
	logger     *zap.Logger
}

// NewService wires the query pipeline. aggregator may be nil when theme
// identification is not configured; requests asking for themes then get
// matches only.
func NewService(docs retrieval.DocumentSource, engine *retrieval.Engine, segmenter *textseg.Segmenter, aggregator *themes.Aggregator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{docs: docs, engine: engine, segmenter: segmenter, aggregator: aggregator, logger: logger}
}

// Answer runs retrieval, resolves every match to a citation at the requested
// level, and optionally identifies themes over the resolved matches. Only a
// failure to retrieve at all is an error; per-document resolution trouble
// degrades those matches to filename-level citations.
func (s *Service) Answer(ctx context.Context, req Request) (Response, error) {
	if req.Query == "" {
		return Response{}, fmt.Errorf("query must not be empty")
	}
	level := citation.ParseLevel(req.CitationLevel)

	matches, err := s.engine.Retrieve(ctx, retrieval.Request{
		Query:              req.Query,
		DocumentIDs:        req.DocumentIDs,
		RelevanceThreshold: req.RelevanceThreshold,
		AdvancedMode:       req.AdvancedMode,
		Level:              level,
	})
	if err != nil {
		return Response{}, fmt.Errorf("retrieve matches: %w", err)
	}

	resolved := s.resolveCitations(ctx, matches, level)

	resp := Response{
		Query:         req.Query,
		CitationLevel: level.String(),
		Results:       resolved,
	}
	if req.IncludeThemes && s.aggregator != nil {
		resp.Themes = s.aggregator.IdentifyThemes(ctx, resolved, req.ThemeCount)
	}
	return resp, nil
}

// resolveCitations segments each matched document once and resolves all of
// its matches against that single index, preserving the input ranking.
func (s *Service) resolveCitations(ctx context.Context, matches []models.Match, level citation.Level) []models.Match {
	if len(matches) == 0 {
		return []models.Match{}
	}
	if level == citation.LevelDocument {
		out := make([]models.Match, 0, len(matches))
		for _, m := range matches {
			out = append(out, citation.Resolve(m, level, nil))
		}
		return out
	}

	indexes := s.segmentMatchedDocuments(ctx, matches)
	out := make([]models.Match, 0, len(matches))
	for _, m := range matches {
		out = append(out, citation.Resolve(m, level, indexes[m.DocumentID]))
	}
	return out
}

func (s *Service) segmentMatchedDocuments(ctx context.Context, matches []models.Match) map[string]*textseg.Analysis {
	ids := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if m.DocumentID == "" {
			continue
		}
		if _, ok := seen[m.DocumentID]; ok {
			continue
		}
		seen[m.DocumentID] = struct{}{}
		ids = append(ids, m.DocumentID)
	}
	indexes := make(map[string]*textseg.Analysis, len(ids))
	if len(ids) == 0 {
		return indexes
	}

	docs, err := s.docs.ListDocumentsByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("loading matched documents failed; citations stay at document level", zap.Error(err))
		return indexes
	}
	for _, d := range docs {
		content, err := s.docs.LoadContent(d)
		if err != nil {
			s.logger.Warn("matched document unreadable; citation stays at document level",
				zap.String("document_id", d.DocumentID), zap.Error(err))
			continue
		}
		analysis := s.segmenter.Segment(d.DocumentID, content)
		if analysis.Error != "" {
			s.logger.Warn("segmentation failed; citation stays at document level",
				zap.String("document_id", d.DocumentID), zap.String("error", analysis.Error))
			continue
		}
		indexes[d.DocumentID] = &analysis
	}
	return indexes
}
