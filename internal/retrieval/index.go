package retrieval

import (
	"context"

	"docquery/internal/models"
	"docquery/internal/providers"
	"docquery/internal/vector"

	"go.uber.org/zap"
)

// IndexCounter reports how many passages carry embeddings; zero means the
// vector index is absent.
type IndexCounter interface {
	CountIndexed(ctx context.Context) (int, error)
}

// IndexRetriever is the vector-backend query path: embed the query, run
// similarity search over the passage index, and map results to matches with
// whatever position metadata the index kept. An absent or failing backend
// produces an informational match, never an error — retrieval degrades, it
// does not abort.
type IndexRetriever struct {
	embedder providers.EmbeddingProvider
	searcher *vector.Searcher
	counter  IndexCounter
	logger   *zap.Logger
}

func NewIndexRetriever(embedder providers.EmbeddingProvider, searcher *vector.Searcher, counter IndexCounter, logger *zap.Logger) *IndexRetriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexRetriever{embedder: embedder, searcher: searcher, counter: counter, logger: logger}
}

func (r *IndexRetriever) Retrieve(ctx context.Context, query string, topK int, documentIDs []string) []models.Match {
	if n, err := r.counter.CountIndexed(ctx); err != nil || n == 0 {
		if err != nil {
			r.logger.Error("vector index unavailable", zap.Error(err))
			return []models.Match{{MatchedText: "Error querying the vector index. Try uploading documents first.", Filename: "System Error", Citation: "System"}}
		}
		return []models.Match{{MatchedText: "No documents have been indexed yet. Please upload documents first.", Filename: "System Message", Citation: "System"}}
	}

	vecs, info, err := r.embedder.Embed(ctx, providers.EmbedRequest{Operation: "query_embed", Inputs: []string{query}})
	if err != nil || len(vecs) == 0 {
		r.logger.Error("query embedding failed", zap.String("provider", info.Name), zap.Error(err))
		return []models.Match{{MatchedText: "Error querying the vector index. Try uploading documents first.", Filename: "System Error", Citation: "System"}}
	}

	results, err := r.searcher.SearchPassages(ctx, vecs[0], topK, vector.SearchFilters{DocumentIDs: documentIDs})
	if err != nil {
		r.logger.Error("passage search failed", zap.Error(err))
		return []models.Match{{MatchedText: "Error querying the vector index. Try uploading documents first.", Filename: "System Error", Citation: "System"}}
	}

	matches := make([]models.Match, 0, len(results))
	for _, res := range results {
		m := models.Match{
			DocumentID:  res.DocumentID,
			Filename:    res.Filename,
			MatchedText: res.Text,
			Paragraph:   res.ParagraphIndex,
			Page:        res.Page,
			Relevance:   clamp01(res.Score),
		}
		if m.Page == nil {
			// Older passages predate page tracking; the extractor's
			// inline markers are the recovery path.
			m.Page = ExtractPageMarker(res.Text)
		}
		matches = append(matches, m)
	}
	return matches
}
