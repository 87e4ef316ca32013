// Package vector queries the pgvector passage index — the
// retrieval-augmentation backend of the query pipeline.
package vector

import (
	"context"
	"fmt"
	"strings"

	"docquery/internal/models"

	"github.com/jackc/pgx/v5"
)

type SearchFilters struct {
	DocumentIDs      []string
	EmbeddingVersion string
}

type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Searcher struct {
	q Queryer
}

func NewSearcher(q Queryer) *Searcher {
	return &Searcher{q: q}
}

// SearchPassages returns the topK most similar passages with their source
// metadata. Page and paragraph hints ride along so the citation resolver
// can skip the containment scan when the index already knows the position.
func (s *Searcher) SearchPassages(ctx context.Context, queryVec []float32, topK int, filters SearchFilters) ([]models.PassageResult, error) {
	if topK <= 0 {
		topK = 5
	}
	args := []any{ToLiteral(queryVec), topK}
	filterSQL := ""
	if len(filters.DocumentIDs) > 0 {
		args = append(args, filters.DocumentIDs)
		filterSQL += fmt.Sprintf(" AND p.document_id = ANY($%d)", len(args))
	}
	if strings.TrimSpace(filters.EmbeddingVersion) != "" {
		args = append(args, filters.EmbeddingVersion)
		filterSQL += fmt.Sprintf(" AND p.embedding_version = $%d", len(args))
	}

	query := `
SELECT p.document_id,
       d.filename,
       p.passage_id,
       p.paragraph_index,
       p.page,
       p.text,
       1 - (p.embedding <=> $1::vector) AS score
FROM passages p
JOIN documents d ON d.document_id = p.document_id
WHERE p.embedding IS NOT NULL` + filterSQL + `
ORDER BY p.embedding <=> $1::vector
LIMIT $2`

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query passage search: %w", err)
	}
	defer rows.Close()

	results := make([]models.PassageResult, 0, topK)
	for rows.Next() {
		var r models.PassageResult
		if err := rows.Scan(&r.DocumentID, &r.Filename, &r.PassageID, &r.ParagraphIndex, &r.Page, &r.Text, &r.Score); err != nil {
			return nil, fmt.Errorf("scan passage result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passage results: %w", err)
	}
	return results, nil
}

func ToLiteral(v []float32) string {
	parts := make([]string, 0, len(v))
	for _, x := range v {
		parts = append(parts, fmt.Sprintf("%f", x))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
