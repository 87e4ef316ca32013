package storage

import (
	"context"
	"fmt"

	"docquery/internal/models"
)

type PassageRecord struct {
	PassageID        string
	DocumentID       string
	ParagraphIndex   int
	Page             *int
	Text             string
	EmbeddingVersion string
	EmbeddingVector  *string
}

type PassageRepo struct {
	db *DB
}

func NewPassageRepo(db *DB) *PassageRepo {
	return &PassageRepo{db: db}
}

func (r *PassageRepo) UpsertPassages(ctx context.Context, passages []PassageRecord) error {
	if len(passages) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx upsert passages: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, p := range passages {
		_, err := tx.Exec(ctx, `
INSERT INTO passages (passage_id, document_id, paragraph_index, page, text, embedding_version, embedding)
VALUES ($1, $2, $3, $4, $5, $6, CASE WHEN $7::text IS NULL THEN NULL ELSE $7::vector END)
ON CONFLICT (passage_id)
DO UPDATE SET
  text = EXCLUDED.text,
  page = EXCLUDED.page,
  embedding_version = EXCLUDED.embedding_version,
  embedding = COALESCE(EXCLUDED.embedding, passages.embedding)`,
			p.PassageID, p.DocumentID, p.ParagraphIndex, p.Page, p.Text, p.EmbeddingVersion, p.EmbeddingVector,
		)
		if err != nil {
			return fmt.Errorf("upsert passage %s: %w", p.PassageID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit passages tx: %w", err)
	}
	return nil
}

func (r *PassageRepo) ListPassagesByDocument(ctx context.Context, documentID string) ([]models.Passage, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT passage_id, document_id, paragraph_index, page, text, embedding_version, created_at
FROM passages
WHERE document_id=$1
ORDER BY paragraph_index ASC`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list passages by document: %w", err)
	}
	defer rows.Close()
	out := make([]models.Passage, 0, 64)
	for rows.Next() {
		var p models.Passage
		if err := rows.Scan(&p.PassageID, &p.DocumentID, &p.ParagraphIndex, &p.Page, &p.Text, &p.EmbeddingVersion, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan passage: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passages: %w", err)
	}
	return out, nil
}

// CountIndexed reports how many passages carry an embedding. Zero means the
// vector index is effectively absent and the query path should answer with
// an informational result instead of failing.
func (r *PassageRepo) CountIndexed(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM passages WHERE embedding IS NOT NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count indexed passages: %w", err)
	}
	return n, nil
}
