package storage

import (
	"context"
	"fmt"
	"os"

	"docquery/internal/models"
)

type DocumentRepo struct {
	db *DB
}

func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) UpsertDocument(ctx context.Context, d models.Document) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO documents (document_id, filename, filetype, content_path, status, fail_reason)
VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), $5, NULLIF($6,''))
ON CONFLICT (document_id)
DO UPDATE SET
  filename = EXCLUDED.filename,
  filetype = COALESCE(EXCLUDED.filetype, documents.filetype),
  content_path = COALESCE(EXCLUDED.content_path, documents.content_path),
  status = EXCLUDED.status,
  fail_reason = EXCLUDED.fail_reason,
  updated_at = NOW()`,
		d.DocumentID, d.Filename, d.Filetype, d.ContentPath, d.Status, d.FailReason,
	)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (r *DocumentRepo) UpdateStatus(ctx context.Context, documentID, status, failReason string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE documents SET status=$2, fail_reason=NULLIF($3,''), updated_at=NOW() WHERE document_id=$1`,
		documentID, status, failReason)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return nil
}

func (r *DocumentRepo) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return r.list(ctx, `
SELECT document_id, filename, COALESCE(filetype,''), COALESCE(content_path,''), status, COALESCE(fail_reason,''), created_at, updated_at
FROM documents
ORDER BY created_at ASC`)
}

// ListDocumentsByIDs returns the subset of requested documents that exist;
// missing IDs are the caller's discrepancy to log, not an error here.
func (r *DocumentRepo) ListDocumentsByIDs(ctx context.Context, ids []string) ([]models.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `
SELECT document_id, filename, COALESCE(filetype,''), COALESCE(content_path,''), status, COALESCE(fail_reason,''), created_at, updated_at
FROM documents
WHERE document_id = ANY($1)
ORDER BY created_at ASC`, ids)
}

func (r *DocumentRepo) list(ctx context.Context, sql string, args ...any) ([]models.Document, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	out := make([]models.Document, 0)
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.DocumentID, &d.Filename, &d.Filetype, &d.ContentPath, &d.Status, &d.FailReason, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

// LoadContent reads the document's extracted raw text from disk. The text
// is owned externally and loaded on demand; a read failure affects this
// document only.
func (r *DocumentRepo) LoadContent(d models.Document) (string, error) {
	if d.ContentPath == "" {
		return "", fmt.Errorf("document %s has no content path", d.DocumentID)
	}
	b, err := os.ReadFile(d.ContentPath)
	if err != nil {
		return "", fmt.Errorf("read document content %s: %w", d.DocumentID, err)
	}
	return string(b), nil
}
