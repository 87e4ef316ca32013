package models

import "time"

type Document struct {
	DocumentID  string    `json:"document_id"`
	Filename    string    `json:"filename"`
	Filetype    string    `json:"filetype,omitempty"`
	ContentPath string    `json:"content_path,omitempty"`
	Status      string    `json:"status"`
	FailReason  string    `json:"fail_reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Span is a half-open byte range [Start, End) into a document's raw text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type Paragraph struct {
	Index      int    `json:"index"`
	Content    string `json:"content"`
	Position   Span   `json:"position"`
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
}

type Sentence struct {
	Index          int    `json:"index"`
	ParagraphIndex int    `json:"paragraph_index"`
	Content        string `json:"content"`
	Position       Span   `json:"position"`
	ID             string `json:"id"`
	DocumentID     string `json:"document_id"`
}

// Match is a candidate query-relevant passage. Matches are created per query
// and never persisted. Paragraph and Page indices are stored 0-based; the
// Citation string displays them 1-based and is authoritative only after the
// citation resolver has run.
type Match struct {
	DocumentID  string  `json:"id"`
	Filename    string  `json:"filename"`
	MatchedText string  `json:"matched_text"`
	Paragraph   *int    `json:"paragraph,omitempty"`
	Sentence    *int    `json:"sentence,omitempty"`
	Page        *int    `json:"page,omitempty"`
	Relevance   float64 `json:"relevance"`
	Citation    string  `json:"citation,omitempty"`
}

type Theme struct {
	ThemeName           string   `json:"theme_name"`
	Summary             string   `json:"summary,omitempty"`
	SupportingDocuments []string `json:"supporting_documents,omitempty"`
	Evidence            string   `json:"evidence,omitempty"`
	Relevance           float64  `json:"relevance,omitempty"`
}

// Passage is a stored retrieval unit: one paragraph of a document together
// with the page it came from, embedded into the vector index at ingest time.
type Passage struct {
	PassageID        string    `json:"passage_id"`
	DocumentID       string    `json:"document_id"`
	ParagraphIndex   int       `json:"paragraph_index"`
	Page             *int      `json:"page,omitempty"`
	Text             string    `json:"text"`
	EmbeddingVersion string    `json:"embedding_version"`
	CreatedAt        time.Time `json:"created_at"`
}

type PassageResult struct {
	DocumentID     string  `json:"document_id"`
	Filename       string  `json:"filename"`
	PassageID      string  `json:"passage_id"`
	ParagraphIndex *int    `json:"paragraph_index,omitempty"`
	Page           *int    `json:"page,omitempty"`
	Text           string  `json:"text"`
	Score          float64 `json:"score"`
}
