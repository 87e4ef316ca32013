package activities

type ListPDFsInput struct {
	InputDir string `json:"input_dir"`
}

type ListPDFsOutput struct {
	Paths []string `json:"paths"`
}

type ComputeDocumentIDInput struct {
	DocumentPath string `json:"document_path"`
}

type ComputeDocumentIDOutput struct {
	DocumentID string `json:"document_id"`
}

type ExtractTextInput struct {
	DocumentPath string `json:"document_path"`
}

type ExtractTextOutput struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
}

type WriteContentInput struct {
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
}

type WriteContentOutput struct {
	ContentPath string `json:"content_path"`
}

type SegmentTextInput struct {
	DocumentID       string `json:"document_id"`
	Text             string `json:"text"`
	EmbeddingVersion string `json:"embedding_version"`
}

type PassageItem struct {
	PassageID      string `json:"passage_id"`
	DocumentID     string `json:"document_id"`
	ParagraphIndex int    `json:"paragraph_index"`
	Page           *int   `json:"page,omitempty"`
	Text           string `json:"text"`
}

type SegmentTextOutput struct {
	Passages       []PassageItem `json:"passages"`
	ParagraphCount int           `json:"paragraph_count"`
	SentenceCount  int           `json:"sentence_count"`
}

type EmbedPassagesInput struct {
	Operation  string        `json:"operation"`
	DocumentID string        `json:"document_id"`
	Input      []PassageItem `json:"input"`
}

type EmbedPassagesOutput struct {
	Vectors      [][]float32 `json:"vectors"`
	ProviderName string      `json:"provider_name"`
	Model        string      `json:"model"`
}

type UpsertPassagesInput struct {
	Passages         []PassageItem `json:"passages"`
	Vectors          [][]float32   `json:"vectors,omitempty"`
	EmbeddingVersion string        `json:"embedding_version"`
}

type UpdateDocumentStatusInput struct {
	DocumentID  string `json:"document_id"`
	Filename    string `json:"filename"`
	Filetype    string `json:"filetype"`
	ContentPath string `json:"content_path"`
	Status      string `json:"status"`
	FailReason  string `json:"fail_reason"`
}

type WriteDocumentArtifactsInput struct {
	DocumentID    string         `json:"document_id"`
	Metadata      map[string]any `json:"metadata"`
	Passages      []PassageItem  `json:"passages"`
	ProcessingLog map[string]any `json:"processing_log"`
}

type WriteIngestSummaryInput struct {
	RunID   string         `json:"run_id"`
	Summary map[string]any `json:"summary"`
}

type LogLLMCallInput struct {
	CallID       string `json:"call_id"`
	Operation    string `json:"operation"`
	DocumentID   string `json:"document_id"`
	ProviderName string `json:"provider_name"`
	Model        string `json:"model"`
	Status       string `json:"status"`
	ErrorType    string `json:"error_type"`
}
