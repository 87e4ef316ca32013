package workflows

type IngestInput struct {
	InputDir              string `json:"input_dir"`
	EmbedVersion          string `json:"embed_version"`
	MaxConcurrentChildren int    `json:"max_concurrent_children"`
}

type IngestProgress struct {
	Total         int               `json:"total"`
	Done          int               `json:"done"`
	Failed        int               `json:"failed"`
	PerDocument   map[string]string `json:"per_document"`
	ChildWorkflow map[string]string `json:"child_workflow"`
}

type DocumentProcessInput struct {
	DocumentPath string `json:"document_path"`
	EmbedVersion string `json:"embed_version"`
}

type DocumentStatus struct {
	DocumentPath string            `json:"document_path"`
	DocumentID   string            `json:"document_id"`
	CurrentStep  string            `json:"current_step"`
	Status       string            `json:"status"`
	FailReason   string            `json:"fail_reason,omitempty"`
	Steps        map[string]string `json:"steps"`
}
