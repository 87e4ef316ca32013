package workflows

import (
	"path/filepath"
	"strings"
	"time"

	"docquery/internal/activities"
	"docquery/internal/providers"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	QueryGetProgress       = "GetProgress"
	QueryGetDocumentStatus = "GetDocumentStatus"
)

// IngestWorkflow walks a directory of PDFs and runs one child workflow per
// document, at most MaxConcurrentChildren at a time. A failing document is
// counted and skipped; the run always completes.
func IngestWorkflow(ctx workflow.Context, input IngestInput) (string, error) {
	progress := IngestProgress{
		PerDocument:   map[string]string{},
		ChildWorkflow: map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetProgress, func() (IngestProgress, error) {
		return progress, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	var listOut activities.ListPDFsOutput
	if err := workflow.ExecuteActivity(ctx, "ListPDFsActivity", activities.ListPDFsInput{InputDir: input.InputDir}).Get(ctx, &listOut); err != nil {
		return "", err
	}
	paths := listOut.Paths
	progress.Total = len(paths)
	maxChildren := input.MaxConcurrentChildren
	if maxChildren <= 0 {
		maxChildren = 3
	}

	for i := 0; i < len(paths); i += maxChildren {
		end := i + maxChildren
		if end > len(paths) {
			end = len(paths)
		}
		futures := make([]workflow.ChildWorkflowFuture, 0, end-i)
		childPaths := make([]string, 0, end-i)
		for _, path := range paths[i:end] {
			progress.PerDocument[path] = "processing"
			workflowID := "document-" + sanitizeID(filepathBase(path))
			cwo := workflow.ChildWorkflowOptions{WorkflowID: workflowID}
			childCtx := workflow.WithChildOptions(ctx, cwo)
			f := workflow.ExecuteChildWorkflow(childCtx, DocumentProcessWorkflow, DocumentProcessInput{
				DocumentPath: path,
				EmbedVersion: defaultEmbedVersion(input.EmbedVersion),
			})
			futures = append(futures, f)
			childPaths = append(childPaths, path)
			progress.ChildWorkflow[path] = workflowID
		}

		for idx, f := range futures {
			var childStatus string
			err := f.Get(ctx, &childStatus)
			path := childPaths[idx]
			if err != nil {
				progress.Failed++
				progress.PerDocument[path] = "failed"
				continue
			}
			if childStatus == "failed" {
				progress.Failed++
			}
			progress.Done++
			progress.PerDocument[path] = childStatus
		}
	}

	info := workflow.GetInfo(ctx)
	_ = workflow.ExecuteActivity(ctx, "WriteIngestSummaryActivity", activities.WriteIngestSummaryInput{
		RunID: info.WorkflowExecution.RunID,
		Summary: map[string]any{
			"input_dir":           input.InputDir,
			"total":               progress.Total,
			"done":                progress.Done,
			"failed":              progress.Failed,
			"per_document_status": progress.PerDocument,
			"generated_at":        workflow.Now(ctx),
		},
	}).Get(ctx, nil)

	return "completed", nil
}

// DocumentProcessWorkflow runs one document through the ingest pipeline:
// identity, extraction, content write, segmentation, embedding, and passage
// upsert. A document with no extractable text is marked failed and the
// workflow completes normally; only infrastructure errors propagate.
func DocumentProcessWorkflow(ctx workflow.Context, input DocumentProcessInput) (string, error) {
	status := DocumentStatus{
		DocumentPath: input.DocumentPath,
		CurrentStep:  "init",
		Status:       "processing",
		Steps:        map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetDocumentStatus, func() (DocumentStatus, error) {
		return status, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	filename := filepath.Base(input.DocumentPath)
	embedVersion := defaultEmbedVersion(input.EmbedVersion)

	status.CurrentStep = "compute_document_id"
	status.Steps[status.CurrentStep] = "processing"
	var idOut activities.ComputeDocumentIDOutput
	if err := workflow.ExecuteActivity(ctx, "ComputeDocumentIDActivity", activities.ComputeDocumentIDInput{DocumentPath: input.DocumentPath}).Get(ctx, &idOut); err != nil {
		return "", err
	}
	status.DocumentID = idOut.DocumentID
	status.Steps[status.CurrentStep] = "done"

	_ = workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{
		DocumentID: idOut.DocumentID, Filename: filename, Filetype: "pdf", Status: "processing",
	}).Get(ctx, nil)

	status.CurrentStep = "extract_text"
	status.Steps[status.CurrentStep] = "processing"
	var textOut activities.ExtractTextOutput
	if err := workflow.ExecuteActivity(ctx, "ExtractTextActivity", activities.ExtractTextInput{DocumentPath: input.DocumentPath}).Get(ctx, &textOut); err != nil {
		if isNoTextError(err) {
			return failDocument(ctx, &status, idOut.DocumentID, filename, "no extractable text found (OCR not enabled)")
		}
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "write_content"
	status.Steps[status.CurrentStep] = "processing"
	var contentOut activities.WriteContentOutput
	if err := workflow.ExecuteActivity(ctx, "WriteContentActivity", activities.WriteContentInput{DocumentID: idOut.DocumentID, Text: textOut.Text}).Get(ctx, &contentOut); err != nil {
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "segment_text"
	status.Steps[status.CurrentStep] = "processing"
	var segOut activities.SegmentTextOutput
	if err := workflow.ExecuteActivity(ctx, "SegmentTextActivity", activities.SegmentTextInput{
		DocumentID:       idOut.DocumentID,
		Text:             textOut.Text,
		EmbeddingVersion: embedVersion,
	}).Get(ctx, &segOut); err != nil {
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "embed_passages"
	status.Steps[status.CurrentStep] = "processing"
	var embedOut activities.EmbedPassagesOutput
	embedErr := workflow.ExecuteActivity(ctx, "EmbedPassagesActivity", activities.EmbedPassagesInput{
		Operation:  "ingest_embed",
		DocumentID: idOut.DocumentID,
		Input:      segOut.Passages,
	}).Get(ctx, &embedOut)
	embedLog := activities.LogLLMCallInput{
		Operation:    "ingest_embed",
		DocumentID:   idOut.DocumentID,
		ProviderName: embedOut.ProviderName,
		Model:        embedOut.Model,
		Status:       "succeeded",
	}
	if embedErr != nil {
		// Passages are still stored without vectors; the keyword and
		// assisted strategies keep working, only the index path degrades.
		status.Steps[status.CurrentStep] = "failed"
		embedLog.Status = "failed"
		embedLog.ErrorType = string(providers.ClassifyError(embedErr))
	} else {
		status.Steps[status.CurrentStep] = "done"
	}
	_ = workflow.ExecuteActivity(ctx, "LogLLMCallActivity", embedLog).Get(ctx, nil)

	status.CurrentStep = "upsert_passages"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(ctx, "UpsertPassagesActivity", activities.UpsertPassagesInput{
		Passages:         segOut.Passages,
		Vectors:          embedOut.Vectors,
		EmbeddingVersion: embedVersion,
	}).Get(ctx, nil); err != nil {
		if isInvalidTextEncodingError(err) {
			return failDocument(ctx, &status, idOut.DocumentID, filename, "document contains invalid text encoding after extraction")
		}
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "write_artifacts"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(ctx, "WriteDocumentArtifactsActivity", activities.WriteDocumentArtifactsInput{
		DocumentID: idOut.DocumentID,
		Metadata: map[string]any{
			"document_id":     idOut.DocumentID,
			"filename":        filename,
			"pages":           textOut.Pages,
			"paragraph_count": segOut.ParagraphCount,
			"sentence_count":  segOut.SentenceCount,
			"passage_count":   len(segOut.Passages),
		},
		Passages:      segOut.Passages,
		ProcessingLog: map[string]any{"status": "processed", "steps": status.Steps, "generated_at": workflow.Now(ctx)},
	}).Get(ctx, nil); err != nil {
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "mark_processed"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{
		DocumentID:  idOut.DocumentID,
		Filename:    filename,
		Filetype:    "pdf",
		ContentPath: contentOut.ContentPath,
		Status:      "processed",
	}).Get(ctx, nil); err != nil {
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"
	status.CurrentStep = "done"
	status.Status = "processed"
	return status.Status, nil
}

func failDocument(ctx workflow.Context, status *DocumentStatus, documentID, filename, reason string) (string, error) {
	status.Status = "failed"
	status.FailReason = reason
	status.Steps[status.CurrentStep] = "failed"
	_ = workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{
		DocumentID: documentID,
		Filename:   filename,
		Filetype:   "pdf",
		Status:     "failed",
		FailReason: reason,
	}).Get(ctx, nil)
	return status.Status, nil
}

func defaultEmbedVersion(v string) string {
	if strings.TrimSpace(v) == "" {
		return "v1"
	}
	return v
}

func isNoTextError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no extractable text")
}

func isInvalidTextEncodingError(err error) bool {
	e := strings.ToLower(err.Error())
	return strings.Contains(e, "invalid byte sequence") || strings.Contains(e, "sqlstate 22021")
}

func filepathBase(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) == 0 {
		return path
	}
	return parts[len(parts)-1]
}

func sanitizeID(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, ".", "-")
	s = strings.ReplaceAll(s, "/", "-")
	return s
}
