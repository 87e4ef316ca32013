package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ListPDFsActivity)
	w.RegisterActivity(a.ComputeDocumentIDActivity)
	w.RegisterActivity(a.ExtractTextActivity)
	w.RegisterActivity(a.WriteContentActivity)
	w.RegisterActivity(a.SegmentTextActivity)
	w.RegisterActivity(a.EmbedPassagesActivity)
	w.RegisterActivity(a.UpsertPassagesActivity)
	w.RegisterActivity(a.UpdateDocumentStatusActivity)
	w.RegisterActivity(a.WriteDocumentArtifactsActivity)
	w.RegisterActivity(a.WriteIngestSummaryActivity)
	w.RegisterActivity(a.LogLLMCallActivity)
}
