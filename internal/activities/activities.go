package activities

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"docquery/internal/config"
	"docquery/internal/models"
	"docquery/internal/providers"
	"docquery/internal/storage"
	"docquery/internal/textseg"
	"docquery/internal/util"
	"docquery/internal/vector"

	"github.com/ledongthuc/pdf"
)

type Activities struct {
	cfg          config.Config
	documentRepo *storage.DocumentRepo
	passageRepo  *storage.PassageRepo
	llmAuditRepo *storage.LLMAuditRepo
	providers    *providers.Manager
	segmenter    *textseg.Segmenter
}

func New(cfg config.Config, db *storage.DB) (*Activities, error) {
	pm, err := providers.NewManager(cfg)
	if err != nil {
		return nil, err
	}
	seg, err := textseg.New()
	if err != nil {
		return nil, err
	}
	return &Activities{
		cfg:          cfg,
		documentRepo: storage.NewDocumentRepo(db),
		passageRepo:  storage.NewPassageRepo(db),
		llmAuditRepo: storage.NewLLMAuditRepo(db),
		providers:    pm,
		segmenter:    seg,
	}, nil
}

func (a *Activities) ListPDFsActivity(ctx context.Context, in ListPDFsInput) (ListPDFsOutput, error) {
	_ = ctx
	entries, err := os.ReadDir(in.InputDir)
	if err != nil {
		return ListPDFsOutput{}, fmt.Errorf("read input dir: %w", err)
	}
	paths := make([]string, 0)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(strings.ToLower(name), ".pdf") {
			paths = append(paths, filepath.Join(in.InputDir, name))
		}
	}
	sort.Strings(paths)
	return ListPDFsOutput{Paths: paths}, nil
}

func (a *Activities) ComputeDocumentIDActivity(ctx context.Context, in ComputeDocumentIDInput) (ComputeDocumentIDOutput, error) {
	_ = ctx
	f, err := os.Open(in.DocumentPath)
	if err != nil {
		return ComputeDocumentIDOutput{}, fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()
	sum, err := util.SHA256HexFromReader(f)
	if err != nil {
		return ComputeDocumentIDOutput{}, fmt.Errorf("hash file: %w", err)
	}
	return ComputeDocumentIDOutput{DocumentID: sum}, nil
}

// ExtractTextActivity pulls plain text out of a PDF page by page, prefixing
// each page with an inline marker so page numbers survive into downstream
// passages and citations.
func (a *Activities) ExtractTextActivity(ctx context.Context, in ExtractTextInput) (ExtractTextOutput, error) {
	_ = ctx
	f, r, err := pdf.Open(in.DocumentPath)
	if err != nil {
		return ExtractTextOutput{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	pages := 0
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// A single corrupt page should not sink the document.
			continue
		}
		pageText = util.SanitizeText(pageText)
		if pageText == "" {
			continue
		}
		fmt.Fprintf(&b, "--- Page %d ---\n\n%s\n\n", i, pageText)
		pages++
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return ExtractTextOutput{}, util.ErrNoExtractableText
	}
	return ExtractTextOutput{Text: text, Pages: pages}, nil
}

func (a *Activities) WriteContentActivity(ctx context.Context, in WriteContentInput) (WriteContentOutput, error) {
	_ = ctx
	path := filepath.Join(a.cfg.ContentRoot, in.DocumentID+".txt")
	if err := util.WriteTextAtomic(path, in.Text); err != nil {
		return WriteContentOutput{}, err
	}
	return WriteContentOutput{ContentPath: path}, nil
}

var pageMarkerRe = regexp.MustCompile(`--- Page (\d+) ---`)

// SegmentTextActivity builds the paragraph index of the extracted text and
// turns every paragraph into a stored passage. Each passage is attributed to
// the page whose marker most recently preceded it.
func (a *Activities) SegmentTextActivity(ctx context.Context, in SegmentTextInput) (SegmentTextOutput, error) {
	_ = ctx
	analysis := a.segmenter.Segment(in.DocumentID, in.Text)
	if analysis.Error != "" {
		return SegmentTextOutput{}, fmt.Errorf("segment text: %s", analysis.Error)
	}

	markers := pageMarkers(in.Text)
	passages := make([]PassageItem, 0, len(analysis.Paragraphs))
	for _, p := range analysis.Paragraphs {
		if pageMarkerRe.MatchString(p.Content) && len(strings.TrimSpace(pageMarkerRe.ReplaceAllString(p.Content, ""))) == 0 {
			continue
		}
		paraHash := util.SHA256Hex([]byte(p.Content))
		passages = append(passages, PassageItem{
			PassageID:      util.SHA256Hex([]byte(fmt.Sprintf("%s:%d:%s:%s", in.DocumentID, p.Index, paraHash, in.EmbeddingVersion))),
			DocumentID:     in.DocumentID,
			ParagraphIndex: p.Index,
			Page:           pageAt(markers, p.Position.Start),
			Text:           p.Content,
		})
	}
	return SegmentTextOutput{
		Passages:       passages,
		ParagraphCount: analysis.Stats.ParagraphCount,
		SentenceCount:  analysis.Stats.SentenceCount,
	}, nil
}

type pageMarker struct {
	offset int
	page   int
}

func pageMarkers(text string) []pageMarker {
	idxs := pageMarkerRe.FindAllStringSubmatchIndex(text, -1)
	out := make([]pageMarker, 0, len(idxs))
	for _, m := range idxs {
		page := 0
		fmt.Sscanf(text[m[2]:m[3]], "%d", &page)
		if page < 1 {
			continue
		}
		out = append(out, pageMarker{offset: m[0], page: page})
	}
	return out
}

// pageAt returns the 0-based page of the marker nearest above offset, or nil
// when no marker precedes it.
func pageAt(markers []pageMarker, offset int) *int {
	var page *int
	for _, m := range markers {
		if m.offset > offset {
			break
		}
		p := m.page - 1
		page = &p
	}
	return page
}

func (a *Activities) EmbedPassagesActivity(ctx context.Context, in EmbedPassagesInput) (EmbedPassagesOutput, error) {
	provider, ok := a.providers.Embedder()
	if !ok {
		return EmbedPassagesOutput{}, fmt.Errorf("no usable embedding provider configured")
	}
	inputs := make([]string, 0, len(in.Input))
	for _, p := range in.Input {
		inputs = append(inputs, p.Text)
	}
	vectors, info, err := provider.Embed(ctx, providers.EmbedRequest{
		Operation: in.Operation,
		Inputs:    inputs,
		Dimension: a.cfg.EmbedDim,
	})
	if err != nil {
		return EmbedPassagesOutput{}, err
	}
	return EmbedPassagesOutput{
		Vectors:      vectors,
		ProviderName: info.Name,
		Model:        info.Model,
	}, nil
}

func (a *Activities) UpsertPassagesActivity(ctx context.Context, in UpsertPassagesInput) error {
	records := make([]storage.PassageRecord, 0, len(in.Passages))
	for i, p := range in.Passages {
		var embedding *string
		if i < len(in.Vectors) && len(in.Vectors[i]) > 0 {
			lit := vector.ToLiteral(in.Vectors[i])
			embedding = &lit
		}
		records = append(records, storage.PassageRecord{
			PassageID:        p.PassageID,
			DocumentID:       p.DocumentID,
			ParagraphIndex:   p.ParagraphIndex,
			Page:             p.Page,
			Text:             util.SanitizeText(p.Text),
			EmbeddingVersion: in.EmbeddingVersion,
			EmbeddingVector:  embedding,
		})
	}
	return a.passageRepo.UpsertPassages(ctx, records)
}

func (a *Activities) UpdateDocumentStatusActivity(ctx context.Context, in UpdateDocumentStatusInput) error {
	return a.documentRepo.UpsertDocument(ctx, models.Document{
		DocumentID:  in.DocumentID,
		Filename:    in.Filename,
		Filetype:    in.Filetype,
		ContentPath: in.ContentPath,
		Status:      in.Status,
		FailReason:  in.FailReason,
	})
}

func (a *Activities) WriteDocumentArtifactsActivity(ctx context.Context, in WriteDocumentArtifactsInput) error {
	_ = ctx
	base := filepath.Join(a.cfg.DataOutRoot, "documents", in.DocumentID)
	if err := util.EnsureDir(base); err != nil {
		return err
	}
	if err := util.WriteJSONAtomic(filepath.Join(base, "metadata.json"), in.Metadata); err != nil {
		return err
	}
	rows := make([]any, 0, len(in.Passages))
	for _, p := range in.Passages {
		rows = append(rows, p)
	}
	if err := util.WriteJSONLinesAtomic(filepath.Join(base, "passages.jsonl"), rows); err != nil {
		return err
	}
	return util.WriteJSONAtomic(filepath.Join(base, "processing_log.json"), in.ProcessingLog)
}

func (a *Activities) WriteIngestSummaryActivity(ctx context.Context, in WriteIngestSummaryInput) error {
	_ = ctx
	path := filepath.Join(a.cfg.DataOutRoot, "ingest", in.RunID, "summary.json")
	return util.WriteJSONAtomic(path, in.Summary)
}

func (a *Activities) LogLLMCallActivity(ctx context.Context, in LogLLMCallInput) error {
	return a.llmAuditRepo.Insert(ctx, storage.LLMCallRecord{
		CallID:       in.CallID,
		Operation:    in.Operation,
		DocumentID:   in.DocumentID,
		ProviderName: in.ProviderName,
		Model:        in.Model,
		Status:       in.Status,
		ErrorType:    in.ErrorType,
	})
}
