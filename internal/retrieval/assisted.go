package retrieval

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"docquery/internal/llmjson"
	"docquery/internal/models"
	"docquery/internal/providers"

	"go.uber.org/zap"
)

const searchSystemPrompt = "You are a research assistant that helps find relevant information in documents."

const truncationMarker = "... [content truncated]"

// assistedSearch batches the documents and issues one generation call per
// batch on a bounded worker pool. A failed or malformed batch contributes
// nothing; the others still form the result.
func (e *Engine) assistedSearch(ctx context.Context, req Request, contents []docContent) []models.Match {
	batches := make([][]docContent, 0, (len(contents)+e.batchSize-1)/e.batchSize)
	for i := 0; i < len(contents); i += e.batchSize {
		end := i + e.batchSize
		if end > len(contents) {
			end = len(contents)
		}
		batches = append(batches, contents[i:end])
	}

	workers := e.maxConcurrency
	if workers > len(batches) {
		workers = len(batches)
	}
	sem := make(chan struct{}, workers)
	results := make([][]models.Match, len(batches))
	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []docContent) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("search batch panicked", zap.Int("batch", i), zap.Any("panic", r))
				}
			}()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = e.searchBatch(ctx, req, batch, i)
		}(i, batch)
	}
	wg.Wait()

	merged := make([]models.Match, 0)
	for _, batch := range results {
		for _, m := range batch {
			if m.Relevance >= req.RelevanceThreshold {
				merged = append(merged, m)
			}
		}
	}
	return merged
}

func (e *Engine) searchBatch(ctx context.Context, req Request, batch []docContent, batchIndex int) []models.Match {
	prompt := buildSearchPrompt(req.Query, req.RelevanceThreshold, req.AdvancedMode) + docsBlock(batch, e.maxDocChars)
	resp, info, err := e.llm.Generate(ctx, providers.GenerateRequest{
		Operation: "search",
		System:    searchSystemPrompt,
		Prompt:    prompt,
	})
	if err != nil {
		e.logger.Error("search batch failed",
			zap.Int("batch", batchIndex),
			zap.String("provider", info.Name),
			zap.String("error_type", string(providers.ClassifyError(err))),
			zap.Error(err))
		return nil
	}

	raw, err := llmjson.DecodeArray[rawMatch](resp.Text, "matches", "results")
	if err != nil {
		e.logger.Warn("search batch returned no parseable matches",
			zap.Int("batch", batchIndex),
			zap.String("response", truncateForLog(resp.Text)))
		return nil
	}

	byID := make(map[string]models.Document, len(batch))
	for _, c := range batch {
		byID[c.doc.DocumentID] = c.doc
	}
	out := make([]models.Match, 0, len(raw))
	for _, r := range raw {
		m, ok := r.normalize(byID)
		if !ok {
			continue
		}
		out = append(out, m)
	}
	return out
}

func buildSearchPrompt(query string, threshold float64, advanced bool) string {
	if advanced {
		return fmt.Sprintf(`I need to find information across multiple documents related to this query:
%q

For each document, analyze the content and extract only the most relevant sections that directly answer the query.
Only include text that is truly relevant with a confidence level of at least %.0f%%.

If a document doesn't contain relevant information, exclude it from results.

For each relevant document section, provide:
1. The document identifier and filename
2. The exact text that answers the query (keep it focused and concise)
3. Specify which paragraph/section number if possible
4. Rate the relevance from 0.5 to 1.0 (only include text with relevance >= %.2f)

Format as JSON:
[
  {
    "id": "document_id",
    "filename": "filename.pdf",
    "matched_text": "relevant text that directly answers the query...",
    "paragraph": paragraph_number_if_available,
    "relevance": relevance_score,
    "citation": "formatted citation for this source"
  }
]

Only return the JSON array. Include at most 10 most relevant matches across all documents.`, query, threshold*100, threshold)
	}
	return fmt.Sprintf(`Find relevant information in the following documents for this query:
%q

Return only sections that are directly relevant to the query with a confidence of at least %.0f%%.
Format as JSON:
[
  {
    "id": "document_id",
    "filename": "filename.pdf",
    "matched_text": "the relevant text extract...",
    "paragraph": paragraph_number_if_available,
    "relevance": relevance_score,
    "citation": "citation for this source"
  }
]

Only return the JSON array. Include at most 10 most relevant matches.`, query, threshold*100)
}

func docsBlock(batch []docContent, maxChars int) string {
	b := strings.Builder{}
	b.WriteString("\n\nDocuments to search:\n")
	for _, c := range batch {
		content := c.content
		if len(content) > maxChars {
			content = content[:maxChars] + truncationMarker
		}
		fmt.Fprintf(&b, "\nDOCUMENT ID: %s, FILENAME: %s\n%s\n---\n", c.doc.DocumentID, c.doc.Filename, content)
	}
	return b.String()
}

func truncateForLog(s string) string {
	if len(s) > 400 {
		return s[:400] + "..."
	}
	return s
}
