package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"docquery/internal/config"
	"docquery/internal/models"
	"docquery/internal/providers"
	"docquery/internal/query"
	"docquery/internal/retrieval"
	"docquery/internal/storage"
	"docquery/internal/textseg"
	"docquery/internal/themes"
	"docquery/internal/vector"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load(".env")

	queryText := flag.String("query", "", "question to answer over the document set")
	docIDs := flag.String("docs", "", "comma-separated document IDs to restrict the search to")
	threshold := flag.Float64("threshold", 0.0, "minimum relevance score for assisted-search matches")
	advanced := flag.Bool("advanced", false, "use the multi-step reasoning prompt")
	level := flag.String("level", "paragraph", "citation granularity: document, paragraph, or sentence")
	includeThemes := flag.Bool("themes", false, "identify themes across the matches")
	themeCount := flag.Int("theme-count", 3, "number of themes to identify")
	docThemes := flag.Bool("doc-themes", false, "identify themes across whole documents instead of answering a query")
	useIndex := flag.Bool("index", false, "query the vector index instead of scanning document contents")
	topK := flag.Int("top-k", 10, "number of index results to return (with -index)")
	flag.Parse()

	if strings.TrimSpace(*queryText) == "" && !*docThemes {
		log.Fatal("usage: query -query \"...\" [-docs id1,id2] [-threshold 0.7] [-level sentence] [-themes] | query -doc-themes [-docs id1,id2]")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close()

	pm, err := providers.NewManager(cfg)
	if err != nil {
		logger.Fatal("configure providers", zap.Error(err))
	}
	segmenter, err := textseg.New()
	if err != nil {
		logger.Fatal("load segmenter", zap.Error(err))
	}

	docs := storage.NewDocumentRepo(db)
	passages := storage.NewPassageRepo(db)

	if *useIndex {
		embedder, ok := pm.Embedder()
		if !ok {
			logger.Fatal("vector index queries need a usable embedding provider")
		}
		retriever := retrieval.NewIndexRetriever(embedder, vector.NewSearcher(db.Pool), passages, logger)
		matches := retriever.Retrieve(ctx, *queryText, *topK, splitIDs(*docIDs))
		printJSON(matches)
		return
	}

	opts := []retrieval.Option{
		retrieval.WithLogger(logger),
		retrieval.WithLimits(cfg.DocBatchSize, cfg.MaxDocChars, cfg.MaxConcurrency, cfg.MaxMatches),
	}
	llm, hasLLM := pm.LLM()
	if hasLLM {
		opts = append(opts, retrieval.WithLLM(llm))
	} else {
		logger.Warn("no usable generation provider; using keyword search", zap.Strings("configured", pm.LLMRefs()))
	}
	engine := retrieval.NewEngine(docs, segmenter, opts...)

	var aggregator *themes.Aggregator
	if hasLLM {
		aggregator = themes.New(llm,
			themes.WithLogger(logger),
			themes.WithSimilarity(cfg.ThemeSimilarity),
			themes.WithWorkers(cfg.MaxConcurrency),
			themes.WithSections(cfg.MaxSections))
	}

	if *docThemes {
		if aggregator == nil {
			logger.Fatal("document theme analysis needs a usable generation provider", zap.Strings("configured", pm.LLMRefs()))
		}
		printJSON(documentThemes(ctx, docs, aggregator, splitIDs(*docIDs), *themeCount, *threshold, logger))
		return
	}

	svc := query.NewService(docs, engine, segmenter, aggregator, logger)
	resp, err := svc.Answer(ctx, query.Request{
		Query:              *queryText,
		DocumentIDs:        splitIDs(*docIDs),
		RelevanceThreshold: *threshold,
		AdvancedMode:       *advanced,
		CitationLevel:      *level,
		IncludeThemes:      *includeThemes,
		ThemeCount:         *themeCount,
	})
	if err != nil {
		logger.Fatal("query failed", zap.Error(err))
	}
	printJSON(resp)
}

// documentThemes runs the cross-document variant over full document contents
// rather than query matches.
func documentThemes(ctx context.Context, docs *storage.DocumentRepo, agg *themes.Aggregator, ids []string, maxThemes int, threshold float64, logger *zap.Logger) []models.Theme {
	var (
		records []models.Document
		err     error
	)
	if len(ids) > 0 {
		records, err = docs.ListDocumentsByIDs(ctx, ids)
	} else {
		records, err = docs.ListDocuments(ctx)
	}
	if err != nil {
		logger.Fatal("list documents", zap.Error(err))
	}
	inputs := make([]themes.DocumentInput, 0, len(records))
	for _, d := range records {
		content, err := docs.LoadContent(d)
		if err != nil {
			logger.Warn("skipping unreadable document", zap.String("document_id", d.DocumentID), zap.Error(err))
			continue
		}
		inputs = append(inputs, themes.DocumentInput{ID: d.Filename, Content: content})
	}
	if threshold <= 0 {
		threshold = 0.5
	}
	return agg.IdentifyAcrossDocuments(ctx, inputs, maxThemes, threshold)
}

func splitIDs(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal(err)
	}
}
