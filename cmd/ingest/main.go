package main

import (
	"context"
	"flag"
	"log"
	"time"

	"docquery/internal/config"
	"docquery/internal/workflows"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	inputDir := flag.String("in", cfg.DataInRoot, "directory of PDFs to ingest")
	embedVersion := flag.String("embed-version", cfg.EmbedVersion, "embedding version tag for stored passages")
	wait := flag.Bool("wait", true, "block until the ingest run completes")
	flag.Parse()

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "ingest-" + uuid.NewString(),
		TaskQueue: cfg.TemporalTaskQueue,
	}, workflows.IngestWorkflow, workflows.IngestInput{
		InputDir:              *inputDir,
		EmbedVersion:          *embedVersion,
		MaxConcurrentChildren: cfg.IngestMaxChildren,
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("started ingest workflow id=%s run=%s dir=%s", run.GetID(), run.GetRunID(), *inputDir)

	if !*wait {
		return
	}
	start := time.Now()
	var result string
	if err := run.Get(ctx, &result); err != nil {
		log.Fatal(err)
	}
	log.Printf("ingest %s in %s", result, time.Since(start).Round(time.Second))
}
