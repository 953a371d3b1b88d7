package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/millbrook/policysearch/internal/config"
	"github.com/millbrook/policysearch/internal/retrieval"
)

// handleIndex implements the index subcommand
func handleIndex(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Verbose output")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    policysearch index [options]

DESCRIPTION:
    Ingest the configured document directory and build the search index.
    This will:
      1. Read PDF, text, and JSON policy documents
      2. Split them into overlapping chunks
      3. Store the chunks in the local corpus database
      4. Embed every chunk and persist the vector index

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Index the configured document directory
    policysearch index

    # Index a specific directory
    policysearch -docs ~/policies index

    # Verbose output
    policysearch index -v
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	if _, err := os.Stat(cfg.Documents.Dir); os.IsNotExist(err) {
		log.Fatalf("Document directory does not exist: %s", cfg.Documents.Dir)
	}

	if *verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	fmt.Printf("Building index for: %s\n\n", cfg.Documents.Dir)

	a, err := newApp(cfg, false)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	startTime := time.Now()
	ctx := context.Background()

	out := a.facade.Reindex(ctx)
	if out.Status != retrieval.StatusSuccess {
		log.Fatalf("Indexing failed: %s", out.Message)
	}

	duration := time.Since(startTime)

	sources, _ := a.store.Sources(ctx)
	chunks, _ := a.store.Count(ctx)

	fmt.Println()
	fmt.Println("Indexing completed successfully!")
	fmt.Printf("\nDuration: %v\n", duration)
	fmt.Println("\nStatistics:")
	fmt.Printf("   Documents: %6d\n", len(sources))
	fmt.Printf("   Chunks:    %6d\n", chunks)
	fmt.Printf("   Artifacts: %s\n", cfg.Index.Dir)
}
