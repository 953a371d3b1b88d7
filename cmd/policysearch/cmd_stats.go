package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/millbrook/policysearch/internal/config"
	"github.com/millbrook/policysearch/internal/corpus"
	"github.com/millbrook/policysearch/internal/embedding"
	"github.com/millbrook/policysearch/internal/index"
)

// handleStats implements the stats subcommand
func handleStats(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	var jsonOutput bool
	fs.BoolVar(&jsonOutput, "json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    policysearch stats [options]

DESCRIPTION:
    Show statistics about the corpus and the vector index.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Show human-readable statistics
    policysearch stats

    # JSON output
    policysearch stats -json
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	store, err := corpus.Open(cfg.Corpus.Path)
	if err != nil {
		log.Fatalf("Failed to open corpus store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	sources, _ := store.Sources(ctx)
	chunkCount, _ := store.Count(ctx)

	// The index loads without the embedding backend; stats must work
	// offline.
	svc, err := embedding.NewService(&cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to configure embedding service: %v", err)
	}
	ix := index.New(cfg.Index.Dir, svc)
	if err := ix.Load(); err != nil {
		log.Fatalf("Failed to load vector index: %v", err)
	}

	if jsonOutput {
		stats := map[string]interface{}{
			"documents":  len(sources),
			"chunks":     chunkCount,
			"embeddings": ix.Len(),
			"dimensions": svc.Dimensions(),
			"index_dir":  cfg.Index.Dir,
		}
		jsonData, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("Index Statistics")
	fmt.Println()
	fmt.Printf("Documents:  %6d\n", len(sources))
	fmt.Printf("Chunks:     %6d\n", chunkCount)
	fmt.Printf("Embeddings: %6d\n", ix.Len())
	fmt.Printf("Dimensions: %6d\n", svc.Dimensions())
	fmt.Printf("Artifacts:  %s\n", cfg.Index.Dir)
	if ix.Len() != chunkCount {
		fmt.Println()
		fmt.Println("Note: embedding count differs from chunk count; run `policysearch index` to rebuild.")
	}
}
