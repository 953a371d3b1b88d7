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
)

// handleSources implements the sources subcommand
func handleSources(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("sources", flag.ExitOnError)
	var jsonOutput bool
	fs.BoolVar(&jsonOutput, "json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    policysearch sources [options]

DESCRIPTION:
    List the indexed policy documents with their chunk counts.

OPTIONS:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	store, err := corpus.Open(cfg.Corpus.Path)
	if err != nil {
		log.Fatalf("Failed to open corpus store: %v", err)
	}
	defer store.Close()

	sources, err := store.Sources(context.Background())
	if err != nil {
		log.Fatalf("Failed to list sources: %v", err)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(sources, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if len(sources) == 0 {
		fmt.Println("No documents indexed. Run `policysearch index` first.")
		return
	}

	fmt.Printf("%d indexed document(s):\n\n", len(sources))
	for _, s := range sources {
		fmt.Printf("   %-40s %6d chunks\n", s.Source, s.Chunks)
	}
}
