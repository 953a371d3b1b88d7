package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/millbrook/policysearch/internal/config"
	"github.com/millbrook/policysearch/internal/retrieval"
)

// handleSearch implements the search subcommand
func handleSearch(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)

	var topK int
	var keywordOnly, jsonOutput bool
	fs.IntVar(&topK, "k", 0, "Number of passages to draw the answer from (default from config)")
	fs.BoolVar(&keywordOnly, "keyword-only", false, "Use keyword search only, skip the embedding service")
	fs.BoolVar(&jsonOutput, "json", false, "Output the answer as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    policysearch search [options] "<question>"

DESCRIPTION:
    Answer a question from the indexed policy documents.
    Semantic search runs first; keyword matching takes over automatically
    when the embedding service is unreachable.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Natural language question
    policysearch search "how do I make a claim?"

    # Keyword matching only
    policysearch search "accidental damage" -keyword-only

    # Draw the answer from more passages
    policysearch search "what does buildings cover include?" -k 5

    # JSON output for scripting
    policysearch search "contents cover limit" -json
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: a question is required\n\n")
		fs.Usage()
		os.Exit(1)
	}
	query := fs.Arg(0)

	if topK > 0 {
		cfg.Search.TopK = topK
		cfg.Search.VectorTopK = topK
	}

	a, err := newApp(cfg, keywordOnly)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	out := a.facade.Search(context.Background(), query)

	if jsonOutput {
		outputJSON(query, out)
		if out.Status == retrieval.StatusError {
			os.Exit(1)
		}
		return
	}
	outputText(query, out)
}

// outputText renders an outcome as human-readable text
func outputText(query string, out retrieval.Outcome) {
	switch out.Status {
	case retrieval.StatusSuccess:
		fmt.Println(out.Answer)
		fmt.Println()
		fmt.Print("Sources:")
		for _, s := range out.Sources {
			fmt.Printf(" %s", s)
		}
		fmt.Println()
	case retrieval.StatusNotFound:
		fmt.Printf("No answer found for: %s\n", query)
		if out.Message != "" {
			fmt.Printf("(%s)\n", out.Message)
		}
	default:
		fmt.Fprintf(os.Stderr, "Search failed: %s\n", out.Message)
		os.Exit(1)
	}
}

// outputJSON renders an outcome as JSON
func outputJSON(query string, out retrieval.Outcome) {
	payload := map[string]interface{}{
		"query":  query,
		"status": out.Status,
	}
	if out.Answer != "" {
		payload["answer"] = out.Answer
	}
	if len(out.Sources) > 0 {
		payload["sources"] = out.Sources
	}
	if out.Message != "" {
		payload["message"] = out.Message
	}

	jsonData, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal outcome: %v", err)
	}
	fmt.Println(string(jsonData))
}
