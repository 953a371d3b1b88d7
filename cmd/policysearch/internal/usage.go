package internal

import (
	"fmt"
	"os"
)

const Version = "1.0.0"

// PrintUsage writes the top-level help text to stderr.
func PrintUsage() {
	fmt.Fprintf(os.Stderr, `policysearch - Question Answering over Insurance Policy Documents

Version: %s

USAGE:
    policysearch [global options] <command> [command options]

GLOBAL OPTIONS:
    -config <path>
        Path to config file (default: ~/.policysearch/config/policysearch.yaml)

    -docs <path>
        Override document directory

    -v, -version
        Show version information

    -h, -help
        Show this help message

COMMANDS:
    index
        Ingest policy documents and build the search index

    search
        Answer a question from the indexed policy documents

    sources
        List indexed documents with their chunk counts

    stats
        Show corpus and index statistics

EXAMPLES:
    # Index the configured document directory
    policysearch index

    # Index a specific directory
    policysearch -docs ~/policies index

    # Ask a question
    policysearch search "how do I make a claim?"

    # Keyword matching only, no embedding service needed
    policysearch search "accidental damage" -keyword-only

    # JSON output for scripting
    policysearch search "contents cover limit" -json

    # Show what is indexed
    policysearch sources
    policysearch stats

For detailed help on each command, use:
    policysearch <command> -help
`, Version)
}
