package internal

import (
	"fmt"
	"os"

	"github.com/millbrook/policysearch/internal/config"
)

// LoadConfig reads the YAML configuration from the given path, or from
// the default location when the path is empty.
func LoadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// PrintConfigExample prints a complete YAML configuration example to
// stderr so users can create their own config file quickly.
func PrintConfigExample() {
	homeDir, _ := os.UserHomeDir()
	configPath := fmt.Sprintf("%s/.policysearch/config/policysearch.yaml", homeDir)

	fmt.Fprintf(os.Stderr, `Create a configuration file at %s:

# Policy documents to index (required)
documents:
  dir: ~/policy-documents
  include:
    - "*.pdf"
    - "*.txt"
    - "*.json"
  chunk_size: 500
  chunk_overlap: 100

# Embedding service configuration (required)
embedding:
  # Provider: "openai" | "ollama"
  provider: openai
  api_key: your-api-key
  endpoint: https://api.openai.com/v1
  model: text-embedding-3-small
  dimensions: 1536
  batch_size: 32

# For a local Ollama server, use:
# embedding:
#   provider: ollama
#   ollama_url: http://localhost:11434
#   model: all-minilm
#   dimensions: 384

search:
  top_k: 3
  expand_query: true

Usage:
  1. Create the config file
  2. Run: policysearch index
  3. Ask: policysearch search "how do I make a claim?"
`, configPath)
}
