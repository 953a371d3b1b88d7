package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus,omitempty"`
	Documents DocumentsConfig `yaml:"documents"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index,omitempty"`
	Search    SearchConfig    `yaml:"search,omitempty"`
	Extract   ExtractConfig   `yaml:"extract,omitempty"`
}

// CorpusConfig holds chunk store configuration
type CorpusConfig struct {
	// Path to the SQLite corpus database file.
	// If empty, uses ~/.policysearch/data/corpus.db
	Path string `yaml:"path,omitempty"`
}

// DocumentsConfig describes where source policy documents live and how
// they are split into chunks.
type DocumentsConfig struct {
	Dir          string   `yaml:"dir"`
	Include      []string `yaml:"include,omitempty"`
	Exclude      []string `yaml:"exclude,omitempty"`
	ChunkSize    int      `yaml:"chunk_size,omitempty"`
	ChunkOverlap int      `yaml:"chunk_overlap,omitempty"`
	MinChunkLen  int      `yaml:"min_chunk_len,omitempty"` // chunks shorter than this are skipped
}

// EmbeddingConfig holds embedding service configuration
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "openai" | "ollama"

	// OpenAI-compatible endpoint
	APIKey   string `yaml:"api_key,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
	Model    string `yaml:"model,omitempty"`

	// Ollama specific
	OllamaURL string `yaml:"ollama_url,omitempty"`

	// Embedding parameters
	Dimensions int `yaml:"dimensions,omitempty"` // vector size, model-dependent
	BatchSize  int `yaml:"batch_size,omitempty"`
}

// IndexConfig holds embedding index configuration
type IndexConfig struct {
	// Directory holding the persisted index artifacts
	// (index.bin, documents.json, metadata.json).
	// If empty, uses ~/.policysearch/data/index
	Dir string `yaml:"dir,omitempty"`
}

// SearchConfig holds retrieval configuration
type SearchConfig struct {
	TopK         int      `yaml:"top_k,omitempty"`         // results kept per query
	VectorTopK   int      `yaml:"vector_top_k,omitempty"`  // candidates pulled from the vector index
	ExpandQuery  bool     `yaml:"expand_query"`            // topic-based query expansion
	SynonymsFile string   `yaml:"synonyms_file,omitempty"` // optional override for the built-in topic table
	StopWords    []string `yaml:"stop_words,omitempty"`    // optional override for the lexical stop-word set
}

// ExtractConfig holds passage extraction limits
type ExtractConfig struct {
	MaxSentences     int `yaml:"max_sentences,omitempty"`
	MaxChars         int `yaml:"max_chars,omitempty"`          // general queries
	MaxCharsPriority int `yaml:"max_chars_priority,omitempty"` // contact/claim queries
	AnswerMaxChars   int `yaml:"answer_max_chars,omitempty"`   // overall response cap
}

// Load loads configuration from the default config file
// Default location: ~/.policysearch/config/policysearch.yaml
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".policysearch", "config", "policysearch.yaml")
	return LoadFromFile(configPath)
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			homeDir, _ := os.UserHomeDir()
			defaultPath := filepath.Join(homeDir, ".policysearch", "config", "policysearch.yaml")
			return nil, &ConfigNotFoundError{
				RequestedPath: path,
				DefaultPath:   defaultPath,
			}
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// ConfigNotFoundError is returned when config file is not found
type ConfigNotFoundError struct {
	RequestedPath string
	DefaultPath   string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("config file not found at: %s\n\nDefault location: %s\n\nYou can:\n"+
		"  1. Create the config file at the default location\n"+
		"  2. Specify a custom path with -config flag\n"+
		"  3. Rerun 'policysearch index' to create a template",
		e.RequestedPath, e.DefaultPath)
}

// IsConfigNotFound checks if error is config not found
func IsConfigNotFound(err error) bool {
	_, ok := err.(*ConfigNotFoundError)
	return ok
}

// expandPath expands ~ and $HOME to the user's home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "$HOME/") || path == "$HOME" {
		homeDir := os.Getenv("HOME")
		if homeDir == "" {
			var err error
			homeDir, err = os.UserHomeDir()
			if err != nil {
				return path
			}
		}
		if path == "$HOME" {
			return homeDir
		}
		return filepath.Join(homeDir, path[6:])
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return homeDir
		}
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// ApplyDefaults sets default values for missing configuration
func (c *Config) ApplyDefaults() {
	if c.Corpus.Path != "" {
		c.Corpus.Path = expandPath(c.Corpus.Path)
	}

	if len(c.Documents.Include) == 0 {
		c.Documents.Include = []string{"**/*.txt", "**/*.json", "**/*.pdf"}
	}
	if c.Documents.ChunkSize == 0 {
		c.Documents.ChunkSize = 500
	}
	if c.Documents.ChunkOverlap == 0 {
		c.Documents.ChunkOverlap = 100
	}
	if c.Documents.MinChunkLen == 0 {
		c.Documents.MinChunkLen = 50
	}
	if c.Documents.Dir != "" {
		c.Documents.Dir = expandPath(c.Documents.Dir)
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "all-minilm-l6-v2"
	}
	if c.Embedding.Endpoint == "" {
		c.Embedding.Endpoint = "https://api.openai.com/v1"
	}
	if c.Embedding.OllamaURL == "" {
		c.Embedding.OllamaURL = "http://localhost:11434"
	}
	if c.Embedding.Dimensions == 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Embedding.BatchSize == 0 {
		c.Embedding.BatchSize = 32
	}

	if c.Index.Dir != "" {
		c.Index.Dir = expandPath(c.Index.Dir)
	}

	if c.Search.TopK == 0 {
		c.Search.TopK = 3
	}
	if c.Search.VectorTopK == 0 {
		c.Search.VectorTopK = 5
	}

	if c.Extract.MaxSentences == 0 {
		c.Extract.MaxSentences = 8
	}
	if c.Extract.MaxChars == 0 {
		c.Extract.MaxChars = 1000
	}
	if c.Extract.MaxCharsPriority == 0 {
		c.Extract.MaxCharsPriority = 1500
	}
	if c.Extract.AnswerMaxChars == 0 {
		c.Extract.AnswerMaxChars = 2000
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "openai":
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("openai provider requires api_key")
		}
	case "ollama":
		// local endpoint, no key required
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}

	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive, got: %d", c.Embedding.Dimensions)
	}

	if c.Embedding.BatchSize <= 0 || c.Embedding.BatchSize > 256 {
		return fmt.Errorf("batch_size must be between 1 and 256, got: %d", c.Embedding.BatchSize)
	}

	if c.Documents.ChunkOverlap >= c.Documents.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)",
			c.Documents.ChunkOverlap, c.Documents.ChunkSize)
	}

	return nil
}

const defaultConfigTemplate = `# policysearch configuration
#
# Copy and edit this file for your environment.
# Default location: $HOME/.policysearch/config/policysearch.yaml

documents:
  # Directory containing raw policy documents (.txt, .json, .pdf)
  dir: ./data/raw_policies
  chunk_size: 500
  chunk_overlap: 100

embedding:
  # Provider: "openai" (any OpenAI-compatible endpoint) or "ollama"
  provider: openai
  api_key: your-api-key
  endpoint: https://api.openai.com/v1
  model: all-minilm-l6-v2
  dimensions: 384
  batch_size: 32

  # Ollama configuration (alternative)
  # provider: ollama
  # ollama_url: http://localhost:11434
  # model: nomic-embed-text
  # dimensions: 768

search:
  top_k: 3
  vector_top_k: 5
  expand_query: true
`

// WriteDefaultTemplate creates a default configuration file if it does not exist.
// It returns true if a file was created, false if it already existed.
func WriteDefaultTemplate(path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0644); err != nil {
		return false, fmt.Errorf("failed to write config template: %w", err)
	}

	return true, nil
}
