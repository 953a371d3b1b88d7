package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policysearch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
documents:
  dir: /tmp/policies
  chunk_size: 400
embedding:
  provider: ollama
  model: nomic-embed-text
  dimensions: 768
search:
  expand_query: true
`)
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Documents.Dir != "/tmp/policies" {
		t.Errorf("Documents.Dir = %q", cfg.Documents.Dir)
	}
	if cfg.Documents.ChunkSize != 400 {
		t.Errorf("ChunkSize = %d, want explicit 400", cfg.Documents.ChunkSize)
	}
	// Defaults fill the rest.
	if cfg.Documents.ChunkOverlap != 100 {
		t.Errorf("ChunkOverlap = %d, want default 100", cfg.Documents.ChunkOverlap)
	}
	if cfg.Search.TopK != 3 || cfg.Search.VectorTopK != 5 {
		t.Errorf("search defaults = %d/%d, want 3/5", cfg.Search.TopK, cfg.Search.VectorTopK)
	}
	if cfg.Extract.MaxChars != 1000 || cfg.Extract.MaxCharsPriority != 1500 {
		t.Errorf("extract defaults = %d/%d", cfg.Extract.MaxChars, cfg.Extract.MaxCharsPriority)
	}
	if !cfg.Search.ExpandQuery {
		t.Error("ExpandQuery not read from file")
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	_, err := LoadFromFile(missing)
	if err == nil {
		t.Fatal("want error for missing config")
	}
	if !IsConfigNotFound(err) {
		t.Errorf("IsConfigNotFound = false for %T", err)
	}
	var notFound *ConfigNotFoundError
	if nf, ok := err.(*ConfigNotFoundError); ok {
		notFound = nf
	} else {
		t.Fatalf("err type = %T", err)
	}
	if notFound.RequestedPath != missing {
		t.Errorf("RequestedPath = %q, want %q", notFound.RequestedPath, missing)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		c.Documents.Dir = "/tmp/policies"
		c.Embedding.Provider = "ollama"
		c.ApplyDefaults()
		return c
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid ollama", func(c *Config) {}, ""},
		{"openai needs key", func(c *Config) { c.Embedding.Provider = "openai"; c.Embedding.APIKey = "" }, "api_key"},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "onnx" }, "unsupported"},
		{"bad dimensions", func(c *Config) { c.Embedding.Dimensions = -1 }, "dimensions"},
		{"bad batch size", func(c *Config) { c.Embedding.BatchSize = 1000 }, "batch_size"},
		{"overlap too large", func(c *Config) { c.Documents.ChunkOverlap = 500 }, "chunk_overlap"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFileInvalidConfig(t *testing.T) {
	path := writeConfig(t, `
documents:
  dir: /tmp/policies
embedding:
  provider: openai
`)
	if _, err := LoadFromFile(path); err == nil {
		t.Error("want validation error for openai provider without api_key")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		in, want string
	}{
		{"~/policies", filepath.Join(home, "policies")},
		{"$HOME/policies", filepath.Join(home, "policies")},
		{"~", home},
		{"/abs/path", "/abs/path"},
		{"relative/path", "relative/path"},
	}
	for _, tt := range tests {
		if got := expandPath(tt.in); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteDefaultTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "policysearch.yaml")

	created, err := WriteDefaultTemplate(path)
	if err != nil {
		t.Fatalf("WriteDefaultTemplate: %v", err)
	}
	if !created {
		t.Error("created = false on first write")
	}

	// Second call must not clobber the existing file.
	if err := os.WriteFile(path, []byte("documents:\n  dir: /edited\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	created, err = WriteDefaultTemplate(path)
	if err != nil {
		t.Fatalf("WriteDefaultTemplate second call: %v", err)
	}
	if created {
		t.Error("created = true for existing file")
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "/edited") {
		t.Error("existing config was overwritten")
	}

	if _, err := WriteDefaultTemplate(""); err == nil {
		t.Error("want error for empty path")
	}
}
