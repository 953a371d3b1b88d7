package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// KindForPath reports the chunk kind tag for a source file.
func KindForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".pdf":
		return "pdf"
	default:
		return "text"
	}
}

// ReadDocument extracts the plain text of one source document. JSON files
// are flattened to an indented text rendering; PDFs are reduced to their
// page text.
func ReadDocument(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return readJSONDocument(path)
	case ".pdf":
		return readPDFDocument(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		return string(data), nil
	}
}

func readJSONDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	switch v := parsed.(type) {
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			rendered, err := json.MarshalIndent(item, "", "  ")
			if err != nil {
				return "", fmt.Errorf("render %s: %w", filepath.Base(path), err)
			}
			parts = append(parts, string(rendered))
		}
		return strings.Join(parts, "\n"), nil
	default:
		rendered, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("render %s: %w", filepath.Base(path), err)
		}
		return string(rendered), nil
	}
}

func readPDFDocument(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer file.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text from %s: %w", filepath.Base(path), err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read text from %s: %w", filepath.Base(path), err)
	}
	return buf.String(), nil
}
