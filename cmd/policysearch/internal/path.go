package internal

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveDocsRoot resolves the absolute path of the document directory,
// following symlinks so the same directory always maps to the same data
// location regardless of how it was referenced.
func ResolveDocsRoot(docsPath string) (string, error) {
	root := docsPath
	if root == "" {
		root = "."
	}

	absPath, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = resolved
	}

	return absPath, nil
}

// DefaultDataPaths derives the corpus database path and the vector
// artifact directory for a document directory. Data lives per-directory
// under ~/.policysearch/data so multiple policy sets can coexist.
func DefaultDataPaths(docsRoot string) (corpusPath, indexDir string, err error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", "", err
	}
	docsName := SanitizeName(filepath.Base(docsRoot))
	hash := sha1.Sum([]byte(docsRoot))
	suffix := hex.EncodeToString(hash[:])[:12]
	dataDir := filepath.Join(homeDir, ".policysearch", "data", fmt.Sprintf("%s-%s", docsName, suffix))
	return filepath.Join(dataDir, "corpus.db"), filepath.Join(dataDir, "vectors"), nil
}

// SanitizeName replaces characters unsafe for filenames with underscores.
func SanitizeName(name string) string {
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "documents"
	}
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '.' || r == '_' || r == '-' {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	if b.Len() == 0 {
		return "documents"
	}
	return b.String()
}
