package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/millbrook/policysearch/internal/config"
	"github.com/millbrook/policysearch/internal/corpus"
)

// ChunkWriter is the slice of the corpus store the ingestor writes through.
type ChunkWriter interface {
	ReplaceForSource(ctx context.Context, source string, chunks []corpus.Chunk) error
}

// Ingestor scans a document directory, splits each matching file into
// chunks, and replaces that source's chunk set in the corpus store.
type Ingestor struct {
	cfg      config.DocumentsConfig
	writer   ChunkWriter
	splitter *Splitter
	progress ProgressReporter
}

// Summary reports what one ingestion run produced.
type Summary struct {
	Files  int
	Chunks int
}

// NewIngestor creates an ingestor for the configured document directory.
// progress may be nil.
func NewIngestor(cfg config.DocumentsConfig, writer ChunkWriter, progress ProgressReporter) *Ingestor {
	return &Ingestor{
		cfg:      cfg,
		writer:   writer,
		splitter: NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		progress: progress,
	}
}

// Run ingests every matching document. Unreadable files are logged and
// skipped; the run only fails if the document directory itself is missing
// or the store rejects a write.
func (ing *Ingestor) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	if ing.cfg.Dir == "" {
		return summary, fmt.Errorf("documents dir is not configured")
	}
	if _, err := os.Stat(ing.cfg.Dir); err != nil {
		return summary, fmt.Errorf("documents dir %s: %w", ing.cfg.Dir, err)
	}

	files, err := ing.collectFiles()
	if err != nil {
		return summary, err
	}

	if ing.progress != nil {
		ing.progress.Start(len(files))
		defer ing.progress.Finish()
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		chunks, err := ing.chunkFile(path)
		if err != nil {
			log.Printf("ingest: skipping %s: %v", filepath.Base(path), err)
			if ing.progress != nil {
				ing.progress.Increment()
			}
			continue
		}
		source := filepath.Base(path)
		if err := ing.writer.ReplaceForSource(ctx, source, chunks); err != nil {
			return summary, fmt.Errorf("store chunks for %s: %w", source, err)
		}
		summary.Files++
		summary.Chunks += len(chunks)
		if ing.progress != nil {
			ing.progress.Increment()
		}
	}

	return summary, nil
}

func (ing *Ingestor) collectFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(ing.cfg.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(ing.cfg.Dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !matchAny(ing.cfg.Include, rel) {
			return nil
		}
		if matchAny(ing.cfg.Exclude, rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan documents dir: %w", err)
	}
	return files, nil
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		matched, _ := doublestar.Match(pattern, rel)
		if matched {
			return true
		}
		// also match against the bare filename so "*.txt" works at any depth
		matched, _ = doublestar.Match(pattern, filepath.Base(rel))
		if matched {
			return true
		}
	}
	return false
}

func (ing *Ingestor) chunkFile(path string) ([]corpus.Chunk, error) {
	text, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}

	kind := KindForPath(path)
	source := filepath.Base(path)
	minLen := ing.cfg.MinChunkLen

	var chunks []corpus.Chunk
	for _, piece := range ing.splitter.Split(text) {
		if len(piece) < minLen {
			continue
		}
		chunks = append(chunks, corpus.Chunk{
			Content: piece,
			Source:  source,
			Seq:     len(chunks),
			Kind:    kind,
		})
	}
	return chunks, nil
}
