package index

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/millbrook/policysearch/internal/corpus"
)

// ErrPersistence marks a failure to write rebuilt index artifacts. The
// previous on-disk artifacts remain valid on this path.
var ErrPersistence = errors.New("index persistence failed")

const (
	indexFile = "index.bin"
	docsFile  = "documents.json"
	metaFile  = "metadata.json"
)

// Embedder is the slice of the embedding service the index needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Index is the persisted nearest-neighbor index over chunk embeddings.
// Three co-located artifacts back it: the vector data, the ordered chunk
// texts, and the ordered per-chunk metadata. They are loaded and rebuilt
// as a unit; any inconsistency between them resets the index to empty.
type Index struct {
	dir      string
	embedder Embedder

	mu        sync.RWMutex
	flat      *Flat
	documents []string
	meta      []Meta
}

// New creates an index rooted at dir. Call Load to pick up persisted state.
func New(dir string, embedder Embedder) *Index {
	return &Index{
		dir:      dir,
		embedder: embedder,
		flat:     NewFlat(embedder.Dimensions()),
	}
}

// Load reads the three persisted artifacts. A missing, corrupted, or
// length-mismatched artifact set falls back to an empty index; Load never
// fails the caller over bad persisted state.
func (ix *Index) Load() error {
	vectors, docs, meta, err := readArtifacts(ix.dir, ix.embedder.Dimensions())
	if err != nil {
		log.Printf("index: persisted state unusable, starting empty: %v", err)
		vectors, docs, meta = nil, nil, nil
	}

	flat := NewFlat(ix.embedder.Dimensions())
	if err := flat.Add(vectors...); err != nil {
		log.Printf("index: persisted vectors unusable, starting empty: %v", err)
		flat = NewFlat(ix.embedder.Dimensions())
		docs, meta = nil, nil
	}

	ix.mu.Lock()
	ix.flat = flat
	ix.documents = docs
	ix.meta = meta
	ix.mu.Unlock()
	return nil
}

// Rebuild embeds every chunk, replaces the whole index, and persists it.
// On embedding failure nothing changes; on persistence failure the previous
// on-disk artifacts are left untouched and the in-memory index keeps its
// pre-rebuild state.
func (ix *Index) Rebuild(ctx context.Context, chunks []corpus.Chunk) error {
	texts := make([]string, len(chunks))
	meta := make([]Meta, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
		meta[i] = Meta{Source: c.Source, ChunkIndex: c.Seq, Kind: c.Kind}
	}

	flat := NewFlat(ix.embedder.Dimensions())
	if len(texts) > 0 {
		vectors, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed corpus: %w", err)
		}
		if err := flat.Add(vectors...); err != nil {
			return fmt.Errorf("build index: %w", err)
		}
	}

	if err := writeArtifacts(ix.dir, flat, texts, meta); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	ix.mu.Lock()
	ix.flat = flat
	ix.documents = texts
	ix.meta = meta
	ix.mu.Unlock()
	return nil
}

// Search embeds the query with the same model used at rebuild time and
// returns up to k matches ascending by L2 distance. k larger than the index
// returns all stored chunks.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Match, error) {
	ix.mu.RLock()
	flat := ix.flat
	docs := ix.documents
	meta := ix.meta
	ix.mu.RUnlock()

	if flat.Len() == 0 {
		return nil, nil
	}

	queryVec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	neighbors, err := flat.Search(queryVec, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	matches := make([]Match, 0, len(neighbors))
	for i, n := range neighbors {
		if n.Position >= len(docs) {
			continue
		}
		matches = append(matches, Match{
			Content:    docs[n.Position],
			Source:     meta[n.Position].Source,
			Kind:       meta[n.Position].Kind,
			Similarity: 1.0 / (1.0 + float64(n.Distance)),
			Rank:       i + 1,
		})
	}
	return matches, nil
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.flat.Len()
}

// Dir returns the artifact directory.
func (ix *Index) Dir() string {
	return ix.dir
}

func readArtifacts(dir string, dims int) ([][]float32, []string, []Meta, error) {
	vectors, err := readVectors(filepath.Join(dir, indexFile), dims)
	if err != nil {
		return nil, nil, nil, err
	}

	var docs []string
	if err := readJSON(filepath.Join(dir, docsFile), &docs); err != nil {
		return nil, nil, nil, err
	}

	var meta []Meta
	if err := readJSON(filepath.Join(dir, metaFile), &meta); err != nil {
		return nil, nil, nil, err
	}

	if len(docs) != len(vectors) || len(meta) != len(vectors) {
		return nil, nil, nil, fmt.Errorf("artifact length mismatch: %d vectors, %d documents, %d metadata",
			len(vectors), len(docs), len(meta))
	}
	return vectors, docs, meta, nil
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// readVectors decodes the binary vector artifact: uint32 dims, uint32 count,
// then count*dims little-endian float32 values.
func readVectors(path string, wantDims int) ([][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", indexFile, err)
	}
	if len(data) < 8 {
		return nil, fmt.Errorf("%s truncated: %d bytes", indexFile, len(data))
	}

	dims := int(binary.LittleEndian.Uint32(data[0:4]))
	count := int(binary.LittleEndian.Uint32(data[4:8]))
	if dims != wantDims {
		return nil, fmt.Errorf("%s has dimension %d, want %d", indexFile, dims, wantDims)
	}
	want := 8 + count*dims*4
	if len(data) != want {
		return nil, fmt.Errorf("%s size mismatch: %d bytes, want %d", indexFile, len(data), want)
	}

	vectors := make([][]float32, count)
	off := 8
	for i := 0; i < count; i++ {
		vec := make([]float32, dims)
		for j := 0; j < dims; j++ {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func writeArtifacts(dir string, flat *Flat, docs []string, meta []Meta) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	docsData, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	vecData := encodeVectors(flat)

	// Stage everything first so a failed write never clobbers the
	// previous artifacts.
	staged := []struct {
		name string
		data []byte
	}{
		{indexFile, vecData},
		{docsFile, docsData},
		{metaFile, metaData},
	}
	for _, f := range staged {
		tmp := filepath.Join(dir, f.name+".tmp")
		if err := os.WriteFile(tmp, f.data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	for _, f := range staged {
		tmp := filepath.Join(dir, f.name+".tmp")
		if err := os.Rename(tmp, filepath.Join(dir, f.name)); err != nil {
			return fmt.Errorf("commit %s: %w", f.name, err)
		}
	}
	return nil
}

func encodeVectors(flat *Flat) []byte {
	vectors := flat.Vectors()
	dims := flat.Dims()
	data := make([]byte, 8+len(vectors)*dims*4)
	binary.LittleEndian.PutUint32(data[0:4], uint32(dims))
	binary.LittleEndian.PutUint32(data[4:8], uint32(len(vectors)))
	off := 8
	for _, vec := range vectors {
		for _, v := range vec {
			binary.LittleEndian.PutUint32(data[off:off+4], math.Float32bits(v))
			off += 4
		}
	}
	return data
}
