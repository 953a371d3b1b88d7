package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/millbrook/policysearch/internal/corpus"
	"github.com/millbrook/policysearch/internal/embedding"
	"github.com/millbrook/policysearch/internal/index"
	"github.com/millbrook/policysearch/internal/ingest"
)

// Status classifies a query outcome for callers that render it.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusNotFound Status = "not_found"
	StatusError    Status = "error"
)

// Outcome is the envelope every facade operation returns. Failures are
// reported in-band through Status and Message, never as Go errors, so a
// rendering layer can treat all outcomes uniformly.
type Outcome struct {
	Status  Status
	Answer  string
	Sources []string
	Message string
}

// ChunkLoader supplies the corpus for lexical retrieval and reindexing.
type ChunkLoader interface {
	LoadAll(ctx context.Context) ([]corpus.Chunk, error)
}

// VectorSearcher is the embedding-backed retrieval strategy.
type VectorSearcher interface {
	Search(ctx context.Context, query string, k int) ([]index.Match, error)
	Rebuild(ctx context.Context, chunks []corpus.Chunk) error
	Len() int
}

// Reingester refreshes the corpus from the document directory.
type Reingester interface {
	Run(ctx context.Context) (ingest.Summary, error)
}

// VectorFactory defers vector index construction, including its artifact
// load, until a query actually needs it.
type VectorFactory func() (VectorSearcher, error)

// Facade is the single entry point for answering questions. It tries
// vector retrieval first and falls back to lexical retrieval when the
// embedding backend is unavailable or returns nothing.
type Facade struct {
	store    ChunkLoader
	lexical  *Lexical
	extract  *Extractor
	expander *Expander

	factory    VectorFactory
	vectorOnce sync.Once
	vector     VectorSearcher
	vectorErr  error

	vectorTopK     int
	answerMaxChars int
	keywordOnly    bool

	reindexMu sync.Mutex
	ingestor  Reingester
}

// Options configures a Facade.
type Options struct {
	VectorTopK     int
	AnswerMaxChars int
	Expander       *Expander // nil disables query expansion
	KeywordOnly    bool      // skip the vector strategy entirely
}

// NewFacade wires the retrieval strategies together. factory may be
// called at most once, on the first query.
func NewFacade(store ChunkLoader, lexical *Lexical, extract *Extractor, factory VectorFactory, ingestor Reingester, opts Options) *Facade {
	if opts.VectorTopK <= 0 {
		opts.VectorTopK = 5
	}
	if opts.AnswerMaxChars <= 0 {
		opts.AnswerMaxChars = 2000
	}
	return &Facade{
		store:          store,
		lexical:        lexical,
		extract:        extract,
		expander:       opts.Expander,
		factory:        factory,
		ingestor:       ingestor,
		vectorTopK:     opts.VectorTopK,
		answerMaxChars: opts.AnswerMaxChars,
		keywordOnly:    opts.KeywordOnly,
	}
}

// Search answers a question. It never returns a Go error; anything that
// goes wrong surfaces as an Outcome with StatusError.
func (f *Facade) Search(ctx context.Context, query string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("search: recovered panic: %v", r)
			out = Outcome{Status: StatusError, Message: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	query = strings.TrimSpace(query)
	if query == "" {
		return Outcome{Status: StatusNotFound, Message: "empty query"}
	}

	keywords := f.lexical.Keywords(query)
	var results []Result
	if !f.keywordOnly {
		results = f.vectorResults(ctx, query)
	}
	if len(results) == 0 {
		chunks, err := f.store.LoadAll(ctx)
		if err != nil {
			return Outcome{Status: StatusError, Message: fmt.Sprintf("load corpus: %v", err)}
		}
		results = f.lexical.Search(chunks, query)
	}
	if len(results) == 0 {
		return Outcome{Status: StatusNotFound, Message: "no relevant policy text found"}
	}

	answer, sources := f.compose(results, query, keywords)
	if answer == "" {
		return Outcome{Status: StatusNotFound, Message: "no relevant policy text found"}
	}
	return Outcome{Status: StatusSuccess, Answer: answer, Sources: sources}
}

// vectorResults runs the embedding strategy, returning nil whenever the
// lexical fallback should take over instead.
func (f *Facade) vectorResults(ctx context.Context, query string) []Result {
	f.vectorOnce.Do(func() {
		f.vector, f.vectorErr = f.factory()
	})
	if f.vectorErr != nil {
		log.Printf("search: vector index unavailable, falling back to keyword search: %v", f.vectorErr)
		return nil
	}
	if f.vector.Len() == 0 {
		return nil
	}

	searchQuery := query
	if f.expander != nil {
		searchQuery = f.expander.Expand(query)
	}
	matches, err := f.vector.Search(ctx, searchQuery, f.vectorTopK)
	if err != nil {
		if errors.Is(err, embedding.ErrUnavailable) {
			log.Printf("search: embedding backend unavailable, falling back to keyword search: %v", err)
		} else {
			log.Printf("search: vector search failed, falling back to keyword search: %v", err)
		}
		return nil
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			Content: m.Content,
			Source:  m.Source,
			Score:   m.Similarity,
			Rank:    m.Rank,
		})
	}
	return results
}

// compose extracts a passage per result, dropping duplicates, and joins
// them into the final answer within the answer budget.
func (f *Facade) compose(results []Result, query string, keywords []string) (string, []string) {
	var passages []string
	seen := make(map[string]bool)
	sourceSet := make(map[string]bool)

	for _, r := range results {
		passage := f.extract.Extract(r.Content, query, keywords)
		if passage == "" {
			continue
		}
		// A duplicate passage still credits its source.
		sourceSet[r.Source] = true
		if seen[passage] {
			continue
		}
		seen[passage] = true
		passages = append(passages, passage)
	}
	if len(passages) == 0 {
		return "", nil
	}

	answer := strings.Join(passages, "\n\n")
	runes := []rune(answer)
	if len(runes) > f.answerMaxChars {
		answer = string(runes[:f.answerMaxChars]) + "..."
	}

	sources := make([]string, 0, len(sourceSet))
	for s := range sourceSet {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	return answer, sources
}

// Reindex rebuilds the corpus from the document directory and re-embeds
// it into the vector index. Concurrent calls are rejected rather than
// queued; the previous index stays live until the rebuild succeeds.
func (f *Facade) Reindex(ctx context.Context) Outcome {
	if !f.reindexMu.TryLock() {
		return Outcome{Status: StatusError, Message: "reindex already in progress"}
	}
	defer f.reindexMu.Unlock()

	summary, err := f.ingestor.Run(ctx)
	if err != nil {
		return Outcome{Status: StatusError, Message: fmt.Sprintf("ingest documents: %v", err)}
	}

	chunks, err := f.store.LoadAll(ctx)
	if err != nil {
		return Outcome{Status: StatusError, Message: fmt.Sprintf("load corpus: %v", err)}
	}

	f.vectorOnce.Do(func() {
		f.vector, f.vectorErr = f.factory()
	})
	if f.vectorErr != nil {
		return Outcome{Status: StatusError, Message: fmt.Sprintf("open vector index: %v", f.vectorErr)}
	}
	if err := f.vector.Rebuild(ctx, chunks); err != nil {
		switch {
		case errors.Is(err, embedding.ErrUnavailable):
			return Outcome{Status: StatusError, Message: fmt.Sprintf("embedding backend unavailable, previous index kept: %v", err)}
		case errors.Is(err, index.ErrPersistence):
			return Outcome{Status: StatusError, Message: fmt.Sprintf("persist index artifacts, previous index kept: %v", err)}
		default:
			return Outcome{Status: StatusError, Message: fmt.Sprintf("rebuild index: %v", err)}
		}
	}

	return Outcome{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("indexed %d chunks from %d files", summary.Chunks, summary.Files),
	}
}
