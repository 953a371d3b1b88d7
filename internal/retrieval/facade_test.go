package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/millbrook/policysearch/internal/corpus"
	"github.com/millbrook/policysearch/internal/embedding"
	"github.com/millbrook/policysearch/internal/index"
	"github.com/millbrook/policysearch/internal/ingest"
)

type fakeLoader struct {
	chunks []corpus.Chunk
	err    error
}

func (f *fakeLoader) LoadAll(context.Context) ([]corpus.Chunk, error) {
	return f.chunks, f.err
}

type fakeVector struct {
	matches    []index.Match
	searchErr  error
	rebuildErr error
	length     int
	rebuilt    []corpus.Chunk
}

func (f *fakeVector) Search(ctx context.Context, query string, k int) ([]index.Match, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.matches) > k {
		return f.matches[:k], nil
	}
	return f.matches, nil
}

func (f *fakeVector) Rebuild(ctx context.Context, chunks []corpus.Chunk) error {
	if f.rebuildErr != nil {
		return f.rebuildErr
	}
	f.rebuilt = chunks
	f.length = len(chunks)
	return nil
}

func (f *fakeVector) Len() int { return f.length }

type fakeIngestor struct {
	summary ingest.Summary
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeIngestor) Run(context.Context) (ingest.Summary, error) {
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	return f.summary, f.err
}

func newTestFacade(loader *fakeLoader, vector *fakeVector, ingestor Reingester) *Facade {
	factory := func() (VectorSearcher, error) { return vector, nil }
	return NewFacade(loader, NewLexical(3, nil), NewExtractor(DefaultLimits()), factory, ingestor, Options{})
}

func TestFacadeSearchVectorPath(t *testing.T) {
	vector := &fakeVector{
		length: 2,
		matches: []index.Match{
			{Content: "To make a claim call 0345 604 6473 straight away.", Source: "policy.pdf", Similarity: 0.9, Rank: 1},
			{Content: "Claims are settled within ten working days.", Source: "policy.pdf", Similarity: 0.7, Rank: 2},
		},
	}
	f := newTestFacade(&fakeLoader{}, vector, &fakeIngestor{})

	out := f.Search(context.Background(), "how do I make a claim")
	if out.Status != StatusSuccess {
		t.Fatalf("status = %s (%s), want success", out.Status, out.Message)
	}
	if !strings.Contains(out.Answer, "0345 604 6473") {
		t.Errorf("answer %q missing helpline number", out.Answer)
	}
	if len(out.Sources) != 1 || out.Sources[0] != "policy.pdf" {
		t.Errorf("sources = %v, want [policy.pdf]", out.Sources)
	}
}

func TestFacadeSearchFallsBackWhenEmbedderDown(t *testing.T) {
	vector := &fakeVector{length: 5, searchErr: fmt.Errorf("embed query: %w", embedding.ErrUnavailable)}
	loader := &fakeLoader{chunks: []corpus.Chunk{
		{Content: "Contents cover includes your belongings up to 50000 pounds.", Source: "contents.pdf", Seq: 0},
	}}
	f := newTestFacade(loader, vector, &fakeIngestor{})

	out := f.Search(context.Background(), "contents belongings limit")
	if out.Status != StatusSuccess {
		t.Fatalf("status = %s (%s), want success via keyword fallback", out.Status, out.Message)
	}
	if !strings.Contains(out.Answer, "belongings") {
		t.Errorf("answer %q missing fallback passage", out.Answer)
	}
	if len(out.Sources) != 1 || out.Sources[0] != "contents.pdf" {
		t.Errorf("sources = %v, want [contents.pdf]", out.Sources)
	}
}

func TestFacadeSearchEmptyIndexUsesLexical(t *testing.T) {
	// Len 0 means the query must not reach the embedding backend at all.
	vector := &fakeVector{length: 0, searchErr: errors.New("must not be called")}
	loader := &fakeLoader{chunks: []corpus.Chunk{
		{Content: "The excess for subsidence claims is 1000 pounds.", Source: "policy.pdf", Seq: 0},
	}}
	f := newTestFacade(loader, vector, &fakeIngestor{})

	out := f.Search(context.Background(), "subsidence excess")
	if out.Status != StatusSuccess {
		t.Fatalf("status = %s (%s), want success", out.Status, out.Message)
	}
}

func TestFacadeSearchEmptyQuery(t *testing.T) {
	f := newTestFacade(&fakeLoader{}, &fakeVector{}, &fakeIngestor{})
	out := f.Search(context.Background(), "   ")
	if out.Status != StatusNotFound {
		t.Errorf("status = %s, want not_found", out.Status)
	}
}

func TestFacadeSearchNoMatches(t *testing.T) {
	loader := &fakeLoader{chunks: []corpus.Chunk{
		{Content: "Buildings cover only.", Source: "policy.pdf", Seq: 0},
	}}
	f := newTestFacade(loader, &fakeVector{}, &fakeIngestor{})

	out := f.Search(context.Background(), "ombudsman")
	if out.Status != StatusNotFound {
		t.Errorf("status = %s, want not_found", out.Status)
	}
	if out.Answer != "" || out.Sources != nil {
		t.Errorf("not_found outcome carries answer %q sources %v", out.Answer, out.Sources)
	}
}

func TestFacadeSearchFactoryFailureFallsBack(t *testing.T) {
	factory := func() (VectorSearcher, error) { return nil, errors.New("artifacts locked") }
	loader := &fakeLoader{chunks: []corpus.Chunk{
		{Content: "Accidental damage cover is optional.", Source: "policy.pdf", Seq: 0},
	}}
	f := NewFacade(loader, NewLexical(3, nil), NewExtractor(DefaultLimits()), factory, &fakeIngestor{}, Options{})

	out := f.Search(context.Background(), "accidental damage")
	if out.Status != StatusSuccess {
		t.Fatalf("status = %s (%s), want success via fallback", out.Status, out.Message)
	}
}

func TestFacadeSearchDedupesPassages(t *testing.T) {
	vector := &fakeVector{
		length: 2,
		matches: []index.Match{
			{Content: "Storm damage to fences is excluded.", Source: "a.pdf", Similarity: 0.9, Rank: 1},
			{Content: "Storm damage to fences is excluded.", Source: "a.pdf", Similarity: 0.8, Rank: 2},
		},
	}
	f := newTestFacade(&fakeLoader{}, vector, &fakeIngestor{})

	out := f.Search(context.Background(), "storm damage fences")
	if out.Status != StatusSuccess {
		t.Fatalf("status = %s, want success", out.Status)
	}
	if n := strings.Count(out.Answer, "excluded"); n != 1 {
		t.Errorf("duplicate passage appears %d times, want 1", n)
	}
}

func TestFacadeSearchDuplicatePassageKeepsBothSources(t *testing.T) {
	// The same clause appears verbatim in two documents; the answer shows
	// it once but must credit both.
	vector := &fakeVector{
		length: 2,
		matches: []index.Match{
			{Content: "Storm damage to fences is excluded.", Source: "summary.pdf", Similarity: 0.9, Rank: 1},
			{Content: "Storm damage to fences is excluded.", Source: "policy.pdf", Similarity: 0.8, Rank: 2},
		},
	}
	f := newTestFacade(&fakeLoader{}, vector, &fakeIngestor{})

	out := f.Search(context.Background(), "storm damage fences")
	if out.Status != StatusSuccess {
		t.Fatalf("status = %s, want success", out.Status)
	}
	if len(out.Sources) != 2 || out.Sources[0] != "policy.pdf" || out.Sources[1] != "summary.pdf" {
		t.Errorf("sources = %v, want [policy.pdf summary.pdf]", out.Sources)
	}
}

func TestFacadeSearchAnswerCap(t *testing.T) {
	long := strings.Repeat("storm ", 400)
	vector := &fakeVector{
		length:  1,
		matches: []index.Match{{Content: long, Source: "a.pdf", Similarity: 0.9, Rank: 1}},
	}
	factory := func() (VectorSearcher, error) { return vector, nil }
	f := NewFacade(&fakeLoader{}, NewLexical(3, nil), NewExtractor(Limits{MaxSentences: 8, MaxChars: 5000, MaxCharsPriority: 5000}), factory, &fakeIngestor{}, Options{AnswerMaxChars: 200})

	out := f.Search(context.Background(), "storm")
	if got := len([]rune(out.Answer)); got > 203 {
		t.Errorf("answer length %d exceeds cap", got)
	}
}

func TestFacadeReindexSuccess(t *testing.T) {
	vector := &fakeVector{}
	loader := &fakeLoader{chunks: []corpus.Chunk{
		{Content: "chunk one", Source: "a.txt", Seq: 0},
		{Content: "chunk two", Source: "a.txt", Seq: 1},
	}}
	ingestor := &fakeIngestor{summary: ingest.Summary{Files: 1, Chunks: 2}}
	f := newTestFacade(loader, vector, ingestor)

	out := f.Reindex(context.Background())
	if out.Status != StatusSuccess {
		t.Fatalf("status = %s (%s), want success", out.Status, out.Message)
	}
	if len(vector.rebuilt) != 2 {
		t.Errorf("rebuilt %d chunks, want 2", len(vector.rebuilt))
	}
	if !strings.Contains(out.Message, "2 chunks") || !strings.Contains(out.Message, "1 files") {
		t.Errorf("message %q missing counts", out.Message)
	}
}

func TestFacadeReindexEmbedderDown(t *testing.T) {
	vector := &fakeVector{rebuildErr: fmt.Errorf("embed corpus: %w", embedding.ErrUnavailable)}
	f := newTestFacade(&fakeLoader{}, vector, &fakeIngestor{})

	out := f.Reindex(context.Background())
	if out.Status != StatusError {
		t.Fatalf("status = %s, want error", out.Status)
	}
	if !strings.Contains(out.Message, "previous index kept") {
		t.Errorf("message %q should note previous index survives", out.Message)
	}
}

func TestFacadeReindexRejectsConcurrent(t *testing.T) {
	ingestor := &fakeIngestor{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	f := newTestFacade(&fakeLoader{}, &fakeVector{}, ingestor)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.Reindex(context.Background())
	}()
	<-ingestor.started

	out := f.Reindex(context.Background())
	close(ingestor.release)
	wg.Wait()

	if out.Status != StatusError || !strings.Contains(out.Message, "in progress") {
		t.Errorf("concurrent reindex outcome = %s (%s), want busy error", out.Status, out.Message)
	}
}

func TestFacadeReindexIngestFailure(t *testing.T) {
	ingestor := &fakeIngestor{err: errors.New("documents dir missing")}
	vector := &fakeVector{}
	f := newTestFacade(&fakeLoader{}, vector, ingestor)

	out := f.Reindex(context.Background())
	if out.Status != StatusError {
		t.Fatalf("status = %s, want error", out.Status)
	}
	if vector.rebuilt != nil {
		t.Error("rebuild ran despite ingest failure")
	}
}
