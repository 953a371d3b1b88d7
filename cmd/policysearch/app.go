package main

import (
	"fmt"
	"log"

	"github.com/millbrook/policysearch/internal/config"
	"github.com/millbrook/policysearch/internal/corpus"
	"github.com/millbrook/policysearch/internal/embedding"
	"github.com/millbrook/policysearch/internal/index"
	"github.com/millbrook/policysearch/internal/ingest"
	"github.com/millbrook/policysearch/internal/retrieval"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg    *config.Config
	store  *corpus.Store
	facade *retrieval.Facade
}

// newApp opens the corpus store and wires the retrieval facade. The
// vector index is constructed lazily; commands that never query it do
// not touch its artifacts or the embedding backend.
func newApp(cfg *config.Config, keywordOnly bool) (*app, error) {
	store, err := corpus.Open(cfg.Corpus.Path)
	if err != nil {
		return nil, fmt.Errorf("open corpus store: %w", err)
	}

	factory := func() (retrieval.VectorSearcher, error) {
		svc, err := embedding.NewService(&cfg.Embedding)
		if err != nil {
			return nil, err
		}
		ix := index.New(cfg.Index.Dir, svc)
		if err := ix.Load(); err != nil {
			return nil, err
		}
		return ix, nil
	}

	var expander *retrieval.Expander
	if cfg.Search.ExpandQuery {
		if cfg.Search.SynonymsFile != "" {
			expander, err = retrieval.NewExpanderFromFile(cfg.Search.SynonymsFile)
			if err != nil {
				log.Printf("Warning: failed to load synonyms file, using built-in topics: %v", err)
				expander = retrieval.NewExpander()
			}
		} else {
			expander = retrieval.NewExpander()
		}
	}

	lexical := retrieval.NewLexical(cfg.Search.TopK, cfg.Search.StopWords)
	extractor := retrieval.NewExtractor(retrieval.Limits{
		MaxSentences:     cfg.Extract.MaxSentences,
		MaxChars:         cfg.Extract.MaxChars,
		MaxCharsPriority: cfg.Extract.MaxCharsPriority,
	})
	ingestor := ingest.NewIngestor(cfg.Documents, store, ingest.NewBarProgress(ingest.DefaultProgressEnabled()))

	facade := retrieval.NewFacade(store, lexical, extractor, factory, ingestor, retrieval.Options{
		VectorTopK:     cfg.Search.VectorTopK,
		AnswerMaxChars: cfg.Extract.AnswerMaxChars,
		Expander:       expander,
		KeywordOnly:    keywordOnly,
	})

	return &app{cfg: cfg, store: store, facade: facade}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Printf("Warning: failed to close corpus store: %v", err)
	}
}
