package retrieval

import (
	"sort"
	"strings"

	"github.com/millbrook/policysearch/internal/corpus"
)

// phraseBonus is added when the whole query appears verbatim in a chunk,
// so exact-phrase hits always outrank subset keyword matches.
const phraseBonus = 2

// defaultStopWords holds the articles, prepositions, and interrogatives
// stripped from queries before keyword scoring.
var defaultStopWords = []string{
	"what", "is", "the", "a", "an", "for", "this", "that", "in", "on",
	"at", "to", "of", "and", "or", "how", "when", "where", "why", "who",
}

// Result is one scored retrieval hit on a common scale across strategies:
// larger is more relevant.
type Result struct {
	Content string
	Source  string
	Score   float64
	Rank    int // 1-based
}

// Lexical ranks chunks by keyword overlap. It needs no model and no
// persisted state beyond the corpus, making it the always-available
// fallback strategy.
type Lexical struct {
	stopWords map[string]bool
	topK      int
}

// NewLexical creates a lexical retriever keeping topK results per query.
// stopWords overrides the built-in set when non-empty.
func NewLexical(topK int, stopWords []string) *Lexical {
	if topK <= 0 {
		topK = 3
	}
	words := stopWords
	if len(words) == 0 {
		words = defaultStopWords
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = true
	}
	return &Lexical{stopWords: set, topK: topK}
}

// Keywords tokenizes a query into its distinct, lower-cased, non-stop-word
// terms, preserving first-occurrence order.
func (l *Lexical) Keywords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	seen := make(map[string]bool, len(fields))
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		if l.stopWords[f] || seen[f] {
			continue
		}
		seen[f] = true
		keywords = append(keywords, f)
	}
	return keywords
}

// Search scores every chunk by the number of distinct query keywords it
// contains, plus a phrase bonus for verbatim query matches. Zero-score
// chunks are dropped; ties keep corpus order. An empty or all-stop-word
// query matches nothing.
func (l *Lexical) Search(chunks []corpus.Chunk, query string) []Result {
	keywords := l.Keywords(query)
	if len(keywords) == 0 {
		return nil
	}
	queryLower := strings.ToLower(strings.TrimSpace(query))

	var scored []Result
	for _, chunk := range chunks {
		contentLower := strings.ToLower(chunk.Content)
		matches := 0
		for _, kw := range keywords {
			if strings.Contains(contentLower, kw) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		if strings.Contains(contentLower, queryLower) {
			matches += phraseBonus
		}
		scored = append(scored, Result{
			Content: chunk.Content,
			Source:  chunk.Source,
			Score:   float64(matches),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > l.topK {
		scored = scored[:l.topK]
	}
	for i := range scored {
		scored[i].Rank = i + 1
	}
	return scored
}
