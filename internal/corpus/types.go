package corpus

// Chunk is the atomic retrievable unit: a bounded slice of one source
// document's text. Chunk boundaries are fixed at ingestion time; a reindex
// replaces the whole chunk set for a source, never individual chunks.
type Chunk struct {
	Content string
	Source  string // originating document, e.g. "policy.pdf"
	Seq     int    // position within the source document
	Kind    string // "text" | "json" | "pdf"
}
