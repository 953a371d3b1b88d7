package index

// Meta carries the source attribution persisted alongside each indexed
// chunk. The metadata list, the document list, and the vector index are
// rebuilt and persisted together; they are never valid independently.
type Meta struct {
	Source     string `json:"source"`
	ChunkIndex int    `json:"chunk_index"`
	Kind       string `json:"kind"`
}

// Match is one similarity-search hit.
type Match struct {
	Content    string
	Source     string
	Kind       string
	Similarity float64 // 1 / (1 + L2 distance), higher is closer
	Rank       int     // 1-based, ascending by distance
}
