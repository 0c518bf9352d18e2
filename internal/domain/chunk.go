package domain

import "strconv"

// Chunk is a bounded substring of a source document, the unit of
// embedding and retrieval. Document is the stable display name shared
// by all chunks of one document; Seq is the zero-based ordinal within
// that document, used to reconstruct chunk adjacency.
type Chunk struct {
	Content  string `json:"content"`
	Document string `json:"document"`
	Seq      int    `json:"seq"`
}

// Key returns the lookup-map key for this chunk ("{document}_{seq}").
func (c Chunk) Key() string {
	return c.Document + "_" + strconv.Itoa(c.Seq)
}

// Match is a single retrieval hit: a chunk and its cosine similarity
// score against the query vector.
type Match struct {
	Chunk Chunk
	Score float64
}
