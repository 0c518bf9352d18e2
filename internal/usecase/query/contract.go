package query

import "github.com/askdocs/askdocs/internal/domain"

// Retriever is the vector-index contract the query path depends on.
type Retriever interface {
	// Search returns the top k matches for query, best first, or nil
	// when the best score is below minScore.
	Search(query []float32, k int, minScore float64) []domain.Match
	// DocumentChunks returns all chunks of a document sorted by sequence.
	DocumentChunks(name string) []domain.Chunk
	// DocumentNames returns the distinct indexed document names, sorted.
	DocumentNames() []string
	// Len reports the number of indexed chunks.
	Len() int
}
