// Package index holds the in-memory vector index: an append-only list
// of (chunk, vector) pairs with a derived lookup map, persisted as a
// single blob through the storage collaborator.
package index

import (
	"context"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/domain"
)

// BlobStore persists the serialized index. Implemented by both storage
// backends (local directory and object store).
type BlobStore interface {
	// GetBlob returns the blob at key, or domain.ErrNotFound.
	GetBlob(ctx context.Context, key string) ([]byte, error)
	PutBlob(ctx context.Context, key string, data []byte) error
}

// Index is the ordered collection of all (chunk, vector) pairs currently
// indexed. chunks and vectors are parallel arrays; lookup is derived and
// keyed by chunk.Key(). A single RWMutex lets searches run concurrently
// while mutations (which pair an in-memory update with a full blob
// rewrite) are exclusive.
type Index struct {
	mu      sync.RWMutex
	chunks  []domain.Chunk
	vectors [][]float32
	lookup  map[string][]float32

	blobs  BlobStore
	logger *zap.Logger
}

// New creates an empty index persisting through blobs.
func New(blobs BlobStore, logger *zap.Logger) *Index {
	return &Index{
		lookup: make(map[string][]float32),
		blobs:  blobs,
		logger: logger,
	}
}

// AppendDocument appends the successfully embedded (chunk, vector) pairs
// of one document and persists the full index. chunks and vectors must
// be aligned.
func (x *Index) AppendDocument(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return domain.ErrIndexCorrupt
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	x.chunks = append(x.chunks, chunks...)
	x.vectors = append(x.vectors, vectors...)
	for i, c := range chunks {
		x.lookup[c.Key()] = vectors[i]
	}
	return x.persist(ctx)
}

// RemoveDocument removes every pair whose chunk belongs to name and
// rebuilds the lookup map from the remaining pairs. Removing a document
// not present is a no-op success.
func (x *Index) RemoveDocument(ctx context.Context, name string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	kept := x.chunks[:0:0]
	keptVecs := x.vectors[:0:0]
	for i, c := range x.chunks {
		if c.Document != name {
			kept = append(kept, c)
			keptVecs = append(keptVecs, x.vectors[i])
		}
	}
	if len(kept) == len(x.chunks) {
		return nil
	}

	x.chunks = kept
	x.vectors = keptVecs
	x.rebuildLookup()
	return x.persist(ctx)
}

// ReplaceDocument swaps every pair belonging to name for the given
// pairs under a single lock and one blob rewrite. Concurrent searches
// never observe the document absent mid-swap. chunks may belong to a
// document not yet indexed; the call then degenerates to an append.
func (x *Index) ReplaceDocument(ctx context.Context, name string, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return domain.ErrIndexCorrupt
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	kept := x.chunks[:0:0]
	keptVecs := x.vectors[:0:0]
	for i, c := range x.chunks {
		if c.Document != name {
			kept = append(kept, c)
			keptVecs = append(keptVecs, x.vectors[i])
		}
	}
	x.chunks = append(kept, chunks...)
	x.vectors = append(keptVecs, vectors...)
	x.rebuildLookup()
	return x.persist(ctx)
}

// Clear empties the index and persists the empty state.
func (x *Index) Clear(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.chunks = nil
	x.vectors = nil
	x.lookup = make(map[string][]float32)
	return x.persist(ctx)
}

// ReplaceAll swaps the entire index contents atomically and persists.
// Used by restore and by full re-embedding.
func (x *Index) ReplaceAll(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return domain.ErrIndexCorrupt
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	x.chunks = chunks
	x.vectors = vectors
	x.rebuildLookup()
	return x.persist(ctx)
}

// Search scores every stored vector against query by cosine similarity
// and returns the top k matches, best first. Ordering is stable: score
// descending, then document name, then sequence. Returns nil when the
// best score is below minScore, so callers never see low-quality
// matches.
func (x *Index) Search(query []float32, k int, minScore float64) []domain.Match {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.vectors) == 0 {
		return nil
	}

	matches := make([]domain.Match, 0, len(x.vectors))
	for i, v := range x.vectors {
		matches = append(matches, domain.Match{
			Chunk: x.chunks[i],
			Score: CosineSimilarity(query, v),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Chunk.Document != matches[j].Chunk.Document {
			return matches[i].Chunk.Document < matches[j].Chunk.Document
		}
		return matches[i].Chunk.Seq < matches[j].Chunk.Seq
	})

	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	if matches[0].Score < minScore {
		return nil
	}
	return matches
}

// DocumentChunks returns copies of all chunks belonging to name, sorted
// by sequence. Used for neighboring-chunk context assembly.
func (x *Index) DocumentChunks(name string) []domain.Chunk {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []domain.Chunk
	for _, c := range x.chunks {
		if c.Document == name {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// DocumentNames returns the distinct document names in the index,
// sorted lexicographically.
func (x *Index) DocumentNames() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	seen := make(map[string]struct{})
	var names []string
	for _, c := range x.chunks {
		if _, ok := seen[c.Document]; !ok {
			seen[c.Document] = struct{}{}
			names = append(names, c.Document)
		}
	}
	sort.Strings(names)
	return names
}

// Contains reports whether at least one chunk of name is indexed.
func (x *Index) Contains(name string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()

	for _, c := range x.chunks {
		if c.Document == name {
			return true
		}
	}
	return false
}

// Len reports the number of indexed (chunk, vector) pairs.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.chunks)
}

// Dimensions reports the vector dimensionality, 0 when empty.
func (x *Index) Dimensions() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if len(x.vectors) == 0 {
		return 0
	}
	return len(x.vectors[0])
}

// LookupKeys returns the lookup-map keys, sorted. Diagnostics only; the
// search path never touches the lookup map.
func (x *Index) LookupKeys() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	keys := make([]string, 0, len(x.lookup))
	for k := range x.lookup {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AllChunks returns copies of every indexed chunk in index order. Used
// for full re-embedding.
func (x *Index) AllChunks() []domain.Chunk {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]domain.Chunk, len(x.chunks))
	copy(out, x.chunks)
	return out
}

// rebuildLookup regenerates the lookup map from the parallel arrays.
// Caller holds the write lock.
func (x *Index) rebuildLookup() {
	x.lookup = make(map[string][]float32, len(x.chunks))
	for i, c := range x.chunks {
		x.lookup[c.Key()] = x.vectors[i]
	}
}

// CosineSimilarity returns dot(a,b) / (||a|| * ||b||) in [-1, 1],
// defined as 0 when either norm is zero.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
