package ingest

import (
	"context"

	"github.com/askdocs/askdocs/internal/domain"
)

// Storage is the file-storage contract the ingestion path depends on.
type Storage interface {
	Download(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]domain.StoredFile, error)
	SetIndexed(ctx context.Context, name string, indexed bool) error
}

// Indexer is the vector-index contract the ingestion path depends on.
type Indexer interface {
	AppendDocument(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	// ReplaceDocument atomically swaps a document's pairs, so a
	// re-ingest never leaves the document briefly absent.
	ReplaceDocument(ctx context.Context, name string, chunks []domain.Chunk, vectors [][]float32) error
	RemoveDocument(ctx context.Context, name string) error
	Clear(ctx context.Context) error
	ReplaceAll(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	AllChunks() []domain.Chunk
	Contains(name string) bool
	Len() int
}
