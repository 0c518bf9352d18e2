// Package ingest runs the ingestion path: download a stored document,
// extract its text, chunk it, embed each chunk, and append the pairs to
// the vector index.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/chunker"
	"github.com/askdocs/askdocs/internal/domain"
	"github.com/askdocs/askdocs/internal/extract"
	"github.com/askdocs/askdocs/internal/metrics"
	"github.com/askdocs/askdocs/internal/repository/store"
)

// Result summarizes one document ingestion.
type Result struct {
	Document string `json:"document"`
	Chunks   int    `json:"chunks"`
	Embedded int    `json:"embedded"`
}

// Service coordinates ingestion against the storage collaborator and
// the vector index.
type Service struct {
	storage   Storage
	index     Indexer
	embed     domain.Embedder
	chunkSize int
	overlap   int
	logger    *zap.Logger
}

// New creates an ingest service with the given chunking parameters.
func New(storage Storage, index Indexer, embed domain.Embedder, chunkSize, overlap int, logger *zap.Logger) *Service {
	if chunkSize <= 0 {
		chunkSize = chunker.DefaultSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunker.DefaultOverlap
	}
	return &Service{
		storage:   storage,
		index:     index,
		embed:     embed,
		chunkSize: chunkSize,
		overlap:   overlap,
		logger:    logger,
	}
}

// AddDocument ingests the stored file name. Chunks whose embedding
// fails are logged and skipped; a document where every chunk fails is
// an error. Re-ingesting a document replaces its previous chunks.
func (s *Service) AddDocument(ctx context.Context, name string) (Result, error) {
	if s.embed == nil {
		return Result{}, fmt.Errorf("embedding credential not configured")
	}

	data, err := s.storage.Download(ctx, name)
	if err != nil {
		return Result{}, fmt.Errorf("download %s: %w", name, err)
	}

	text, err := extract.Text(name, data)
	if err != nil {
		return Result{}, fmt.Errorf("extract %s: %w", name, err)
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, fmt.Errorf("%s: %w", name, domain.ErrEmptyDocument)
	}

	pieces, err := chunker.Split(text, s.chunkSize, s.overlap)
	if err != nil {
		return Result{}, fmt.Errorf("chunk %s: %w", name, err)
	}

	display := s.displayName(ctx, name)
	s.logger.Info("Ingesting document",
		zap.String("stored_name", name),
		zap.String("document", display),
		zap.Int("chunks", len(pieces)),
	)

	var (
		chunks  []domain.Chunk
		vectors [][]float32
	)
	for i, piece := range pieces {
		res, err := s.embed.Embed(ctx, piece)
		if err != nil {
			// Skip the chunk, keep the document.
			s.logger.Warn("Failed to embed chunk",
				zap.String("document", display),
				zap.Int("seq", i),
				zap.Error(err),
			)
			continue
		}
		chunks = append(chunks, domain.Chunk{Content: piece, Document: display, Seq: i})
		vectors = append(vectors, res.Embedding)
	}
	if len(chunks) == 0 {
		return Result{}, fmt.Errorf("%s: %w", display, domain.ErrNoChunksEmbedded)
	}

	// Atomic swap: any previous version of the document is replaced in
	// one index mutation, so a re-ingest never duplicates chunks and
	// concurrent queries never see the document missing.
	if err := s.index.ReplaceDocument(ctx, display, chunks, vectors); err != nil {
		return Result{}, fmt.Errorf("index %s: %w", display, err)
	}

	if err := s.storage.SetIndexed(ctx, name, true); err != nil {
		s.logger.Warn("Failed to mark file as indexed", zap.String("stored_name", name), zap.Error(err))
	}
	metrics.IndexChunks.Set(float64(s.index.Len()))

	return Result{Document: display, Chunks: len(pieces), Embedded: len(chunks)}, nil
}

// RemoveDocument removes every chunk of the document (by display name)
// from the index and clears the indexed flag on matching stored files.
// Removing an absent document is a no-op success.
func (s *Service) RemoveDocument(ctx context.Context, document string) error {
	if err := s.index.RemoveDocument(ctx, document); err != nil {
		return fmt.Errorf("remove %s from index: %w", document, err)
	}

	files, err := s.storage.List(ctx)
	if err != nil {
		return fmt.Errorf("list stored files: %w", err)
	}
	for _, f := range files {
		if f.DisplayName != document {
			continue
		}
		if err := s.storage.SetIndexed(ctx, f.Name, false); err != nil {
			s.logger.Warn("Failed to clear indexed flag", zap.String("stored_name", f.Name), zap.Error(err))
		}
	}
	metrics.IndexChunks.Set(float64(s.index.Len()))
	return nil
}

// Clear empties the whole index and clears every file's indexed flag.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.index.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}

	files, err := s.storage.List(ctx)
	if err != nil {
		return fmt.Errorf("list stored files: %w", err)
	}
	for _, f := range files {
		if err := s.storage.SetIndexed(ctx, f.Name, false); err != nil {
			s.logger.Warn("Failed to clear indexed flag", zap.String("stored_name", f.Name), zap.Error(err))
		}
	}
	metrics.IndexChunks.Set(0)
	return nil
}

// Rebuild re-embeds the content of every indexed chunk and replaces the
// index wholesale, skipping chunks whose embedding fails.
func (s *Service) Rebuild(ctx context.Context) error {
	if s.embed == nil {
		return fmt.Errorf("embedding credential not configured")
	}

	old := s.index.AllChunks()
	var (
		chunks  []domain.Chunk
		vectors [][]float32
	)
	for _, c := range old {
		res, err := s.embed.Embed(ctx, c.Content)
		if err != nil {
			s.logger.Warn("Failed to re-embed chunk",
				zap.String("document", c.Document),
				zap.Int("seq", c.Seq),
				zap.Error(err),
			)
			continue
		}
		chunks = append(chunks, c)
		vectors = append(vectors, res.Embedding)
	}

	if err := s.index.ReplaceAll(ctx, chunks, vectors); err != nil {
		return fmt.Errorf("replace index: %w", err)
	}
	metrics.IndexChunks.Set(float64(s.index.Len()))
	s.logger.Info("Index rebuilt", zap.Int("chunks", len(chunks)), zap.Int("skipped", len(old)-len(chunks)))
	return nil
}

// Reconcile ingests stored files that are missing from the index, so a
// fresh or partial index catches up with storage at startup. Per-file
// failures are logged and skipped.
func (s *Service) Reconcile(ctx context.Context) {
	files, err := s.storage.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list stored files for reconciliation", zap.Error(err))
		return
	}
	for _, f := range files {
		if !extract.Supported(f.Name) {
			continue
		}
		if s.index.Contains(f.DisplayName) {
			continue
		}
		if _, err := s.AddDocument(ctx, f.Name); err != nil {
			s.logger.Error("Reconciliation ingest failed",
				zap.String("stored_name", f.Name),
				zap.Error(err),
			)
		}
	}
}

// displayName resolves the stored file's original display name from
// metadata, falling back to the stored name without its extension.
func (s *Service) displayName(ctx context.Context, name string) string {
	files, err := s.storage.List(ctx)
	if err == nil {
		for _, f := range files {
			if f.Name == name {
				return f.DisplayName
			}
		}
	}
	return store.DisplayName(name)
}
