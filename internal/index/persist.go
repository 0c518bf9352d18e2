package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/domain"
)

// Well-known blob locations in the storage collaborator.
const (
	BlobKey       = "vector_store/index.json"
	BackupBlobKey = "vector_store/backup.json"
)

// snapshot is the serialized form of the whole index. A backup adds the
// timestamp field; restore ignores it.
type snapshot struct {
	Chunks          []domain.Chunk       `json:"chunks"`
	Vectors         [][]float32          `json:"vectors"`
	Lookup          map[string][]float32 `json:"lookup_map"`
	BackupTimestamp string               `json:"backup_timestamp,omitempty"`
}

// Load reads the persisted blob into the index. A missing blob starts
// empty; a malformed blob is logged and also starts empty — loading
// never fails startup.
func (x *Index) Load(ctx context.Context) error {
	data, err := x.blobs.GetBlob(ctx, BlobKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			x.logger.Info("No persisted index found, starting empty")
			return nil
		}
		return fmt.Errorf("load index blob: %w", err)
	}

	snap, err := decodeSnapshot(data)
	if err != nil {
		x.logger.Warn("Persisted index is corrupt, starting empty", zap.Error(err))
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.chunks = snap.Chunks
	x.vectors = snap.Vectors
	x.rebuildLookup()

	x.logger.Info("Loaded vector index",
		zap.Int("chunks", len(x.chunks)),
		zap.Int("documents", countDocuments(x.chunks)),
	)
	return nil
}

// persist rewrites the full index blob. Caller holds the write lock so
// the in-memory update and the blob write are atomic as a unit. Every
// mutation pays a full rewrite; acceptable at small corpus sizes.
func (x *Index) persist(ctx context.Context) error {
	data, err := json.Marshal(snapshot{
		Chunks:  x.chunks,
		Vectors: x.vectors,
		Lookup:  x.lookup,
	})
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := x.blobs.PutBlob(ctx, BlobKey, data); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	return nil
}

// Backup writes a timestamped copy of the current index to the backup
// location.
func (x *Index) Backup(ctx context.Context) error {
	x.mu.RLock()
	data, err := json.Marshal(snapshot{
		Chunks:          x.chunks,
		Vectors:         x.vectors,
		Lookup:          x.lookup,
		BackupTimestamp: time.Now().UTC().Format(time.RFC3339),
	})
	x.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	if err := x.blobs.PutBlob(ctx, BackupBlobKey, data); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// Restore replaces the index wholesale from the backup blob (no merge)
// and persists the restored state. Unlike Load, a corrupt backup is an
// error: the current index is left untouched.
func (x *Index) Restore(ctx context.Context) error {
	data, err := x.blobs.GetBlob(ctx, BackupBlobKey)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	snap, err := decodeSnapshot(data)
	if err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.chunks = snap.Chunks
	x.vectors = snap.Vectors
	x.rebuildLookup()
	return x.persist(ctx)
}

// decodeSnapshot parses and validates a serialized index, enforcing the
// parallel-array invariant.
func decodeSnapshot(data []byte) (snapshot, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return snapshot{}, fmt.Errorf("%w: %w", domain.ErrIndexCorrupt, err)
	}
	if len(snap.Chunks) != len(snap.Vectors) {
		return snapshot{}, fmt.Errorf("%w: %d chunks vs %d vectors",
			domain.ErrIndexCorrupt, len(snap.Chunks), len(snap.Vectors))
	}
	return snap, nil
}

func countDocuments(chunks []domain.Chunk) int {
	seen := make(map[string]struct{})
	for _, c := range chunks {
		seen[c.Document] = struct{}{}
	}
	return len(seen)
}
