// Package store implements the file-storage collaborator: a narrow
// contract for storing document bytes, listing them, flagging which are
// indexed, and persisting the index blob. Two variants exist — a local
// directory and a Redis/Valkey object store — selected once at startup.
package store

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/askdocs/askdocs/internal/domain"
)

// Store is the storage collaborator contract the ingestion and query
// paths depend on.
type Store interface {
	// Upload stores data under a unique name derived from originalName
	// and returns the stored name.
	Upload(ctx context.Context, originalName string, data []byte) (string, error)
	// Download returns the stored bytes, or domain.ErrNotFound.
	Download(ctx context.Context, name string) ([]byte, error)
	// Delete removes a stored file and its metadata.
	Delete(ctx context.Context, name string) error
	// List returns all stored files.
	List(ctx context.Context) ([]domain.StoredFile, error)
	// SetIndexed flips the per-file indexed flag.
	SetIndexed(ctx context.Context, name string, indexed bool) error

	// GetBlob and PutBlob persist opaque blobs (the index snapshot) at
	// well-known keys.
	GetBlob(ctx context.Context, key string) ([]byte, error)
	PutBlob(ctx context.Context, key string, data []byte) error

	Ping(ctx context.Context) error
	Close()
}

// fileMeta is the per-file metadata record kept by both backends.
type fileMeta struct {
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	UploadedAt   string `json:"uploaded_at"`
	Indexed      bool   `json:"indexed"`
}

func (m fileMeta) info(storedName string) domain.StoredFile {
	return domain.StoredFile{
		Name:        storedName,
		DisplayName: DisplayName(m.OriginalName),
		Indexed:     m.Indexed,
		Size:        m.Size,
		UploadedAt:  m.UploadedAt,
	}
}

// DisplayName strips the extension from an original file name, yielding
// the document identifier used throughout the index.
func DisplayName(originalName string) string {
	return strings.TrimSuffix(originalName, filepath.Ext(originalName))
}
