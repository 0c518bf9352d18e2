package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/askdocs/askdocs/internal/domain"
)

// Local is the local-disk storage variant: document bytes under
// <dir>/documents, metadata in <dir>/files_metadata.json, blobs under
// <dir> at their slash-separated keys.
type Local struct {
	mu  sync.Mutex
	dir string
}

var _ Store = (*Local)(nil)

const localMetadataFile = "files_metadata.json"

// NewLocal creates (if needed) and opens a local storage directory.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(filepath.Join(dir, "documents"), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{dir: dir}, nil
}

// Upload writes data under a timestamped stored name and records its
// metadata with the indexed flag off.
func (s *Local) Upload(ctx context.Context, originalName string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	storedName := storedName(originalName)
	path := filepath.Join(s.dir, "documents", storedName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}

	meta, err := s.loadMetadata()
	if err != nil {
		return "", err
	}
	meta[storedName] = fileMeta{
		OriginalName: originalName,
		Size:         int64(len(data)),
		UploadedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.saveMetadata(meta); err != nil {
		return "", err
	}
	return storedName, nil
}

// Download returns the stored bytes, or domain.ErrNotFound.
func (s *Local) Download(ctx context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, "documents", filepath.Base(name)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
		}
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

// Delete removes the stored file and its metadata entry.
func (s *Local) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, "documents", filepath.Base(name))
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove document: %w", err)
	}

	meta, err := s.loadMetadata()
	if err != nil {
		return err
	}
	delete(meta, name)
	return s.saveMetadata(meta)
}

// List returns all stored files sorted by stored name.
func (s *Local) List(ctx context.Context) ([]domain.StoredFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.loadMetadata()
	if err != nil {
		return nil, err
	}
	infos := make([]domain.StoredFile, 0, len(meta))
	for name, m := range meta {
		infos = append(infos, m.info(name))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// SetIndexed flips the per-file indexed flag.
func (s *Local) SetIndexed(ctx context.Context, name string, indexed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.loadMetadata()
	if err != nil {
		return err
	}
	m, ok := meta[name]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	m.Indexed = indexed
	meta[name] = m
	return s.saveMetadata(meta)
}

// GetBlob reads a blob at its slash-separated key under the storage
// directory.
func (s *Local) GetBlob(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.blobPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

// PutBlob writes a blob, creating parent directories as needed.
func (s *Local) PutBlob(ctx context.Context, key string, data []byte) error {
	path := s.blobPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	return nil
}

// Ping verifies the storage directory is accessible.
func (s *Local) Ping(ctx context.Context) error {
	if _, err := os.Stat(s.dir); err != nil {
		return fmt.Errorf("stat storage dir: %w", err)
	}
	return nil
}

// Close is a no-op for local storage.
func (s *Local) Close() {}

func (s *Local) blobPath(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(key))
}

// loadMetadata reads the metadata file. A missing or malformed file
// yields an empty map so one bad write never bricks the store.
func (s *Local) loadMetadata() (map[string]fileMeta, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, localMetadataFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]fileMeta{}, nil
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	meta := map[string]fileMeta{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return map[string]fileMeta{}, nil
	}
	return meta, nil
}

func (s *Local) saveMetadata(meta map[string]fileMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, localMetadataFile), data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// storedName prefixes the sanitized original name with an upload
// timestamp so repeated uploads never collide.
func storedName(originalName string) string {
	base := filepath.Base(originalName)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	return time.Now().UTC().Format("20060102_150405") + "_" + base
}
