package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/rueidis"

	"github.com/askdocs/askdocs/internal/domain"
)

// Object is the object-store variant backed by Redis/Valkey via
// rueidis: document bytes and index blobs are plain keys, per-file
// metadata lives in one hash.
type Object struct {
	client rueidis.Client
	prefix string
}

var _ Store = (*Object)(nil)

// ObjectConfig holds connection parameters for the object store.
type ObjectConfig struct {
	Addrs     []string
	Username  string
	Password  string
	KeyPrefix string
}

// NewObject connects to the object store.
func NewObject(cfg ObjectConfig) (*Object, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "askdocs:"
	}
	return &Object{client: client, prefix: prefix}, nil
}

func (s *Object) fileKey(name string) string { return s.prefix + "file:" + name }
func (s *Object) blobKey(key string) string  { return s.prefix + "blob:" + key }
func (s *Object) metaKey() string            { return s.prefix + "files_metadata" }

// Upload stores data under a timestamped name and records its metadata
// in the files hash.
func (s *Object) Upload(ctx context.Context, originalName string, data []byte) (string, error) {
	name := storedName(originalName)
	cmd := s.client.B().Set().Key(s.fileKey(name)).Value(rueidis.BinaryString(data)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return "", fmt.Errorf("store document: %w", err)
	}
	m := fileMeta{
		OriginalName: originalName,
		Size:         int64(len(data)),
		UploadedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.putMeta(ctx, name, m); err != nil {
		return "", err
	}
	return name, nil
}

// Download returns the stored bytes, or domain.ErrNotFound.
func (s *Object) Download(ctx context.Context, name string) ([]byte, error) {
	cmd := s.client.B().Get().Key(s.fileKey(name)).Build()
	data, err := s.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
		}
		return nil, fmt.Errorf("download document: %w", err)
	}
	return data, nil
}

// Delete removes the stored bytes and the metadata entry.
func (s *Object) Delete(ctx context.Context, name string) error {
	del := s.client.B().Del().Key(s.fileKey(name)).Build()
	if err := s.client.Do(ctx, del).Error(); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	hdel := s.client.B().Hdel().Key(s.metaKey()).Field(name).Build()
	if err := s.client.Do(ctx, hdel).Error(); err != nil {
		return fmt.Errorf("delete document metadata: %w", err)
	}
	return nil
}

// List returns all stored files sorted by stored name.
func (s *Object) List(ctx context.Context) ([]domain.StoredFile, error) {
	cmd := s.client.B().Hgetall().Key(s.metaKey()).Build()
	fields, err := s.client.Do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	infos := make([]domain.StoredFile, 0, len(fields))
	for name, raw := range fields {
		var m fileMeta
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			continue
		}
		infos = append(infos, m.info(name))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// SetIndexed flips the per-file indexed flag.
func (s *Object) SetIndexed(ctx context.Context, name string, indexed bool) error {
	m, err := s.getMeta(ctx, name)
	if err != nil {
		return err
	}
	m.Indexed = indexed
	return s.putMeta(ctx, name, m)
}

// GetBlob reads an opaque blob, or domain.ErrNotFound.
func (s *Object) GetBlob(ctx context.Context, key string) ([]byte, error) {
	cmd := s.client.B().Get().Key(s.blobKey(key)).Build()
	data, err := s.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

// PutBlob writes an opaque blob.
func (s *Object) PutBlob(ctx context.Context, key string, data []byte) error {
	cmd := s.client.B().Set().Key(s.blobKey(key)).Value(rueidis.BinaryString(data)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Object) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Object) Close() {
	s.client.Close()
}

func (s *Object) getMeta(ctx context.Context, name string) (fileMeta, error) {
	cmd := s.client.B().Hget().Key(s.metaKey()).Field(name).Build()
	raw, err := s.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return fileMeta{}, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
		}
		return fileMeta{}, fmt.Errorf("read document metadata: %w", err)
	}
	var m fileMeta
	if err := json.Unmarshal(raw, &m); err != nil {
		return fileMeta{}, fmt.Errorf("decode document metadata: %w", err)
	}
	return m, nil
}

func (s *Object) putMeta(ctx context.Context, name string, m fileMeta) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode document metadata: %w", err)
	}
	cmd := s.client.B().Hset().Key(s.metaKey()).FieldValue().
		FieldValue(name, string(raw)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("write document metadata: %w", err)
	}
	return nil
}
