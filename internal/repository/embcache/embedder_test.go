package embcache

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/domain"
)

type fakeBlobs struct {
	m map[string][]byte
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{m: make(map[string][]byte)}
}

func (f *fakeBlobs) GetBlob(_ context.Context, key string) ([]byte, error) {
	if b, ok := f.m[key]; ok {
		return b, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBlobs) PutBlob(_ context.Context, key string, data []byte) error {
	f.m[key] = data
	return nil
}

type countingEmbedder struct {
	calls int
	err   error
}

func (e *countingEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	e.calls++
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	return domain.EmbeddingResult{
		Embedding:    []float32{0.25, -1.5, 3},
		PromptTokens: 7,
		TotalTokens:  7,
	}, nil
}

func TestEmbed_MissThenHit(t *testing.T) {
	inner := &countingEmbedder{}
	cache := New(inner, newFakeBlobs(), nil, zap.NewNop())
	ctx := context.Background()

	first, err := cache.Embed(ctx, "some chunk text")
	if err != nil {
		t.Fatalf("first embed: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}
	if first.TotalTokens != 7 {
		t.Errorf("miss should report inner token usage, got %d", first.TotalTokens)
	}

	second, err := cache.Embed(ctx, "some chunk text")
	if err != nil {
		t.Fatalf("second embed: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("cache hit should not call inner embedder, got %d calls", inner.calls)
	}
	if second.TotalTokens != 0 {
		t.Errorf("hit should report zero token usage, got %d", second.TotalTokens)
	}

	if len(second.Embedding) != len(first.Embedding) {
		t.Fatalf("vector length changed through cache: %d vs %d", len(second.Embedding), len(first.Embedding))
	}
	for i := range first.Embedding {
		if first.Embedding[i] != second.Embedding[i] {
			t.Errorf("component %d changed through cache: %v vs %v", i, first.Embedding[i], second.Embedding[i])
		}
	}
}

func TestEmbed_DistinctTextsDistinctKeys(t *testing.T) {
	inner := &countingEmbedder{}
	cache := New(inner, newFakeBlobs(), nil, zap.NewNop())
	ctx := context.Background()

	if _, err := cache.Embed(ctx, "first text"); err != nil {
		t.Fatalf("embed: %v", err)
	}
	if _, err := cache.Embed(ctx, "second text"); err != nil {
		t.Fatalf("embed: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("distinct texts must each call the inner embedder, got %d calls", inner.calls)
	}
}

func TestEmbed_InnerFailurePropagates(t *testing.T) {
	inner := &countingEmbedder{err: domain.ErrEmbeddingProvider}
	cache := New(inner, newFakeBlobs(), nil, zap.NewNop())

	_, err := cache.Embed(context.Background(), "text")
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestEmbed_CorruptCacheEntryFallsThrough(t *testing.T) {
	inner := &countingEmbedder{}
	blobs := newFakeBlobs()
	cache := New(inner, blobs, nil, zap.NewNop())
	ctx := context.Background()

	// Seed a truncated entry at the exact cache key.
	blobs.m[cacheKey("poisoned text")] = []byte{1, 2, 3}

	result, err := cache.Embed(ctx, "poisoned text")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("corrupt entry should fall through to inner embedder, got %d calls", inner.calls)
	}
	if len(result.Embedding) != 3 {
		t.Fatalf("unexpected embedding: %v", result.Embedding)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	vec := []float32{0, -0, 1.5, -2.25, 3.14159}
	got, err := bytesToVector(vectorToBytes(vec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(vec) {
		t.Fatalf("length changed: %d vs %d", len(got), len(vec))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("component %d: %v != %v", i, got[i], vec[i])
		}
	}
}
