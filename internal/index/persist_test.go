package index

import (
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/domain"
)

func TestLoad_MissingBlobStartsEmpty(t *testing.T) {
	idx, _ := newTestIndex(t)
	if err := idx.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Len() != 0 {
		t.Fatalf("expected empty index, got %d chunks", idx.Len())
	}
}

func TestLoad_CorruptBlobStartsEmpty(t *testing.T) {
	blobs := newFakeBlobs()
	blobs.m[BlobKey] = []byte("{not json")
	idx := New(blobs, zap.NewNop())

	if err := idx.Load(context.Background()); err != nil {
		t.Fatalf("corrupt blob should not fail load: %v", err)
	}
	if idx.Len() != 0 {
		t.Fatalf("expected empty index after corrupt load, got %d chunks", idx.Len())
	}
}

func TestLoad_MisalignedSnapshotStartsEmpty(t *testing.T) {
	blobs := newFakeBlobs()
	data, err := json.Marshal(snapshot{
		Chunks:  []domain.Chunk{{Document: "doc", Seq: 0}},
		Vectors: [][]float32{},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	blobs.m[BlobKey] = data
	idx := New(blobs, zap.NewNop())

	if err := idx.Load(context.Background()); err != nil {
		t.Fatalf("misaligned blob should not fail load: %v", err)
	}
	if idx.Len() != 0 {
		t.Fatalf("expected empty index, got %d chunks", idx.Len())
	}
}

func TestLoad_RebuildsLookup(t *testing.T) {
	blobs := newFakeBlobs()

	// Persist from one index, load into a fresh one sharing the store.
	first := New(blobs, zap.NewNop())
	chunks, vectors := chunksOf("report", 4)
	if err := first.AppendDocument(context.Background(), chunks, vectors); err != nil {
		t.Fatalf("append: %v", err)
	}

	second := New(blobs, zap.NewNop())
	if err := second.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if second.Len() != 4 {
		t.Fatalf("expected 4 chunks after load, got %d", second.Len())
	}
	keys := second.LookupKeys()
	if len(keys) != 4 || keys[0] != "report_0" || keys[3] != "report_3" {
		t.Fatalf("lookup not rebuilt: %v", keys)
	}
}

func TestBackupRestore_RoundTrip(t *testing.T) {
	idx, blobs := newTestIndex(t)
	ctx := context.Background()

	chunks, vectors := chunksOf("manual", 3)
	if err := idx.AppendDocument(ctx, chunks, vectors); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := idx.Backup(ctx); err != nil {
		t.Fatalf("backup: %v", err)
	}

	var snap snapshot
	if err := json.Unmarshal(blobs.m[BackupBlobKey], &snap); err != nil {
		t.Fatalf("decode backup: %v", err)
	}
	if snap.BackupTimestamp == "" {
		t.Error("backup should carry a timestamp")
	}

	// Mutate, then restore the earlier state.
	if err := idx.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := idx.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if idx.Len() != 3 {
		t.Fatalf("expected 3 chunks after restore, got %d", idx.Len())
	}
	if !idx.Contains("manual") {
		t.Error("restored index missing document")
	}

	// Restore also rewrites the primary blob.
	var primary snapshot
	if err := json.Unmarshal(blobs.m[BlobKey], &primary); err != nil {
		t.Fatalf("decode primary: %v", err)
	}
	if len(primary.Chunks) != 3 {
		t.Errorf("primary blob not updated after restore: %d chunks", len(primary.Chunks))
	}
}

func TestRestore_NoBackup(t *testing.T) {
	idx, _ := newTestIndex(t)
	err := idx.Restore(context.Background())
	if err == nil {
		t.Fatal("expected error when no backup exists")
	}
}

func TestRestore_CorruptBackupLeavesIndexUntouched(t *testing.T) {
	idx, blobs := newTestIndex(t)
	ctx := context.Background()

	chunks, vectors := chunksOf("live", 2)
	if err := idx.AppendDocument(ctx, chunks, vectors); err != nil {
		t.Fatalf("append: %v", err)
	}
	blobs.m[BackupBlobKey] = []byte("garbage")

	if err := idx.Restore(ctx); err == nil {
		t.Fatal("expected error for corrupt backup")
	}
	if idx.Len() != 2 {
		t.Fatalf("index mutated by failed restore: %d chunks", idx.Len())
	}
}

func TestDecodeSnapshot_CorruptTaxonomy(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"invalid json", []byte("][")},
		{"misaligned arrays", mustMarshal(t, snapshot{
			Chunks:  []domain.Chunk{{Document: "x"}},
			Vectors: [][]float32{{1}, {2}},
		})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeSnapshot(tc.data)
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}
