package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_SlidingWindow(t *testing.T) {
	text := strings.Repeat("a", 3000)

	chunks, err := Split(text, 1200, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	// Window i starts at i*(size-overlap): offsets 0, 1000, 2000.
	wantLens := []int{1200, 1200, 1000}
	for i, c := range chunks {
		if len(c) != wantLens[i] {
			t.Errorf("chunk %d: expected length %d, got %d", i, wantLens[i], len(c))
		}
	}
}

func TestSplit_WindowContents(t *testing.T) {
	text := "abcdefghij" // 10 chars

	chunks, err := Split(text, 4, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"abcd", "cdef", "efgh", "ghij", "ij"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(chunks), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], chunks[i])
		}
	}
}

func TestSplit_CoversEveryCharacter(t *testing.T) {
	cases := []struct {
		name    string
		char    string
		textLen int
		size    int
		overlap int
	}{
		{"exact multiple", "x", 3000, 1200, 200},
		{"shorter than window", "x", 500, 1200, 200},
		{"no overlap", "x", 1000, 100, 0},
		{"tiny windows", "x", 37, 5, 2},
		{"multi-byte runes", "한", 3000, 1200, 200},
		{"multi-byte tiny windows", "語", 37, 5, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text := strings.Repeat(tc.char, tc.textLen)
			chunks, err := Split(text, tc.size, tc.overlap)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			covered := make([]bool, tc.textLen)
			step := tc.size - tc.overlap
			for i, c := range chunks {
				start := i * step
				for j := 0; j < utf8.RuneCountInString(c); j++ {
					covered[start+j] = true
				}
			}
			for pos, ok := range covered {
				if !ok {
					t.Fatalf("character at offset %d not covered by any chunk", pos)
				}
			}
		})
	}
}

func TestSplit_MultiByteWindowMath(t *testing.T) {
	// Window offsets count characters, not bytes: 3000 three-byte runes
	// still split at character starts 0, 1000, 2000.
	text := strings.Repeat("한", 3000)

	chunks, err := Split(text, 1200, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	wantRunes := []int{1200, 1200, 1000}
	for i, c := range chunks {
		if got := utf8.RuneCountInString(c); got != wantRunes[i] {
			t.Errorf("chunk %d: expected %d characters, got %d", i, wantRunes[i], got)
		}
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d sliced mid-rune", i)
		}
	}
}

func TestSplit_MixedWidthContents(t *testing.T) {
	text := "a한b글c딩d언e문" // 10 characters, alternating widths

	chunks, err := Split(text, 4, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a한b글", "b글c딩", "c딩d언", "d언e문", "e문"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(chunks), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], chunks[i])
		}
	}
}

func TestSplit_Empty(t *testing.T) {
	chunks, err := Split("", 1200, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty text, got %d", len(chunks))
	}
}

func TestSplit_InvalidParameters(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		overlap int
	}{
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
		{"zero size", 0, 0},
		{"negative overlap", 100, -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Split("some text", tc.size, tc.overlap); err == nil {
				t.Errorf("expected error for size=%d overlap=%d", tc.size, tc.overlap)
			}
		})
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("abc ", 1000)
	first, err := Split(text, 300, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Split(text, 300, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("non-deterministic chunk count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}
