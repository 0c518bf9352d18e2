// Package chunker splits extracted document text into overlapping
// fixed-size windows, the unit handed to the embedder.
package chunker

import "fmt"

// Default window parameters, tuned for embedding-model context limits.
const (
	DefaultSize    = 1200
	DefaultOverlap = 200
)

// Split slides a size-character frame across text with the given
// character overlap: window i starts where window i-1 started plus
// (size - overlap). Size and overlap count characters (runes), not
// bytes, so multi-byte text is never sliced mid-rune and the window
// math is independent of encoding width. Fully deterministic and
// stateless. Empty text yields no windows.
//
// overlap >= size would make the step non-positive and the loop
// endless, so it is rejected.
func Split(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must be non-negative, got %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", overlap, size)
	}
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	step := size - overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks, nil
}
