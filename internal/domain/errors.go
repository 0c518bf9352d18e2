package domain

import "errors"

var (
	// ErrNotFound signals a missing stored file or resource.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedFormat signals a file type without a text decoder.
	// The document is skipped; the batch is not aborted.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrEmbeddingProvider signals an embedding provider failure.
	// The affected chunk is skipped; the document is not aborted.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrCompletionProvider signals a chat completion provider failure.
	// The single query is aborted and degrades to a fixed user message.
	ErrCompletionProvider = errors.New("completion provider error")
	// ErrIndexCorrupt signals a malformed persisted index blob. Load
	// falls back to an empty index rather than failing startup.
	ErrIndexCorrupt = errors.New("index blob corrupt")
	// ErrNoChunksEmbedded signals that every chunk of a document failed
	// to embed, so nothing was added to the index.
	ErrNoChunksEmbedded = errors.New("no chunks embedded")
	// ErrEmptyDocument signals a document with no extractable text.
	ErrEmptyDocument = errors.New("document has no extractable text")
)
