// Package query answers natural-language questions by retrieving
// relevant chunks, assembling context around them, and asking the
// chat-completion model for a grounded answer.
package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/domain"
	"github.com/askdocs/askdocs/internal/usecase/memory"
)

// Retrieval and context-assembly parameters.
const (
	topK = 5
	// minScore gates the whole retrieval: a best match below it means
	// "no relevant document".
	minScore = 0.03
	// contextScoreThreshold is the stricter per-match bar for inclusion
	// in the assembled context.
	contextScoreThreshold = 0.1
	// neighborWindow expands a matched chunk to +-2 sequence numbers.
	neighborWindow = 2
	// maxWindowChunks caps each assembled block.
	maxWindowChunks = 5
)

// Fixed user-facing messages. Every failure on the query path degrades
// to one of these; nothing propagates to the end user as an error.
const (
	MsgNoDocuments   = "No documents have been added yet. Please upload a document first."
	MsgNotConfigured = "The answering service is not configured. Please contact the administrator."
	MsgNoRelevant    = "No relevant documents were found for this question."
	MsgQueryFailed   = "Something went wrong while answering this question. Please try again."
)

// listingCues short-circuit "what documents do you have" questions to a
// mechanical listing, skipping retrieval and the model call entirely.
var listingCues = []string{
	"what documents", "which documents", "what files", "which files",
	"document list", "list of documents", "list the documents",
	"list documents", "list files", "file names", "filenames",
	"stored documents", "uploaded documents", "documents do you have",
	"files do you have",
}

// Service orchestrates the query path.
type Service struct {
	retriever Retriever
	embed     domain.Embedder
	complete  domain.Completer
	logger    *zap.Logger
}

// New creates a query service. embed and complete may be nil when no
// model credential is configured; queries then degrade to a fixed
// message.
func New(retriever Retriever, embed domain.Embedder, complete domain.Completer, logger *zap.Logger) *Service {
	return &Service{retriever: retriever, embed: embed, complete: complete, logger: logger}
}

// Query answers question using the indexed documents and the caller's
// conversation history. It always returns a user-facing answer:
// external failures are logged and degrade to a fixed message.
func (s *Service) Query(ctx context.Context, question string, history []domain.Turn) string {
	if s.retriever.Len() == 0 {
		return MsgNoDocuments
	}
	if s.embed == nil || s.complete == nil {
		s.logger.Warn("Query received but no model credential is configured")
		return MsgNotConfigured
	}
	if isListingQuestion(question) {
		return s.listDocuments()
	}

	emb, err := s.embed.Embed(ctx, question)
	if err != nil {
		s.logger.Error("Failed to embed question", zap.Error(err))
		return MsgQueryFailed
	}

	matches := s.retriever.Search(emb.Embedding, topK, minScore)
	if len(matches) == 0 {
		s.logger.Info("No match above similarity threshold",
			zap.String("question", truncate(question, 80)))
		return MsgNoRelevant
	}

	docContext := s.assembleContext(matches)
	turns := memory.Select(question, history, memory.DefaultMax)

	answer, err := s.complete.Complete(ctx, systemPrompt, buildUserPrompt(question, docContext, turns))
	if err != nil {
		s.logger.Error("Completion failed", zap.Error(err))
		return MsgQueryFailed
	}
	return strings.TrimSpace(answer)
}

// SearchProbe embeds query and returns the raw top matches with scores,
// regardless of thresholds. Admin diagnostics only.
func (s *Service) SearchProbe(ctx context.Context, query string) ([]domain.Match, error) {
	if s.embed == nil {
		return nil, fmt.Errorf("embedding credential not configured")
	}
	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed probe query: %w", err)
	}
	return s.retriever.Search(emb.Embedding, topK, -2), nil
}

// assembleContext expands each matched chunk above the per-match
// threshold into a window of neighboring chunks from the same document
// and concatenates the labeled blocks in descending match-score order.
// A chunk included in one block is never re-selected by a later match.
func (s *Service) assembleContext(matches []domain.Match) string {
	included := make(map[string]struct{})
	var sb strings.Builder

	for _, m := range matches {
		if m.Score <= contextScoreThreshold {
			continue
		}
		if _, ok := included[m.Chunk.Key()]; ok {
			continue
		}

		window := s.windowAround(m.Chunk, included)
		if len(window) == 0 {
			continue
		}
		sb.WriteString("\n\n=== ")
		sb.WriteString(m.Chunk.Document)
		sb.WriteString(" ===\n")
		for i, c := range window {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(c.Content)
		}
	}
	return sb.String()
}

// windowAround selects up to maxWindowChunks chunks of the matched
// chunk's document within neighborWindow of its sequence number, in
// sequence order, skipping chunks already included elsewhere. Selected
// chunks are marked included.
func (s *Service) windowAround(matched domain.Chunk, included map[string]struct{}) []domain.Chunk {
	all := s.retriever.DocumentChunks(matched.Document)

	var window []domain.Chunk
	for _, c := range all {
		if c.Seq < matched.Seq-neighborWindow || c.Seq > matched.Seq+neighborWindow {
			continue
		}
		if _, ok := included[c.Key()]; ok {
			continue
		}
		window = append(window, c)
		if len(window) == maxWindowChunks {
			break
		}
	}
	for _, c := range window {
		included[c.Key()] = struct{}{}
	}
	return window
}

// listDocuments answers a listing question directly from the index,
// sorted lexicographically. No model call is made.
func (s *Service) listDocuments() string {
	names := s.retriever.DocumentNames()
	sort.Strings(names)

	switch len(names) {
	case 0:
		return MsgNoDocuments
	case 1:
		return fmt.Sprintf("The stored document is %q.", names[0])
	default:
		var sb strings.Builder
		fmt.Fprintf(&sb, "There are %d stored documents:\n", len(names))
		for _, n := range names {
			sb.WriteString("\n- ")
			sb.WriteString(n)
		}
		return sb.String()
	}
}

// isListingQuestion reports whether question matches a document-listing
// cue phrase.
func isListingQuestion(question string) bool {
	lower := strings.ToLower(question)
	for _, cue := range listingCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

// truncate shortens s to n characters, never cutting mid-rune.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
