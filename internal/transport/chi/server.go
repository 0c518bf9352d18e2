// Package chi is the thin HTTP surface over the RAG core: query,
// document management, admin index operations, health.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/domain"
	"github.com/askdocs/askdocs/internal/index"
	logpkg "github.com/askdocs/askdocs/internal/logger"
	"github.com/askdocs/askdocs/internal/repository/store"
	"github.com/askdocs/askdocs/internal/usecase/health"
	"github.com/askdocs/askdocs/internal/usecase/ingest"
	"github.com/askdocs/askdocs/internal/usecase/query"
)

// maxUploadBytes bounds a single document upload.
const maxUploadBytes = 32 << 20

// ModelInfo is the static model configuration reported by the status
// endpoint.
type ModelInfo struct {
	EmbeddingModel string `json:"embedding_model"`
	ChatModel      string `json:"chat_model"`
	Configured     bool   `json:"configured"`
	StorageBackend string `json:"storage_backend"`
}

// Server wires the use case services to HTTP handlers.
type Server struct {
	storage  store.Store
	index    *index.Index
	ingest   *ingest.Service
	query    *query.Service
	health   *health.Service
	info     ModelInfo
	sessions *sessions
	logger   *zap.Logger
}

// NewServer creates the HTTP server.
func NewServer(
	storage store.Store,
	idx *index.Index,
	ingestSvc *ingest.Service,
	querySvc *query.Service,
	healthSvc *health.Service,
	info ModelInfo,
	logger *zap.Logger,
) *Server {
	return &Server{
		storage:  storage,
		index:    idx,
		ingest:   ingestSvc,
		query:    querySvc,
		health:   healthSvc,
		info:     info,
		sessions: newSessions(),
		logger:   logger,
	}
}

// Routes registers all handlers on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Get("/search-probe", s.handleSearchProbe)
		r.Get("/status", s.handleStatus)

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.Post("/", s.handleUpload)
			r.Post("/{name}/ingest", s.handleIngest)
			r.Delete("/{name}", s.handleDeleteDocument)
		})

		r.Route("/index", func(r chi.Router) {
			r.Post("/clear", s.handleClearIndex)
			r.Post("/rebuild", s.handleRebuildIndex)
			r.Post("/backup", s.handleBackup)
			r.Post("/restore", s.handleRestore)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != health.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question  string `json:"question"`
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	sid, _ := s.sessions.get(req.SessionID)
	answer := s.query.Query(r.Context(), req.Question, s.sessions.turns(sid))
	s.sessions.record(sid, req.Question, answer)

	writeJSON(w, http.StatusOK, map[string]string{
		"answer":     answer,
		"session_id": sid,
	})
}

func (s *Server) handleSearchProbe(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	matches, err := s.query.SearchProbe(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusBadGateway, "search probe failed")
		return
	}

	type probeResult struct {
		Document string  `json:"document"`
		Seq      int     `json:"seq"`
		Score    float64 `json:"score"`
	}
	results := make([]probeResult, len(matches))
	for i, m := range matches {
		results[i] = probeResult{Document: m.Chunk.Document, Seq: m.Chunk.Seq, Score: m.Score}
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "results": results})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"documents":       len(s.index.DocumentNames()),
		"chunks":          s.index.Len(),
		"dimensions":      s.index.Dimensions(),
		"embedding_model": s.info.EmbeddingModel,
		"chat_model":      s.info.ChatModel,
		"configured":      s.info.Configured,
		"storage_backend": s.info.StorageBackend,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	files, err := s.storage.List(r.Context())
	if err != nil {
		s.logger.Error("Failed to list documents", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": files})
}

// handleUpload stores an uploaded file and ingests it immediately.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	name, err := s.storage.Upload(r.Context(), header.Filename, data)
	if err != nil {
		logpkg.FromContext(r.Context()).Error("Upload failed",
			zap.String("filename", header.Filename), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store document")
		return
	}

	result, err := s.ingest.AddDocument(r.Context(), name)
	if err != nil {
		s.writeIngestError(w, r, name, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"stored_name": name, "ingest": result})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	result, err := s.ingest.AddDocument(r.Context(), name)
	if err != nil {
		s.writeIngestError(w, r, name, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleDeleteDocument removes the stored file and its index chunks.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	files, err := s.storage.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	var found *domain.StoredFile
	for i := range files {
		if files[i].Name == name {
			found = &files[i]
			break
		}
	}
	if found == nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	if err := s.ingest.RemoveDocument(r.Context(), found.DisplayName); err != nil {
		s.logger.Error("Failed to remove document from index", zap.String("name", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to remove document")
		return
	}
	if err := s.storage.Delete(r.Context(), name); err != nil {
		s.logger.Error("Failed to delete stored file", zap.String("name", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.ingest.Clear(r.Context()); err != nil {
		s.logger.Error("Failed to clear index", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to clear index")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRebuildIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.ingest.Rebuild(r.Context()); err != nil {
		s.logger.Error("Failed to rebuild index", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to rebuild index")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	if err := s.index.Backup(r.Context()); err != nil {
		s.logger.Error("Backup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if err := s.index.Restore(r.Context()); err != nil {
		s.logger.Error("Restore failed", zap.Error(err))
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no backup found")
			return
		}
		writeError(w, http.StatusInternalServerError, "restore failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeIngestError maps ingestion failures to status codes per the
// error taxonomy.
func (s *Server) writeIngestError(w http.ResponseWriter, r *http.Request, name string, err error) {
	logpkg.FromContext(r.Context()).Error("Ingest failed", zap.String("name", name), zap.Error(err))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "document not found")
	case errors.Is(err, domain.ErrUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, "unsupported document format")
	case errors.Is(err, domain.ErrEmptyDocument):
		writeError(w, http.StatusUnprocessableEntity, "document has no extractable text")
	case errors.Is(err, domain.ErrNoChunksEmbedded), errors.Is(err, domain.ErrEmbeddingProvider):
		writeError(w, http.StatusBadGateway, "embedding failed")
	default:
		writeError(w, http.StatusInternalServerError, "ingest failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
