package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/config"
	"github.com/askdocs/askdocs/internal/domain"
	"github.com/askdocs/askdocs/internal/index"
	logpkg "github.com/askdocs/askdocs/internal/logger"
	"github.com/askdocs/askdocs/internal/metrics"
	"github.com/askdocs/askdocs/internal/repository/embcache"
	"github.com/askdocs/askdocs/internal/repository/store"
	chiTransport "github.com/askdocs/askdocs/internal/transport/chi"
	openaiClient "github.com/askdocs/askdocs/internal/transport/openai"
	healthuc "github.com/askdocs/askdocs/internal/usecase/health"
	ingestuc "github.com/askdocs/askdocs/internal/usecase/ingest"
	queryuc "github.com/askdocs/askdocs/internal/usecase/query"
	"github.com/askdocs/askdocs/internal/version"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting askdocs server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("storage_backend", cfg.Storage.Backend),
	)

	// Storage collaborator, selected once at startup
	var storage store.Store
	switch cfg.Storage.Backend {
	case "local":
		storage, err = store.NewLocal(cfg.Storage.LocalDir)
	case "object":
		storage, err = store.NewObject(store.ObjectConfig{
			Addrs:     cfg.Storage.Addrs,
			Username:  cfg.Storage.Username,
			Password:  cfg.Storage.Password,
			KeyPrefix: cfg.Storage.KeyPrefix,
		})
	default:
		logger.Fatal("Unknown storage backend", zap.String("backend", cfg.Storage.Backend))
	}
	if err != nil {
		logger.Fatal("Failed to create storage", zap.Error(err))
	}
	defer storage.Close()

	ctx := context.Background()
	if err := waitForReady(ctx, storage, time.Duration(cfg.Storage.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Storage not ready", zap.Error(err))
	}
	logger.Info("Connected to storage")

	// Register model metrics explicitly (no init())
	metrics.RegisterModelMetrics()

	// Model clients; the service keeps running without a credential,
	// queries then degrade to a fixed message.
	var (
		embedder  domain.Embedder
		completer domain.Completer
		checker   healthuc.EmbeddingChecker
	)
	configured := cfg.Models.APIKey != ""
	if configured {
		base := openaiClient.NewEmbedder(&openaiClient.Config{
			APIKey:     cfg.Models.APIKey,
			BaseURL:    cfg.Models.BaseURL,
			Model:      cfg.Models.EmbeddingModel,
			Dimensions: cfg.Models.EmbeddingDimensions,
			Logger:     logger,
		})
		checker = base
		embedder = base
		if cfg.Models.CacheEmbeddings {
			embedder = embcache.New(base, storage, metrics.EmbeddingCacheTotal, logger)
		}
		completer = openaiClient.NewChat(&openaiClient.Config{
			APIKey:  cfg.Models.APIKey,
			BaseURL: cfg.Models.BaseURL,
			Model:   cfg.Models.ChatModel,
			Logger:  logger,
		})
		logger.Info("Model clients created",
			zap.String("embedding_model", cfg.Models.EmbeddingModel),
			zap.String("chat_model", cfg.Models.ChatModel),
		)
	} else {
		logger.Warn("No model API key configured, query answering is disabled")
	}

	// Vector index, loaded eagerly; a corrupt blob starts empty.
	idx := index.New(storage, logger)
	if err := idx.Load(ctx); err != nil {
		logger.Fatal("Failed to load vector index", zap.Error(err))
	}
	metrics.IndexChunks.Set(float64(idx.Len()))

	ingestSvc := ingestuc.New(storage, idx, embedder, cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap, logger)
	querySvc := queryuc.New(idx, embedder, completer, logger)
	healthSvc := healthuc.New(storage, checker)

	if cfg.RAG.ReconcileOnStart && configured {
		ingestSvc.Reconcile(ctx)
	}

	server := chiTransport.NewServer(storage, idx, ingestSvc, querySvc, healthSvc, chiTransport.ModelInfo{
		EmbeddingModel: cfg.Models.EmbeddingModel,
		ChatModel:      cfg.Models.ChatModel,
		Configured:     configured,
		StorageBackend: cfg.Storage.Backend,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Handle("/metrics", promhttp.Handler())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// waitForReady polls the storage Ping until it responds or timeout expires.
func waitForReady(ctx context.Context, storage store.Store, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := storage.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for storage: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a
// plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"error": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and
// propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
