package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docrag/internal/booking"
	"docrag/internal/chunking"
	"docrag/internal/config"
	"docrag/internal/handlers"
	"docrag/internal/http"
	"docrag/internal/indexer"
	"docrag/internal/llm"
	"docrag/internal/metrics"
	"docrag/internal/rag"
	"docrag/internal/service"
	"docrag/internal/session"
	"docrag/internal/storage"
	"docrag/internal/uploads"
	"docrag/internal/vectorstore"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API ingests documents into a vector index and answers chat queries
// over them, with interview booking extracted from the conversation.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Palm Mind RAG API
//   description: |
//     Document upload with fixed or semantic chunking, document management,
//     and a session-aware chat endpoint backed by retrieval.
//   version: 2.0.0
// schemes:
//   - http
// consumes:
//   - application/json
//   - multipart/form-data
// produces:
//   - application/json

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	documentRepo := storage.NewDocumentRepo(db)
	chunkRepo := storage.NewChunkRepo(db)
	bookingRepo := storage.NewBookingRepo(db)

	vectorStore := newVectorStore(cfg)
	if closer, ok := vectorStore.(interface{ Close() error }); ok {
		defer func() {
			_ = closer.Close()
		}()
	}

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure vector collection: %v", err)
	}
	slog.Info("Vector collection ready", "backend", cfg.VectorBackend, "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != cfg.QdrantVectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d", cfg.QdrantVectorSize)
	}
	slog.Info("Embedding client validated", "model", cfg.EmbeddingModelName, "vector_size", cfg.QdrantVectorSize)

	// Session history lives in Redis; an outage degrades chat but is not fatal
	redisClient, err := session.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to create Redis client: %v", err)
	}
	defer func() {
		_ = redisClient.Close()
	}()
	sessions := session.NewStore(redisClient, cfg.RedisTTL, cfg.HistoryMaxTurns)
	if err := sessions.Ping(ctx); err != nil {
		slog.Warn("Redis not reachable at startup", "url", cfg.RedisURL, "error", err)
	}

	chunker, err := chunking.New(cfg.ChunkParams())
	if err != nil {
		log.Fatalf("Invalid chunking parameters: %v", err)
	}

	appMetrics := metrics.New()

	uploadStore, err := uploads.NewStore(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		log.Fatalf("Failed to prepare upload directory: %v", err)
	}

	pipeline := indexer.NewPipeline(indexer.PipelineDeps{
		Extractor:      indexer.NewExtractorFs(uploadStore.Fs()),
		Chunker:        chunker,
		Documents:      documentRepo,
		Chunks:         chunkRepo,
		Embedder:       embedder,
		VectorStore:    vectorStore,
		Collection:     cfg.QdrantCollection,
		VectorSize:     cfg.QdrantVectorSize,
		EmbeddingModel: cfg.EmbeddingModelName,
		Metrics:        appMetrics,
	})

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)

	var retrieverOpts []rag.Option
	if cfg.RerankLexical {
		retrieverOpts = append(retrieverOpts, rag.WithLexicalRerank())
	}
	retriever := rag.NewRetriever(embedder, vectorStore, cfg.QdrantCollection, retrieverOpts...)

	bookings := booking.NewService(booking.NewExtractor(llmClient), bookingRepo, appMetrics)

	chatService := service.NewChatService(service.ChatDeps{
		Retriever:  retriever,
		History:    sessions,
		Bookings:   bookings,
		LLM:        llmClient,
		AnswerMode: cfg.AnswerMode,
		TopK:       cfg.TopK,
		Metrics:    appMetrics,
	})
	documentService := service.NewDocumentService(pipeline, uploadStore, documentRepo)

	// Create router with dependencies
	router := http.NewRouter(&http.Deps{
		ChatService:     chatService,
		DocumentService: documentService,
		Health:          handlers.NewHealthHandler(vectorStore, sessions, llmClient, cfg.QdrantCollection),
		Metrics:         appMetrics,
		MaxUploadBytes:  cfg.MaxUploadBytes,
	})

	// Start API server
	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", addr, "title", cfg.AppTitle, "answer_mode", cfg.AnswerMode)
		slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			log.Fatalf("API server failed: %v", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down API server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}

// newVectorStore returns the configured vector index backend.
func newVectorStore(cfg *config.Config) vectorstore.VectorStore {
	if cfg.VectorBackend == config.VectorBackendMemory {
		slog.Info("Using in-memory vector store")
		return vectorstore.NewMemoryStore()
	}
	store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	return store
}
