package indexer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks docrag/internal/indexer Embedder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"docrag/internal/chunking"
	"docrag/internal/contextutil"
	"docrag/internal/metrics"
	"docrag/internal/storage"
	"docrag/internal/vectorstore"
)

var (
	// ErrNoText is returned when a file yields only whitespace.
	ErrNoText = errors.New("no text found in the file")
	// ErrNoChunks is returned when chunking yields nothing to index.
	ErrNoChunks = errors.New("chunking produced no chunks")
)

// Embedder turns texts into vectors, one per text in input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// IngestRequest describes a stored upload to index.
type IngestRequest struct {
	FileID   string
	Filename string // Original client-supplied name
	Path     string // Location of the stored file
	Strategy chunking.Strategy
}

// IngestResult is returned for an indexed document.
type IngestResult struct {
	FileID      string `json:"file_id"`
	Filename    string `json:"filename"`
	ChunksCount int    `json:"chunks_count"`
}

// PipelineDeps holds the collaborators of a Pipeline.
type PipelineDeps struct {
	Extractor      *Extractor
	Chunker        *chunking.Chunker
	Documents      storage.DocumentStore
	Chunks         storage.ChunkStore
	Embedder       Embedder
	VectorStore    vectorstore.VectorStore
	Collection     string
	VectorSize     int
	EmbeddingModel string
	Metrics        *metrics.Metrics // optional
}

// Pipeline extracts, chunks, embeds and stores uploaded documents in
// SQLite and the vector index.
type Pipeline struct {
	extractor      *Extractor
	chunker        *chunking.Chunker
	documents      storage.DocumentStore
	chunks         storage.ChunkStore
	embedder       Embedder
	vectorStore    vectorstore.VectorStore
	collection     string
	vectorSize     int
	embeddingModel string
	metrics        *metrics.Metrics
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(deps PipelineDeps) *Pipeline {
	extractor := deps.Extractor
	if extractor == nil {
		extractor = NewExtractor()
	}
	return &Pipeline{
		extractor:      extractor,
		chunker:        deps.Chunker,
		documents:      deps.Documents,
		chunks:         deps.Chunks,
		embedder:       deps.Embedder,
		vectorStore:    deps.VectorStore,
		collection:     deps.Collection,
		vectorSize:     deps.VectorSize,
		embeddingModel: deps.EmbeddingModel,
		metrics:        deps.Metrics,
	}
}

// Ingest indexes one stored file.
//
// Text extraction, chunking and embedding run before anything is written.
// The document and its chunks are then stored in SQLite and the vectors
// upserted; if the upsert fails the SQLite rows are removed again.
func (p *Pipeline) Ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	logger := contextutil.LoggerFromContext(ctx).With("file_id", req.FileID, "filename", req.Filename)

	text, err := p.extractor.ExtractFile(ctx, req.Path)
	if err != nil {
		p.metrics.IngestFailed(failureReason(err))
		return IngestResult{}, err
	}
	if strings.TrimSpace(text) == "" {
		p.metrics.IngestFailed("no_text")
		return IngestResult{}, ErrNoText
	}

	pieces, err := p.chunker.Chunk(text, req.Strategy)
	if err != nil {
		p.metrics.IngestFailed("chunking")
		return IngestResult{}, err
	}
	if len(pieces) == 0 {
		p.metrics.IngestFailed("no_chunks")
		return IngestResult{}, ErrNoChunks
	}
	logger.DebugContext(ctx, "chunked document", "strategy", req.Strategy, "chunks", len(pieces), "chars", utf8.RuneCountInString(text))

	embeddings, err := p.embedder.EmbedTexts(ctx, pieces)
	if err != nil {
		p.metrics.IngestFailed("embedding")
		return IngestResult{}, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(pieces) {
		p.metrics.IngestFailed("embedding")
		return IngestResult{}, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(pieces), len(embeddings))
	}

	strategy := string(req.Strategy)
	doc := &storage.DocumentRecord{
		FileID:      req.FileID,
		Filename:    req.Filename,
		ChunksCount: len(pieces),
		Strategy:    strategy,
	}

	chunkRecords := make([]*storage.ChunkRecord, len(pieces))
	points := make([]vectorstore.Point, len(pieces))
	lengths := make([]int, len(pieces))
	for i, piece := range pieces {
		chunkID := uuid.New().String()
		lengths[i] = utf8.RuneCountInString(piece)

		chunkRecords[i] = &storage.ChunkRecord{
			ID:         chunkID,
			FileID:     req.FileID,
			ChunkIndex: i,
			Strategy:   strategy,
			Text:       piece,
		}
		points[i] = vectorstore.Point{
			ID:  chunkID,
			Vec: embeddings[i],
			Meta: map[string]any{
				"file_id":     req.FileID,
				"chunk_index": i,
				"text":        piece,
				"strategy":    strategy,
				"filename":    req.Filename,
			},
		}
	}

	if err := p.documents.Save(ctx, doc); err != nil {
		p.metrics.IngestFailed("storage")
		return IngestResult{}, fmt.Errorf("failed to save document: %w", err)
	}
	if err := p.chunks.InsertBatch(ctx, chunkRecords); err != nil {
		p.metrics.IngestFailed("storage")
		p.rollback(ctx, req.FileID)
		return IngestResult{}, fmt.Errorf("failed to save chunks: %w", err)
	}

	if err := p.vectorStore.EnsureCollection(ctx, p.collection, p.vectorSize); err != nil {
		p.metrics.IngestFailed("vector_store")
		p.rollback(ctx, req.FileID)
		return IngestResult{}, fmt.Errorf("failed to ensure collection: %w", err)
	}
	if err := p.vectorStore.Upsert(ctx, p.collection, points); err != nil {
		p.metrics.IngestFailed("vector_store")
		p.rollback(ctx, req.FileID)
		return IngestResult{}, fmt.Errorf("failed to upsert vectors: %w", err)
	}

	p.metrics.ObserveIngest(strategy, lengths)
	logger.InfoContext(ctx, "indexed document", "strategy", strategy, "chunks", len(pieces))

	return IngestResult{
		FileID:      req.FileID,
		Filename:    req.Filename,
		ChunksCount: len(pieces),
	}, nil
}

// rollback removes the SQLite rows of a partially ingested document.
func (p *Pipeline) rollback(ctx context.Context, fileID string) {
	if err := p.documents.Delete(ctx, fileID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to roll back document", "file_id", fileID, "error", err)
	}
}

// Delete removes a document's vectors, chunks and metadata.
// Returns storage.ErrNotFound if the document does not exist.
func (p *Pipeline) Delete(ctx context.Context, fileID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if _, err := p.documents.GetByID(ctx, fileID); err != nil {
		return err
	}

	if err := p.vectorStore.DeleteByFilter(ctx, p.collection, map[string]any{"file_id": fileID}); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	if err := p.chunks.DeleteByFile(ctx, fileID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if err := p.documents.Delete(ctx, fileID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	logger.InfoContext(ctx, "deleted document", "file_id", fileID)
	return nil
}

func failureReason(err error) string {
	var extractErr *TextExtractionError
	switch {
	case errors.Is(err, ErrUnsupportedFileType):
		return "unsupported"
	case errors.As(err, &extractErr):
		return "extraction"
	default:
		return "read"
	}
}
