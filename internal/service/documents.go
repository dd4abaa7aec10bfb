package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ingestor.go -package=mocks docrag/internal/service Ingestor
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_upload_store.go -package=mocks docrag/internal/service UploadStore
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_service.go -package=mocks -mock_names=DocumentService=MockDocumentService docrag/internal/service DocumentService

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"

	"docrag/internal/chunking"
	"docrag/internal/contextutil"
	"docrag/internal/indexer"
	"docrag/internal/storage"
	"docrag/internal/uploads"
)

// User-facing upload validation messages.
const (
	MsgUnsupportedFile  = "Only .pdf and .txt files are allowed."
	MsgNoText           = "No text found in the file."
	MsgNoChunks         = "Chunking produced no chunks."
	MsgExtractionFailed = "Failed to extract text from PDF."
	MsgInvalidStrategy  = "strategy must be 'fixed' or 'semantic'"
	MsgTooLarge         = "File exceeds the maximum upload size."
)

// Ingestor indexes and removes documents.
type Ingestor interface {
	Ingest(ctx context.Context, req indexer.IngestRequest) (indexer.IngestResult, error)
	Delete(ctx context.Context, fileID string) error
	Stats(ctx context.Context) (*indexer.CorpusStats, error)
}

// UploadStore keeps uploaded files on disk.
type UploadStore interface {
	Save(ctx context.Context, fileID, filename string, r io.Reader) (string, error)
	Remove(path string) error
	RemoveFile(fileID string) error
}

// UploadRequest is a document upload in the domain layer.
type UploadRequest struct {
	Filename string
	Strategy string // Empty means fixed
	Content  io.Reader
}

// DocumentService manages uploaded documents.
type DocumentService interface {
	Upload(ctx context.Context, req UploadRequest) (indexer.IngestResult, error)
	List(ctx context.Context) ([]storage.DocumentRecord, error)
	Get(ctx context.Context, fileID string) (*storage.DocumentRecord, error)
	Delete(ctx context.Context, fileID string) error
	Stats(ctx context.Context) (*indexer.CorpusStats, error)
}

type documentService struct {
	ingestor  Ingestor
	uploads   UploadStore
	documents storage.DocumentStore
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(ingestor Ingestor, uploads UploadStore, documents storage.DocumentStore) DocumentService {
	return &documentService{
		ingestor:  ingestor,
		uploads:   uploads,
		documents: documents,
	}
}

// Upload stores the file, then extracts, chunks and indexes it.
// The stored file is removed again if indexing fails.
func (s *documentService) Upload(ctx context.Context, req UploadRequest) (indexer.IngestResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	filename := strings.TrimSpace(req.Filename)
	if filename == "" || !indexer.IsSupported(filename) {
		return indexer.IngestResult{}, &ValidationError{Field: "file", Message: MsgUnsupportedFile}
	}

	strategyName := req.Strategy
	if strategyName == "" {
		strategyName = string(chunking.StrategyFixed)
	}
	strategy, err := chunking.ParseStrategy(strategyName)
	if err != nil {
		return indexer.IngestResult{}, &ValidationError{Field: "strategy", Message: MsgInvalidStrategy}
	}

	fileID := uuid.New().String()
	path, err := s.uploads.Save(ctx, fileID, filename, req.Content)
	if err != nil {
		if errors.Is(err, uploads.ErrTooLarge) {
			return indexer.IngestResult{}, &ValidationError{Field: "file", Message: MsgTooLarge}
		}
		return indexer.IngestResult{}, WrapError(err, "failed to store upload")
	}

	result, err := s.ingestor.Ingest(ctx, indexer.IngestRequest{
		FileID:   fileID,
		Filename: filename,
		Path:     path,
		Strategy: strategy,
	})
	if err != nil {
		if removeErr := s.uploads.Remove(path); removeErr != nil {
			logger.WarnContext(ctx, "failed to remove upload", "path", path, "error", removeErr)
		}
		return indexer.IngestResult{}, ingestError(err)
	}

	return result, nil
}

// ingestError maps pipeline failures caused by the file's content to
// validation errors.
func ingestError(err error) error {
	var extractErr *indexer.TextExtractionError
	switch {
	case errors.Is(err, indexer.ErrUnsupportedFileType):
		return &ValidationError{Field: "file", Message: MsgUnsupportedFile}
	case errors.As(err, &extractErr):
		return &ValidationError{Field: "file", Message: MsgExtractionFailed}
	case errors.Is(err, indexer.ErrNoText):
		return &ValidationError{Field: "file", Message: MsgNoText}
	case errors.Is(err, indexer.ErrNoChunks):
		return &ValidationError{Field: "file", Message: MsgNoChunks}
	default:
		return WrapError(err, "failed to index document")
	}
}

func (s *documentService) List(ctx context.Context) ([]storage.DocumentRecord, error) {
	docs, err := s.documents.List(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list documents")
	}
	return docs, nil
}

func (s *documentService) Get(ctx context.Context, fileID string) (*storage.DocumentRecord, error) {
	doc, err := s.documents.GetByID(ctx, fileID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, WrapError(err, "failed to get document")
	}
	return doc, nil
}

// Delete removes a document from the index and deletes its stored upload.
func (s *documentService) Delete(ctx context.Context, fileID string) error {
	if err := s.ingestor.Delete(ctx, fileID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return WrapError(err, "failed to delete document")
	}
	if err := s.uploads.RemoveFile(fileID); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to remove upload", "file_id", fileID, "error", err)
	}
	return nil
}

func (s *documentService) Stats(ctx context.Context) (*indexer.CorpusStats, error) {
	stats, err := s.ingestor.Stats(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to compute stats")
	}
	return stats, nil
}
