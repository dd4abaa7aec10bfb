package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks docrag/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DocumentStore defines the interface for document metadata operations.
type DocumentStore interface {
	// Save inserts a document or overwrites the row with the same file ID.
	Save(ctx context.Context, doc *DocumentRecord) error
	// GetByID returns ErrNotFound if no document has the given file ID.
	GetByID(ctx context.Context, fileID string) (*DocumentRecord, error)
	// List returns all documents, newest first.
	List(ctx context.Context) ([]DocumentRecord, error)
	// Delete removes a document and, by cascade, its chunks.
	Delete(ctx context.Context, fileID string) error
	// CountByStrategy returns the number of documents per chunking strategy.
	CountByStrategy(ctx context.Context) (map[string]int, error)
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Save inserts a document or overwrites the row with the same file ID.
// The upload timestamp is always set by the database.
func (r *DocumentRepo) Save(ctx context.Context, doc *DocumentRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (file_id, filename, chunks_count, strategy, upload_timestamp)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (file_id) DO UPDATE SET
		 filename = excluded.filename, chunks_count = excluded.chunks_count,
		 strategy = excluded.strategy, upload_timestamp = CURRENT_TIMESTAMP`,
		doc.FileID, doc.Filename, doc.ChunksCount, doc.Strategy,
	)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// GetByID gets a document by file ID. Returns ErrNotFound if not found.
func (r *DocumentRepo) GetByID(ctx context.Context, fileID string) (*DocumentRecord, error) {
	var doc DocumentRecord
	var uploadedAt string

	err := r.db.QueryRowContext(ctx,
		"SELECT file_id, filename, chunks_count, strategy, upload_timestamp FROM documents WHERE file_id = ?",
		fileID,
	).Scan(&doc.FileID, &doc.Filename, &doc.ChunksCount, &doc.Strategy, &uploadedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	doc.UploadTimestamp, err = parseTimestamp(uploadedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse upload_timestamp: %w", err)
	}

	return &doc, nil
}

// List returns all documents ordered by upload time, newest first.
func (r *DocumentRepo) List(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT file_id, filename, chunks_count, strategy, upload_timestamp FROM documents ORDER BY upload_timestamp DESC, rowid DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	docs := []DocumentRecord{}
	for rows.Next() {
		var doc DocumentRecord
		var uploadedAt string
		if err := rows.Scan(&doc.FileID, &doc.Filename, &doc.ChunksCount, &doc.Strategy, &uploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if doc.UploadTimestamp, err = parseTimestamp(uploadedAt); err != nil {
			return nil, fmt.Errorf("failed to parse upload_timestamp: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

// Delete removes a document. Returns ErrNotFound if no row was deleted.
func (r *DocumentRepo) Delete(ctx context.Context, fileID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE file_id = ?", fileID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByStrategy returns the number of documents per chunking strategy.
func (r *DocumentRepo) CountByStrategy(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT strategy, COUNT(*) FROM documents GROUP BY strategy")
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	counts := make(map[string]int)
	for rows.Next() {
		var strategy string
		var n int
		if err := rows.Scan(&strategy, &n); err != nil {
			return nil, fmt.Errorf("failed to scan strategy count: %w", err)
		}
		counts[strategy] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return counts, nil
}
