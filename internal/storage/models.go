package storage

import "time"

// DocumentRecord is the metadata row written for every accepted upload.
type DocumentRecord struct {
	FileID          string // UUID, also the prefix of the stored file name
	Filename        string // Original client-supplied name
	ChunksCount     int
	Strategy        string // "fixed" or "semantic"
	UploadTimestamp time.Time
}

// ChunkRecord is one chunk of a document, indexed for vector search.
type ChunkRecord struct {
	ID         string // UUID (same as the vector point ID)
	FileID     string // Foreign key to documents.file_id
	ChunkIndex int    // Position within the document (starts at 0)
	Strategy   string
	Text       string
}

// BookingRecord is a confirmed interview booking.
type BookingRecord struct {
	ID        int64
	SessionID string
	Name      string
	Email     string
	Date      string // YYYY-MM-DD
	Time      string // HH:MM (24h)
	CreatedAt time.Time
}
