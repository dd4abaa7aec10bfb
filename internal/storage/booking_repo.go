package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_booking_store.go -package=mocks docrag/internal/storage BookingStore

import (
	"context"
	"database/sql"
	"fmt"
)

// BookingStore defines the interface for booking persistence.
type BookingStore interface {
	// Save inserts a booking and sets its ID.
	Save(ctx context.Context, b *BookingRecord) error
	// ListBySession returns the bookings of one chat session, oldest first.
	ListBySession(ctx context.Context, sessionID string) ([]BookingRecord, error)
}

// BookingRepo provides methods for booking operations.
// It implements the BookingStore interface.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo creates a new BookingRepo.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// Save inserts a booking and sets b.ID to the generated row ID.
func (r *BookingRepo) Save(ctx context.Context, b *BookingRecord) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO bookings (session_id, name, email, date, time, created_at) VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)",
		b.SessionID, b.Name, b.Email, b.Date, b.Time,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get booking ID: %w", err)
	}
	b.ID = id
	return nil
}

// ListBySession returns the bookings of one chat session, oldest first.
func (r *BookingRepo) ListBySession(ctx context.Context, sessionID string) ([]BookingRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, session_id, name, email, date, time, created_at FROM bookings WHERE session_id = ? ORDER BY id",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	bookings := []BookingRecord{}
	for rows.Next() {
		var b BookingRecord
		var createdAt string
		if err := rows.Scan(&b.ID, &b.SessionID, &b.Name, &b.Email, &b.Date, &b.Time, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		if b.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return bookings, nil
}
