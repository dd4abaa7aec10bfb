package storage

import (
	"context"
	"testing"
)

func seedDocument(t *testing.T, repo *DocumentRepo, fileID string) {
	t.Helper()
	if err := repo.Save(context.Background(), &DocumentRecord{FileID: fileID, Filename: fileID + ".txt", Strategy: "fixed"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}

func TestChunkRepo_InsertBatch(t *testing.T) {
	db := newTestDB(t)
	seedDocument(t, NewDocumentRepo(db), "f-1")
	repo := NewChunkRepo(db)
	ctx := context.Background()

	tests := []struct {
		name    string
		chunks  []*ChunkRecord
		wantErr bool
	}{
		{
			name:   "empty batch",
			chunks: nil,
		},
		{
			name: "valid chunks",
			chunks: []*ChunkRecord{
				{ID: "c-1", FileID: "f-1", ChunkIndex: 0, Strategy: "fixed", Text: "first"},
				{ID: "c-2", FileID: "f-1", ChunkIndex: 1, Strategy: "fixed", Text: "second"},
			},
		},
		{
			name: "unknown document",
			chunks: []*ChunkRecord{
				{ID: "c-9", FileID: "nope", ChunkIndex: 0, Strategy: "fixed", Text: "orphan"},
			},
			wantErr: true,
		},
		{
			name: "duplicate index rolls back whole batch",
			chunks: []*ChunkRecord{
				{ID: "c-3", FileID: "f-1", ChunkIndex: 5, Strategy: "fixed", Text: "ok"},
				{ID: "c-4", FileID: "f-1", ChunkIndex: 5, Strategy: "fixed", Text: "dup"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _ = db.Exec("DELETE FROM chunks")

			err := repo.InsertBatch(ctx, tt.chunks)

			if tt.wantErr {
				if err == nil {
					t.Errorf("InsertBatch() expected error, got nil")
				}
				var count int
				_ = db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&count)
				if count != 0 {
					t.Errorf("InsertBatch() failure left %d rows", count)
				}
				return
			}

			if err != nil {
				t.Errorf("InsertBatch() unexpected error: %v", err)
			}
		})
	}
}

func TestChunkRepo_ListByFile(t *testing.T) {
	db := newTestDB(t)
	seedDocument(t, NewDocumentRepo(db), "f-1")
	repo := NewChunkRepo(db)
	ctx := context.Background()

	// Inserted out of order on purpose
	batch := []*ChunkRecord{
		{ID: "c-2", FileID: "f-1", ChunkIndex: 1, Strategy: "fixed", Text: "second"},
		{ID: "c-1", FileID: "f-1", ChunkIndex: 0, Strategy: "fixed", Text: "first"},
	}
	if err := repo.InsertBatch(ctx, batch); err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}

	chunks, err := repo.ListByFile(ctx, "f-1")
	if err != nil {
		t.Fatalf("ListByFile() error = %v", err)
	}
	if len(chunks) != 2 || chunks[0].Text != "first" || chunks[1].Text != "second" {
		t.Errorf("ListByFile() = %+v", chunks)
	}

	ids, err := repo.ListIDsByFile(ctx, "f-1")
	if err != nil {
		t.Fatalf("ListIDsByFile() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "c-1" || ids[1] != "c-2" {
		t.Errorf("ListIDsByFile() = %v, want [c-1 c-2]", ids)
	}

	empty, err := repo.ListByFile(ctx, "missing")
	if err != nil {
		t.Fatalf("ListByFile() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("ListByFile() for unknown file = %v, want empty", empty)
	}
}

func TestChunkRepo_DeleteByFile(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepo(db)
	seedDocument(t, docs, "f-1")
	seedDocument(t, docs, "f-2")
	repo := NewChunkRepo(db)
	ctx := context.Background()

	batch := []*ChunkRecord{
		{ID: "a", FileID: "f-1", ChunkIndex: 0, Strategy: "fixed", Text: "x"},
		{ID: "b", FileID: "f-2", ChunkIndex: 0, Strategy: "fixed", Text: "y"},
	}
	if err := repo.InsertBatch(ctx, batch); err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}

	if err := repo.DeleteByFile(ctx, "f-1"); err != nil {
		t.Fatalf("DeleteByFile() error = %v", err)
	}

	if ids, _ := repo.ListIDsByFile(ctx, "f-1"); len(ids) != 0 {
		t.Errorf("DeleteByFile() left %v", ids)
	}
	if ids, _ := repo.ListIDsByFile(ctx, "f-2"); len(ids) != 1 {
		t.Errorf("DeleteByFile() touched other document, got %v", ids)
	}

	// Deleting a file with no chunks is not an error
	if err := repo.DeleteByFile(ctx, "missing"); err != nil {
		t.Errorf("DeleteByFile() for unknown file error = %v", err)
	}
}

func TestChunkRepo_Lengths(t *testing.T) {
	db := newTestDB(t)
	seedDocument(t, NewDocumentRepo(db), "f-1")
	repo := NewChunkRepo(db)
	ctx := context.Background()

	batch := []*ChunkRecord{
		{ID: "a", FileID: "f-1", ChunkIndex: 0, Strategy: "fixed", Text: "abc"},
		{ID: "b", FileID: "f-1", ChunkIndex: 1, Strategy: "fixed", Text: "héllo"},
	}
	if err := repo.InsertBatch(ctx, batch); err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}

	lengths, err := repo.Lengths(ctx)
	if err != nil {
		t.Fatalf("Lengths() error = %v", err)
	}
	total := 0
	for _, n := range lengths {
		total += n
	}
	// length() counts characters, not bytes
	if len(lengths) != 2 || total != 8 {
		t.Errorf("Lengths() = %v, want two lengths summing to 8", lengths)
	}
}
