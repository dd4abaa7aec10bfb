package storage

import (
	"context"
	"errors"
	"testing"
)

func TestDocumentRepo_SaveAndGet(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	doc := &DocumentRecord{FileID: "f-1", Filename: "notes.txt", ChunksCount: 3, Strategy: "fixed"}
	if err := repo.Save(ctx, doc); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "f-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Filename != "notes.txt" || got.ChunksCount != 3 || got.Strategy != "fixed" {
		t.Errorf("GetByID() = %+v", got)
	}
	if got.UploadTimestamp.IsZero() {
		t.Error("GetByID() UploadTimestamp should be set by the database")
	}

	// Saving the same file ID overwrites the row
	doc.ChunksCount = 7
	doc.Strategy = "semantic"
	if err := repo.Save(ctx, doc); err != nil {
		t.Fatalf("Save() overwrite error = %v", err)
	}
	got, err = repo.GetByID(ctx, "f-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.ChunksCount != 7 || got.Strategy != "semantic" {
		t.Errorf("GetByID() after overwrite = %+v", got)
	}
}

func TestDocumentRepo_GetByID_NotFound(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepo_List(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	docs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Errorf("List() on empty table = %v, want empty slice", docs)
	}

	for _, id := range []string{"a", "b", "c"} {
		if err := repo.Save(ctx, &DocumentRecord{FileID: id, Filename: id + ".txt", ChunksCount: 1, Strategy: "fixed"}); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
	}

	docs, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("List() len = %d, want 3", len(docs))
	}
	// Same-second inserts fall back to insertion order, newest first
	if docs[0].FileID != "c" || docs[2].FileID != "a" {
		t.Errorf("List() order = %s,%s,%s, want c,b,a", docs[0].FileID, docs[1].FileID, docs[2].FileID)
	}
}

func TestDocumentRepo_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepo(db)
	chunks := NewChunkRepo(db)
	ctx := context.Background()

	if err := repo.Save(ctx, &DocumentRecord{FileID: "f-1", Filename: "x.txt", ChunksCount: 1, Strategy: "fixed"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := chunks.InsertBatch(ctx, []*ChunkRecord{{ID: "c-1", FileID: "f-1", ChunkIndex: 0, Strategy: "fixed", Text: "hello"}}); err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}

	if err := repo.Delete(ctx, "f-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, "f-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after Delete() error = %v, want ErrNotFound", err)
	}

	ids, err := chunks.ListIDsByFile(ctx, "f-1")
	if err != nil {
		t.Fatalf("ListIDsByFile() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Delete() should cascade to chunks, %d remaining", len(ids))
	}

	if err := repo.Delete(ctx, "f-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepo_CountByStrategy(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))
	ctx := context.Background()

	docs := []*DocumentRecord{
		{FileID: "1", Filename: "a", ChunksCount: 1, Strategy: "fixed"},
		{FileID: "2", Filename: "b", ChunksCount: 1, Strategy: "fixed"},
		{FileID: "3", Filename: "c", ChunksCount: 1, Strategy: "semantic"},
	}
	for _, d := range docs {
		if err := repo.Save(ctx, d); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	counts, err := repo.CountByStrategy(ctx)
	if err != nil {
		t.Fatalf("CountByStrategy() error = %v", err)
	}
	if counts["fixed"] != 2 || counts["semantic"] != 1 {
		t.Errorf("CountByStrategy() = %v, want fixed:2 semantic:1", counts)
	}
}
