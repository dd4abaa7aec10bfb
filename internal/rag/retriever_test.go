package rag

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	rag_mocks "docrag/internal/rag/mocks"
	"docrag/internal/vectorstore"
	vectorstore_mocks "docrag/internal/vectorstore/mocks"
)

func TestRetriever_Retrieve(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := rag_mocks.NewMockEmbedder(ctrl)
	store := vectorstore_mocks.NewMockVectorStore(ctrl)

	query := []float32{0.1, 0.2}
	embedder.EXPECT().EmbedTexts(gomock.Any(), []string{"what is go"}).Return([][]float32{query}, nil)
	store.EXPECT().Search(gomock.Any(), "docs", query, 3, nil).Return([]vectorstore.SearchResult{
		{
			PointID: "p1",
			Score:   0.9,
			Meta: map[string]any{
				"file_id":     "f1",
				"filename":    "go.txt",
				"chunk_index": int64(2),
				"strategy":    "fixed",
				"text":        "Go is a language.",
			},
		},
		{
			PointID: "p2",
			Score:   0.5,
			Meta:    map[string]any{"file_id": "f2", "chunk_index": "7", "text": "Other text."},
		},
	}, nil)

	retriever := NewRetriever(embedder, store, "docs")
	chunks, err := retriever.Retrieve(context.Background(), "what is go", 3)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("Retrieve() returned %d chunks, want 2", len(chunks))
	}

	want := RetrievedChunk{
		ChunkID:    "p1",
		FileID:     "f1",
		Filename:   "go.txt",
		ChunkIndex: 2,
		Strategy:   "fixed",
		Text:       "Go is a language.",
		Score:      0.9,
		Rank:       1,
	}
	if chunks[0] != want {
		t.Errorf("Retrieve()[0] = %+v, want %+v", chunks[0], want)
	}
	if chunks[1].ChunkIndex != 7 || chunks[1].Rank != 2 {
		t.Errorf("Retrieve()[1] = %+v, want chunk_index 7 rank 2", chunks[1])
	}
}

func TestRetriever_Retrieve_LexicalRerank(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := rag_mocks.NewMockEmbedder(ctrl)
	store := vectorstore_mocks.NewMockVectorStore(ctrl)

	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{{1}}, nil)
	store.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return([]vectorstore.SearchResult{
		{PointID: "vague", Score: 0.50, Meta: map[string]any{"text": "Nothing to see here."}},
		{PointID: "exact", Score: 0.45, Meta: map[string]any{"text": "Refund policy: refunds within 30 days."}},
	}, nil)

	retriever := NewRetriever(embedder, store, "docs", WithLexicalRerank())
	chunks, err := retriever.Retrieve(context.Background(), "refund policy", 2)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if chunks[0].ChunkID != "exact" || chunks[0].Rank != 1 {
		t.Errorf("Retrieve() with rerank first = %+v, want exact", chunks[0])
	}
}

func TestRetriever_Retrieve_Errors(t *testing.T) {
	t.Run("embedding failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		embedder := rag_mocks.NewMockEmbedder(ctrl)
		store := vectorstore_mocks.NewMockVectorStore(ctrl)
		embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return(nil, errors.New("down"))

		if _, err := NewRetriever(embedder, store, "docs").Retrieve(context.Background(), "q", 5); err == nil {
			t.Error("Retrieve() expected error, got nil")
		}
	})

	t.Run("search failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		embedder := rag_mocks.NewMockEmbedder(ctrl)
		store := vectorstore_mocks.NewMockVectorStore(ctrl)
		embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{{1}}, nil)
		store.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("no collection"))

		if _, err := NewRetriever(embedder, store, "docs").Retrieve(context.Background(), "q", 5); err == nil {
			t.Error("Retrieve() expected error, got nil")
		}
	})

	t.Run("zero k skips search", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		retriever := NewRetriever(rag_mocks.NewMockEmbedder(ctrl), vectorstore_mocks.NewMockVectorStore(ctrl), "docs")
		chunks, err := retriever.Retrieve(context.Background(), "q", 0)
		if err != nil || len(chunks) != 0 {
			t.Errorf("Retrieve(k=0) = %v, %v; want empty, nil", chunks, err)
		}
	})
}

func TestIntValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"int", 3, 3},
		{"int64", int64(4), 4},
		{"float64", float64(5), 5},
		{"string", "6", 6},
		{"bad string", "x", 0},
		{"missing", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := intValue(tt.in); got != tt.want {
				t.Errorf("intValue(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
