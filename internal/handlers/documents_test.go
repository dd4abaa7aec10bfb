package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"docrag/internal/indexer"
	"docrag/internal/service"
	"docrag/internal/service/mocks"
	"docrag/internal/storage"
)

// withFileID routes the request through chi so URLParam resolves.
func withFileID(r *http.Request, fileID string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("fileID", fileID)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestDocumentsHandler_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uploaded := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mockDocs := mocks.NewMockDocumentService(ctrl)
	mockDocs.EXPECT().List(gomock.Any()).Return([]storage.DocumentRecord{
		{FileID: "f1", Filename: "a.txt", ChunksCount: 3, Strategy: "fixed", UploadTimestamp: uploaded},
	}, nil)

	handler := NewDocumentsHandler(mockDocs)
	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("List() status = %v, want %v", w.Code, http.StatusOK)
	}
	var resp DocumentListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || resp.Documents[0].FileID != "f1" || !resp.Documents[0].UploadTimestamp.Equal(uploaded) {
		t.Errorf("List() response = %+v", resp)
	}
}

func TestDocumentsHandler_List_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDocs := mocks.NewMockDocumentService(ctrl)
	mockDocs.EXPECT().List(gomock.Any()).Return(nil, nil)

	w := httptest.NewRecorder()
	NewDocumentsHandler(mockDocs).List(w, httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil))

	var raw map[string]any
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if docs, ok := raw["documents"].([]any); !ok || len(docs) != 0 {
		t.Errorf("documents = %v, want empty array", raw["documents"])
	}
}

func TestDocumentsHandler_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name       string
		mockSetup  func(*mocks.MockDocumentService)
		wantStatus int
	}{
		{
			name: "found",
			mockSetup: func(m *mocks.MockDocumentService) {
				m.EXPECT().Get(gomock.Any(), "f1").Return(&storage.DocumentRecord{FileID: "f1", Filename: "a.txt"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not found",
			mockSetup: func(m *mocks.MockDocumentService) {
				m.EXPECT().Get(gomock.Any(), "f1").Return(nil, service.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDocs := mocks.NewMockDocumentService(ctrl)
			tt.mockSetup(mockDocs)

			w := httptest.NewRecorder()
			req := withFileID(httptest.NewRequest(http.MethodGet, "/api/v1/documents/f1", nil), "f1")
			NewDocumentsHandler(mockDocs).Get(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Get() status = %v, want %v", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestDocumentsHandler_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "deleted", wantStatus: http.StatusNoContent},
		{name: "not found", err: service.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "vector store failure", err: service.WrapError(errors.New("qdrant down"), "failed to delete vectors"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDocs := mocks.NewMockDocumentService(ctrl)
			mockDocs.EXPECT().Delete(gomock.Any(), "f1").Return(tt.err)

			w := httptest.NewRecorder()
			req := withFileID(httptest.NewRequest(http.MethodDelete, "/api/v1/documents/f1", nil), "f1")
			NewDocumentsHandler(mockDocs).Delete(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Delete() status = %v, want %v", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestDocumentsHandler_Stats(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDocs := mocks.NewMockDocumentService(ctrl)
	mockDocs.EXPECT().Stats(gomock.Any()).Return(&indexer.CorpusStats{
		Documents:      2,
		Chunks:         7,
		ChunkerVersion: indexer.ChunkerVersion,
	}, nil)

	w := httptest.NewRecorder()
	NewDocumentsHandler(mockDocs).Stats(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Stats() status = %v, want %v", w.Code, http.StatusOK)
	}
	var got indexer.CorpusStats
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Documents != 2 || got.Chunks != 7 {
		t.Errorf("Stats() = %+v", got)
	}
}
