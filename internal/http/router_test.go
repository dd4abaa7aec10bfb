package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"docrag/internal/indexer"
	"docrag/internal/metrics"
	"docrag/internal/service"
	"docrag/internal/service/mocks"
	"docrag/internal/storage"
)

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockChatService, *mocks.MockDocumentService) {
	t.Helper()
	ctrl := gomock.NewController(t)

	mockChatService := mocks.NewMockChatService(ctrl)
	mockDocs := mocks.NewMockDocumentService(ctrl)

	health := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router := NewRouter(&Deps{
		ChatService:     mockChatService,
		DocumentService: mockDocs,
		Health:          health,
		Metrics:         metrics.New(),
		MaxUploadBytes:  1 << 20,
	})
	return router, mockChatService, mockDocs
}

func TestNewRouter(t *testing.T) {
	router, _, _ := newTestRouter(t)
	if router == nil {
		t.Fatal("NewRouter() returned nil")
	}
}

func TestRouter_Routes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		setup      func(*mocks.MockChatService, *mocks.MockDocumentService)
		wantStatus int
	}{
		{
			name:       "GET root",
			method:     http.MethodGet,
			path:       "/",
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST /api/v2/chat exists",
			method:     http.MethodPost,
			path:       "/api/v2/chat",
			wantStatus: http.StatusBadRequest, // Bad request due to invalid body, but route exists
		},
		{
			name:       "GET /api/v2/chat method not allowed",
			method:     http.MethodGet,
			path:       "/api/v2/chat",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "POST /api/v1/upload exists",
			method:     http.MethodPost,
			path:       "/api/v1/upload",
			wantStatus: http.StatusBadRequest, // No multipart body
		},
		{
			name:   "GET /api/v1/documents",
			method: http.MethodGet,
			path:   "/api/v1/documents",
			setup: func(_ *mocks.MockChatService, d *mocks.MockDocumentService) {
				d.EXPECT().List(gomock.Any()).Return([]storage.DocumentRecord{}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "GET /api/v1/documents/{fileID}",
			method: http.MethodGet,
			path:   "/api/v1/documents/abc",
			setup: func(_ *mocks.MockChatService, d *mocks.MockDocumentService) {
				d.EXPECT().Get(gomock.Any(), "abc").Return(nil, service.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:   "DELETE /api/v1/documents/{fileID}",
			method: http.MethodDelete,
			path:   "/api/v1/documents/abc",
			setup: func(_ *mocks.MockChatService, d *mocks.MockDocumentService) {
				d.EXPECT().Delete(gomock.Any(), "abc").Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:   "GET /api/v1/stats",
			method: http.MethodGet,
			path:   "/api/v1/stats",
			setup: func(_ *mocks.MockChatService, d *mocks.MockDocumentService) {
				d.EXPECT().Stats(gomock.Any()).Return(&indexer.CorpusStats{}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "GET /api/health",
			method:     http.MethodGet,
			path:       "/api/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "GET /metrics",
			method:     http.MethodGet,
			path:       "/metrics",
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown route",
			method:     http.MethodGet,
			path:       "/api/v1/ask",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, chat, docs := newTestRouter(t)
			if tt.setup != nil {
				tt.setup(chat, docs)
			}

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_MetricsExposition(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("/metrics should expose the Go runtime collector")
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v2/chat", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	// Check CORS headers are present
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Router should apply CORS middleware")
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("error responses should be JSON, got %q", w.Header().Get("Content-Type"))
	}
}

func TestRouter_OptionalRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)

	router := NewRouter(&Deps{
		ChatService:     mocks.NewMockChatService(ctrl),
		DocumentService: mocks.NewMockDocumentService(ctrl),
	})

	for _, path := range []string{"/api/health", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %v, want 404 when not configured", path, w.Code)
		}
	}
}
