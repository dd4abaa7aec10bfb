package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"docrag/internal/service"
	"docrag/internal/storage"
)

// DocumentsHandler serves the document metadata endpoints.
type DocumentsHandler struct {
	documents service.DocumentService
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(documents service.DocumentService) *DocumentsHandler {
	return &DocumentsHandler{documents: documents}
}

// DocumentResponse is the JSON form of a document record.
type DocumentResponse struct {
	FileID          string    `json:"file_id"`
	Filename        string    `json:"filename"`
	ChunksCount     int       `json:"chunks_count"`
	Strategy        string    `json:"strategy"`
	UploadTimestamp time.Time `json:"upload_timestamp"`
}

// DocumentListResponse wraps the document list.
type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Count     int                `json:"count"`
}

func toDocumentResponse(doc storage.DocumentRecord) DocumentResponse {
	return DocumentResponse{
		FileID:          doc.FileID,
		Filename:        doc.Filename,
		ChunksCount:     doc.ChunksCount,
		Strategy:        doc.Strategy,
		UploadTimestamp: doc.UploadTimestamp,
	}
}

// List returns every document, newest first.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docs, err := h.documents.List(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list documents")
		return
	}

	resp := DocumentListResponse{
		Documents: make([]DocumentResponse, 0, len(docs)),
		Count:     len(docs),
	}
	for _, doc := range docs {
		resp.Documents = append(resp.Documents, toDocumentResponse(doc))
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Get returns one document by the fileID URL parameter.
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	doc, err := h.documents.Get(ctx, chi.URLParam(r, "fileID"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to get document")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toDocumentResponse(*doc))
}

// Delete removes a document and its vectors.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.documents.Delete(ctx, chi.URLParam(r, "fileID")); err != nil {
		handleServiceError(ctx, w, err, "Failed to delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats returns corpus statistics.
func (h *DocumentsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.documents.Stats(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to compute stats")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}
