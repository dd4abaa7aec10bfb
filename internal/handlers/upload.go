package handlers

import (
	"errors"
	"net/http"

	"docrag/internal/contextutil"
	"docrag/internal/service"
)

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and the other fields.
const multipartOverhead = 1 << 20

// UploadHandler accepts document uploads.
type UploadHandler struct {
	documents service.DocumentService
	maxBytes  int64
}

// NewUploadHandler creates a new UploadHandler. maxBytes limits the file size.
func NewUploadHandler(documents service.DocumentService, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		documents: documents,
		maxBytes:  maxBytes,
	}
}

// UploadResponse represents the response for an indexed upload.
//
// swagger:model UploadResponse
type UploadResponse struct {
	FileID      string `json:"file_id"`
	Filename    string `json:"filename"`
	ChunksCount int    `json:"chunks_count"`
}

// ServeHTTP handles multipart uploads with a "file" part and an optional
// "strategy" field.
//
// swagger:route POST /api/v1/upload documents uploadDocument
//
// Upload a .pdf, .txt or .md file and index it with the fixed or semantic strategy.
//
// ---
// consumes:
// - multipart/form-data
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Document indexed
//	  schema:
//	    "$ref": "#/definitions/UploadResponse"
//	'400':
//	  description: Unsupported file, invalid strategy or no extractable text
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'413':
//	  description: File too large
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if h.maxBytes > 0 {
		if r.ContentLength > h.maxBytes+multipartOverhead {
			writeError(w, http.StatusRequestEntityTooLarge, service.MsgTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, service.MsgTooLarge)
			return
		}
		logger.WarnContext(ctx, "missing upload file", "error", err)
		writeJSON(ctx, w, http.StatusBadRequest, ErrorResponse{Error: service.MsgUnsupportedFile, Field: "file"})
		return
	}
	defer func() {
		_ = file.Close()
	}()

	result, err := h.documents.Upload(ctx, service.UploadRequest{
		Filename: header.Filename,
		Strategy: r.FormValue("strategy"),
		Content:  file,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process upload")
		return
	}

	writeJSON(ctx, w, http.StatusOK, UploadResponse{
		FileID:      result.FileID,
		Filename:    result.Filename,
		ChunksCount: result.ChunksCount,
	})
}
