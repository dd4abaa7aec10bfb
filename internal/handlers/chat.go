package handlers

import (
	"encoding/json"
	"net/http"

	"docrag/internal/booking"
	"docrag/internal/contextutil"
	"docrag/internal/service"
)

// ChatHandler handles HTTP requests for chat.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// ChatRequest represents the HTTP request payload for chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

// ChatResponse represents the HTTP response payload for chat.
//
// swagger:model ChatResponse
type ChatResponse struct {
	Response         string           `json:"response"`
	BookingConfirmed bool             `json:"booking_confirmed"`
	BookingDetails   *booking.Details `json:"booking_details"`
}

// ServeHTTP handles HTTP requests for chat.
//
// swagger:route POST /api/v2/chat chat
//
// Answer a query using retrieved context and the session history.
// Queries about booking an interview are answered by the booking flow.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Answer
//	  schema:
//	    "$ref": "#/definitions/ChatResponse"
//	'400':
//	  description: Invalid request
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ChatRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Convert HTTP request to service request
	svcResp, err := h.chatService.HandleChat(ctx, service.ChatRequest{
		SessionID: req.SessionID,
		Query:     req.Query,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Internal server error")
		return
	}

	writeJSON(ctx, w, http.StatusOK, ChatResponse{
		Response:         svcResp.Response,
		BookingConfirmed: svcResp.BookingConfirmed,
		BookingDetails:   svcResp.BookingDetails,
	})
}
