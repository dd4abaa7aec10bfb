package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"docrag/internal/booking"
	"docrag/internal/service"
	"docrag/internal/service/mocks"
)

func TestNewChatHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockChatService := mocks.NewMockChatService(ctrl)
	handler := NewChatHandler(mockChatService)

	if handler == nil {
		t.Fatal("NewChatHandler() returned nil")
	}
	if handler.chatService != mockChatService {
		t.Error("NewChatHandler() chatService not set correctly")
	}
}

func TestChatHandler_ServeHTTP(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	hello := service.ChatRequest{SessionID: "s1", Query: "Hello"}

	tests := []struct {
		name          string
		method        string
		body          string
		mockSetup     func(*mocks.MockChatService)
		wantStatus    int
		checkResponse func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:   "successful POST request",
			method: http.MethodPost,
			body:   `{"session_id":"s1","query":"Hello"}`,
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					HandleChat(gomock.Any(), hello).
					Return(service.ChatResponse{Response: "Simulated answer for: Hello"}, nil)
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var raw map[string]any
				if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if raw["response"] != "Simulated answer for: Hello" {
					t.Errorf("response = %v", raw["response"])
				}
				if raw["booking_confirmed"] != false {
					t.Errorf("booking_confirmed = %v, want false", raw["booking_confirmed"])
				}
				if v, ok := raw["booking_details"]; !ok || v != nil {
					t.Errorf("booking_details = %v (present %v), want explicit null", v, ok)
				}
			},
		},
		{
			name:   "confirmed booking",
			method: http.MethodPost,
			body:   `{"session_id":"s1","query":"book an interview"}`,
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					HandleChat(gomock.Any(), service.ChatRequest{SessionID: "s1", Query: "book an interview"}).
					Return(service.ChatResponse{
						Response:         "Interview booked for Ann on 2025-01-02 at 10:00.",
						BookingConfirmed: true,
						BookingDetails:   &booking.Details{Name: "Ann", Email: "ann@example.com", Date: "2025-01-02", Time: "10:00"},
					}, nil)
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp ChatResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if !resp.BookingConfirmed || resp.BookingDetails == nil || resp.BookingDetails.Email != "ann@example.com" {
					t.Errorf("unexpected booking response: %+v", resp)
				}
				if resp.BookingDetails != nil && resp.BookingDetails.Time != "10:00:00" {
					t.Errorf("booking_details.time = %q, want %q", resp.BookingDetails.Time, "10:00:00")
				}
			},
		},
		{
			name:       "method not allowed",
			method:     http.MethodGet,
			mockSetup:  func(m *mocks.MockChatService) {},
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "invalid JSON body",
			method:     http.MethodPost,
			body:       "invalid json",
			mockSetup:  func(m *mocks.MockChatService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field rejected",
			method:     http.MethodPost,
			body:       `{"session_id":"s1","query":"Hello","stream":true}`,
			mockSetup:  func(m *mocks.MockChatService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "validation error",
			method: http.MethodPost,
			body:   `{"session_id":"s1","query":""}`,
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					HandleChat(gomock.Any(), service.ChatRequest{SessionID: "s1"}).
					Return(service.ChatResponse{}, &service.ValidationError{
						Field:   "query",
						Message: "cannot be empty",
					})
			},
			wantStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if resp.Field != "query" || resp.Error != "cannot be empty" {
					t.Errorf("error response = %+v", resp)
				}
			},
		},
		{
			name:   "service error",
			method: http.MethodPost,
			body:   `{"session_id":"s1","query":"Hello"}`,
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					HandleChat(gomock.Any(), hello).
					Return(service.ChatResponse{}, errors.New("service error"))
			},
			wantStatus: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if resp.Error != "Internal server error" {
					t.Errorf("error = %q, want Internal server error", resp.Error)
				}
			},
		},
		{
			name:   "ErrNotFound",
			method: http.MethodPost,
			body:   `{"session_id":"s1","query":"Hello"}`,
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					HandleChat(gomock.Any(), hello).
					Return(service.ChatResponse{}, service.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:   "ErrExternalService",
			method: http.MethodPost,
			body:   `{"session_id":"s1","query":"Hello"}`,
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					HandleChat(gomock.Any(), hello).
					Return(service.ChatResponse{}, fmt.Errorf("%w: embeddings down", service.ErrExternalService))
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockChatService := mocks.NewMockChatService(ctrl)
			tt.mockSetup(mockChatService)

			handler := NewChatHandler(mockChatService)

			req := httptest.NewRequest(tt.method, "/api/v2/chat", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
		})
	}
}
