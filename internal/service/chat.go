package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm_client.go -package=mocks docrag/internal/service LLMClient
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_retriever.go -package=mocks docrag/internal/service Retriever
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_history_store.go -package=mocks docrag/internal/service HistoryStore
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_booking_processor.go -package=mocks docrag/internal/service BookingProcessor
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService docrag/internal/service ChatService

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"docrag/internal/booking"
	"docrag/internal/config"
	"docrag/internal/contextutil"
	"docrag/internal/metrics"
	"docrag/internal/rag"
	"docrag/internal/session"
)

// Answer modes.
const (
	AnswerModeSimulated = config.AnswerModeSimulated
	AnswerModeLLM       = config.AnswerModeLLM
)

// LLMClient is an interface for interacting with an LLM API.
// This interface is defined from the service layer's perspective (consumer-first).
type LLMClient interface {
	// Chat sends a message to the LLM and returns the reply.
	Chat(ctx context.Context, message string) (string, error)
}

// Retriever finds context chunks for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]rag.RetrievedChunk, error)
}

// HistoryStore loads and saves per-session chat history.
type HistoryStore interface {
	Load(ctx context.Context, sessionID string) ([]session.Turn, error)
	Save(ctx context.Context, sessionID string, turns []session.Turn) error
}

// BookingProcessor handles interview booking requests.
type BookingProcessor interface {
	Process(ctx context.Context, sessionID, query string) (booking.Result, error)
}

// ChatRequest represents a chat request in the domain layer.
// An empty SessionID is a valid session key.
type ChatRequest struct {
	SessionID string
	Query     string `validate:"required"`
}

// ChatResponse represents a chat response in the domain layer.
type ChatResponse struct {
	Response         string
	BookingConfirmed bool
	BookingDetails   *booking.Details
}

// ChatService provides conversational retrieval with booking support.
type ChatService interface {
	// HandleChat answers one chat turn and records it in the session history.
	HandleChat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// ChatDeps holds the collaborators of the chat service.
type ChatDeps struct {
	Retriever  Retriever
	History    HistoryStore
	Bookings   BookingProcessor
	LLM        LLMClient // Required when AnswerMode is "llm"
	AnswerMode string
	TopK       int
	Metrics    *metrics.Metrics
}

// chatService implements ChatService.
type chatService struct {
	retriever  Retriever
	history    HistoryStore
	bookings   BookingProcessor
	llmClient  LLMClient
	answerMode string
	topK       int
	metrics    *metrics.Metrics
	validate   *validator.Validate
}

// NewChatService creates a new ChatService.
func NewChatService(deps ChatDeps) ChatService {
	mode := deps.AnswerMode
	if mode == "" {
		mode = AnswerModeSimulated
	}
	return &chatService{
		retriever:  deps.Retriever,
		history:    deps.History,
		bookings:   deps.Bookings,
		llmClient:  deps.LLM,
		answerMode: mode,
		topK:       deps.TopK,
		metrics:    deps.Metrics,
		validate:   validator.New(),
	}
}

// HandleChat loads the session history, retrieves context, answers the
// query and saves the new turn. Booking requests are answered by the
// booking processor instead.
func (s *chatService) HandleChat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	logger := contextutil.LoggerFromContext(ctx).With("session_id", req.SessionID)

	// Business validation
	if err := s.validateRequest(req); err != nil {
		logger.WarnContext(ctx, "invalid chat request", "error", err)
		s.metrics.ChatHandled("invalid")
		return ChatResponse{}, err
	}

	history, err := s.history.Load(ctx, req.SessionID)
	if err != nil {
		s.metrics.ChatHandled("error")
		return ChatResponse{}, WrapError(err, "failed to load history")
	}

	chunks, err := s.retriever.Retrieve(ctx, req.Query, s.topK)
	if err != nil {
		s.metrics.ChatHandled("error")
		return ChatResponse{}, WrapError(fmt.Errorf("%w: %w", ErrExternalService, err), "failed to retrieve context")
	}
	prompt := rag.BuildPrompt(rag.ContextTexts(chunks), history, req.Query)

	wantsBooking := booking.IsBookingIntent(req.Query)

	var resp ChatResponse
	if wantsBooking {
		result, err := s.bookings.Process(ctx, req.SessionID, req.Query)
		if err != nil {
			s.metrics.ChatHandled("error")
			return ChatResponse{}, WrapError(err, "failed to process booking")
		}
		resp = ChatResponse{
			Response:         result.Message,
			BookingConfirmed: result.Confirmed,
			BookingDetails:   result.Details,
		}
	} else {
		answer, err := s.answer(ctx, req.Query, prompt)
		if err != nil {
			logger.ErrorContext(ctx, "failed to get LLM response", "error", err)
			s.metrics.ChatHandled("error")
			return ChatResponse{}, WrapError(fmt.Errorf("%w: %w", ErrExternalService, err), "failed to get LLM response")
		}
		resp = ChatResponse{Response: answer}
	}

	history = append(history, session.Turn{User: req.Query, Assistant: resp.Response})
	if err := s.history.Save(ctx, req.SessionID, history); err != nil {
		s.metrics.ChatHandled("error")
		return ChatResponse{}, WrapError(err, "failed to save history")
	}

	outcome := "ok"
	if wantsBooking {
		outcome = "booking"
	}
	s.metrics.ChatHandled(outcome)
	logger.InfoContext(ctx, "chat request processed successfully",
		"context_chunks", len(chunks),
		"booking", wantsBooking,
		"response_length", len(resp.Response),
	)
	return resp, nil
}

// answer produces the reply for a non-booking query.
func (s *chatService) answer(ctx context.Context, query, prompt string) (string, error) {
	if s.answerMode != AnswerModeLLM || s.llmClient == nil {
		return "Simulated answer for: " + query, nil
	}
	return s.llmClient.Chat(ctx, prompt)
}

func (s *chatService) validateRequest(req ChatRequest) error {
	if err := s.validate.Struct(req); err != nil {
		var field string
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			field = jsonFieldName(verrs[0].Field())
		}
		return &ValidationError{Field: field, Message: "cannot be empty"}
	}
	return nil
}

func jsonFieldName(field string) string {
	switch field {
	case "Query":
		return "query"
	default:
		return field
	}
}
