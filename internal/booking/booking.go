package booking

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_completer.go -package=mocks docrag/internal/booking Completer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"docrag/internal/contextutil"
	"docrag/internal/llm"
	"docrag/internal/metrics"
	"docrag/internal/storage"
)

// SystemPrompt instructs the model to return booking fields as JSON.
const SystemPrompt = "You are a booking assistant. Extract booking details from the user message.\n" +
	"Return ONLY valid JSON with keys: name, email, date, time.\n" +
	"date must be YYYY-MM-DD and time must be HH:MM (24h).\n" +
	"If a field is missing, return empty string for that field."

// IncompleteMessage is returned when booking details cannot be extracted.
const IncompleteMessage = "Please provide: name, email, YYYY-MM-DD, HH:MM (24hr)."

// Completer sends a chat completion request to a language model.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// Details are validated interview booking fields.
type Details struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Time  string `json:"time" validate:"required,datetime=15:04"`
}

// MarshalJSON writes Time with seconds, as HH:MM:SS.
func (d Details) MarshalJSON() ([]byte, error) {
	type plain Details
	out := plain(d)
	if t, err := time.Parse("15:04", d.Time); err == nil {
		out.Time = t.Format("15:04:05")
	}
	return json.Marshal(out)
}

// Result is the outcome of a booking request.
type Result struct {
	Confirmed bool
	Message   string
	Details   *Details
}

// IsBookingIntent reports whether a chat message asks for a booking.
func IsBookingIntent(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(q, "book") || strings.Contains(q, "interview")
}

// Extractor pulls booking details out of free text using a language model.
type Extractor struct {
	llm      Completer
	validate *validator.Validate
}

// NewExtractor creates a new booking details extractor.
func NewExtractor(llm Completer) *Extractor {
	return &Extractor{
		llm:      llm,
		validate: validator.New(),
	}
}

// Extract returns the booking details in query, or nil if any field is
// missing or invalid. Model failures are logged and also yield nil.
func (e *Extractor) Extract(ctx context.Context, query string) (*Details, error) {
	logger := contextutil.LoggerFromContext(ctx)

	content, err := e.llm.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: SystemPrompt},
		{Role: llm.RoleUser, Content: query},
	}, llm.ChatParams{JSON: true})
	if err != nil {
		logger.WarnContext(ctx, "booking extraction request failed", "error", err)
		return nil, nil
	}

	details, err := parseDetails(content)
	if err != nil {
		logger.DebugContext(ctx, "booking details not usable", "error", err)
		return nil, nil
	}
	if err := e.validate.Struct(details); err != nil {
		logger.DebugContext(ctx, "booking details invalid", "error", err)
		return nil, nil
	}
	return details, nil
}

// parseDetails decodes the model's JSON reply. Fields must be strings,
// unknown keys are rejected, and values are trimmed. A time given with
// seconds is cut to HH:MM.
func parseDetails(content string) (*Details, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	normalized := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			normalized[k] = ""
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("field %s is not a string", k)
		}
		normalized[k] = strings.TrimSpace(s)
	}

	if t, err := time.Parse("15:04:05", normalized["time"]); err == nil {
		normalized["time"] = t.Format("15:04")
	}

	data, err := json.Marshal(normalized)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var details Details
	if err := dec.Decode(&details); err != nil {
		return nil, fmt.Errorf("unexpected fields: %w", err)
	}
	return &details, nil
}

// Service confirms and records interview bookings.
type Service struct {
	extractor *Extractor
	bookings  storage.BookingStore
	metrics   *metrics.Metrics
}

// NewService creates a new booking service. m may be nil.
func NewService(extractor *Extractor, bookings storage.BookingStore, m *metrics.Metrics) *Service {
	return &Service{
		extractor: extractor,
		bookings:  bookings,
		metrics:   m,
	}
}

// Process extracts booking details from query and records the booking
// when they are complete. Only a failure to save the booking is an error.
func (s *Service) Process(ctx context.Context, sessionID, query string) (Result, error) {
	details, err := s.extractor.Extract(ctx, query)
	if err != nil {
		return Result{}, err
	}
	if details == nil {
		s.metrics.BookingProcessed(false)
		return Result{Confirmed: false, Message: IncompleteMessage}, nil
	}

	record := &storage.BookingRecord{
		SessionID: sessionID,
		Name:      details.Name,
		Email:     details.Email,
		Date:      details.Date,
		Time:      details.Time,
	}
	if err := s.bookings.Save(ctx, record); err != nil {
		return Result{}, fmt.Errorf("failed to save booking: %w", err)
	}

	s.metrics.BookingProcessed(true)
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "interview booked", "session_id", sessionID, "booking_id", record.ID, "date", details.Date)

	return Result{
		Confirmed: true,
		Message:   fmt.Sprintf("Interview booked for %s on %s at %s.", details.Name, details.Date, details.Time),
		Details:   details,
	}, nil
}
