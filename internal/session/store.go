package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docrag/internal/contextutil"
)

const keyPrefix = "chat:"

// Turn is one user message and the assistant's reply.
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// RedisClient is the subset of the go-redis client used by Store.
// Both *redis.Client and redis.UniversalClient satisfy it.
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store keeps per-session chat history in Redis as a JSON array under
// chat:<session_id>.
type Store struct {
	client   RedisClient
	ttl      time.Duration
	maxTurns int
}

// NewStore creates a history store. Saved histories keep at most maxTurns
// turns and expire after ttl.
func NewStore(client RedisClient, ttl time.Duration, maxTurns int) *Store {
	return &Store{
		client:   client,
		ttl:      ttl,
		maxTurns: maxTurns,
	}
}

// NewRedisClient parses a redis:// URL and returns a client for it.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

// Load returns the history for sessionID, oldest first.
// A missing key or unreadable value yields an empty history.
func (s *Store) Load(ctx context.Context, sessionID string) ([]Turn, error) {
	raw, err := s.client.Get(ctx, key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	var turns []Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "discarding malformed history", "session_id", sessionID, "error", err)
		return []Turn{}, nil
	}
	if turns == nil {
		turns = []Turn{}
	}
	return turns, nil
}

// Save stores the last maxTurns turns of history and resets the expiry.
func (s *Store) Save(ctx context.Context, sessionID string, turns []Turn) error {
	if s.maxTurns > 0 && len(turns) > s.maxTurns {
		turns = turns[len(turns)-s.maxTurns:]
	}
	if turns == nil {
		turns = []Turn{}
	}

	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := s.client.Set(ctx, key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// Append adds turn to the end of the session's history.
func (s *Store) Append(ctx context.Context, sessionID string, turn Turn) error {
	turns, err := s.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.Save(ctx, sessionID, append(turns, turn))
}

// Clear deletes the session's history.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
