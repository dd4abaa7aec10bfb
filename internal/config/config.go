package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"docrag/internal/chunking"
)

// Vector index backends.
const (
	VectorBackendQdrant = "qdrant"
	VectorBackendMemory = "memory"
)

// Answer modes for the chat service.
const (
	AnswerModeSimulated = "simulated"
	AnswerModeLLM       = "llm"
)

// Config holds all configuration for the application.
type Config struct {
	AppTitle  string     `env:"APP_TITLE" envDefault:"Palm Mind RAG Task"`
	APIPort   string     `env:"API_PORT" envDefault:"9000"`
	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text"`

	DBPath         string `env:"DB_PATH" envDefault:"./data/app.db"`
	UploadDir      string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"33554432"`

	RedisURL        string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisTTL        time.Duration `env:"REDIS_TTL" envDefault:"24h"`
	HistoryMaxTurns int           `env:"HISTORY_MAX_TURNS" envDefault:"10"`

	VectorBackend    string `env:"VECTOR_BACKEND" envDefault:"qdrant"`
	QdrantURL        string `env:"QDRANT_URL" envDefault:"http://localhost:6333"`
	QdrantCollection string `env:"QDRANT_COLLECTION" envDefault:"palmmind_documents"`
	// Must match the output size of the embeddings model.
	QdrantVectorSize int `env:"QDRANT_VECTOR_SIZE" envDefault:"384"`

	EmbeddingBaseURL   string `env:"EMBEDDING_BASE_URL" envDefault:"http://localhost:8081"`
	EmbeddingModelName string `env:"EMBEDDING_MODEL_NAME" envDefault:"all-MiniLM-L6-v2"`

	LLMBaseURL   string `env:"LLM_BASE_URL" envDefault:"http://localhost:11434"`
	LLMModelName string `env:"LLM_MODEL" envDefault:"llama3.2:1b"`
	LLMAPIKey    string `env:"LLM_API_KEY" envDefault:"dummy-key"`
	AnswerMode   string `env:"ANSWER_MODE" envDefault:"simulated"`

	FixedChunkSize   int `env:"FIXED_CHUNK_SIZE" envDefault:"500"`
	FixedOverlap     int `env:"FIXED_OVERLAP" envDefault:"100"`
	SemanticMaxChunk int `env:"SEMANTIC_MAX_CHUNK" envDefault:"600"`

	TopK int `env:"TOP_K" envDefault:"5"`
	// Reorders retrieved chunks by query term overlap after vector search.
	RerankLexical bool `env:"RERANK_LEXICAL" envDefault:"false"`
}

// ChunkParams returns the chunking parameters from the configuration.
func (c *Config) ChunkParams() chunking.Params {
	return chunking.Params{
		FixedSize:   c.FixedChunkSize,
		Overlap:     c.FixedOverlap,
		MaxSemantic: c.SemanticMaxChunk,
	}
}

// Load reads configuration from environment variables and returns a Config struct.
// If a .env file exists in the current directory or a parent directory, it is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, dir := range []string{filepath.Dir(cfg.DBPath), cfg.UploadDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.QdrantVectorSize <= 0 {
		return fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be greater than 0")
	}
	if c.HistoryMaxTurns <= 0 {
		return fmt.Errorf("HISTORY_MAX_TURNS must be greater than 0")
	}
	if c.RedisTTL <= 0 {
		return fmt.Errorf("REDIS_TTL must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be greater than 0")
	}
	if err := c.ChunkParams().Validate(); err != nil {
		return fmt.Errorf("chunking parameters: %w", err)
	}

	switch c.VectorBackend {
	case VectorBackendQdrant, VectorBackendMemory:
	default:
		return fmt.Errorf("VECTOR_BACKEND must be %q or %q, got %q", VectorBackendQdrant, VectorBackendMemory, c.VectorBackend)
	}
	switch c.AnswerMode {
	case AnswerModeSimulated, AnswerModeLLM:
	default:
		return fmt.Errorf("ANSWER_MODE must be %q or %q, got %q", AnswerModeSimulated, AnswerModeLLM, c.AnswerMode)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}

	return nil
}

// loadDotEnv loads .env from the working directory, then walks up
// (limited depth) until one is found.
func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
