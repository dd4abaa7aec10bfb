package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks docrag/internal/rag Embedder

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"docrag/internal/contextutil"
	"docrag/internal/vectorstore"
)

// Embedder turns texts into vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// RetrievedChunk is a chunk returned by a similarity search.
type RetrievedChunk struct {
	ChunkID    string  `json:"chunk_id"`
	FileID     string  `json:"file_id"`
	Filename   string  `json:"filename,omitempty"`
	ChunkIndex int     `json:"chunk_index"`
	Strategy   string  `json:"strategy,omitempty"`
	Text       string  `json:"text"`
	Score      float32 `json:"score"`
	// Rank is the 1-based position in the result list.
	Rank int `json:"rank"`
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLexicalRerank blends a keyword overlap score into the vector score
// and re-sorts the results.
func WithLexicalRerank() Option {
	return func(r *Retriever) {
		r.lexicalRerank = true
	}
}

// Retriever finds the chunks most similar to a query.
type Retriever struct {
	embedder      Embedder
	vectorStore   vectorstore.VectorStore
	collection    string
	lexicalRerank bool
}

// NewRetriever creates a new Retriever.
func NewRetriever(embedder Embedder, vectorStore vectorstore.VectorStore, collection string, opts ...Option) *Retriever {
	r := &Retriever{
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve embeds query and returns up to k chunks, best first.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]RetrievedChunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return []RetrievedChunk{}, nil
	}

	embeddings, err := r.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}

	results, err := r.vectorStore.Search(ctx, r.collection, embeddings[0], k, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search vector store: %w", err)
	}

	chunks := make([]RetrievedChunk, 0, len(results))
	for _, result := range results {
		chunks = append(chunks, chunkFromResult(result))
	}

	if r.lexicalRerank {
		scorer := newLexicalScorer(query)
		for i := range chunks {
			chunks[i].Score += scorer.score(chunks[i].Text, chunks[i].Filename)
		}
		sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Score > chunks[j].Score })
	}

	for i := range chunks {
		chunks[i].Rank = i + 1
	}

	if len(chunks) > 0 {
		logger.DebugContext(ctx, "retrieved chunks", "count", len(chunks), "top_score", chunks[0].Score, "lexical_rerank", r.lexicalRerank)
	}
	return chunks, nil
}

// chunkFromResult maps a search hit's payload onto a RetrievedChunk.
func chunkFromResult(result vectorstore.SearchResult) RetrievedChunk {
	text, _ := result.Meta["text"].(string)
	fileID, _ := result.Meta["file_id"].(string)
	filename, _ := result.Meta["filename"].(string)
	strategy, _ := result.Meta["strategy"].(string)

	return RetrievedChunk{
		ChunkID:    result.PointID,
		FileID:     fileID,
		Filename:   filename,
		ChunkIndex: intValue(result.Meta["chunk_index"]),
		Strategy:   strategy,
		Text:       text,
		Score:      result.Score,
	}
}

// intValue reads a payload number. Qdrant returns int64, JSON decoding
// gives float64 and the in-memory store keeps strings.
func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}
