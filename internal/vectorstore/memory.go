package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"docrag/internal/contextutil"
)

// errNoEmbeddingFunc is returned by chromem if a document or query arrives
// without a precomputed vector. The embeddings client always supplies one.
var errNoEmbeddingFunc = errors.New("embeddings must be precomputed")

func precomputedOnly(context.Context, string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}

// MemoryStore implements VectorStore on an in-process chromem-go database.
// Payload values are stored as strings; Search returns them as strings.
type MemoryStore struct {
	db    *chromem.DB
	mu    sync.RWMutex
	sizes map[string]int // vector size per collection
}

// NewMemoryStore creates an empty in-memory vector store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{db: chromem.NewDB(), sizes: make(map[string]int)}
}

func (s *MemoryStore) collection(name string) (*chromem.Collection, error) {
	c := s.db.GetCollection(name, precomputedOnly)
	if c == nil {
		return nil, fmt.Errorf("collection %q does not exist", name)
	}
	return c, nil
}

// EnsureCollection creates the collection or checks its recorded vector size.
func (s *MemoryStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if got, ok := s.sizes[collection]; ok {
		if got != vectorSize {
			return fmt.Errorf("collection vector size mismatch: expected %d, got %d", vectorSize, got)
		}
		return nil
	}

	_, err := s.db.CreateCollection(collection, map[string]string{"vector_size": strconv.Itoa(vectorSize)}, precomputedOnly)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	s.sizes[collection] = vectorSize
	logger.InfoContext(ctx, "created in-memory collection", "collection", collection, "vector_size", vectorSize)
	return nil
}

// CollectionExists reports whether the collection exists.
func (s *MemoryStore) CollectionExists(_ context.Context, collection string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sizes[collection]
	return ok, nil
}

// Upsert inserts or replaces points. The "text" payload key is also stored
// as the document content.
func (s *MemoryStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	c, err := s.collection(collection)
	if err != nil {
		return err
	}
	s.mu.RLock()
	size := s.sizes[collection]
	s.mu.RUnlock()

	docs := make([]chromem.Document, 0, len(points))
	for _, p := range points {
		if len(p.Vec) != size {
			return fmt.Errorf("point %s has vector size %d, collection expects %d", p.ID, len(p.Vec), size)
		}
		meta := stringMeta(p.Meta)
		docs = append(docs, chromem.Document{
			ID:        p.ID,
			Metadata:  meta,
			Embedding: p.Vec,
			Content:   meta["text"],
		})
	}

	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// Search returns up to k points ordered by cosine similarity.
func (s *MemoryStore) Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	c, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	// chromem rejects nResults larger than the collection
	n := min(k, c.Count())
	if n == 0 {
		return []SearchResult{}, nil
	}

	res, err := c.QueryEmbedding(ctx, query, n, stringMeta(filters), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, len(res))
	for _, r := range res {
		meta := make(map[string]any, len(r.Metadata))
		for key, v := range r.Metadata {
			meta[key] = v
		}
		results = append(results, SearchResult{PointID: r.ID, Score: r.Similarity, Meta: meta})
	}
	return results, nil
}

// Delete removes points by their IDs.
func (s *MemoryStore) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	c, err := s.collection(collection)
	if err != nil {
		return err
	}
	if err := c.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}

// DeleteByFilter removes every point whose payload matches filters.
func (s *MemoryStore) DeleteByFilter(ctx context.Context, collection string, filters map[string]any) error {
	if len(filters) == 0 {
		return ErrEmptyFilter
	}
	c, err := s.collection(collection)
	if err != nil {
		return err
	}
	if err := c.Delete(ctx, stringMeta(filters), nil); err != nil {
		return fmt.Errorf("failed to delete points by filter: %w", err)
	}
	return nil
}

func stringMeta(m map[string]any) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}
