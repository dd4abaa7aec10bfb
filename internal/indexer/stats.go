package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
)

// ChunkerVersion identifies the chunking implementation. Bump it when
// chunk boundaries change so stale indexes can be detected.
const ChunkerVersion = "v2.0"

// CorpusStats summarizes what has been indexed.
type CorpusStats struct {
	Documents           int            `json:"documents"`
	Chunks              int            `json:"chunks"`
	DocumentsByStrategy map[string]int `json:"documents_by_strategy"`
	ChunkLength         LengthStats    `json:"chunk_length"`
	ChunkerVersion      string         `json:"chunker_version"`
	// IndexVersion is a hash of the chunker version, embedding model and
	// chunking parameters.
	IndexVersion string `json:"index_version"`
}

// LengthStats contains statistics about chunk lengths in characters.
type LengthStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// Stats computes corpus statistics from the database.
func (p *Pipeline) Stats(ctx context.Context) (*CorpusStats, error) {
	byStrategy, err := p.documents.CountByStrategy(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	lengths, err := p.chunks.Lengths(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk lengths: %w", err)
	}

	stats := &CorpusStats{
		DocumentsByStrategy: byStrategy,
		Chunks:              len(lengths),
		ChunkLength:         computeLengthStats(lengths),
		ChunkerVersion:      ChunkerVersion,
		IndexVersion:        p.indexVersion(),
	}
	for _, n := range byStrategy {
		stats.Documents += n
	}

	return stats, nil
}

func (p *Pipeline) indexVersion() string {
	params := p.chunker.Params()
	input := fmt.Sprintf("%s|%s|fixed=%d|overlap=%d|semantic=%d",
		ChunkerVersion, p.embeddingModel, params.FixedSize, params.Overlap, params.MaxSemantic)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}

// computeLengthStats computes min, max, mean, and p95 from chunk lengths.
func computeLengthStats(lengths []int) LengthStats {
	if len(lengths) == 0 {
		return LengthStats{}
	}

	sorted := make([]int, len(lengths))
	copy(sorted, lengths)
	sort.Ints(sorted)

	sum := 0
	for _, n := range sorted {
		sum += n
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if p95Index < 0 {
		p95Index = 0
	}

	return LengthStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100, // Round to 2 decimal places
		P95:  sorted[p95Index],
	}
}
