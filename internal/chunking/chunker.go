// Package chunking splits extracted document text into ordered, bounded-size
// chunks for embedding. All functions are pure and safe for concurrent use.
//
// Sizes are measured in runes, not bytes.
package chunking

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Strategy selects the chunking algorithm.
type Strategy string

const (
	// StrategyFixed is a sliding window of fixed rune width with overlap.
	StrategyFixed Strategy = "fixed"
	// StrategySemantic packs whole paragraphs up to a maximum size.
	StrategySemantic Strategy = "semantic"
)

// Strategies lists every valid strategy in a stable order.
var Strategies = []Strategy{StrategyFixed, StrategySemantic}

// ParseStrategy converts an untyped value (form field, CLI flag) into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyFixed:
		return StrategyFixed, nil
	case StrategySemantic:
		return StrategySemantic, nil
	}
	return "", configErr("strategy", s, "must be 'fixed' or 'semantic'")
}

// Params holds the numeric parameters for both strategies.
type Params struct {
	FixedSize   int // window size for StrategyFixed
	Overlap     int // shared runes between consecutive fixed windows
	MaxSemantic int // upper bound for StrategySemantic chunks
}

// DefaultParams returns the service defaults.
func DefaultParams() Params {
	return Params{FixedSize: 500, Overlap: 100, MaxSemantic: 600}
}

// Validate checks the parameters of both strategies.
func (p Params) Validate() error {
	if err := validateFixed(p.FixedSize, p.Overlap); err != nil {
		return err
	}
	return validateSemantic(p.MaxSemantic)
}

func validateFixed(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return configErr("chunk_size", chunkSize, "must be > 0")
	}
	if overlap < 0 {
		return configErr("overlap", overlap, "must be >= 0")
	}
	if overlap >= chunkSize {
		return configErr("overlap", overlap, "must be smaller than chunk_size")
	}
	return nil
}

func validateSemantic(maxChunkSize int) error {
	if maxChunkSize <= 0 {
		return configErr("max_chunk_size", maxChunkSize, "must be > 0")
	}
	return nil
}

// ChunkFixed splits text into windows of at most chunkSize runes, each
// starting chunkSize-overlap runes after the previous one.
func ChunkFixed(text string, chunkSize, overlap int) ([]string, error) {
	if err := validateFixed(chunkSize, overlap); err != nil {
		return nil, err
	}

	runes := []rune(strings.TrimSpace(text))
	n := len(runes)
	if n == 0 {
		return []string{}, nil
	}

	chunks := make([]string, 0, n/(chunkSize-overlap)+1)
	step := chunkSize - overlap
	for start := 0; start < n; start += step {
		end := min(start+chunkSize, n)
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

// paragraphSplit matches a blank line. RE2's \s is ASCII-only, so the
// class also lists \v, the \x1c-\x1f separators, NEL and the Unicode
// spaces (NBSP, U+3000, line and paragraph separators).
var paragraphSplit = regexp.MustCompile(`\n[\s\v\x1c-\x1f\x{85}\p{Z}]*\n`)

// splitParagraphs splits on blank lines and drops empty paragraphs.
func splitParagraphs(text string) []string {
	parts := paragraphSplit.Split(text, -1)
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// ChunkSemantic greedily packs consecutive paragraphs, joined by a single
// space, into chunks of at most maxChunkSize runes. A paragraph that alone
// exceeds the limit is split with ChunkFixed(p, maxChunkSize, 0).
func ChunkSemantic(text string, maxChunkSize int) ([]string, error) {
	if err := validateSemantic(maxChunkSize); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}, nil
	}

	var (
		chunks     = []string{}
		current    []string
		currentLen int
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		if chunk := strings.TrimSpace(strings.Join(current, " ")); chunk != "" {
			chunks = append(chunks, chunk)
		}
		current = current[:0]
		currentLen = 0
	}

	for _, p := range splitParagraphs(text) {
		size := utf8.RuneCountInString(p)
		if size > maxChunkSize {
			flush()
			// Cannot fail: maxChunkSize > 0 and overlap is 0.
			parts, _ := ChunkFixed(p, maxChunkSize, 0)
			chunks = append(chunks, parts...)
			continue
		}

		// extra is computed before a possible flush and added after it,
		// so the running length may over-count the join space by one.
		extra := size
		if len(current) > 0 {
			extra++
		}
		if currentLen+extra > maxChunkSize {
			flush()
		}
		current = append(current, p)
		currentLen += extra
	}
	flush()

	return chunks, nil
}

// GetChunks dispatches to the algorithm selected by strategy.
func GetChunks(text string, strategy Strategy, p Params) ([]string, error) {
	switch strategy {
	case StrategyFixed:
		return ChunkFixed(text, p.FixedSize, p.Overlap)
	case StrategySemantic:
		return ChunkSemantic(text, p.MaxSemantic)
	default:
		return nil, configErr("strategy", string(strategy), "must be 'fixed' or 'semantic'")
	}
}

// Chunker binds a validated parameter set for injection into callers.
type Chunker struct {
	params Params
}

// New validates p and returns a Chunker using it.
func New(p Params) (*Chunker, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{params: p}, nil
}

// Params returns the parameters the chunker was built with.
func (c *Chunker) Params() Params {
	return c.params
}

// Chunk splits text with the given strategy.
func (c *Chunker) Chunk(text string, strategy Strategy) ([]string, error) {
	return GetChunks(text, strategy, c.params)
}
