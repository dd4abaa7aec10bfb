package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"docrag/internal/chunking"
	"docrag/internal/indexer"
	"docrag/internal/uploads"
)

// Output formats.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

type chunkOptions struct {
	strategy string
	size     int
	overlap  int
	max      int
	output   string
}

// ChunkOutput is one chunk in the printed result.
type ChunkOutput struct {
	Index  int    `json:"index" yaml:"index"`
	Length int    `json:"length" yaml:"length"`
	Text   string `json:"text" yaml:"text"`
}

// FileOutput holds the chunks produced for one file.
type FileOutput struct {
	File     string        `json:"file" yaml:"file"`
	Strategy string        `json:"strategy" yaml:"strategy"`
	Chunks   []ChunkOutput `json:"chunks" yaml:"chunks"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
}

func newRootCommand() *cobra.Command {
	defaults := chunking.DefaultParams()
	opts := chunkOptions{}
	cmd := &cobra.Command{
		Use:           "docrag-chunk <file-or-directory>",
		Short:         "Extract text from documents and print their chunks",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChunk(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.strategy, "strategy", string(chunking.StrategyFixed), "Chunking strategy: fixed or semantic")
	cmd.Flags().IntVar(&opts.size, "size", defaults.FixedSize, "Fixed chunk size in characters")
	cmd.Flags().IntVar(&opts.overlap, "overlap", defaults.Overlap, "Fixed chunk overlap in characters")
	cmd.Flags().IntVar(&opts.max, "max", defaults.MaxSemantic, "Maximum semantic chunk size in characters")
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputText, "Output format: text, json or yaml")
	return cmd
}

func runChunk(ctx context.Context, w io.Writer, target string, opts chunkOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	switch opts.output {
	case outputText, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unknown output format %q", opts.output)
	}

	strategy, err := chunking.ParseStrategy(opts.strategy)
	if err != nil {
		return err
	}
	chunker, err := chunking.New(chunking.Params{
		FixedSize:   opts.size,
		Overlap:     opts.overlap,
		MaxSemantic: opts.max,
	})
	if err != nil {
		return err
	}

	files, err := resolveFiles(ctx, target)
	if err != nil {
		return err
	}

	extractor := indexer.NewExtractor()
	results := make([]FileOutput, 0, len(files))
	for _, f := range files {
		results = append(results, chunkFile(ctx, extractor, chunker, strategy, f))
	}

	return render(w, opts.output, results)
}

// resolveFiles returns target itself, or every supported file below it when
// it is a directory.
func resolveFiles(ctx context.Context, target string) ([]uploads.ScannedFile, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", target, err)
	}
	if !info.IsDir() {
		return []uploads.ScannedFile{{RelPath: target, AbsPath: target}}, nil
	}
	files, err := uploads.Scan(ctx, target, indexer.IsSupported)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no supported documents found in %s", target)
	}
	return files, nil
}

func chunkFile(ctx context.Context, extractor *indexer.Extractor, chunker *chunking.Chunker, strategy chunking.Strategy, f uploads.ScannedFile) FileOutput {
	out := FileOutput{File: f.RelPath, Strategy: string(strategy), Chunks: []ChunkOutput{}}

	text, err := extractor.ExtractFile(ctx, f.AbsPath)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	chunks, err := chunker.Chunk(text, strategy)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	for i, c := range chunks {
		out.Chunks = append(out.Chunks, ChunkOutput{Index: i, Length: utf8.RuneCountInString(c), Text: c})
	}
	return out
}

func render(w io.Writer, format string, results []FileOutput) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return err
		}
		return enc.Close()
	}

	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(w, "== %s: %s\n\n", r.File, r.Error)
			continue
		}
		fmt.Fprintf(w, "== %s (%s, %d chunks)\n", r.File, r.Strategy, len(r.Chunks))
		for _, c := range r.Chunks {
			fmt.Fprintf(w, "[%d] %d chars\n%s\n\n", c.Index, c.Length, c.Text)
		}
	}
	return nil
}
