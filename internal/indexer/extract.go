package indexer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"docrag/internal/contextutil"
)

// ErrUnsupportedFileType is returned for anything other than .txt, .pdf or .md.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// TextExtractionError is returned when a supported file cannot be read as text.
type TextExtractionError struct {
	Filename string
	Err      error
}

func (e *TextExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %s: %v", e.Filename, e.Err)
}

func (e *TextExtractionError) Unwrap() error {
	return e.Err
}

var supportedExtensions = map[string]bool{
	".txt": true,
	".pdf": true,
	".md":  true,
}

// IsSupported reports whether filename has an accepted extension.
// The check is case-insensitive.
func IsSupported(filename string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Extractor turns uploaded files into plain text.
type Extractor struct {
	fs       afero.Fs
	markdown goldmark.Markdown
}

// NewExtractor creates a new Extractor that reads files from the local disk.
func NewExtractor() *Extractor {
	return NewExtractorFs(afero.NewOsFs())
}

// NewExtractorFs creates a new Extractor that reads files from fs.
func NewExtractorFs(fs afero.Fs) *Extractor {
	return &Extractor{
		fs:       fs,
		markdown: goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

// ExtractFile reads the file at path and extracts its text.
// The extension of path selects the format.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (string, error) {
	if !IsSupported(path) {
		return "", ErrUnsupportedFileType
	}
	data, err := afero.ReadFile(e.fs, path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return e.Extract(ctx, filepath.Base(path), data)
}

// Extract extracts trimmed text from data, using filename's extension to
// pick the format.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return strings.TrimSpace(normalizeNewlines(decodeText(data))), nil
	case ".md":
		return strings.TrimSpace(e.markdownText(data)), nil
	case ".pdf":
		txt, err := pdfText(data)
		if err != nil {
			logger.WarnContext(ctx, "pdf extraction failed", "filename", filename, "error", err)
			return "", &TextExtractionError{Filename: filename, Err: err}
		}
		return strings.TrimSpace(txt), nil
	default:
		return "", ErrUnsupportedFileType
	}
}

// decodeText returns data as UTF-8, falling back to Latin-1 (each byte one
// rune) when data is not valid UTF-8.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

// normalizeNewlines turns CRLF and lone CR line endings into LF.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// pdfText returns the plain text of every page that has any, joined by
// newlines. The pdf package panics on some malformed inputs.
func pdfText(data []byte) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		txt, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i, err)
		}
		if strings.TrimSpace(txt) != "" {
			pages = append(pages, txt)
		}
	}
	return strings.Join(pages, "\n"), nil
}

// markdownText renders markdown as plain text with one blank line between
// block elements, so semantic chunking sees each block as a paragraph.
func (e *Extractor) markdownText(content []byte) string {
	doc := e.markdown.Parser().Parse(text.NewReader(content))

	var blocks []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			blocks = append(blocks, s)
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
			add(extractTextFromNode(node, content))
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			var b strings.Builder
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				b.Write(line.Value(content))
			}
			// Blank lines inside code would split it into several paragraphs
			add(collapseBlankLines(b.String()))
			return ast.WalkSkipChildren, nil
		case *east.TableHeader, *east.TableRow:
			add(extractTableRowText(node, content))
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(blocks, "\n\n")
}

// extractTextFromNode extracts text content from a node and its children.
// Soft line breaks become spaces.
func extractTextFromNode(n ast.Node, content []byte) string {
	var textBuilder strings.Builder

	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := node.(type) {
		case *ast.Text:
			textBuilder.Write(v.Segment.Value(content))
			if v.HardLineBreak() {
				textBuilder.WriteByte('\n')
			} else if v.SoftLineBreak() {
				textBuilder.WriteByte(' ')
			}
		case *ast.String:
			textBuilder.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(textBuilder.String())
}

// extractTableRowText extracts text from a table row, formatting cells with pipe separators.
func extractTableRowText(row ast.Node, content []byte) string {
	cells := make([]string, 0, row.ChildCount())
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*east.TableCell); ok {
			cells = append(cells, extractTextFromNode(c, content))
		}
	}
	return strings.Join(cells, " | ")
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, strings.TrimRight(l, " \t\r"))
		}
	}
	return strings.Join(kept, "\n")
}
