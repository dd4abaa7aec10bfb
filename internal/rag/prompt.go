package rag

import (
	"bytes"
	"encoding/json"
	"strings"

	"docrag/internal/session"
)

// ContextTexts returns the non-empty chunk texts in rank order.
func ContextTexts(chunks []RetrievedChunk) []string {
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c.Text != "" {
			texts = append(texts, c.Text)
		}
	}
	return texts
}

// BuildPrompt assembles the answer prompt from retrieved context, prior
// turns and the new query.
func BuildPrompt(contextChunks []string, history []session.Turn, query string) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant.\n")
	b.WriteString("Use the context below when relevant.\n\n")
	b.WriteString("Context:\n")
	b.WriteString(strings.Join(contextChunks, "\n\n"))
	b.WriteString("\n\n")
	b.WriteString("Chat History:\n")
	b.WriteString(historyJSON(history))
	b.WriteString("\n\n")
	b.WriteString("User: ")
	b.WriteString(query)
	b.WriteString("\n")
	return b.String()
}

// historyJSON encodes history without escaping HTML or non-ASCII text.
func historyJSON(history []session.Turn) string {
	if history == nil {
		history = []session.Turn{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(history); err != nil {
		return "[]"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
