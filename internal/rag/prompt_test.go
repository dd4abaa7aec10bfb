package rag

import (
	"testing"

	"docrag/internal/session"
)

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name    string
		context []string
		history []session.Turn
		query   string
		want    string
	}{
		{
			name:  "empty context and history",
			query: "hello",
			want:  "You are a helpful assistant.\nUse the context below when relevant.\n\nContext:\n\n\nChat History:\n[]\n\nUser: hello\n",
		},
		{
			name:    "context joined by blank line",
			context: []string{"first chunk", "second chunk"},
			history: []session.Turn{{User: "hi", Assistant: "héllo <b>"}},
			query:   "next?",
			want: "You are a helpful assistant.\nUse the context below when relevant.\n\n" +
				"Context:\nfirst chunk\n\nsecond chunk\n\n" +
				"Chat History:\n[{\"user\":\"hi\",\"assistant\":\"héllo <b>\"}]\n\n" +
				"User: next?\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildPrompt(tt.context, tt.history, tt.query); got != tt.want {
				t.Errorf("BuildPrompt() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestContextTexts(t *testing.T) {
	chunks := []RetrievedChunk{{Text: "a"}, {Text: ""}, {Text: "b"}}
	got := ContextTexts(chunks)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("ContextTexts() = %v, want [a b]", got)
	}
}
