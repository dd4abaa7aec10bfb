package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestChunkCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "notes.txt", strings.Repeat("a", 25))

	out, err := execute(t, path, "--size", "10", "--overlap", "2", "--output", "json")
	require.NoError(t, err)

	var got []FileOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "fixed", got[0].Strategy)
	// Step of 8 over 25 characters starts chunks at 0, 8, 16 and 24.
	require.Len(t, got[0].Chunks, 4)
	assert.Equal(t, 10, got[0].Chunks[0].Length)
	assert.Equal(t, "a", got[0].Chunks[3].Text)
}

func TestChunkCommand_SemanticYAMLDirectory(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "b.txt", "First paragraph.\n\nSecond paragraph.")
	writeDoc(t, dir, "a.md", "# Title\n\nBody text.")
	writeDoc(t, dir, "skip.docx", "ignored")
	writeDoc(t, dir, ".git/config.txt", "hidden")

	out, err := execute(t, dir, "--strategy", "semantic", "--max", "20", "-o", "yaml")
	require.NoError(t, err)

	var got []FileOutput
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a.md", got[0].File)
	assert.Equal(t, "b.txt", got[1].File)
	assert.Equal(t, "semantic", got[1].Strategy)
	require.Len(t, got[1].Chunks, 2)
	assert.Equal(t, "First paragraph.", got[1].Chunks[0].Text)
}

func TestChunkCommand_Text(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "notes.txt", "hello world")

	out, err := execute(t, path)
	require.NoError(t, err)
	assert.Contains(t, out, "(fixed, 1 chunks)")
	assert.Contains(t, out, "[0] 11 chars\nhello world")
}

func TestChunkCommand_FileErrorReported(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "blank.txt", "   \n ")

	out, err := execute(t, path, "-o", "json")
	require.NoError(t, err)

	var got []FileOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Chunks)
}

func TestChunkCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "notes.txt", "hello")

	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown strategy", args: []string{path, "--strategy", "magic"}},
		{name: "overlap too large", args: []string{path, "--size", "10", "--overlap", "10"}},
		{name: "unknown output", args: []string{path, "-o", "xml"}},
		{name: "missing path", args: []string{filepath.Join(dir, "nope.txt")}},
		{name: "empty directory", args: []string{t.TempDir()}},
		{name: "no arguments", args: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
