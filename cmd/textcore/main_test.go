package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/textcore/internal/logging"
	"github.com/dshills/textcore/internal/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-lang", "go", "-tokens", "-log-level", "debug", "-log-format", "json", "x.txt"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "x.txt", opts.File)
	assert.Equal(t, "go", opts.Language)
	assert.True(t, opts.Tokens)
	assert.Equal(t, slog.LevelDebug, opts.LogLevel)
	assert.Equal(t, logging.FormatJSON, opts.LogFormat)
}

func TestParseFlagsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no file", nil},
		{"two files", []string{"a", "b"}},
		{"bad level", []string{"-log-level", "loud", "a"}},
		{"bad format", []string{"-log-format", "xml", "a"}},
		{"watch without serve", []string{"-watch", "-languages", "d", "a"}},
		{"watch without languages", []string{"-watch", "-serve", ":0", "a"}},
		{"unknown flag", []string{"-nope", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(tt.args, io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestParseFlagsVersion(t *testing.T) {
	opts, err := parseFlags([]string{"-version"}, io.Discard)
	require.NoError(t, err)
	assert.True(t, opts.ShowVersion)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestExecuteScriptAndWrite(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "main.go", "package main\n")
	lua := writeFile(t, dir, "edit.lua", `
doc.transaction(function()
  editor.set_caret(doc.len())
  editor.apply("text_input", "func main() {}")
end)
print(doc.language(), doc.lines())
`)

	var out bytes.Buffer
	err := execute(context.Background(), options{File: file, Script: lua, Write: true, Print: true}, &out, discard())
	require.NoError(t, err)
	assert.Equal(t, "go\t2\npackage main\nfunc main() {}", out.String())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "package main\nfunc main() {}", string(data))
	fi, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestExecuteScriptError(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "a.txt", "abc")
	lua := writeFile(t, dir, "bad.lua", `doc.transaction(function() doc.insert("x", 0) error("no") end)`)

	err := execute(context.Background(), options{File: file, Script: lua, Write: true}, io.Discard, discard())
	assert.ErrorIs(t, err, script.ErrScript)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestExecuteTokens(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "main.go", "package main\n\nfunc main() {}")

	var out bytes.Buffer
	require.NoError(t, execute(context.Background(), options{File: file, Tokens: true}, &out, discard()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	var last tokenLine
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &last))
	assert.Equal(t, 2, last.Line)
	var text strings.Builder
	kinds := map[string]bool{}
	for _, tok := range last.Tokens {
		text.WriteString(tok.Text)
		kinds[tok.Kind] = true
	}
	assert.Equal(t, "func main() {}", text.String())
	assert.True(t, kinds["keyword"])
}

func TestExecuteLanguageOverrides(t *testing.T) {
	dir := t.TempDir()
	langs := filepath.Join(dir, "langs")
	require.NoError(t, os.Mkdir(langs, 0o755))
	writeFile(t, langs, "notes.yaml", `
language:
  - name: notes
    extensions: [".notes"]
    backend: lexer
    lexer: markdown
    comment: ">"
`)
	file := writeFile(t, dir, "todo.notes", "buy milk")
	lua := writeFile(t, dir, "c.lua", `editor.apply("comment") print(doc.language())`)

	var out bytes.Buffer
	err := execute(context.Background(), options{File: file, LanguagesDir: langs, Script: lua, Print: true}, &out, discard())
	require.NoError(t, err)
	assert.Equal(t, "notes\n>buy milk", out.String())
}

func TestExecuteNewFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "new.txt")
	var out bytes.Buffer
	require.NoError(t, execute(context.Background(), options{File: file, Write: true, Print: true}, &out, discard()))
	assert.Empty(t, out.String())
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Empty(t, data)
}
