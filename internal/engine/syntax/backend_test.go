package syntax

import (
	"strings"
	"testing"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/textcore/internal/engine/buffer"
)

const goHighlights = `
(comment) @comment
(interpreted_string_literal) @string
["func" "return" "package"] @keyword
`

const goRunnables = `
((function_declaration name: (identifier) @test-name)
 (#match? @test-name "^Test"))
`

func findKind(toks []Token, kind string) (Token, bool) {
	for _, tok := range toks {
		if tok.Kind == kind {
			return tok, true
		}
	}
	return Token{}, false
}

func TestTreeSitterHighlights(t *testing.T) {
	src := "package main\n\nfunc main() {\n\tprintln(\"hi\") // greet\n}\n"
	buf := buffer.NewFromString(src)
	g := NewTreeSitterGrammar("go", golang.GetLanguage(), goHighlights, goRunnables)
	defer g.Close()

	x := NewIndex(buf, g)
	defer x.Close()
	require.True(t, x.HasTree())

	line0 := x.LineTokens(0)
	assert.Equal(t, Token{Kind: "keyword", Text: "package"}, line0[0])

	line3 := x.LineTokens(3)
	str, ok := findKind(line3, "string")
	require.True(t, ok)
	assert.Equal(t, `"hi"`, str.Text)
	com, ok := findKind(line3, "comment")
	require.True(t, ok)
	assert.Equal(t, "// greet", com.Text)

	assertLinesReconstruct(t, buf, x)
}

func TestTreeSitterIncrementalEdit(t *testing.T) {
	buf := buffer.NewFromString("package main\n")
	g := NewTreeSitterGrammar("go", golang.GetLanguage(), goHighlights, goRunnables)
	defer g.Close()
	x := NewIndex(buf, g)
	defer x.Close()

	text := "\nfunc TestX() {}\n"
	start := buf.Len()
	startPt, err := buf.Position(start)
	require.NoError(t, err)
	require.NoError(t, buf.Insert(text, start))

	x.Edit(StructuralEdit{
		StartByte:   start,
		OldEndByte:  start,
		NewEndByte:  start + len(text),
		StartPoint:  startPt,
		OldEndPoint: startPt,
		NewEndPoint: buffer.PositionAfter(startPt, text),
	})
	require.True(t, x.HasTree())

	toks := x.LineTokens(2)
	assert.Equal(t, Token{Kind: "keyword", Text: "func"}, toks[0])

	rs := x.Runnables()
	require.Len(t, rs, 1)
	assert.Equal(t, 2, rs[0].Line)
	assert.Equal(t, "TestX", rs[0].Vars["test-name"])
}

func TestTreeSitterBadQuery(t *testing.T) {
	g := NewTreeSitterGrammar("go", golang.GetLanguage(), "(no_such_node) @x", "")
	defer g.Close()
	_, err := g.NewParser()
	assert.Error(t, err)

	buf := buffer.NewFromString("package main")
	x := NewIndex(buf, g)
	defer x.Close()
	assert.Equal(t, []Token{{Text: "package main"}}, x.LineTokens(0))
}

func TestTreeSitterEmptyQuery(t *testing.T) {
	g := NewTreeSitterGrammar("go", golang.GetLanguage(), "  ", "")
	_, err := g.NewParser()
	assert.ErrorIs(t, err, ErrNoQuery)
}

func TestLexerGrammar(t *testing.T) {
	lexer := lexers.Get("json")
	require.NotNil(t, lexer)
	g := NewLexerGrammar("json", lexer)

	buf := buffer.NewFromString("{\n  \"a\": 1,\n  \"b\": \"x\"\n}")
	x := NewIndex(buf, g)
	defer x.Close()
	require.True(t, x.HasTree())

	num, ok := findKind(x.LineTokens(1), "number")
	require.True(t, ok)
	assert.Equal(t, "1", num.Text)

	str, ok := findKind(x.LineTokens(2), "string")
	require.True(t, ok)
	assert.Equal(t, `"x"`, str.Text)

	assertLinesReconstruct(t, buf, x)
	assert.Nil(t, x.Runnables())
}

func TestLexerGrammarCRLF(t *testing.T) {
	kinds := func(src string) [][]Token {
		buf := buffer.NewFromString(src)
		x := NewIndex(buf, NewLexerGrammar("yaml", lexers.Get("yaml")))
		defer x.Close()
		assertLinesReconstruct(t, buf, x)
		var lines [][]Token
		for line := 0; line < buf.LineCount(); line++ {
			var toks []Token
			for _, tok := range x.LineTokens(line) {
				tok.Text = strings.TrimSuffix(tok.Text, "\r")
				if tok.Text != "" {
					toks = append(toks, tok)
				}
			}
			lines = append(lines, toks)
		}
		return lines
	}

	lf := "# one\n# two\n# three\nkey: value\n"
	crlf := strings.ReplaceAll(lf, "\n", "\r\n")
	want := kinds(lf)
	assert.Equal(t, want, kinds(crlf))

	key, ok := findKind(want[3], "tag")
	require.True(t, ok)
	assert.Equal(t, "key", key.Text)
}

func TestLexerGrammarReparsesOnEdit(t *testing.T) {
	g := NewLexerGrammar("json", lexers.Get("json"))
	buf := buffer.NewFromString("[1]")
	x := NewIndex(buf, g)
	defer x.Close()

	require.NoError(t, buf.Insert(", 22", 2))
	x.Edit(StructuralEdit{StartByte: 2, OldEndByte: 2, NewEndByte: 6})

	var nums []string
	for _, tok := range x.LineTokens(0) {
		if tok.Kind == "number" {
			nums = append(nums, tok.Text)
		}
	}
	assert.Equal(t, []string{"1", "22"}, nums)
}
