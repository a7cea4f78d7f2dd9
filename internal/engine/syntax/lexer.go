package syntax

import (
	"context"
	"fmt"

	"github.com/alecthomas/chroma/v2"
)

// LexerGrammar adapts a chroma lexer. Chroma tokenizes the whole source on
// every parse, so trees are rebuilt rather than edited.
type LexerGrammar struct {
	name  string
	lexer chroma.Lexer
}

// NewLexerGrammar creates a grammar backed by lexer.
func NewLexerGrammar(name string, lexer chroma.Lexer) *LexerGrammar {
	return &LexerGrammar{name: name, lexer: chroma.Coalesce(lexer)}
}

// Name returns the language name.
func (g *LexerGrammar) Name() string {
	return g.name
}

// NewParser returns a parser; lexers keep no per-document state.
func (g *LexerGrammar) NewParser() (Parser, error) {
	return &lexParser{grammar: g}, nil
}

type lexParser struct {
	grammar *LexerGrammar
}

// lexTree is the capture list of one lex run.
type lexTree struct {
	captures []Capture
}

func (t *lexTree) Edit(StructuralEdit) {}
func (t *lexTree) Close()              {}

func (p *lexParser) Parse(ctx context.Context, _ Tree, src []byte) (Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Token values must keep the buffer's bytes, CRLF included.
	it, err := p.grammar.lexer.Tokenise(&chroma.TokeniseOptions{State: "root"}, string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: tokenise: %w", p.grammar.name, err)
	}

	var (
		caps []Capture
		off  int
		pos  Point
	)
	for _, tok := range it.Tokens() {
		if off >= len(src) {
			break
		}
		text := tok.Value
		if off+len(text) > len(src) {
			text = text[:len(src)-off]
		}
		end := off + len(text)
		endPos := advance(pos, text)
		if name := captureName(tok.Type); name != "" && text != "" {
			caps = append(caps, Capture{
				Name:       name,
				StartByte:  off,
				EndByte:    end,
				StartPoint: pos,
				EndPoint:   endPos,
			})
		}
		off, pos = end, endPos
	}
	return &lexTree{captures: caps}, nil
}

func (p *lexParser) Highlights(t Tree, _ []byte, startRow, endRow int) []Capture {
	lt, ok := t.(*lexTree)
	if !ok {
		return nil
	}
	var out []Capture
	for _, c := range lt.captures {
		if endRow > startRow && (c.EndPoint.Line < startRow || c.StartPoint.Line >= endRow) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (p *lexParser) Runnables(Tree, []byte) []Capture {
	return nil
}

func (p *lexParser) Close() {}

func advance(p Point, text string) Point {
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			p.Line++
			p.Column = 0
			continue
		}
		p.Column++
	}
	return p
}

// captureName maps chroma token types onto the capture names tree-sitter
// queries use.
func captureName(t chroma.TokenType) string {
	switch {
	case t == chroma.KeywordConstant:
		return "constant.builtin"
	case t == chroma.KeywordType:
		return "type"
	case t.InCategory(chroma.Keyword):
		return "keyword"
	case t.InCategory(chroma.Comment):
		return "comment"
	case t == chroma.LiteralStringEscape:
		return "constant.character.escape"
	case t.InSubCategory(chroma.LiteralString):
		return "string"
	case t.InSubCategory(chroma.LiteralNumber):
		return "number"
	case t == chroma.NameFunction:
		return "function"
	case t == chroma.NameBuiltin:
		return "function.builtin"
	case t == chroma.NameClass:
		return "type"
	case t == chroma.NameTag:
		return "tag"
	case t == chroma.NameAttribute:
		return "attribute"
	case t == chroma.NameConstant:
		return "constant"
	case t.InCategory(chroma.Operator):
		return "operator"
	case t.InCategory(chroma.Punctuation):
		return "punctuation"
	}
	return ""
}
