package syntax

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrNoQuery is returned by NewParser when a tree-sitter grammar has no
// highlight query.
var ErrNoQuery = errors.New("grammar has no highlight query")

// TreeSitterGrammar is a tree-sitter language plus its highlight and
// runnables queries. Queries compile on first use and are shared by every
// parser the grammar creates.
type TreeSitterGrammar struct {
	name       string
	language   *sitter.Language
	highlights string
	runnables  string

	once         sync.Once
	highlightsQ  *sitter.Query
	runnablesQ   *sitter.Query
	compileErr   error
	runnablesErr error
}

// NewTreeSitterGrammar creates a grammar. runnables may be empty.
func NewTreeSitterGrammar(name string, language *sitter.Language, highlights, runnables string) *TreeSitterGrammar {
	return &TreeSitterGrammar{
		name:       name,
		language:   language,
		highlights: highlights,
		runnables:  runnables,
	}
}

// Name returns the language name.
func (g *TreeSitterGrammar) Name() string {
	return g.name
}

func (g *TreeSitterGrammar) compile() error {
	g.once.Do(func() {
		if strings.TrimSpace(g.highlights) == "" {
			g.compileErr = fmt.Errorf("%s: %w", g.name, ErrNoQuery)
			return
		}
		q, err := sitter.NewQuery([]byte(g.highlights), g.language)
		if err != nil {
			g.compileErr = fmt.Errorf("%s: compile highlights query: %w", g.name, err)
			return
		}
		g.highlightsQ = q

		if strings.TrimSpace(g.runnables) == "" {
			return
		}
		rq, err := sitter.NewQuery([]byte(g.runnables), g.language)
		if err != nil {
			g.runnablesErr = fmt.Errorf("%s: compile runnables query: %w", g.name, err)
			return
		}
		g.runnablesQ = rq
	})
	return g.compileErr
}

// RunnablesErr reports why the runnables query is unavailable, if it failed
// to compile.
func (g *TreeSitterGrammar) RunnablesErr() error {
	_ = g.compile()
	return g.runnablesErr
}

// NewParser creates a parser bound to the grammar's language.
func (g *TreeSitterGrammar) NewParser() (Parser, error) {
	if err := g.compile(); err != nil {
		return nil, err
	}
	p := sitter.NewParser()
	p.SetLanguage(g.language)
	return &tsParser{grammar: g, parser: p}, nil
}

// Close releases the compiled queries. Parsers created earlier must not be
// used afterwards.
func (g *TreeSitterGrammar) Close() {
	if g.highlightsQ != nil {
		g.highlightsQ.Close()
	}
	if g.runnablesQ != nil {
		g.runnablesQ.Close()
	}
}

type tsParser struct {
	grammar *TreeSitterGrammar
	parser  *sitter.Parser
}

type tsTree struct {
	tree *sitter.Tree
}

func (t *tsTree) Edit(e StructuralEdit) {
	t.tree.Edit(sitter.EditInput{
		StartIndex:  uint32(e.StartByte),
		OldEndIndex: uint32(e.OldEndByte),
		NewEndIndex: uint32(e.NewEndByte),
		StartPoint:  toSitterPoint(e.StartPoint),
		OldEndPoint: toSitterPoint(e.OldEndPoint),
		NewEndPoint: toSitterPoint(e.NewEndPoint),
	})
}

func (t *tsTree) Close() {
	t.tree.Close()
}

func (p *tsParser) Parse(ctx context.Context, old Tree, src []byte) (Tree, error) {
	var prev *sitter.Tree
	if t, ok := old.(*tsTree); ok && t != nil {
		prev = t.tree
	}
	tree, err := p.parser.ParseCtx(ctx, prev, src)
	if err != nil {
		return nil, fmt.Errorf("%s: parse: %w", p.grammar.name, err)
	}
	return &tsTree{tree: tree}, nil
}

func (p *tsParser) Highlights(t Tree, src []byte, startRow, endRow int) []Capture {
	tt, ok := t.(*tsTree)
	if !ok || p.grammar.highlightsQ == nil {
		return nil
	}
	return runQuery(p.grammar.highlightsQ, tt.tree.RootNode(), src, startRow, endRow)
}

func (p *tsParser) Runnables(t Tree, src []byte) []Capture {
	tt, ok := t.(*tsTree)
	if !ok || p.grammar.runnablesQ == nil {
		return nil
	}
	return runQuery(p.grammar.runnablesQ, tt.tree.RootNode(), src, 0, -1)
}

func (p *tsParser) Close() {
	p.parser.Close()
}

// runQuery executes q over root, restricted to rows [startRow, endRow) when
// endRow > startRow, and returns the captures that pass the query's
// predicates, ordered by start offset.
func runQuery(q *sitter.Query, root *sitter.Node, src []byte, startRow, endRow int) []Capture {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	if endRow > startRow {
		qc.SetPointRange(
			sitter.Point{Row: uint32(startRow)},
			sitter.Point{Row: uint32(endRow)},
		)
	}
	qc.Exec(q, root)

	var caps []Capture
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, src)
		for _, c := range m.Captures {
			caps = append(caps, Capture{
				Name:       q.CaptureNameForId(c.Index),
				StartByte:  int(c.Node.StartByte()),
				EndByte:    int(c.Node.EndByte()),
				StartPoint: fromSitterPoint(c.Node.StartPoint()),
				EndPoint:   fromSitterPoint(c.Node.EndPoint()),
			})
		}
	}
	sort.SliceStable(caps, func(i, j int) bool {
		return caps[i].StartByte < caps[j].StartByte
	})
	return caps
}

func toSitterPoint(p Point) sitter.Point {
	return sitter.Point{Row: uint32(p.Line), Column: uint32(p.Column)}
}

func fromSitterPoint(p sitter.Point) Point {
	return Point{Line: int(p.Row), Column: int(p.Column)}
}
