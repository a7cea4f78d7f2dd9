package syntax

import (
	"context"
	"log/slog"
	"time"
)

// Source is the text an Index highlights.
type Source interface {
	Bytes() []byte
	Line(i int) string
	LineCount() int
	LineStart(i int) (int, error)
}

// Runnable is a line that can be run, with the variables captured for it by
// the runnables query.
type Runnable struct {
	Line int
	Vars map[string]string
}

// Index keeps the parse tree of a Source current and serves highlight tokens.
type Index struct {
	src     Source
	grammar Grammar
	parser  Parser
	tree    Tree
	text    []byte

	lines        map[int][]Token
	runnables    []Runnable
	ranRunnables bool

	logger  *slog.Logger
	timeout time.Duration
	observe func(language string, d time.Duration, err error)
}

// IndexOption configures an Index.
type IndexOption func(*Index)

// WithLogger sets the logger used for degraded-mode warnings.
func WithLogger(l *slog.Logger) IndexOption {
	return func(x *Index) {
		if l != nil {
			x.logger = l
		}
	}
}

// WithParseTimeout bounds every parse. Zero means no limit.
func WithParseTimeout(d time.Duration) IndexOption {
	return func(x *Index) {
		x.timeout = d
	}
}

// WithParseObserver registers fn to be told how long each parse took.
func WithParseObserver(fn func(language string, d time.Duration, err error)) IndexOption {
	return func(x *Index) {
		x.observe = fn
	}
}

// NewIndex creates an index over src and parses it. g may be nil, in which
// case every line is a single unnamed token.
func NewIndex(src Source, g Grammar, opts ...IndexOption) *Index {
	x := &Index{
		src:    src,
		lines:  make(map[int][]Token),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(x)
	}
	if g != nil {
		p, err := g.NewParser()
		if err != nil {
			x.logger.Warn("grammar unavailable, highlighting disabled",
				"language", g.Name(), "error", err)
		} else {
			x.grammar, x.parser = g, p
		}
	}
	x.parse(nil)
	return x
}

// Language returns the grammar name, or "" when highlighting is disabled.
func (x *Index) Language() string {
	if x.grammar == nil {
		return ""
	}
	return x.grammar.Name()
}

// HasTree reports whether a parse tree is available.
func (x *Index) HasTree() bool {
	return x.tree != nil
}

// Edit informs the index that the source changed as described by e. The
// old tree is adjusted and handed to the parser, then closed once the new
// tree replaces it.
func (x *Index) Edit(e StructuralEdit) {
	x.invalidate()
	if x.parser == nil {
		return
	}
	old := x.tree
	if old != nil {
		old.Edit(e)
	}
	x.parse(old)
}

// Reset reparses the whole source without reusing the current tree.
func (x *Index) Reset() {
	x.invalidate()
	if x.tree != nil {
		x.tree.Close()
		x.tree = nil
	}
	x.parse(nil)
}

func (x *Index) invalidate() {
	clear(x.lines)
	x.runnables = nil
	x.ranRunnables = false
}

func (x *Index) parse(old Tree) {
	if x.parser == nil {
		return
	}
	ctx := context.Background()
	if x.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}

	text := x.src.Bytes()
	start := time.Now()
	tree, err := x.parser.Parse(ctx, old, text)
	if x.observe != nil {
		x.observe(x.grammar.Name(), time.Since(start), err)
	}
	if old != nil {
		old.Close()
	}
	x.tree = nil
	if err != nil {
		x.logger.Warn("parse failed, highlighting disabled until next edit",
			"language", x.grammar.Name(), "error", err)
		return
	}
	x.tree, x.text = tree, text
}

// LineTokens returns the highlight tokens of line. Their texts concatenate
// to the line text; an empty line yields a single Placeholder token.
func (x *Index) LineTokens(line int) []Token {
	if toks, ok := x.lines[line]; ok {
		return toks
	}
	var caps []Capture
	if x.tree != nil {
		caps = x.parser.Highlights(x.tree, x.text, line, line+1)
	}
	toks := x.build(line, caps)
	x.lines[line] = toks
	return toks
}

// Tokens returns the tokens of lines [start, end). end is clamped to the
// line count; a negative end means through the last line.
func (x *Index) Tokens(start, end int) [][]Token {
	n := x.src.LineCount()
	if end < 0 || end > n {
		end = n
	}
	start = max(start, 0)
	if start >= end {
		return nil
	}

	var caps []Capture
	if x.tree != nil {
		caps = x.parser.Highlights(x.tree, x.text, start, end)
	}
	out := make([][]Token, 0, end-start)
	for line := start; line < end; line++ {
		toks, ok := x.lines[line]
		if !ok {
			toks = x.build(line, caps)
			x.lines[line] = toks
		}
		out = append(out, toks)
	}
	return out
}

func (x *Index) build(line int, caps []Capture) []Token {
	text := x.src.Line(line)
	lineStart, err := x.src.LineStart(line)
	if err != nil {
		return []Token{{Text: Placeholder}}
	}
	return lineTokens(text, line, lineStart, caps)
}

// Runnables returns the runnable lines found by the grammar's runnables
// query, ordered by line. Captures on the same line merge into one Runnable.
func (x *Index) Runnables() []Runnable {
	if x.ranRunnables {
		return x.runnables
	}
	x.ranRunnables = true
	if x.tree == nil {
		return nil
	}

	byLine := make(map[int]int)
	for _, c := range x.parser.Runnables(x.tree, x.text) {
		i, ok := byLine[c.StartPoint.Line]
		if !ok {
			i = len(x.runnables)
			byLine[c.StartPoint.Line] = i
			x.runnables = append(x.runnables, Runnable{
				Line: c.StartPoint.Line,
				Vars: make(map[string]string),
			})
		}
		x.runnables[i].Vars[c.Name] = string(x.text[c.StartByte:c.EndByte])
	}
	return x.runnables
}

// Close releases the tree and parser.
func (x *Index) Close() {
	if x.tree != nil {
		x.tree.Close()
		x.tree = nil
	}
	if x.parser != nil {
		x.parser.Close()
		x.parser = nil
	}
	x.invalidate()
}
