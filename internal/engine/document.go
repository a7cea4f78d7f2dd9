package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dshills/textcore/internal/engine/buffer"
	"github.com/dshills/textcore/internal/engine/history"
	"github.com/dshills/textcore/internal/engine/syntax"
	"github.com/dshills/textcore/internal/lang"
)

// Point is a 0-based line and byte column.
type Point = buffer.Point

// Document is an editable text with undo history and syntax highlighting.
type Document struct {
	buf   *buffer.Buffer
	log   *history.Log
	index *syntax.Index

	config   *lang.Config
	filename string

	subs      []subscription
	nextSubID uint64
	closed    bool

	// Configuration
	languages      Languages
	languageName   string
	logger         *slog.Logger
	metrics        *Metrics
	maxUndoEntries int
	parseTimeout   time.Duration

	// Initialization
	initContent string
}

// New creates a Document with the given options.
func New(opts ...Option) *Document {
	d := defaults()
	for _, opt := range opts {
		opt(d)
	}
	d.init(buffer.NewFromString(d.initContent))
	return d
}

// NewFromReader creates a Document holding the content of r. WithContent is
// ignored.
func NewFromReader(r io.Reader, opts ...Option) (*Document, error) {
	d := defaults()
	for _, opt := range opts {
		opt(d)
	}
	buf, err := buffer.NewFromReader(r)
	if err != nil {
		return nil, err
	}
	d.init(buf)
	return d, nil
}

func (d *Document) init(buf *buffer.Buffer) {
	d.buf = buf
	d.initContent = ""
	d.log = history.NewLog(d.maxUndoEntries)
	d.config = d.resolveConfig()
	d.index = d.newIndex()
	d.logger.Debug("document created",
		"file", d.filename, "language", d.Language(), "bytes", buf.Len())
}

func (d *Document) newIndex() *syntax.Index {
	var g syntax.Grammar
	if d.config != nil && d.languages != nil {
		g = d.languages.Grammar(d.config.Name)
	}
	return syntax.NewIndex(d.buf, g,
		syntax.WithLogger(d.logger),
		syntax.WithParseTimeout(d.parseTimeout),
		syntax.WithParseObserver(d.metrics.parse),
	)
}

// ReloadLanguage resolves the language again and reparses with its current
// grammar. Call it after the language definitions changed.
func (d *Document) ReloadLanguage() error {
	if d.closed {
		return ErrClosed
	}
	d.config = d.resolveConfig()
	d.index.Close()
	d.index = d.newIndex()
	d.logger.Info("language reloaded", "file", d.filename, "language", d.Language())
	return nil
}

func (d *Document) resolveConfig() *lang.Config {
	if d.languages == nil {
		return nil
	}
	if d.languageName != "" {
		c, ok := d.languages.Config(d.languageName)
		if !ok {
			d.logger.Warn("unknown language", "language", d.languageName)
			return nil
		}
		return c
	}
	if d.filename != "" {
		if c, ok := d.languages.Detect(d.filename); ok {
			return c
		}
	}
	return nil
}

// Filename returns the file name the document was created with.
func (d *Document) Filename() string {
	return d.filename
}

// Language returns the language name, or "" when the document has none.
func (d *Document) Language() string {
	if d.config == nil {
		return ""
	}
	return d.config.Name
}

// Config returns a copy of the language configuration, or nil.
func (d *Document) Config() *lang.Config {
	if d.config == nil {
		return nil
	}
	return d.config.Clone()
}

// IndentUnit returns the text of one indent step. Documents without a
// language indent with a tab.
func (d *Document) IndentUnit() string {
	if d.config == nil {
		return "\t"
	}
	return d.config.Indent.String()
}

// CommentToken returns the line comment token, or "" when there is none.
func (d *Document) CommentToken() string {
	if d.config == nil {
		return ""
	}
	return d.config.Comment
}

// HasSyntaxTree reports whether highlighting currently uses a parse tree.
func (d *Document) HasSyntaxTree() bool {
	return d.index.HasTree()
}

// Read access

// Len returns the content length in bytes.
func (d *Document) Len() int { return d.buf.Len() }

// LineCount returns the number of lines; an empty document has one.
func (d *Document) LineCount() int { return d.buf.LineCount() }

// Text returns the whole content.
func (d *Document) Text() string { return d.buf.Text() }

// Revision returns a counter incremented by every edit.
func (d *Document) Revision() uint64 { return d.buf.Revision() }

// Line returns line i without its line break.
func (d *Document) Line(i int) string { return d.buf.Line(i) }

// LineLength returns the byte length of line i without its line break.
func (d *Document) LineLength(i int) int { return d.buf.LineLength(i) }

// LineStart returns the offset of the first byte of line i.
func (d *Document) LineStart(i int) (int, error) { return d.buf.LineStart(i) }

// LineOfOffset returns the line holding offset.
func (d *Document) LineOfOffset(offset int) (int, error) { return d.buf.LineOfOffset(offset) }

// Slice returns the text in [from, to), which may span lines.
func (d *Document) Slice(from, to int) (string, error) { return d.buf.Slice(from, to) }

// Position converts an offset to a line and column.
func (d *Document) Position(offset int) (Point, error) { return d.buf.Position(offset) }

// Offset converts a line and column to an offset.
func (d *Document) Offset(line, col int) (int, error) { return d.buf.Offset(line, col) }

// SearchOnLine returns the columns of pattern on line that start before
// column.
func (d *Document) SearchOnLine(line, column int, pattern string) []int {
	return d.buf.SearchOnLine(line, column, pattern)
}

// Search returns the positions of every occurrence of pattern.
func (d *Document) Search(pattern string) []Point { return d.buf.Search(pattern) }

// LeadingWhitespace returns the run of spaces and tabs starting line.
func (d *Document) LeadingWhitespace(line int) string { return d.buf.LeadingWhitespace(line) }

// IndentationLevel returns the indentation depth of line in steps of width.
func (d *Document) IndentationLevel(line, width int) int {
	return d.buf.IndentationLevel(line, width)
}

// LineTokens returns the highlight tokens of line.
func (d *Document) LineTokens(line int) []syntax.Token { return d.index.LineTokens(line) }

// Tokens returns the highlight tokens of lines [start, end).
func (d *Document) Tokens(start, end int) [][]syntax.Token { return d.index.Tokens(start, end) }

// Mutation

// Insert inserts text at offset and records it in history.
func (d *Document) Insert(text string, offset int) error {
	e := history.Edit{Op: history.Insert, Start: offset, Text: text}
	if err := d.apply(e); err != nil {
		return err
	}
	d.record(e)
	return nil
}

// Remove deletes length bytes at offset, records it in history and returns
// the removed text.
func (d *Document) Remove(offset, length int) (string, error) {
	if length < 0 {
		return "", fmt.Errorf("%w: length %d", ErrRangeInvalid, length)
	}
	text, err := d.buf.Slice(offset, offset+length)
	if err != nil {
		return "", err
	}
	e := history.Edit{Op: history.Remove, Start: offset, Text: text}
	if err := d.apply(e); err != nil {
		return "", err
	}
	d.record(e)
	return text, nil
}

// InsertAt inserts text at a line and column.
func (d *Document) InsertAt(line, col int, text string) error {
	offset, err := d.buf.Offset(line, col)
	if err != nil {
		return err
	}
	return d.Insert(text, offset)
}

// RemoveRange deletes the text between two positions.
func (d *Document) RemoveRange(from, to Point) (string, error) {
	start, err := d.buf.Offset(from.Line, from.Column)
	if err != nil {
		return "", err
	}
	end, err := d.buf.Offset(to.Line, to.Column)
	if err != nil {
		return "", err
	}
	if end < start {
		return "", fmt.Errorf("%w: %v before %v", ErrRangeInvalid, to, from)
	}
	return d.Remove(start, end-start)
}

// ApplyEdit applies e without recording history. A remove edit must carry
// the exact text it removes.
func (d *Document) ApplyEdit(e history.Edit) error {
	return d.apply(e)
}

func (d *Document) record(e history.Edit) {
	if e.Text == "" {
		return
	}
	if d.log.InTransaction() {
		_ = d.log.Record(e)
		return
	}
	d.log.RecordImmediate(e)
}

// apply mutates the buffer, feeds the syntax index and notifies listeners.
func (d *Document) apply(e history.Edit) error {
	if d.closed {
		return ErrClosed
	}
	if e.Text == "" {
		if e.Start < 0 || e.Start > d.buf.Len() {
			return fmt.Errorf("%w: %d, length %d", ErrOffsetOutOfRange, e.Start, d.buf.Len())
		}
		return nil
	}

	start, err := d.buf.Position(e.Start)
	if err != nil {
		return err
	}
	c := Change{Edit: e, Start: start}
	se := syntax.StructuralEdit{StartByte: e.Start, StartPoint: start}

	switch e.Op {
	case history.Insert:
		if err := d.buf.Insert(e.Text, e.Start); err != nil {
			return err
		}
		c.OldEnd = start
		c.NewEnd = buffer.PositionAfter(start, e.Text)
		se.OldEndByte = e.Start
		se.NewEndByte = e.End()

	case history.Remove:
		current, err := d.buf.Slice(e.Start, e.End())
		if err != nil {
			return err
		}
		if current != e.Text {
			return fmt.Errorf("%w: remove %q at %d, found %q", ErrEditMismatch, e.Text, e.Start, current)
		}
		oldEnd, err := d.buf.Position(e.End())
		if err != nil {
			return err
		}
		if _, err := d.buf.Remove(e.Start, len(e.Text)); err != nil {
			return err
		}
		c.OldEnd = oldEnd
		c.NewEnd = start
		se.OldEndByte = e.End()
		se.NewEndByte = e.Start

	default:
		return fmt.Errorf("apply %s: unknown operation", e)
	}

	se.OldEndPoint, se.NewEndPoint = c.OldEnd, c.NewEnd
	c.Revision = d.buf.Revision()
	d.index.Edit(se)
	d.metrics.edit(e)
	d.notify(c)
	return nil
}

// Transactions

// Begin opens a transaction. Edits made until Commit or Rollback form one
// undo step.
func (d *Document) Begin() error {
	return d.log.Begin()
}

// InTransaction reports whether a transaction is open.
func (d *Document) InTransaction() bool {
	return d.log.InTransaction()
}

// Commit closes the open transaction and returns it. An empty transaction
// is not recorded.
func (d *Document) Commit(opts ...history.CommitOption) (history.Transaction, error) {
	tx, err := d.log.Commit(opts...)
	if err != nil {
		return tx, err
	}
	if !tx.IsEmpty() {
		d.metrics.transaction("committed")
	}
	return tx, nil
}

// Rollback reverts the edits of the open transaction and closes it.
func (d *Document) Rollback() error {
	n := len(d.log.Pending())
	if err := d.log.Rollback(d); err != nil {
		d.logger.Error("rollback failed", "file", d.filename, "edits", n, "error", err)
		return err
	}
	d.metrics.transaction("rolled_back")
	return nil
}

// Transact runs fn inside a transaction. caret is the caret before the
// edits; fn returns the caret after them. When fn fails its edits are
// rolled back and the error returned together with caret. When a
// transaction is already open fn joins it and the owner of that transaction
// decides whether it commits.
func (d *Document) Transact(caret int, fn func() (int, error)) (int, error) {
	if d.InTransaction() {
		after, err := fn()
		if err != nil {
			return caret, err
		}
		return after, nil
	}
	if err := d.Begin(); err != nil {
		return caret, err
	}
	after, err := fn()
	if err != nil {
		if rerr := d.Rollback(); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return caret, err
	}
	if _, err := d.Commit(history.WithCaret(caret, after)); err != nil {
		return caret, err
	}
	return after, nil
}

// Undo reverts the most recent transaction and returns it with its edits in
// the order they were undone. ok is false when there was nothing to undo.
func (d *Document) Undo() (tx history.Transaction, ok bool, err error) {
	tx, ok, err = d.log.Undo(d)
	if ok {
		d.metrics.undo()
	}
	return tx, ok, err
}

// Redo reapplies the most recently undone transaction.
func (d *Document) Redo() (tx history.Transaction, ok bool, err error) {
	tx, ok, err = d.log.Redo(d)
	if ok {
		d.metrics.redo()
	}
	return tx, ok, err
}

// CanUndo reports whether Undo has anything to revert.
func (d *Document) CanUndo() bool { return d.log.CanUndo() }

// CanRedo reports whether Redo has anything to reapply.
func (d *Document) CanRedo() bool { return d.log.CanRedo() }

// ApplyTransaction applies every edit of tx or none of them. With
// addHistory the edits join the open transaction, or become one undo step
// when none is open.
func (d *Document) ApplyTransaction(tx history.Transaction, addHistory bool) error {
	if err := d.log.ApplyTransaction(d, tx); err != nil {
		return err
	}
	if !addHistory {
		return nil
	}
	if d.log.InTransaction() {
		for _, e := range tx.Edits {
			_ = d.log.Record(e)
		}
		return nil
	}
	d.log.Push(tx)
	return nil
}

// SetContent replaces the whole text and clears history. Listeners see a
// remove of the old text followed by an insert of the new.
func (d *Document) SetContent(text string) error {
	if d.log.InTransaction() {
		return history.ErrTransactionOpen
	}
	if old := d.buf.Text(); old != "" {
		if err := d.apply(history.Edit{Op: history.Remove, Start: 0, Text: old}); err != nil {
			return err
		}
	}
	if err := d.apply(history.Edit{Op: history.Insert, Start: 0, Text: text}); err != nil {
		return err
	}
	d.log.Clear()
	return nil
}

// Clone returns an independent document with the same content, file name
// and language. History and listeners are not copied.
func (d *Document) Clone() *Document {
	c := &Document{
		filename:       d.filename,
		languages:      d.languages,
		languageName:   d.Language(),
		logger:         d.logger,
		metrics:        d.metrics,
		maxUndoEntries: d.maxUndoEntries,
		parseTimeout:   d.parseTimeout,
	}
	c.init(buffer.NewFromString(d.buf.Text()))
	return c
}

// Close releases the parse tree and drops all listeners. Later edits fail
// with ErrClosed.
func (d *Document) Close() {
	if d.closed {
		return
	}
	d.closed = true
	d.index.Close()
	d.subs = nil
}
