package action

import (
	"context"
	"fmt"

	"github.com/dshills/textcore/internal/engine/cursor"
	"github.com/dshills/textcore/internal/engine/history"
)

// undo reverts the last transaction and puts the caret where it was before
// the transaction was made.
func undo(c Context) (Result, error) {
	tx, ok, err := c.Doc.Undo()
	if err != nil || !ok {
		return c.unchanged(), err
	}
	caret := c.Offset
	if tx.Caret != nil {
		caret = tx.Caret.Before
	} else {
		for _, e := range tx.Edits {
			if e.Op == history.Insert {
				caret = e.Start
			} else {
				caret = e.End()
			}
		}
	}
	return c.edited(min(max(caret, 0), c.Doc.Len())), nil
}

// redo reapplies the last undone transaction and puts the caret where the
// transaction left it.
func redo(c Context) (Result, error) {
	tx, ok, err := c.Doc.Redo()
	if err != nil || !ok {
		return c.unchanged(), err
	}
	caret := c.Offset
	if tx.Caret != nil {
		caret = tx.Caret.After
	} else {
		for _, e := range tx.Edits {
			if e.Op == history.Insert {
				caret = e.End()
			} else {
				caret = e.Start
			}
		}
	}
	return c.edited(min(max(caret, 0), c.Doc.Len())), nil
}

func selectAll(c Context) Result {
	return Result{
		Doc:       c.Doc,
		Offset:    c.Offset,
		Selection: selectionPtr(cursor.New(0, c.Doc.Len())),
		Changed:   true,
	}
}

func (e *Engine) selectedText(c Context) (string, int, int, error) {
	start, end := c.selectionRange()
	text, err := c.Doc.Slice(start, end)
	return text, start, end, err
}

func (e *Engine) copy(ctx context.Context, c Context) (Result, error) {
	if !c.hasSelection() {
		return c.unchanged(), nil
	}
	if e.clipboard == nil {
		return c.unchanged(), ErrClipboard
	}
	text, _, _, err := e.selectedText(c)
	if err != nil {
		return c.unchanged(), err
	}
	if err := e.clipboard.WriteText(ctx, text); err != nil {
		return c.unchanged(), fmt.Errorf("%w: write: %w", ErrClipboard, err)
	}
	return c.unchanged(), nil
}

func (e *Engine) cut(ctx context.Context, c Context) (Result, error) {
	if !c.hasSelection() {
		return c.unchanged(), nil
	}
	if e.clipboard == nil {
		return c.unchanged(), ErrClipboard
	}
	text, start, end, err := e.selectedText(c)
	if err != nil {
		return c.unchanged(), err
	}
	if err := e.clipboard.WriteText(ctx, text); err != nil {
		return c.unchanged(), fmt.Errorf("%w: write: %w", ErrClipboard, err)
	}
	return transact(c, func() (int, error) {
		_, err := c.Doc.Remove(start, end-start)
		return start, err
	})
}

func (e *Engine) paste(ctx context.Context, c Context) (Result, error) {
	if e.clipboard == nil {
		return c.unchanged(), ErrClipboard
	}
	text, err := e.clipboard.ReadText(ctx)
	if err != nil {
		return c.unchanged(), fmt.Errorf("%w: read: %w", ErrClipboard, err)
	}
	if text == "" {
		return c.unchanged(), nil
	}
	return transact(c, func() (int, error) { return replaceSelection(c, text) })
}
