package action

import (
	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/engine/cursor"
)

// Input is the user input that triggered an action.
type Input struct {
	// Text is the typed text for TEXT_INPUT.
	Text string
	// Shift extends the selection during navigation.
	Shift bool
}

// Context is the editor state an action runs against.
type Context struct {
	Offset    int
	Doc       *engine.Document
	Selection *cursor.Selection
	Input     Input
}

// Result is the editor state after an action. Changed reports whether the
// document was edited, or for SELECT_ALL whether the selection changed;
// callers skip re-rendering when it is false.
type Result struct {
	Doc       *engine.Document
	Offset    int
	Selection *cursor.Selection
	Changed   bool
}

// hasSelection reports whether the selection covers any text once clamped to
// the document.
func (c Context) hasSelection() bool {
	if c.Selection == nil || c.Selection.IsEmpty() {
		return false
	}
	start, end := c.selectionRange()
	return start < end
}

// selectionRange returns the selection bounds with the end clamped to the
// document length.
func (c Context) selectionRange() (int, int) {
	return c.Selection.ClampedRange(c.Doc.Len())
}

// caretBefore is the caret an undo of the action should restore.
func (c Context) caretBefore() int {
	if c.hasSelection() {
		start, _ := c.selectionRange()
		return start
	}
	return c.Offset
}

func (c Context) unchanged() Result {
	return Result{Doc: c.Doc, Offset: c.Offset, Selection: c.Selection}
}

func (c Context) moved(offset int) Result {
	return Result{Doc: c.Doc, Offset: offset, Selection: c.Selection}
}

func (c Context) edited(offset int) Result {
	return Result{Doc: c.Doc, Offset: offset, Changed: true}
}

func selectionPtr(s cursor.Selection) *cursor.Selection {
	return &s
}
