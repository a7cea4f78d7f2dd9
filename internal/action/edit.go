package action

import (
	"github.com/dshills/textcore/internal/engine"
)

// removeSelection deletes the selected text and returns the new caret.
// The selection end is clamped to the document length.
func removeSelection(c Context) (int, error) {
	start, end := c.selectionRange()
	if _, err := c.Doc.Remove(start, end-start); err != nil {
		return 0, err
	}
	return start, nil
}

// replaceSelection removes the selection, if any, and inserts text at the
// caret, returning the caret after the inserted text.
func replaceSelection(c Context, text string) (int, error) {
	o := c.Offset
	if c.hasSelection() {
		var err error
		if o, err = removeSelection(c); err != nil {
			return 0, err
		}
	}
	if err := c.Doc.Insert(text, o); err != nil {
		return 0, err
	}
	return o + len(text), nil
}

func transact(c Context, fn func() (int, error)) (Result, error) {
	caret, err := c.Doc.Transact(c.caretBefore(), fn)
	if err != nil {
		return c.unchanged(), err
	}
	return c.edited(caret), nil
}

func backspace(c Context) (Result, error) {
	if c.hasSelection() {
		return transact(c, func() (int, error) { return removeSelection(c) })
	}
	n := prevUnit(c.Doc, c.Offset)
	if n == 0 {
		return c.unchanged(), nil
	}
	return transact(c, func() (int, error) {
		_, err := c.Doc.Remove(c.Offset-n, n)
		return c.Offset - n, err
	})
}

func deleteForward(c Context) (Result, error) {
	if c.hasSelection() {
		return transact(c, func() (int, error) { return removeSelection(c) })
	}
	n := nextUnit(c.Doc, c.Offset)
	if n == 0 {
		return c.unchanged(), nil
	}
	return transact(c, func() (int, error) {
		_, err := c.Doc.Remove(c.Offset, n)
		return c.Offset, err
	})
}

// enter breaks the line and repeats the leading whitespace of the line the
// caret was on.
func enter(c Context) (Result, error) {
	return transact(c, func() (int, error) {
		o := c.Offset
		if c.hasSelection() {
			var err error
			if o, err = removeSelection(c); err != nil {
				return 0, err
			}
		}
		pos, err := c.Doc.Position(o)
		if err != nil {
			return 0, err
		}
		text := "\n" + c.Doc.LeadingWhitespace(pos.Line)
		if err := c.Doc.Insert(text, o); err != nil {
			return 0, err
		}
		return o + len(text), nil
	})
}

func textInput(c Context) (Result, error) {
	if c.Input.Text == "" {
		return c.unchanged(), nil
	}
	return transact(c, func() (int, error) { return replaceSelection(c, c.Input.Text) })
}

// touchedLines returns the lines a line-wise action applies to: every line
// the selection spans, or the caret line. A selection ending at column 0
// does not touch the line it ends on.
func touchedLines(c Context) (first, last int, err error) {
	if !c.hasSelection() {
		line, err := c.Doc.LineOfOffset(c.Offset)
		return line, line, err
	}
	start, end := c.selectionRange()
	if first, err = c.Doc.LineOfOffset(start); err != nil {
		return 0, 0, err
	}
	endPos, err := c.Doc.Position(end)
	if err != nil {
		return 0, 0, err
	}
	last = endPos.Line
	if last > first && endPos.Column == 0 {
		last--
	}
	return first, last, nil
}

// lineEdit applies fn to the touched lines from the last to the first so
// edits never shift lines still to be processed. fn reports whether it
// edited its line; caret moves by delta once if any line was edited.
func lineEdit(c Context, delta int, fn func(line int) (bool, error)) (Result, error) {
	first, last, err := touchedLines(c)
	if err != nil {
		return c.unchanged(), err
	}
	caretLine, err := c.Doc.LineOfOffset(c.Offset)
	if err != nil {
		return c.unchanged(), err
	}

	edited := false
	res, err := transact(c, func() (int, error) {
		for line := last; line >= first; line-- {
			ok, err := fn(line)
			if err != nil {
				return 0, err
			}
			edited = edited || ok
		}
		if !edited {
			return c.Offset, nil
		}
		if delta >= 0 {
			return min(c.Offset+delta, c.Doc.Len()), nil
		}
		// A removal never moves the caret off its line.
		lineStart, err := c.Doc.LineStart(caretLine)
		if err != nil {
			return 0, err
		}
		return min(max(c.Offset+delta, lineStart), c.Doc.Len()), nil
	})
	if err != nil || !edited {
		return c.unchanged(), err
	}
	return res, nil
}

// indent inserts one indent unit at the start of every touched line.
func indent(c Context) (Result, error) {
	unit := c.Doc.IndentUnit()
	return lineEdit(c, len(unit), func(line int) (bool, error) {
		return true, c.Doc.InsertAt(line, 0, unit)
	})
}

// outdent removes one leading indent unit from every touched line that
// starts with one.
func outdent(c Context) (Result, error) {
	unit := c.Doc.IndentUnit()
	return lineEdit(c, -len(unit), func(line int) (bool, error) {
		return removeOnLine(c.Doc, line, len(unit), unit)
	})
}

// removeOnLine removes the first occurrence of pattern on line that starts
// before column.
func removeOnLine(doc *engine.Document, line, column int, pattern string) (bool, error) {
	cols := doc.SearchOnLine(line, column, pattern)
	if len(cols) == 0 {
		return false, nil
	}
	start, err := doc.LineStart(line)
	if err != nil {
		return false, err
	}
	_, err = doc.Remove(start+cols[0], len(pattern))
	return err == nil, err
}

// toggleComment comments the touched lines, or uncomments them when any of
// them already holds the comment token. The decision is made once for all
// lines.
func toggleComment(c Context) (Result, error) {
	token := c.Doc.CommentToken()
	if token == "" {
		return c.unchanged(), nil
	}
	first, last, err := touchedLines(c)
	if err != nil {
		return c.unchanged(), err
	}
	commented := false
	for line := first; line <= last && !commented; line++ {
		commented = len(c.Doc.SearchOnLine(line, c.Doc.LineLength(line), token)) > 0
	}

	if commented {
		return lineEdit(c, -len(token), func(line int) (bool, error) {
			return removeOnLine(c.Doc, line, c.Doc.LineLength(line), token)
		})
	}
	return lineEdit(c, len(token), func(line int) (bool, error) {
		return true, c.Doc.InsertAt(line, 0, token)
	})
}
