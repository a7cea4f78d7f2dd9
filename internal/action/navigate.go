package action

import (
	"regexp"
)

var (
	wordAfter  = regexp.MustCompile(`^[ \t]*\w+`)
	wordBefore = regexp.MustCompile(`\w+[ \t]*$`)
)

// moveTo places the caret at offset. With Shift held an existing selection
// extends to the caret, otherwise it collapses there.
func moveTo(c Context, offset int) Result {
	res := c.moved(offset)
	if c.Selection != nil {
		s := c.Selection.Reset(offset)
		if c.Input.Shift {
			s = c.Selection.WithCursor(offset)
		}
		res.Selection = &s
	}
	return res
}

func moveLeft(c Context, word bool) Result {
	if c.Offset <= 0 {
		return c.unchanged()
	}
	jump := 0
	if word {
		if pos, err := c.Doc.Position(c.Offset); err == nil {
			jump = len(wordBefore.FindString(c.Doc.Line(pos.Line)[:pos.Column]))
		}
	}
	if jump == 0 {
		jump = prevUnit(c.Doc, c.Offset)
	}
	return moveTo(c, c.Offset-jump)
}

func moveRight(c Context, word bool) Result {
	if c.Offset >= c.Doc.Len() {
		return c.unchanged()
	}
	jump := 0
	if word {
		if pos, err := c.Doc.Position(c.Offset); err == nil {
			jump = len(wordAfter.FindString(c.Doc.Line(pos.Line)[pos.Column:]))
		}
	}
	if jump == 0 {
		jump = nextUnit(c.Doc, c.Offset)
	}
	return moveTo(c, c.Offset+jump)
}

// moveUp keeps the column, clamped to the previous line. On the first line
// the caret goes to the start of the document.
func moveUp(c Context) Result {
	pos, err := c.Doc.Position(c.Offset)
	if err != nil {
		return c.unchanged()
	}
	if pos.Line == 0 {
		return moveTo(c, 0)
	}
	return moveTo(c, lineOffset(c, pos.Line-1, pos.Column))
}

// moveDown keeps the column, clamped to the next line. It does nothing on
// the last line.
func moveDown(c Context) Result {
	pos, err := c.Doc.Position(c.Offset)
	if err != nil || pos.Line >= c.Doc.LineCount()-1 {
		return c.unchanged()
	}
	return moveTo(c, lineOffset(c, pos.Line+1, pos.Column))
}

func lineOffset(c Context, line, col int) int {
	o, err := c.Doc.Offset(line, columnOn(c.Doc, line, col))
	if err != nil {
		return c.Offset
	}
	return o
}
