package action

import (
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/dshills/textcore/internal/engine"
)

// A unit is one grapheme cluster; a line break, "\r\n" included, is one
// unit too.

// nextUnit returns the byte length of the unit starting at offset, or 0 at
// the end of the document.
func nextUnit(doc *engine.Document, offset int) int {
	if offset >= doc.Len() {
		return 0
	}
	pos, err := doc.Position(offset)
	if err != nil {
		return 0
	}
	text := doc.Line(pos.Line)
	if pos.Column >= len(text) {
		return 1
	}
	rest := text[pos.Column:]
	if rest == "\r" && pos.Line < doc.LineCount()-1 {
		return 2
	}
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(rest, -1)
	return max(len(cluster), 1)
}

// prevUnit returns the byte length of the unit ending at offset, or 0 at
// the start of the document.
func prevUnit(doc *engine.Document, offset int) int {
	if offset <= 0 {
		return 0
	}
	pos, err := doc.Position(offset)
	if err != nil {
		return 0
	}
	if pos.Column == 0 {
		if strings.HasSuffix(doc.Line(pos.Line-1), "\r") {
			return 2
		}
		return 1
	}
	before := doc.Line(pos.Line)[:pos.Column]
	last := 0
	g := uniseg.NewGraphemes(before)
	for g.Next() {
		start, end := g.Positions()
		last = end - start
	}
	return max(last, 1)
}

// columnOn returns col clamped to the length of line and moved back to a
// rune boundary.
func columnOn(doc *engine.Document, line, col int) int {
	text := doc.Line(line)
	col = min(col, len(text))
	for col > 0 && col < len(text) && !utf8.RuneStart(text[col]) {
		col--
	}
	return col
}
