package buffer

import "strings"

// Search returns every non-overlapping occurrence of pattern, line by line.
// Matches never span a line break.
func (b *Buffer) Search(pattern string) []Point {
	if pattern == "" {
		return nil
	}
	var matches []Point
	for i := 0; i < b.LineCount(); i++ {
		for _, col := range indexAll(b.Line(i), pattern, -1) {
			matches = append(matches, Point{Line: i, Column: col})
		}
	}
	return matches
}

// SearchOnLine returns the columns of the non-overlapping occurrences of
// pattern on line that start before column.
func (b *Buffer) SearchOnLine(line, column int, pattern string) []int {
	if pattern == "" {
		return nil
	}
	return indexAll(b.Line(line), pattern, column)
}

func indexAll(text, pattern string, limit int) []int {
	var cols []int
	start := 0
	for {
		i := strings.Index(text[start:], pattern)
		if i < 0 {
			return cols
		}
		col := start + i
		if limit >= 0 && col >= limit {
			return cols
		}
		cols = append(cols, col)
		start = col + len(pattern)
	}
}

// IndentationLevel returns the number of indent steps of width columns that
// the leading whitespace of line spans, rounded up. A tab counts as width
// columns. A zero width falls back to 2.
func (b *Buffer) IndentationLevel(line, width int) int {
	if width <= 0 {
		width = 2
	}
	cols := 0
	for _, r := range b.Line(line) {
		switch r {
		case ' ':
			cols++
		case '\t':
			cols += width
		default:
			return (cols + width - 1) / width
		}
	}
	return (cols + width - 1) / width
}

// OnlyIndentationBefore reports whether every byte of line before column is
// a space.
func (b *Buffer) OnlyIndentationBefore(line, column int) bool {
	text := b.Line(line)
	for i := 0; i < len(text) && i < column; i++ {
		if text[i] != ' ' {
			return false
		}
	}
	return true
}

// LeadingWhitespace returns the run of spaces and tabs that starts line.
func (b *Buffer) LeadingWhitespace(line int) string {
	text := b.Line(line)
	n := len(text) - len(strings.TrimLeft(text, " \t"))
	return text[:n]
}
