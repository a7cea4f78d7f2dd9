package buffer

import "fmt"

// Position converts offset into a line/column Point.
func (b *Buffer) Position(offset int) (Point, error) {
	if offset < 0 || offset > b.Len() {
		return Point{}, fmt.Errorf("%w: position of %d, length %d", ErrOffsetOutOfRange, offset, b.Len())
	}
	return b.rope.OffsetToPoint(offset), nil
}

// Offset converts a line/column pair into an offset. The column may equal
// the line length (the end-of-line position) but not exceed it.
func (b *Buffer) Offset(line, col int) (int, error) {
	if line < 0 || line >= b.LineCount() {
		return 0, fmt.Errorf("%w: line %d of %d", ErrLineOutOfRange, line, b.LineCount())
	}
	if col < 0 || col > b.LineLength(line) {
		return 0, fmt.Errorf("%w: column %d on line %d of length %d",
			ErrLineOutOfRange, col, line, b.LineLength(line))
	}
	return b.rope.LineStart(line) + col, nil
}

// PositionAfter returns the position that text would end at if inserted at
// start, without modifying the buffer.
func PositionAfter(start Point, text string) Point {
	end := start
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			end.Line++
			end.Column = 0
			continue
		}
		end.Column++
	}
	return end
}
