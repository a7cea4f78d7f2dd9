package buffer

import (
	"errors"
	"fmt"
	"io"

	"github.com/dshills/textcore/internal/engine/rope"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrLineOutOfRange   = errors.New("line or column out of range")
)

// Point is a 0-based line and byte-column position.
type Point = rope.Point

// Buffer is a mutable view over an immutable rope.
type Buffer struct {
	rope     rope.Rope
	revision uint64
}

// New creates an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

// NewFromString creates a buffer holding s.
func NewFromString(s string) *Buffer {
	return &Buffer{rope: rope.FromString(s)}
}

// NewFromReader creates a buffer from the contents of r.
func NewFromReader(r io.Reader) (*Buffer, error) {
	rp, err := rope.FromReader(r)
	if err != nil {
		return nil, fmt.Errorf("read buffer: %w", err)
	}
	return &Buffer{rope: rp}, nil
}

// Insert inserts text at offset.
func (b *Buffer) Insert(text string, offset int) error {
	if offset < 0 || offset > b.Len() {
		return fmt.Errorf("%w: insert at %d, length %d", ErrOffsetOutOfRange, offset, b.Len())
	}
	if text == "" {
		return nil
	}
	b.rope = b.rope.Insert(offset, text)
	b.revision++
	return nil
}

// Remove deletes length bytes starting at offset and returns them.
func (b *Buffer) Remove(offset, length int) (string, error) {
	if offset < 0 || length < 0 || offset+length > b.Len() {
		return "", fmt.Errorf("%w: remove [%d, %d), length %d",
			ErrOffsetOutOfRange, offset, offset+length, b.Len())
	}
	if length == 0 {
		return "", nil
	}
	removed := b.rope.Slice(offset, offset+length)
	b.rope = b.rope.Delete(offset, offset+length)
	b.revision++
	return removed, nil
}

// SetText replaces the whole content.
func (b *Buffer) SetText(s string) {
	b.rope = rope.FromString(s)
	b.revision++
}

// Len returns the content length in bytes.
func (b *Buffer) Len() int {
	return b.rope.Len()
}

// LineCount returns the number of lines; never less than one.
func (b *Buffer) LineCount() int {
	return b.rope.LineCount()
}

// Text returns the whole content.
func (b *Buffer) Text() string {
	return b.rope.String()
}

// Bytes returns a copy of the whole content.
func (b *Buffer) Bytes() []byte {
	return b.rope.Bytes()
}

// Snapshot returns the current immutable rope.
func (b *Buffer) Snapshot() rope.Rope {
	return b.rope
}

// Revision increases on every mutation.
func (b *Buffer) Revision() uint64 {
	return b.revision
}

// Line returns the text of line i without its newline, or "" when the line
// does not exist.
func (b *Buffer) Line(i int) string {
	return b.rope.Line(i)
}

// LineLength returns the byte length of line i, or 0 when the line does not
// exist.
func (b *Buffer) LineLength(i int) int {
	if i < 0 || i >= b.LineCount() {
		return 0
	}
	return b.rope.LineEnd(i) - b.rope.LineStart(i)
}

// LineStart returns the offset of the first byte of line i.
func (b *Buffer) LineStart(i int) (int, error) {
	if i < 0 || i >= b.LineCount() {
		return 0, fmt.Errorf("%w: line %d of %d", ErrLineOutOfRange, i, b.LineCount())
	}
	return b.rope.LineStart(i), nil
}

// Slice returns the text in [from, to).
func (b *Buffer) Slice(from, to int) (string, error) {
	if from < 0 || to < from || to > b.Len() {
		return "", fmt.Errorf("%w: slice [%d, %d), length %d", ErrOffsetOutOfRange, from, to, b.Len())
	}
	return b.rope.Slice(from, to), nil
}

// LineAt returns the text of the line holding offset.
func (b *Buffer) LineAt(offset int) (string, error) {
	line, err := b.LineOfOffset(offset)
	if err != nil {
		return "", err
	}
	return b.rope.Line(line), nil
}

// LineOfOffset returns the line holding offset.
func (b *Buffer) LineOfOffset(offset int) (int, error) {
	p, err := b.Position(offset)
	if err != nil {
		return 0, err
	}
	return p.Line, nil
}
