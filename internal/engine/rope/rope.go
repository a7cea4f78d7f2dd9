package rope

import (
	"io"
	"strings"
)

// Rope is an immutable sequence of bytes organised as a balanced tree.
// The zero value is an empty rope.
type Rope struct {
	root *node
}

// New creates an empty rope.
func New() Rope {
	return Rope{}
}

// FromString creates a rope holding s.
func FromString(s string) Rope {
	parts := chunk(s)
	leaves := make([]*node, len(parts))
	for i, p := range parts {
		leaves[i] = newLeaf(p)
	}
	return Rope{root: build(leaves)}
}

// FromReader creates a rope from everything r yields.
func FromReader(r io.Reader) (Rope, error) {
	var sb strings.Builder
	if _, err := io.Copy(&sb, r); err != nil {
		return Rope{}, err
	}
	return FromString(sb.String()), nil
}

// Len returns the length in bytes.
func (r Rope) Len() int {
	if r.root == nil {
		return 0
	}
	return r.root.sum.Bytes
}

// IsEmpty reports whether the rope holds no text.
func (r Rope) IsEmpty() bool {
	return r.Len() == 0
}

// Summary returns the metrics of the whole rope.
func (r Rope) Summary() Summary {
	if r.root == nil {
		return Summary{}
	}
	return r.root.sum
}

// LineCount returns the number of lines. An empty rope has one line and a
// trailing newline opens a new, empty line.
func (r Rope) LineCount() int {
	return r.Summary().Newlines + 1
}

// Height returns the tree height; 0 for empty or single-leaf ropes.
func (r Rope) Height() int {
	if r.root == nil {
		return 0
	}
	return r.root.height
}

// Chunks calls fn for each leaf chunk in order until fn returns false.
func (r Rope) Chunks(fn func(chunk string) bool) {
	if r.root != nil {
		walk(r.root, fn)
	}
}

func walk(n *node, fn func(string) bool) bool {
	if n.isLeaf() {
		return fn(n.text)
	}
	for _, c := range n.children {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

// String returns the full text.
func (r Rope) String() string {
	var sb strings.Builder
	sb.Grow(r.Len())
	r.Chunks(func(s string) bool {
		sb.WriteString(s)
		return true
	})
	return sb.String()
}

// Bytes returns the full text as a freshly allocated byte slice.
func (r Rope) Bytes() []byte {
	b := make([]byte, 0, r.Len())
	r.Chunks(func(s string) bool {
		b = append(b, s...)
		return true
	})
	return b
}

// Slice returns the text in [start, end). Bounds are clamped.
func (r Rope) Slice(start, end int) string {
	start, end = clampRange(start, end, r.Len())
	if start >= end {
		return ""
	}
	var sb strings.Builder
	sb.Grow(end - start)
	collect(r.root, 0, start, end, &sb)
	return sb.String()
}

func collect(n *node, base, start, end int, sb *strings.Builder) {
	if n.isLeaf() {
		lo := max(start-base, 0)
		hi := min(end-base, len(n.text))
		sb.WriteString(n.text[lo:hi])
		return
	}
	for _, c := range n.children {
		if base >= end {
			return
		}
		next := base + c.sum.Bytes
		if next > start {
			collect(c, base, start, end, sb)
		}
		base = next
	}
}

// Insert returns a rope with text inserted at off. off is clamped.
func (r Rope) Insert(off int, text string) Rope {
	if text == "" {
		return r
	}
	off = clamp(off, r.Len())
	left, right := split(r.root, off)
	return Rope{root: join(join(left, FromString(text).root), right)}
}

// Delete returns a rope without the bytes in [start, end). Bounds are clamped.
func (r Rope) Delete(start, end int) Rope {
	start, end = clampRange(start, end, r.Len())
	if start >= end {
		return r
	}
	left, rest := split(r.root, start)
	_, right := split(rest, end-start)
	return Rope{root: join(left, right)}
}

// Split returns the ropes before and after off.
func (r Rope) Split(off int) (Rope, Rope) {
	left, right := split(r.root, clamp(off, r.Len()))
	return Rope{root: left}, Rope{root: right}
}

// Concat returns r followed by other.
func (r Rope) Concat(other Rope) Rope {
	return Rope{root: join(r.root, other.root)}
}

// Equals reports whether both ropes hold the same text.
func (r Rope) Equals(other Rope) bool {
	if r.root == other.root {
		return true
	}
	return r.Len() == other.Len() && r.String() == other.String()
}

// LineStart returns the offset of the first byte of line. Lines past the end
// map to Len().
func (r Rope) LineStart(line int) int {
	switch {
	case line <= 0:
		return 0
	case line >= r.LineCount():
		return r.Len()
	}
	return newlineOffset(r.root, line) + 1
}

// LineEnd returns the offset of the newline terminating line, or Len() for the
// last line.
func (r Rope) LineEnd(line int) int {
	if line < 0 {
		return 0
	}
	if line+1 >= r.LineCount() {
		return r.Len()
	}
	return newlineOffset(r.root, line+1)
}

// Line returns the text of line without its terminating newline.
func (r Rope) Line(line int) string {
	if line < 0 || line >= r.LineCount() {
		return ""
	}
	return r.Slice(r.LineStart(line), r.LineEnd(line))
}

// OffsetToPoint converts a byte offset into a line/column position. off is
// clamped.
func (r Rope) OffsetToPoint(off int) Point {
	off = clamp(off, r.Len())
	line := newlinesBefore(r.root, off)
	return Point{Line: line, Column: off - r.LineStart(line)}
}

// PointToOffset converts a position to an offset, clamping the line to the
// document and the column to the line.
func (r Rope) PointToOffset(p Point) int {
	if p.Line < 0 {
		return 0
	}
	if p.Line >= r.LineCount() {
		return r.Len()
	}
	start, end := r.LineStart(p.Line), r.LineEnd(p.Line)
	return start + clamp(p.Column, end-start)
}

// newlineOffset returns the offset of the k-th newline (1-based) in n.
// The caller guarantees n holds at least k newlines.
func newlineOffset(n *node, k int) int {
	base := 0
descend:
	for !n.isLeaf() {
		for _, c := range n.children {
			if c.sum.Newlines >= k {
				n = c
				continue descend
			}
			k -= c.sum.Newlines
			base += c.sum.Bytes
		}
		return base
	}
	idx := -1
	for ; k > 0; k-- {
		idx += strings.IndexByte(n.text[idx+1:], '\n') + 1
	}
	return base + idx
}

// newlinesBefore counts the newlines in [0, off).
func newlinesBefore(n *node, off int) int {
	if n == nil {
		return 0
	}
	count := 0
descend:
	for !n.isLeaf() {
		for _, c := range n.children {
			if off <= c.sum.Bytes {
				n = c
				continue descend
			}
			off -= c.sum.Bytes
			count += c.sum.Newlines
		}
		return count
	}
	return count + strings.Count(n.text[:off], "\n")
}

func clamp(v, hi int) int {
	return max(0, min(v, hi))
}

func clampRange(start, end, length int) (int, int) {
	return clamp(start, length), clamp(end, length)
}
