// Package cursor models the caret selection of a document.
package cursor

import "fmt"

// Selection is a range of text between a fixed Anchor and a moving Cursor.
// When Anchor == Cursor the selection is empty. Selection is an immutable
// value type.
type Selection struct {
	Anchor int `json:"anchor"`
	Cursor int `json:"cursor"`
}

// New creates a selection from anchor to cursor.
func New(anchor, cursor int) Selection {
	return Selection{Anchor: anchor, Cursor: cursor}
}

// Collapsed creates an empty selection at offset.
func Collapsed(offset int) Selection {
	return Selection{Anchor: offset, Cursor: offset}
}

// Start returns the lower bound.
func (s Selection) Start() int {
	return min(s.Anchor, s.Cursor)
}

// End returns the upper bound.
func (s Selection) End() int {
	return max(s.Anchor, s.Cursor)
}

// Sorted returns Start and End.
func (s Selection) Sorted() (int, int) {
	return s.Start(), s.End()
}

// IsEmpty reports whether the selection has no extent.
func (s Selection) IsEmpty() bool {
	return s.Anchor == s.Cursor
}

// Len returns the number of selected bytes.
func (s Selection) Len() int {
	return s.End() - s.Start()
}

// IsForward reports whether the cursor is at or after the anchor.
func (s Selection) IsForward() bool {
	return s.Cursor >= s.Anchor
}

// Contains reports whether offset lies in [Start, End).
func (s Selection) Contains(offset int) bool {
	return offset >= s.Start() && offset < s.End()
}

// WithCursor returns the selection with only the cursor end moved.
func (s Selection) WithCursor(offset int) Selection {
	return Selection{Anchor: s.Anchor, Cursor: offset}
}

// Reset returns an empty selection at offset.
func (s Selection) Reset(offset int) Selection {
	return Collapsed(offset)
}

// Clamp returns the selection with both ends clamped to [0, maxOffset].
func (s Selection) Clamp(maxOffset int) Selection {
	return Selection{
		Anchor: max(0, min(s.Anchor, maxOffset)),
		Cursor: max(0, min(s.Cursor, maxOffset)),
	}
}

// ClampedRange returns [Start, End) with End clamped to length. Start is
// clamped too so the range is never inverted.
func (s Selection) ClampedRange(length int) (int, int) {
	end := min(s.End(), length)
	start := max(0, min(s.Start(), end))
	return start, end
}

// Equals reports whether both selections cover the same range in the same
// direction.
func (s Selection) Equals(other Selection) bool {
	return s == other
}

// Bigger reports whether s spans more bytes than other.
func (s Selection) Bigger(other Selection) bool {
	return s.Len() > other.Len()
}

// String returns a compact representation such as "[3,7)" or "|5|".
func (s Selection) String() string {
	if s.IsEmpty() {
		return fmt.Sprintf("|%d|", s.Cursor)
	}
	if s.IsForward() {
		return fmt.Sprintf("[%d,%d)", s.Anchor, s.Cursor)
	}
	return fmt.Sprintf("(%d,%d]", s.Cursor, s.Anchor)
}
