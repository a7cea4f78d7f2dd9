package engine

import (
	"github.com/dshills/textcore/internal/engine/buffer"
	"github.com/dshills/textcore/internal/engine/history"
)

// Change describes one applied low-level edit.
type Change struct {
	Edit history.Edit

	// Start is the position of Edit.Start. OldEnd and NewEnd are the end of
	// the affected text before and after the edit.
	Start  buffer.Point
	OldEnd buffer.Point
	NewEnd buffer.Point

	// Revision is the buffer revision after the edit.
	Revision uint64
}

// Listener is told about every edit applied to a document.
type Listener interface {
	EditApplied(doc *Document, c Change)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(doc *Document, c Change)

// EditApplied calls f(doc, c).
func (f ListenerFunc) EditApplied(doc *Document, c Change) {
	f(doc, c)
}

type subscription struct {
	id uint64
	l  Listener
}

// Subscribe registers l and returns a function that removes it. Listeners
// are notified in subscription order, synchronously with the edit.
func (d *Document) Subscribe(l Listener) (cancel func()) {
	d.nextSubID++
	id := d.nextSubID
	d.subs = append(d.subs, subscription{id: id, l: l})
	return func() {
		for i, s := range d.subs {
			if s.id == id {
				d.subs = append(d.subs[:i:i], d.subs[i+1:]...)
				return
			}
		}
	}
}

func (d *Document) notify(c Change) {
	for _, s := range d.subs {
		s.l.EditApplied(d, c)
	}
}
