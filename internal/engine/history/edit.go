package history

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Operation is the kind of an Edit.
type Operation uint8

const (
	// Insert adds Text at Start.
	Insert Operation = iota
	// Remove deletes Text, which must currently occupy [Start, Start+len(Text)).
	Remove
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case Insert:
		return "insert"
	case Remove:
		return "remove"
	default:
		return fmt.Sprintf("operation(%d)", uint8(op))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (op Operation) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (op *Operation) UnmarshalText(b []byte) error {
	switch string(b) {
	case "insert":
		*op = Insert
	case "remove":
		*op = Remove
	default:
		return fmt.Errorf("unknown operation %q", b)
	}
	return nil
}

// Edit describes one low-level mutation.
type Edit struct {
	Op    Operation `json:"op"`
	Start int       `json:"start"`
	Text  string    `json:"text"`
}

// End returns the offset just past the edited text.
func (e Edit) End() int {
	return e.Start + len(e.Text)
}

// Invert returns the edit that undoes e.
func (e Edit) Invert() Edit {
	inv := e
	if e.Op == Insert {
		inv.Op = Remove
	} else {
		inv.Op = Insert
	}
	return inv
}

// String renders the edit for logs.
func (e Edit) String() string {
	return fmt.Sprintf("%s@%d %q", e.Op, e.Start, e.Text)
}

// Caret records where an action left the caret before and after its edits.
type Caret struct {
	Before int `json:"before"`
	After  int `json:"after"`
}

// Transaction is an ordered group of edits undone and redone as one unit.
type Transaction struct {
	ID    string `json:"id"`
	Edits []Edit `json:"edits"`

	// Caret is nil when the edits were not made through an editing action.
	Caret *Caret `json:"caret,omitempty"`
}

// NewTransaction creates a transaction with a fresh ID.
func NewTransaction(edits ...Edit) Transaction {
	return Transaction{ID: uuid.NewString(), Edits: edits}
}

// Reversed returns a copy of t with its edits in reverse order.
func (t Transaction) Reversed() Transaction {
	r := t
	r.Edits = slices.Clone(t.Edits)
	slices.Reverse(r.Edits)
	return r
}

// Inverse returns the transaction that undoes t: every edit inverted, in
// reverse order.
func (t Transaction) Inverse() Transaction {
	inv := t.Reversed()
	for i, e := range inv.Edits {
		inv.Edits[i] = e.Invert()
	}
	return inv
}

// IsEmpty reports whether t holds no edits.
func (t Transaction) IsEmpty() bool {
	return len(t.Edits) == 0
}

// Applier applies a single edit to a document without recording it.
type Applier interface {
	ApplyEdit(e Edit) error
}

// ApplierFunc adapts a function to Applier.
type ApplierFunc func(e Edit) error

// ApplyEdit calls f(e).
func (f ApplierFunc) ApplyEdit(e Edit) error {
	return f(e)
}
