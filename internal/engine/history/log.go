package history

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Errors returned by Log operations.
var (
	ErrTransactionOpen = errors.New("transaction already open")
	ErrNoTransaction   = errors.New("no open transaction")
)

// DefaultMaxEntries bounds the undo stack when NewLog gets no limit.
const DefaultMaxEntries = 1000

// Log holds the undo and redo stacks and the pending edits of the open
// transaction.
type Log struct {
	undo []Transaction
	redo []Transaction

	open    bool
	pending []Edit

	maxEntries int
}

// NewLog creates an empty log keeping at most maxEntries undo entries.
func NewLog(maxEntries int) *Log {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Log{maxEntries: maxEntries}
}

// Begin opens a transaction.
func (l *Log) Begin() error {
	if l.open {
		return ErrTransactionOpen
	}
	l.open = true
	l.pending = nil
	return nil
}

// InTransaction reports whether a transaction is open.
func (l *Log) InTransaction() bool {
	return l.open
}

// Record appends an already applied edit to the open transaction.
func (l *Log) Record(e Edit) error {
	if !l.open {
		return ErrNoTransaction
	}
	l.pending = append(l.pending, e)
	return nil
}

// Pending returns a copy of the edits recorded in the open transaction.
func (l *Log) Pending() []Edit {
	return slices.Clone(l.pending)
}

// CommitOption configures Commit.
type CommitOption func(*Transaction)

// WithCaret stores the caret before and after the transaction.
func WithCaret(before, after int) CommitOption {
	return func(t *Transaction) {
		t.Caret = &Caret{Before: before, After: after}
	}
}

// Commit closes the open transaction. When it recorded edits they become one
// Transaction on the undo stack and the redo stack is cleared; an empty
// transaction leaves both stacks alone and returns an empty Transaction.
func (l *Log) Commit(opts ...CommitOption) (Transaction, error) {
	if !l.open {
		return Transaction{}, ErrNoTransaction
	}
	edits := l.pending
	l.open = false
	l.pending = nil

	if len(edits) == 0 {
		return Transaction{}, nil
	}
	tx := Transaction{ID: uuid.NewString(), Edits: edits}
	for _, opt := range opts {
		opt(&tx)
	}
	l.push(tx)
	return tx, nil
}

// Rollback reverts the edits of the open transaction in reverse order and
// closes it without recording history.
func (l *Log) Rollback(a Applier) error {
	if !l.open {
		return ErrNoTransaction
	}
	edits := l.pending
	l.open = false
	l.pending = nil

	for i := len(edits) - 1; i >= 0; i-- {
		if err := a.ApplyEdit(edits[i].Invert()); err != nil {
			return fmt.Errorf("rollback %s: %w", edits[i], err)
		}
	}
	return nil
}

// RecordImmediate records an already applied edit as its own transaction.
func (l *Log) RecordImmediate(e Edit) Transaction {
	tx := NewTransaction(e)
	l.push(tx)
	return tx
}

// Push records an already applied transaction.
func (l *Log) Push(tx Transaction) {
	if tx.IsEmpty() {
		return
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	l.push(tx)
}

func (l *Log) push(tx Transaction) {
	l.undo = append(l.undo, tx)
	l.redo = nil
	if excess := len(l.undo) - l.maxEntries; excess > 0 {
		l.undo = slices.Delete(l.undo, 0, excess)
	}
}

// ApplyTransaction applies the edits of tx in order. If any edit fails the
// edits applied so far are reverted in reverse order and the failure is
// returned, leaving the document as it was.
func (l *Log) ApplyTransaction(a Applier, tx Transaction) error {
	return applyAll(a, tx.Edits)
}

func applyAll(a Applier, edits []Edit) error {
	for i, e := range edits {
		if err := a.ApplyEdit(e); err != nil {
			for j := i - 1; j >= 0; j-- {
				if rerr := a.ApplyEdit(edits[j].Invert()); rerr != nil {
					return errors.Join(fmt.Errorf("apply %s: %w", e, err),
						fmt.Errorf("revert %s: %w", edits[j], rerr))
				}
			}
			return fmt.Errorf("apply %s: %w", e, err)
		}
	}
	return nil
}

// Undo reverts the most recent transaction. It returns the transaction with
// its edits in the order they were undone (reverse of the original) and
// false when there is nothing to undo. A failed undo leaves the transaction
// on the undo stack.
func (l *Log) Undo(a Applier) (Transaction, bool, error) {
	if l.open {
		return Transaction{}, false, ErrTransactionOpen
	}
	if len(l.undo) == 0 {
		return Transaction{}, false, nil
	}
	tx := l.undo[len(l.undo)-1]
	if err := applyAll(a, tx.Inverse().Edits); err != nil {
		return Transaction{}, false, fmt.Errorf("undo: %w", err)
	}

	undone := tx.Reversed()
	l.undo = l.undo[:len(l.undo)-1]
	l.redo = append(l.redo, undone)
	return undone, true, nil
}

// Redo reapplies the most recently undone transaction and returns it with
// its edits in their original order. A failed redo leaves the transaction on
// the redo stack.
func (l *Log) Redo(a Applier) (Transaction, bool, error) {
	if l.open {
		return Transaction{}, false, ErrTransactionOpen
	}
	if len(l.redo) == 0 {
		return Transaction{}, false, nil
	}
	tx := l.redo[len(l.redo)-1]
	if len(tx.Edits) > 1 {
		tx = tx.Reversed()
	}
	if err := applyAll(a, tx.Edits); err != nil {
		return Transaction{}, false, fmt.Errorf("redo: %w", err)
	}

	l.redo = l.redo[:len(l.redo)-1]
	l.undo = append(l.undo, tx)
	return tx, true, nil
}

// CanUndo reports whether Undo has anything to revert.
func (l *Log) CanUndo() bool {
	return len(l.undo) > 0
}

// CanRedo reports whether Redo has anything to reapply.
func (l *Log) CanRedo() bool {
	return len(l.redo) > 0
}

// UndoCount returns the depth of the undo stack.
func (l *Log) UndoCount() int {
	return len(l.undo)
}

// RedoCount returns the depth of the redo stack.
func (l *Log) RedoCount() int {
	return len(l.redo)
}

// Peek returns the transaction Undo would revert.
func (l *Log) Peek() (Transaction, bool) {
	if len(l.undo) == 0 {
		return Transaction{}, false
	}
	return l.undo[len(l.undo)-1], true
}

// Clear drops both stacks and any open transaction.
func (l *Log) Clear() {
	l.undo = nil
	l.redo = nil
	l.open = false
	l.pending = nil
}
