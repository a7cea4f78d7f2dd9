// Package action maps editing actions such as key presses and clipboard
// shortcuts onto Document edits.
//
// Engine.Apply is stateless: the caret and selection travel in the Context
// and come back in the Result. Every action that edits runs as one
// transaction, so it is one undo step and is rolled back if any of its
// edits fails.
package action

import (
	"fmt"
	"strings"
)

// Action names an editing action.
type Action string

// Navigation
const (
	ArrowLeft     Action = "ARROW_LEFT"
	ArrowRight    Action = "ARROW_RIGHT"
	ArrowUp       Action = "ARROW_UP"
	ArrowDown     Action = "ARROW_DOWN"
	ArrowLeftAlt  Action = "ARROW_LEFT_ALT"
	ArrowRightAlt Action = "ARROW_RIGHT_ALT"
)

// Editing
const (
	Backspace Action = "BACKSPACE"
	Delete    Action = "DELETE"
	Enter     Action = "ENTER"
	Tab       Action = "TAB"
	Untab     Action = "UNTAB"
	TextInput Action = "TEXT_INPUT"
)

// Shortcuts
const (
	Undo      Action = "UNDO"
	Redo      Action = "REDO"
	SelectAll Action = "SELECT_ALL"
	Copy      Action = "COPY"
	Paste     Action = "PASTE"
	Cut       Action = "CUT"
	Comment   Action = "COMMENT"
)

var all = []Action{
	ArrowLeft, ArrowRight, ArrowUp, ArrowDown, ArrowLeftAlt, ArrowRightAlt,
	Backspace, Delete, Enter, Tab, Untab, TextInput,
	Undo, Redo, SelectAll, Copy, Paste, Cut, Comment,
}

// All returns every action.
func All() []Action {
	out := make([]Action, len(all))
	copy(out, all)
	return out
}

// ParseAction returns the action called name. Matching ignores case and
// accepts '-' for '_'.
func ParseAction(name string) (Action, error) {
	n := Action(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", "_")))
	for _, a := range all {
		if a == n {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

// Mutates reports whether a can edit the document.
func (a Action) Mutates() bool {
	switch a {
	case Backspace, Delete, Enter, Tab, Untab, TextInput, Undo, Redo, Paste, Cut, Comment:
		return true
	}
	return false
}

func (a Action) String() string {
	return string(a)
}
