package engine

import (
	"errors"

	"github.com/dshills/textcore/internal/engine/buffer"
)

// Errors returned by Document operations.
var (
	// ErrOffsetOutOfRange indicates an offset outside [0, Len()].
	ErrOffsetOutOfRange = buffer.ErrOffsetOutOfRange

	// ErrRangeInvalid indicates a range whose end precedes its start.
	ErrRangeInvalid = errors.New("invalid range")

	// ErrEditMismatch indicates a remove edit whose text differs from the
	// document content it targets.
	ErrEditMismatch = errors.New("edit text does not match document")

	// ErrClosed indicates use of a closed document.
	ErrClosed = errors.New("document is closed")
)
