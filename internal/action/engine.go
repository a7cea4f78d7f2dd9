package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Errors returned by Apply.
var (
	ErrUnknownAction = errors.New("unknown action")
	ErrNoDocument    = errors.New("no document")
	// ErrClipboard wraps clipboard failures. The document is left untouched.
	ErrClipboard = errors.New("clipboard unavailable")
)

// Engine applies actions to documents.
type Engine struct {
	clipboard Clipboard
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClipboard sets the clipboard COPY, CUT and PASTE use.
func WithClipboard(c Clipboard) Option {
	return func(e *Engine) {
		e.clipboard = c
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine. Without WithClipboard, clipboard actions fail with
// ErrClipboard.
func New(opts ...Option) *Engine {
	e := &Engine{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply runs a against c. On error the returned Result carries the
// unchanged context.
func (e *Engine) Apply(ctx context.Context, a Action, c Context) (Result, error) {
	if c.Doc == nil {
		return Result{Offset: c.Offset, Selection: c.Selection}, ErrNoDocument
	}
	res, err := e.dispatch(ctx, a, c)
	if err != nil {
		e.logger.Debug("action failed", "action", a, "offset", c.Offset, "error", err)
		return c.unchanged(), err
	}
	return res, nil
}

func (e *Engine) dispatch(ctx context.Context, a Action, c Context) (Result, error) {
	switch a {
	// Navigation
	case ArrowLeft:
		return moveLeft(c, false), nil
	case ArrowRight:
		return moveRight(c, false), nil
	case ArrowLeftAlt:
		return moveLeft(c, true), nil
	case ArrowRightAlt:
		return moveRight(c, true), nil
	case ArrowUp:
		return moveUp(c), nil
	case ArrowDown:
		return moveDown(c), nil

	// Editing
	case Backspace:
		return backspace(c)
	case Delete:
		return deleteForward(c)
	case Enter:
		return enter(c)
	case Tab:
		return indent(c)
	case Untab:
		return outdent(c)
	case TextInput:
		return textInput(c)
	case Comment:
		return toggleComment(c)

	// Shortcuts
	case Undo:
		return undo(c)
	case Redo:
		return redo(c)
	case SelectAll:
		return selectAll(c), nil
	case Copy:
		return e.copy(ctx, c)
	case Cut:
		return e.cut(ctx, c)
	case Paste:
		return e.paste(ctx, c)
	}
	return c.unchanged(), fmt.Errorf("%w: %q", ErrUnknownAction, string(a))
}
