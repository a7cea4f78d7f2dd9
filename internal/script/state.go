// Package script runs sandboxed Lua automation against a document.
//
// A Runtime exposes two globals. doc reads and edits the document
// directly; editor drives it through the action engine the same way key
// presses do, keeping a caret and selection between calls. Offsets, lines
// and columns are 0-based byte positions, as in the engine.
//
// Only the base, table, string and math libraries are opened, and the
// loaders that could reach the file system are removed.
//
//	rt := script.New(doc)
//	defer rt.Close()
//	err := rt.Run(ctx, "script", `doc.transaction(function() doc.insert("x", 0) end)`)
//
// A Runtime is not safe for concurrent use.
package script

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dshills/textcore/internal/action"
	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/engine/cursor"
	lua "github.com/yuin/gopher-lua"
)

// DefaultTimeout bounds a single Run when no other deadline applies.
const DefaultTimeout = 5 * time.Second

// Runtime is a Lua state bound to one document.
type Runtime struct {
	L *lua.LState

	doc       *engine.Document
	actions   *action.Engine
	caret     int
	selection *cursor.Selection

	timeout time.Duration
	out     io.Writer
	logger  *slog.Logger
	closed  bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithActions sets the engine editor.apply dispatches to.
func WithActions(e *action.Engine) Option {
	return func(r *Runtime) {
		if e != nil {
			r.actions = e
		}
	}
}

// WithLogger sets the runtime logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithOutput sets where print writes. Output is discarded by default.
func WithOutput(w io.Writer) Option {
	return func(r *Runtime) {
		if w != nil {
			r.out = w
		}
	}
}

// WithTimeout bounds each Run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Runtime) {
		r.timeout = d
	}
}

// WithCaret sets the initial caret.
func WithCaret(offset int) Option {
	return func(r *Runtime) {
		r.caret = offset
	}
}

// New creates a Runtime for doc.
func New(doc *engine.Document, opts ...Option) *Runtime {
	r := &Runtime{
		doc:     doc,
		timeout: DefaultTimeout,
		out:     io.Discard,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.actions == nil {
		r.actions = action.New(action.WithLogger(r.logger))
	}
	r.caret = max(0, min(r.caret, doc.Len()))

	r.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(r.L)
	r.sandbox()
	r.L.SetGlobal("doc", r.docModule())
	r.L.SetGlobal("editor", r.editorModule())
	return r
}

func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes the loaders and routes print to the runtime output.
func (r *Runtime) sandbox() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		r.L.SetGlobal(name, lua.LNil)
	}
	r.L.SetGlobal("print", r.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, n)
		for i := 1; i <= n; i++ {
			parts[i-1] = L.ToStringMeta(L.Get(i)).String()
		}
		line := strings.Join(parts, "\t")
		r.logger.Debug("script output", "text", line)
		fmt.Fprintln(r.out, line)
		return 0
	}))
}

// Caret returns the editor caret.
func (r *Runtime) Caret() int { return r.caret }

// Selection returns the editor selection, nil when there is none.
func (r *Runtime) Selection() *cursor.Selection { return r.selection }

// Run executes code. name labels the chunk in error messages.
func (r *Runtime) Run(ctx context.Context, name, code string) error {
	fn, err := r.compile(name, code)
	if err != nil {
		return err
	}
	return r.exec(ctx, name, fn)
}

// RunFile executes the script at path.
func (r *Runtime) RunFile(ctx context.Context, path string) error {
	if r.closed {
		return ErrClosed
	}
	fn, err := r.L.LoadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrScript, path, err)
	}
	return r.exec(ctx, path, fn)
}

func (r *Runtime) compile(name, code string) (*lua.LFunction, error) {
	if r.closed {
		return nil, ErrClosed
	}
	fn, err := r.L.Load(strings.NewReader(code), name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrScript, name, err)
	}
	return fn, nil
}

func (r *Runtime) exec(ctx context.Context, name string, fn *lua.LFunction) (err error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %s: panic: %v", ErrScript, name, p)
		}
	}()

	start := time.Now()
	r.L.Push(fn)
	if err := r.L.PCall(0, lua.MultRet, nil); err != nil {
		r.L.SetTop(0)
		if cerr := ctx.Err(); cerr != nil {
			return fmt.Errorf("%w: %s: %w", ErrScript, name, cerr)
		}
		r.logger.Debug("script failed", "script", name, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrScript, name, err)
	}
	r.L.SetTop(0)
	r.logger.Debug("script finished", "script", name, "elapsed", time.Since(start))
	return nil
}

// Close releases the Lua state. The document stays open.
func (r *Runtime) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.L.Close()
}
