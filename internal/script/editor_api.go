package script

import (
	"context"

	"github.com/dshills/textcore/internal/action"
	"github.com/dshills/textcore/internal/engine/cursor"
	lua "github.com/yuin/gopher-lua"
)

func (r *Runtime) editorModule() *lua.LTable {
	return r.L.SetFuncs(r.L.NewTable(), map[string]lua.LGFunction{
		"apply":     r.editorApply,
		"caret":     r.editorCaret,
		"set_caret": r.editorSetCaret,
		"select":    r.editorSelect,
		"selection": r.editorSelection,
		"deselect":  r.editorDeselect,
	})
}

// editor.apply(name, [text], [shift]) -> changed
func (r *Runtime) editorApply(L *lua.LState) int {
	a, err := action.ParseAction(L.CheckString(1))
	if err != nil {
		L.ArgError(1, err.Error())
	}
	ctx := L.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := r.actions.Apply(ctx, a, action.Context{
		Offset:    r.caret,
		Doc:       r.doc,
		Selection: r.selection,
		Input:     action.Input{Text: L.OptString(2, ""), Shift: L.OptBool(3, false)},
	})
	raise(L, err)
	r.caret = res.Offset
	r.selection = res.Selection
	L.Push(lua.LBool(res.Changed))
	return 1
}

func (r *Runtime) editorCaret(L *lua.LState) int {
	L.Push(lua.LNumber(r.caret))
	return 1
}

// editor.set_caret(offset) also drops the selection.
func (r *Runtime) editorSetCaret(L *lua.LState) int {
	off := L.CheckInt(1)
	if off < 0 || off > r.doc.Len() {
		L.ArgError(1, "offset out of range")
	}
	r.caret = off
	r.selection = nil
	return 0
}

// editor.select(anchor, cursor) selects the range and moves the caret to
// cursor.
func (r *Runtime) editorSelect(L *lua.LState) int {
	anchor, cur := L.CheckInt(1), L.CheckInt(2)
	n := r.doc.Len()
	if anchor < 0 || anchor > n {
		L.ArgError(1, "offset out of range")
	}
	if cur < 0 || cur > n {
		L.ArgError(2, "offset out of range")
	}
	s := cursor.New(anchor, cur)
	r.selection = &s
	r.caret = cur
	return 0
}

// editor.selection() -> anchor, cursor, or nil without a selection
func (r *Runtime) editorSelection(L *lua.LState) int {
	if r.selection == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(r.selection.Anchor))
	L.Push(lua.LNumber(r.selection.Cursor))
	return 2
}

func (r *Runtime) editorDeselect(L *lua.LState) int {
	r.selection = nil
	return 0
}
