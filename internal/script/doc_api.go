package script

import (
	lua "github.com/yuin/gopher-lua"
)

func (r *Runtime) docModule() *lua.LTable {
	return r.L.SetFuncs(r.L.NewTable(), map[string]lua.LGFunction{
		"text":        r.docText,
		"len":         r.docLen,
		"lines":       r.docLines,
		"line":        r.docLine,
		"language":    r.docLanguage,
		"position":    r.docPosition,
		"offset":      r.docOffset,
		"insert":      r.docInsert,
		"remove":      r.docRemove,
		"undo":        r.docUndo,
		"redo":        r.docRedo,
		"search":      r.docSearch,
		"tokens":      r.docTokens,
		"runnables":   r.docRunnables,
		"run_command": r.docRunCommand,
		"transaction": r.docTransaction,
	})
}

func (r *Runtime) docText(L *lua.LState) int {
	L.Push(lua.LString(r.doc.Text()))
	return 1
}

func (r *Runtime) docLen(L *lua.LState) int {
	L.Push(lua.LNumber(r.doc.Len()))
	return 1
}

func (r *Runtime) docLines(L *lua.LState) int {
	L.Push(lua.LNumber(r.doc.LineCount()))
	return 1
}

func (r *Runtime) docLine(L *lua.LState) int {
	i := L.CheckInt(1)
	if i < 0 || i >= r.doc.LineCount() {
		L.ArgError(1, "line out of range")
	}
	L.Push(lua.LString(r.doc.Line(i)))
	return 1
}

func (r *Runtime) docLanguage(L *lua.LState) int {
	L.Push(lua.LString(r.doc.Language()))
	return 1
}

// doc.position(offset) -> line, column
func (r *Runtime) docPosition(L *lua.LState) int {
	p, err := r.doc.Position(L.CheckInt(1))
	raise(L, err)
	L.Push(lua.LNumber(p.Line))
	L.Push(lua.LNumber(p.Column))
	return 2
}

// doc.offset(line, column) -> offset
func (r *Runtime) docOffset(L *lua.LState) int {
	off, err := r.doc.Offset(L.CheckInt(1), L.CheckInt(2))
	raise(L, err)
	L.Push(lua.LNumber(off))
	return 1
}

// doc.insert(text, offset)
func (r *Runtime) docInsert(L *lua.LState) int {
	raise(L, r.doc.Insert(L.CheckString(1), L.CheckInt(2)))
	r.clampCaret()
	return 0
}

// doc.remove(offset, length) -> removed text
func (r *Runtime) docRemove(L *lua.LState) int {
	text, err := r.doc.Remove(L.CheckInt(1), L.CheckInt(2))
	raise(L, err)
	r.clampCaret()
	L.Push(lua.LString(text))
	return 1
}

func (r *Runtime) docUndo(L *lua.LState) int {
	_, ok, err := r.doc.Undo()
	raise(L, err)
	r.clampCaret()
	L.Push(lua.LBool(ok))
	return 1
}

func (r *Runtime) docRedo(L *lua.LState) int {
	_, ok, err := r.doc.Redo()
	raise(L, err)
	r.clampCaret()
	L.Push(lua.LBool(ok))
	return 1
}

// doc.search(pattern) -> {{line=, column=}, ...}
func (r *Runtime) docSearch(L *lua.LState) int {
	L.Push(pointsToTable(L, r.doc.Search(L.CheckString(1))))
	return 1
}

// doc.tokens(line) -> {{kind=, text=}, ...}
func (r *Runtime) docTokens(L *lua.LState) int {
	i := L.CheckInt(1)
	if i < 0 || i >= r.doc.LineCount() {
		L.ArgError(1, "line out of range")
	}
	L.Push(tokensToTable(L, r.doc.LineTokens(i)))
	return 1
}

func (r *Runtime) docRunnables(L *lua.LState) int {
	L.Push(runnablesToTable(L, r.doc.Runnables()))
	return 1
}

// doc.run_command(line) -> command or nil
func (r *Runtime) docRunCommand(L *lua.LState) int {
	cmd, ok := r.doc.RunCommand(L.CheckInt(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(cmd))
	return 1
}

// doc.transaction(fn) groups the edits fn makes into one undo step. When fn
// raises an error the edits are rolled back, the caret restored, and the
// error raised again.
func (r *Runtime) docTransaction(L *lua.LState) int {
	fn := L.CheckFunction(1)
	before := r.caret
	caret, err := r.doc.Transact(before, func() (int, error) {
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
			return before, err
		}
		return r.caret, nil
	})
	r.caret = caret
	r.clampCaret()
	if err != nil {
		r.selection = nil
		raise(L, err)
	}
	return 0
}

// clampCaret keeps the editor state inside the document after direct edits.
func (r *Runtime) clampCaret() {
	n := r.doc.Len()
	r.caret = max(0, min(r.caret, n))
	if r.selection != nil {
		s := r.selection.Clamp(n)
		r.selection = &s
	}
}
