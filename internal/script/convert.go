package script

import (
	"maps"
	"slices"

	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/engine/syntax"
	lua "github.com/yuin/gopher-lua"
)

// raise turns a Go error into a Lua error. It does not return when err is
// non-nil.
func raise(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
}

func tokensToTable(L *lua.LState, tokens []syntax.Token) *lua.LTable {
	t := L.CreateTable(len(tokens), 0)
	for _, tok := range tokens {
		row := L.CreateTable(0, 2)
		row.RawSetString("kind", lua.LString(tok.Kind))
		row.RawSetString("text", lua.LString(tok.Text))
		t.Append(row)
	}
	return t
}

func stringMapToTable(L *lua.LState, m map[string]string) *lua.LTable {
	t := L.CreateTable(0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		t.RawSetString(k, lua.LString(m[k]))
	}
	return t
}

func runnablesToTable(L *lua.LState, rs []engine.Runnable) *lua.LTable {
	t := L.CreateTable(len(rs), 0)
	for _, r := range rs {
		row := L.CreateTable(0, 2)
		row.RawSetString("line", lua.LNumber(r.Line))
		row.RawSetString("vars", stringMapToTable(L, r.Vars))
		t.Append(row)
	}
	return t
}

func pointsToTable(L *lua.LState, ps []engine.Point) *lua.LTable {
	t := L.CreateTable(len(ps), 0)
	for _, p := range ps {
		row := L.CreateTable(0, 2)
		row.RawSetString("line", lua.LNumber(p.Line))
		row.RawSetString("column", lua.LNumber(p.Column))
		t.Append(row)
	}
	return t
}
