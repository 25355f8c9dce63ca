package script

import (
	lua "github.com/yuin/gopher-lua"
)

// newSandboxedState creates a Lua state with only the base, table, string
// and math libraries, and with every loader removed.
func newSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:        true,
		IncludeGoStackTrace: false,
	})

	// io, os, debug and package are never opened.
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{
		"dofile",
		"loadfile",
		"load",
		"loadstring",
		"require",
		"module",
		"collectgarbage",
		"print",
	} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}
