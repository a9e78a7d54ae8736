package script

import (
	"fmt"
	"io"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// removedGlobals are base library functions user code never gets.
var removedGlobals = []string{
	"dofile",         // Load and execute file
	"loadfile",       // Load file as function
	"load",           // Load chunk from a reader function
	"loadstring",     // Load string as function
	"require",        // Module loading
	"module",         // Module definition
	"getfenv",        // Environment access
	"setfenv",        // Environment replacement
	"collectgarbage", // GC control
	"_printregs",     // VM internals
}

// Sandbox restricts Lua execution to safe operations.
type Sandbox struct {
	L      *lua.LState
	output io.Writer
}

// NewSandbox creates a new sandbox for the Lua state.
func NewSandbox(L *lua.LState, output io.Writer) *Sandbox {
	return &Sandbox{L: L, output: output}
}

// Install sets up the sandbox restrictions.
func (s *Sandbox) Install() {
	for _, name := range removedGlobals {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.installPrint()
	s.protectStringMetatable()
}

// protectStringMetatable hides the string metatable, whose __index is the
// library table shared by every string value.
func (s *Sandbox) protectStringMetatable() {
	if mt, ok := s.L.GetMetatable(lua.LString("")).(*lua.LTable); ok {
		mt.RawSetString("__metatable", lua.LFalse)
	}
}

// installPrint replaces print with a version writing to the sandbox output.
func (s *Sandbox) installPrint() {
	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		parts := make([]string, top)
		for i := 1; i <= top; i++ {
			parts[i-1] = L.ToStringMeta(L.Get(i)).String()
		}
		fmt.Fprintln(s.output, strings.Join(parts, "\t"))
		return 0
	}))
}

// Removed reports whether name is withheld from user code.
func (s *Sandbox) Removed(name string) bool {
	for _, n := range removedGlobals {
		if n == name {
			return true
		}
	}
	return false
}
