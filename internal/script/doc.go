// Package script evaluates user code in a sandboxed Lua runtime.
//
// This package wraps the gopher-lua library to provide:
//   - Sandboxed Lua state management
//   - Go-Lua value conversion
//   - A single-goroutine executor (LState is not goroutine-safe)
//   - An Engine that runs bridge API surfaces
//
// # State
//
// The State type manages a Lua runtime with only the base, table, string
// and math libraries opened:
//
//	state, err := script.NewState(
//	    script.WithExecutionTimeout(2 * time.Second),
//	    script.WithOutput(os.Stderr),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer state.Close()
//
// # Sandbox
//
// The Sandbox restricts Lua code execution by:
//   - Removing chunk loaders (dofile, loadfile, load, loadstring)
//   - Removing module loading (require, module)
//   - Removing environment access (getfenv, setfenv)
//   - Redirecting print to a configured writer
//
// No io, os, debug or package library is available.
//
// # Engine
//
// Engine implements bridge.Runner. Each run gets a fresh environment table
// whose lookups fall through to the sandbox globals, so globals assigned by
// one run are not visible to the next. The API surface is available as the
// global "api" and is passed as the first argument (the receiver) to the
// chunk or closure being run:
//
//	-- item code
//	local url = api.tab.url
//	api.runAs("content", function(self)
//	    print(self.params.greeting, self.tab.url)
//	end, {greeting = "hello"})
//
// Functions handed to runAs are transported as closure descriptors: the
// receiving engine recompiles the defining chunk and instantiates the
// function's prototype. Captured locals cannot cross a scope boundary, so
// runAs rejects functions that reference locals of an enclosing function.
package script
