package script

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/dshills/contextlets/internal/bridge"
)

// compile parses and compiles a chunk without running it.
func compile(chunk, name string) (*lua.FunctionProto, error) {
	stmts, err := parse.Parse(strings.NewReader(chunk), name)
	if err != nil {
		return nil, err
	}
	return lua.Compile(stmts, name)
}

// protoPath returns the child indexes leading from root to target.
func protoPath(root, target *lua.FunctionProto) ([]int, bool) {
	if root == target {
		return []int{}, true
	}
	for i, child := range root.FunctionPrototypes {
		if rest, ok := protoPath(child, target); ok {
			return append([]int{i}, rest...), true
		}
	}
	return nil, false
}

// resolveProto walks path down from root.
func resolveProto(root *lua.FunctionProto, path []int) (*lua.FunctionProto, error) {
	proto := root
	for depth, idx := range path {
		if idx < 0 || idx >= len(proto.FunctionPrototypes) {
			return nil, fmt.Errorf("%w: no prototype %d at depth %d", ErrBadClosure, idx, depth)
		}
		proto = proto.FunctionPrototypes[idx]
	}
	if proto.NumUpvalues > 0 {
		return nil, fmt.Errorf("%w: %s line %d", ErrCapturedLocals, proto.SourceName, proto.LineDefined)
	}
	return proto, nil
}

// describe turns a function defined by the chunk compiled into root into
// a closure descriptor.
func describe(fn *lua.LFunction, root *lua.FunctionProto, chunk string) (bridge.Code, error) {
	if fn.IsG {
		return bridge.Code{}, ErrGoFunction
	}
	path, ok := protoPath(root, fn.Proto)
	if !ok {
		return bridge.Code{}, fmt.Errorf("%w: function was not defined by the running code", ErrBadClosure)
	}
	if fn.Proto.NumUpvalues > 0 {
		return bridge.Code{}, fmt.Errorf("%w: function defined at line %d", ErrCapturedLocals, fn.Proto.LineDefined)
	}
	return bridge.Closure(chunk, path), nil
}

// Check compiles code without running it. Closure descriptors must also
// name a transportable prototype.
func Check(code bridge.Code) error {
	root, err := compile(code.Chunk(), "check")
	if err != nil {
		return err
	}
	if code.IsClosure() {
		_, err = resolveProto(root, code.Path())
	}
	return err
}
