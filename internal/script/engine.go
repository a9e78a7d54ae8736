package script

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/contextlets/internal/bridge"
)

// Engine evaluates API surfaces in one sandboxed Lua state.
// It implements bridge.Runner.
type Engine struct {
	state *State
	exec  *Executor
	conv  *Converter
	name  string
	runs  atomic.Uint64

	// Built on the executor goroutine by the first run.
	base *lua.LTable
	libs map[string]*lua.LTable
}

var _ bridge.Runner = (*Engine)(nil)

type engineConfig struct {
	name      string
	queueSize int
	onError   func(error)
	state     []StateOption
}

// Option configures an Engine.
type Option func(*engineConfig)

// WithName sets the prefix of chunk names in error messages.
func WithName(name string) Option {
	return func(c *engineConfig) {
		if name != "" {
			c.name = name
		}
	}
}

// WithQueueSize sets how many runs may wait for the executor.
func WithQueueSize(n int) Option {
	return func(c *engineConfig) {
		c.queueSize = n
	}
}

// WithErrorHandler receives the errors of deferred runs.
func WithErrorHandler(fn func(error)) Option {
	return func(c *engineConfig) {
		c.onError = fn
	}
}

// WithStateOptions passes options to the underlying State.
func WithStateOptions(opts ...StateOption) Option {
	return func(c *engineConfig) {
		c.state = append(c.state, opts...)
	}
}

// NewEngine creates an Engine with its own Lua state and executor.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg := engineConfig{name: "script", queueSize: DefaultQueueSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	state, err := NewState(cfg.state...)
	if err != nil {
		return nil, err
	}

	return &Engine{
		state: state,
		exec:  NewExecutor(state.LuaState(), cfg.queueSize, cfg.onError),
		conv:  NewConverter(state.LuaState()),
		name:  cfg.name,
	}, nil
}

// Run executes the API's code and waits for it to finish.
func (e *Engine) Run(ctx context.Context, api *bridge.API) error {
	return e.exec.Execute(ctx, func(L *lua.LState) error {
		return e.run(ctx, L, api)
	})
}

// RunDeferred queues the API's code. Errors of the run itself go to the
// engine's error handler.
func (e *Engine) RunDeferred(api *bridge.API) error {
	return e.exec.ExecuteAsync(func(L *lua.LState) error {
		return e.run(context.Background(), L, api)
	})
}

// Sync waits until every run queued before it has finished.
func (e *Engine) Sync(ctx context.Context) error {
	return e.exec.Execute(ctx, func(*lua.LState) error { return nil })
}

// Close stops the executor and releases the Lua state.
func (e *Engine) Close() error {
	e.exec.Close()
	return e.state.Close()
}

func (e *Engine) run(ctx context.Context, L *lua.LState, api *bridge.API) error {
	code := api.Code()
	if code.IsZero() {
		return nil
	}

	name := fmt.Sprintf("%s#%d", e.name, e.runs.Add(1))
	root, err := compile(code.Chunk(), name)
	if err != nil {
		return &RunError{Chunk: name, Err: err}
	}
	proto := root
	if code.IsClosure() {
		if proto, err = resolveProto(root, code.Path()); err != nil {
			return &RunError{Chunk: name, Err: err}
		}
	}

	if timeout := e.state.ExecutionTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	r := &runCtx{
		engine: e,
		ctx:    ctx,
		api:    api,
		root:   root,
		chunk:  code.Chunk(),
	}
	env := r.environment(L)

	fn := L.NewFunctionFromProto(proto)
	fn.Env = env

	L.SetContext(ctx)
	defer L.RemoveContext()

	err = L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, r.self)
	if err != nil {
		return &RunError{Chunk: name, Err: unwrapRaised(err)}
	}
	return nil
}

// runCtx is the state of one run visible to the Go functions it exposes.
type runCtx struct {
	engine *Engine
	ctx    context.Context
	api    *bridge.API
	root   *lua.FunctionProto
	chunk  string
	self   *lua.LTable
}

// environment builds the run's globals: a fresh table holding the api
// table and private copies of the library tables, falling through to the
// engine's base functions. The metatable is protected, so the real globals
// stay out of reach and nothing a run assigns outlives it.
func (r *runCtx) environment(L *lua.LState) *lua.LTable {
	base, libs := r.engine.globals(L)

	env := L.NewTable()
	for name, lib := range libs {
		env.RawSetString(name, copyTable(L, lib))
	}
	mt := L.NewTable()
	mt.RawSetString("__index", base)
	mt.RawSetString("__metatable", lua.LFalse)
	L.SetMetatable(env, mt)
	env.RawSetString("_G", env)

	r.self = r.apiTable(L)
	env.RawSetString("api", r.self)
	return env
}

// globals splits the sandbox globals into the values every run shares
// read-only and the library tables each run gets a copy of.
func (e *Engine) globals(L *lua.LState) (*lua.LTable, map[string]*lua.LTable) {
	if e.base != nil {
		return e.base, e.libs
	}
	e.base = L.NewTable()
	e.libs = make(map[string]*lua.LTable)
	L.G.Global.ForEach(func(k, v lua.LValue) {
		name, ok := k.(lua.LString)
		if !ok {
			return
		}
		if t, ok := v.(*lua.LTable); ok {
			if t != L.G.Global {
				e.libs[string(name)] = t
			}
			return
		}
		e.base.RawSet(k, v)
	})
	return e.base, e.libs
}

func copyTable(L *lua.LState, src *lua.LTable) *lua.LTable {
	dst := L.NewTable()
	src.ForEach(func(k, v lua.LValue) {
		dst.RawSet(k, v)
	})
	return dst
}

// apiTable builds the Lua view of the API's promoted fields. Nested values
// are shared with the message table, as they are in Fields.
func (r *runCtx) apiTable(L *lua.LState) *lua.LTable {
	fields := r.api.Fields()
	msg, ok := r.engine.conv.ToLua(fields["message"]).(*lua.LTable)
	if !ok {
		msg = L.NewTable()
	}

	tbl := L.NewTable()
	for key := range fields {
		if key == "message" {
			continue
		}
		tbl.RawSetString(key, msg.RawGetString(key))
	}
	tbl.RawSetString("message", msg)
	tbl.RawSetString("runAs", L.NewFunction(r.runAs))
	return tbl
}

// runAs implements api.runAs(scope, code, params). It accepts method-call
// syntax as well. code may be a string or a function defined by the running
// chunk. The function is sent without an environment: it sees only the
// receiving scope's api as its receiver and global, and a function that
// references locals of an enclosing function raises ErrCapturedLocals
// instead of being sent.
func (r *runCtx) runAs(L *lua.LState) int {
	base := 1
	if t, ok := L.Get(1).(*lua.LTable); ok && t == r.self {
		base = 2
	}

	scope := L.CheckString(base)
	code, err := r.codeArg(L, L.Get(base+1))
	if err != nil {
		raise(L, err)
		return 0
	}
	params := r.engine.conv.ToGo(L.Get(base + 2))

	if err := r.api.RunAs(r.ctx, scope, code, params); err != nil {
		raise(L, err)
	}
	return 0
}

// codeArg converts the code argument of runAs. Functions become closure
// descriptors, anything else is coerced to source text.
func (r *runCtx) codeArg(L *lua.LState, v lua.LValue) (bridge.Code, error) {
	switch cv := v.(type) {
	case *lua.LFunction:
		return describe(cv, r.root, r.chunk)
	case lua.LString:
		return bridge.ParseCode(string(cv)), nil
	default:
		return bridge.Source(L.ToStringMeta(v).String()), nil
	}
}

// raisedError carries a Go error through a Lua error.
type raisedError struct {
	err error
}

// raise throws err as a Lua error that keeps the Go value.
func raise(L *lua.LState, err error) {
	ud := L.NewUserData()
	ud.Value = raisedError{err: err}
	mt := L.NewTable()
	mt.RawSetString("__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(err.Error()))
		return 1
	}))
	L.SetMetatable(ud, mt)
	L.Error(ud, 1)
}

// unwrapRaised recovers the Go error from a Lua error thrown by raise.
func unwrapRaised(err error) error {
	var apiErr *lua.ApiError
	if !errors.As(err, &apiErr) {
		return err
	}
	if ud, ok := apiErr.Object.(*lua.LUserData); ok {
		if re, ok := ud.Value.(raisedError); ok {
			return re.err
		}
	}
	return err
}
