package script

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultQueueSize is the number of runs an Executor buffers.
const DefaultQueueSize = 64

// job is one unit of work for the executor goroutine.
type job struct {
	fn func(L *lua.LState) error

	// result is nil for deferred jobs; their errors go to the
	// executor's error handler.
	result chan error
}

// Executor serializes all Lua operations through a single goroutine.
//
// gopher-lua's LState is NOT goroutine-safe. Every run of the engine is
// marshalled onto the goroutine started by NewExecutor. A job may queue
// further deferred jobs; they run after it returns.
type Executor struct {
	L       *lua.LState
	queue   chan *job
	onError func(error)

	closed    atomic.Bool
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewExecutor creates an Executor for L and starts its goroutine.
// onError receives the errors of deferred jobs; it may be nil.
func NewExecutor(L *lua.LState, queueSize int, onError func(error)) *Executor {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if onError == nil {
		onError = func(error) {}
	}
	e := &Executor{
		L:       L,
		queue:   make(chan *job, queueSize),
		onError: onError,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go e.loop()
	return e
}

func (e *Executor) loop() {
	defer close(e.stopped)
	for {
		select {
		case <-e.done:
			e.drain()
			return
		case j := <-e.queue:
			err := e.run(j)
			if j.result != nil {
				j.result <- err
				continue
			}
			if err != nil {
				e.onError(err)
			}
		}
	}
}

// run executes a job with panic recovery.
func (e *Executor) run(j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case error:
				err = v
			default:
				err = fmt.Errorf("lua panic: %v", v)
			}
		}
	}()
	return j.fn(e.L)
}

// drain fails queued synchronous jobs and drops deferred ones.
func (e *Executor) drain() {
	for {
		select {
		case j := <-e.queue:
			if j.result != nil {
				j.result <- ErrExecutorClosed
			}
		default:
			return
		}
	}
}

// Execute runs fn on the executor goroutine and waits for it.
// If ctx ends first, Execute returns ctx.Err() and the job still runs.
func (e *Executor) Execute(ctx context.Context, fn func(L *lua.LState) error) error {
	if e.closed.Load() {
		return ErrExecutorClosed
	}

	j := &job{fn: fn, result: make(chan error, 1)}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrExecutorClosed
	case e.queue <- j:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-j.result:
		return err
	}
}

// ExecuteAsync queues fn without waiting. It never blocks, so it is safe
// to call from a job running on the executor goroutine.
func (e *Executor) ExecuteAsync(fn func(L *lua.LState) error) error {
	if e.closed.Load() {
		return ErrExecutorClosed
	}

	select {
	case <-e.done:
		return ErrExecutorClosed
	case e.queue <- &job{fn: fn}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the executor and waits for its goroutine to exit.
// Queued synchronous jobs fail with ErrExecutorClosed. Close must not be
// called from a job.
func (e *Executor) Close() {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		close(e.done)
	})
	<-e.stopped
}

// IsClosed returns true if the executor has been closed.
func (e *Executor) IsClosed() bool {
	return e.closed.Load()
}
