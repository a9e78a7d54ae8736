package script

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"
)

func TestExecutorExecute(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	exec := NewExecutor(L, 10, nil)
	defer exec.Close()

	var executed bool
	err := exec.Execute(context.Background(), func(got *lua.LState) error {
		executed = got == L
		return nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !executed {
		t.Error("job did not run on the executor's state")
	}
}

func TestExecutorDefaultQueueSize(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	exec := NewExecutor(L, 0, nil)
	defer exec.Close()

	if cap(exec.queue) != DefaultQueueSize {
		t.Errorf("queue size = %d, want %d", cap(exec.queue), DefaultQueueSize)
	}
}

func TestExecutorReturnsJobError(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	exec := NewExecutor(L, 10, nil)
	defer exec.Close()

	want := errors.New("boom")
	if err := exec.Execute(context.Background(), func(*lua.LState) error { return want }); err != want {
		t.Errorf("Execute() error = %v, want %v", err, want)
	}
}

func TestExecutorRecoversPanic(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	exec := NewExecutor(L, 10, nil)
	defer exec.Close()

	err := exec.Execute(context.Background(), func(*lua.LState) error {
		panic("bad")
	})
	if err == nil {
		t.Fatal("Execute() error = nil after panic")
	}

	// The executor keeps working.
	if err := exec.Execute(context.Background(), func(*lua.LState) error { return nil }); err != nil {
		t.Errorf("Execute() after panic error = %v", err)
	}
}

func TestExecutorAsyncRunsInOrder(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	var mu sync.Mutex
	var errs []error
	exec := NewExecutor(L, 10, func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	})
	defer exec.Close()

	var order []int
	for i := range 3 {
		if err := exec.ExecuteAsync(func(*lua.LState) error {
			order = append(order, i)
			if i == 1 {
				return errors.New("second failed")
			}
			return nil
		}); err != nil {
			t.Fatalf("ExecuteAsync() error = %v", err)
		}
	}

	// A synchronous job queued last observes every earlier job.
	var seen []int
	if err := exec.Execute(context.Background(), func(*lua.LState) error {
		seen = append(seen, order...)
		return nil
	}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(seen) != 3 || seen[0] != 0 || seen[1] != 1 || seen[2] != 2 {
		t.Errorf("order = %v", seen)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(errs) != 1 || errs[0].Error() != "second failed" {
		t.Errorf("error handler got %v", errs)
	}
}

func TestExecutorAsyncFromJob(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	exec := NewExecutor(L, 10, nil)
	defer exec.Close()

	done := make(chan struct{})
	err := exec.Execute(context.Background(), func(*lua.LState) error {
		return exec.ExecuteAsync(func(*lua.LState) error {
			close(done)
			return nil
		})
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("deferred job never ran")
	}
}

func TestExecutorQueueFull(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	exec := NewExecutor(L, 1, nil)
	defer exec.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	if err := exec.ExecuteAsync(func(*lua.LState) error {
		close(started)
		<-release
		return nil
	}); err != nil {
		t.Fatalf("ExecuteAsync() error = %v", err)
	}
	<-started

	if err := exec.ExecuteAsync(func(*lua.LState) error { return nil }); err != nil {
		t.Fatalf("ExecuteAsync() into free slot error = %v", err)
	}
	if err := exec.ExecuteAsync(func(*lua.LState) error { return nil }); !errors.Is(err, ErrQueueFull) {
		t.Errorf("ExecuteAsync() error = %v, want ErrQueueFull", err)
	}
	close(release)
}

func TestExecutorContextCancelled(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	exec := NewExecutor(L, 10, nil)
	defer exec.Close()

	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := exec.Execute(ctx, func(*lua.LState) error {
		<-release
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Execute() error = %v, want deadline exceeded", err)
	}
}

func TestExecutorClose(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	exec := NewExecutor(L, 10, nil)
	exec.Close()
	exec.Close()

	if !exec.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
	if err := exec.Execute(context.Background(), func(*lua.LState) error { return nil }); err != ErrExecutorClosed {
		t.Errorf("Execute() error = %v, want ErrExecutorClosed", err)
	}
	if err := exec.ExecuteAsync(func(*lua.LState) error { return nil }); err != ErrExecutorClosed {
		t.Errorf("ExecuteAsync() error = %v, want ErrExecutorClosed", err)
	}
}
