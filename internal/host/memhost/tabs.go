package memhost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/dshills/contextlets/internal/bridge"
	"github.com/dshills/contextlets/internal/event"
	"github.com/dshills/contextlets/internal/script"
	"github.com/dshills/contextlets/internal/wire"
)

var (
	// ErrNoSuchTab is returned for messages to a tab that is not open.
	ErrNoSuchTab = errors.New("no such tab")

	// ErrTabExists is returned when opening a tab id twice.
	ErrTabExists = errors.New("tab already open")

	// ErrTabsClosed is returned after Close.
	ErrTabsClosed = errors.New("tabs closed")

	// ErrOutboxFull is returned when the background outbox cannot take
	// another message.
	ErrOutboxFull = errors.New("background outbox full")
)

// PostFunc delivers a content-scope message to the background scope.
type PostFunc func(ctx context.Context, msg event.Message) error

// DefaultOutboxSize is the default capacity of the background outbox.
const DefaultOutboxSize = 64

// Tabs runs the content scope of every open tab. Each tab has its own Lua
// engine. Messages from content code to the background go through one
// ordered outbox so that a background run waiting on a tab never waits on
// itself.
type Tabs struct {
	agent      string
	post       PostFunc
	logger     *slog.Logger
	engineOpts []script.Option
	output     func(tabID int) io.Writer
	onError    func(tabID int, err error)

	mu   sync.Mutex
	tabs map[int]*TabRuntime

	outbox    chan outgoing
	stop      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

type outgoing struct {
	msg  event.Message
	done chan struct{}
}

// TabsOption configures Tabs.
type TabsOption func(*Tabs)

// WithTabsLogger sets the logger for content-scope failures.
func WithTabsLogger(logger *slog.Logger) TabsOption {
	return func(t *Tabs) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithEngineOptions adds options to every tab engine.
func WithEngineOptions(opts ...script.Option) TabsOption {
	return func(t *Tabs) {
		t.engineOpts = append(t.engineOpts, opts...)
	}
}

// WithTabOutput gives each tab's print output a destination.
func WithTabOutput(fn func(tabID int) io.Writer) TabsOption {
	return func(t *Tabs) {
		t.output = fn
	}
}

// WithTabErrorHandler receives errors of content-scope runs.
func WithTabErrorHandler(fn func(tabID int, err error)) TabsOption {
	return func(t *Tabs) {
		t.onError = fn
	}
}

// WithOutboxSize sets the outbox capacity.
func WithOutboxSize(n int) TabsOption {
	return func(t *Tabs) {
		if n > 0 {
			t.outbox = make(chan outgoing, n)
		}
	}
}

// NewTabs creates the content runtime of agent. post receives messages
// for the background scope.
func NewTabs(agent string, post PostFunc, opts ...TabsOption) *Tabs {
	t := &Tabs{
		agent:   agent,
		post:    post,
		logger:  slog.Default(),
		tabs:    make(map[int]*TabRuntime),
		outbox:  make(chan outgoing, DefaultOutboxSize),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	go t.forward()
	return t
}

func (t *Tabs) forward() {
	defer close(t.stopped)
	for {
		select {
		case <-t.stop:
			return
		case out := <-t.outbox:
			if out.done != nil {
				close(out.done)
				continue
			}
			if err := t.post(context.Background(), out.msg); err != nil {
				t.logger.Warn("content message to background failed", "tab", tabID(out.msg.Tab), "error", err)
			}
		}
	}
}

func tabID(tab *bridge.Tab) int {
	if tab == nil {
		return -1
	}
	return tab.ID
}

// Open starts the content scope of tab.
func (t *Tabs) Open(tab bridge.Tab) (*TabRuntime, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	select {
	case <-t.stop:
		return nil, ErrTabsClosed
	default:
	}
	if _, ok := t.tabs[tab.ID]; ok {
		return nil, fmt.Errorf("%w: %d", ErrTabExists, tab.ID)
	}

	id := tab.ID
	opts := []script.Option{
		script.WithName("content:" + strconv.Itoa(id)),
		script.WithErrorHandler(func(err error) { t.reportError(id, err) }),
	}
	if t.output != nil {
		opts = append(opts, script.WithStateOptions(script.WithOutput(t.output(id))))
	}
	opts = append(opts, t.engineOpts...)

	engine, err := script.NewEngine(opts...)
	if err != nil {
		return nil, err
	}

	rt := &TabRuntime{
		tab:    tab,
		engine: engine,
	}
	rt.bridge = bridge.New(bridge.ScopeContent, engine, outboxTransport{tabs: t})
	t.tabs[id] = rt
	return rt, nil
}

func (t *Tabs) reportError(id int, err error) {
	if t.onError != nil {
		t.onError(id, err)
		return
	}
	t.logger.Warn("content script failed", "tab", id, "error", err)
}

// Tab returns the runtime of an open tab.
func (t *Tabs) Tab(id int) (*TabRuntime, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rt, ok := t.tabs[id]
	return rt, ok
}

// CloseTab stops the content scope of tab id.
func (t *Tabs) CloseTab(id int) error {
	t.mu.Lock()
	rt, ok := t.tabs[id]
	delete(t.tabs, id)
	t.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchTab, id)
	}
	return rt.engine.Close()
}

// SendToTab queues msg for the content scope of tab id.
func (t *Tabs) SendToTab(_ context.Context, id int, msg bridge.TriggerMessage) error {
	rt, ok := t.Tab(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchTab, id)
	}
	api, err := rt.bridge.API(msg)
	if err != nil {
		return err
	}
	return rt.engine.RunDeferred(api)
}

// Flush waits until every tab has finished its queued runs and every
// message they sent to the background has been delivered.
func (t *Tabs) Flush(ctx context.Context) error {
	select {
	case <-t.stop:
		return ErrTabsClosed
	default:
	}

	t.mu.Lock()
	tabs := make([]*TabRuntime, 0, len(t.tabs))
	for _, rt := range t.tabs {
		tabs = append(tabs, rt)
	}
	t.mu.Unlock()

	for _, rt := range tabs {
		if err := rt.engine.Sync(ctx); err != nil {
			return err
		}
	}

	done := make(chan struct{})
	select {
	case t.outbox <- outgoing{done: done}:
	case <-t.stop:
		return ErrTabsClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-t.stop:
		return ErrTabsClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the outbox and every tab.
func (t *Tabs) Close() error {
	var errs []error
	t.closeOnce.Do(func() {
		t.mu.Lock()
		close(t.stop)
		tabs := t.tabs
		t.tabs = make(map[int]*TabRuntime)
		t.mu.Unlock()

		<-t.stopped
		for _, rt := range tabs {
			errs = append(errs, rt.engine.Close())
		}
	})
	return errors.Join(errs...)
}

func (t *Tabs) enqueue(msg event.Message) error {
	select {
	case <-t.stop:
		return ErrTabsClosed
	default:
	}
	select {
	case t.outbox <- outgoing{msg: msg}:
		return nil
	default:
		return ErrOutboxFull
	}
}

// outboxTransport carries content-scope requests to the background.
type outboxTransport struct {
	tabs *Tabs
}

func (o outboxTransport) Transmit(_ context.Context, msg bridge.TriggerMessage) error {
	payload, err := wire.EncodeTrigger(msg)
	if err != nil {
		return err
	}
	return o.tabs.enqueue(event.Message{Sender: o.tabs.agent, Tab: msg.Tab, Payload: payload})
}

// TabRuntime is the content scope of one tab.
type TabRuntime struct {
	tab    bridge.Tab
	engine *script.Engine
	bridge *bridge.Bridge
}

// Info returns the tab.
func (r *TabRuntime) Info() bridge.Tab { return r.tab }

// Bridge returns the tab's content-scope bridge.
func (r *TabRuntime) Bridge() *bridge.Bridge { return r.bridge }

// Engine returns the tab's Lua engine.
func (r *TabRuntime) Engine() *script.Engine { return r.engine }
