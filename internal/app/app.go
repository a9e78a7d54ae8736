// Package app wires the contextlets components into a running agent and
// manages its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/contextlets/internal/bridge"
	"github.com/dshills/contextlets/internal/config"
	"github.com/dshills/contextlets/internal/event"
	"github.com/dshills/contextlets/internal/federation"
	"github.com/dshills/contextlets/internal/helper"
	"github.com/dshills/contextlets/internal/host/memhost"
	"github.com/dshills/contextlets/internal/host/termhost"
	"github.com/dshills/contextlets/internal/router"
	"github.com/dshills/contextlets/internal/script"
)

// DefaultAgentID is the agent id used when Options.AgentID is empty.
const DefaultAgentID = "contextlets"

// Options configures the application.
type Options struct {
	// ConfigPath is the settings file. Empty means defaults only.
	ConfigPath string

	// Watch reloads the settings file when it changes.
	Watch bool

	// AgentID identifies this agent to helpers.
	AgentID string

	// LogLevel is used when Logger is nil.
	LogLevel string

	// Logger overrides the default stderr logger.
	Logger *slog.Logger

	// Terminal renders the menu in the terminal instead of in memory.
	Terminal bool

	// Screen is the terminal screen; nil opens the process terminal.
	Screen tcell.Screen

	// Helpers are remote renderer agents to start on the in-memory network.
	Helpers []string

	// Tab is the tab the menu is shown for.
	Tab bridge.Tab

	// Output receives print output of item code from every scope, so it
	// must be safe for concurrent use. Nil discards it.
	Output io.Writer

	// DelegationTimeout bounds each wait for a helper acknowledgment.
	DelegationTimeout time.Duration
}

// Application is a running contextlets agent.
type Application struct {
	opts   Options
	logger *slog.Logger

	bus     *event.Bus
	store   *config.Store
	watcher *config.Watcher

	engine *script.Engine
	tabs   *memhost.Tabs
	bridge *bridge.Bridge

	network  *memhost.Network
	helpers  map[string]*helperAgent
	surface  federation.Surface
	terminal *termhost.Surface

	materializer *federation.Materializer
	router       *router.Router

	storeSub *config.Subscription

	running atomic.Bool
}

type helperAgent struct {
	agent   *helper.Agent
	surface *memhost.Surface
}

// New creates and wires an application. It does not run a pass; call Start.
func New(opts Options) (*Application, error) {
	if opts.AgentID == "" {
		opts.AgentID = DefaultAgentID
	}
	if opts.Tab.ID == 0 && opts.Tab.URL == "" {
		opts.Tab = bridge.Tab{ID: 1, URL: "about:blank", Active: true}
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}

	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(os.Stderr, opts.LogLevel)
	}

	a := &Application{
		opts:    opts,
		logger:  logger.With("agent", opts.AgentID),
		helpers: make(map[string]*helperAgent),
	}
	if err := newBootstrapper(a).bootstrap(); err != nil {
		return nil, err
	}
	return a, nil
}

// Start announces startup to the router, which runs the first pass.
func (a *Application) Start(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	a.logger.Info("starting", "config", a.opts.ConfigPath, "terminal", a.opts.Terminal)
	return event.Publish(ctx, a.bus, event.TopicStartup, event.Lifecycle{Reason: "startup"}, "app")
}

// Run blocks until ctx ends or, in terminal mode, the user quits.
func (a *Application) Run(ctx context.Context) error {
	if !a.running.Load() {
		return ErrNotRunning
	}
	if a.terminal != nil {
		return a.terminal.Run(ctx)
	}
	<-ctx.Done()
	return nil
}

// Shutdown stops every component. It is safe to call more than once.
func (a *Application) Shutdown() error {
	a.running.Store(false)

	var errs []error
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			errs = append(errs, &ComponentError{Component: "config watcher", Action: "close", Err: err})
		}
		a.watcher = nil
	}
	if a.storeSub != nil {
		a.storeSub.Unsubscribe()
		a.storeSub = nil
	}
	if a.router != nil {
		a.router.Detach()
	}
	if a.tabs != nil {
		if err := a.tabs.Close(); err != nil {
			errs = append(errs, &ComponentError{Component: "tabs", Action: "close", Err: err})
		}
		a.tabs = nil
	}
	if a.engine != nil {
		if err := a.engine.Close(); err != nil {
			errs = append(errs, &ComponentError{Component: "script engine", Action: "close", Err: err})
		}
		a.engine = nil
	}
	if a.terminal != nil {
		a.terminal.Fini()
		a.terminal = nil
	}
	return errors.Join(errs...)
}

// Update runs a pass immediately.
func (a *Application) Update(ctx context.Context) (*federation.Report, error) {
	return a.router.Update(ctx)
}

// Bus returns the host event bus.
func (a *Application) Bus() *event.Bus { return a.bus }

// Store returns the settings store.
func (a *Application) Store() *config.Store { return a.store }

// Surface returns the local menu surface.
func (a *Application) Surface() federation.Surface { return a.surface }

// Tabs returns the content runtime.
func (a *Application) Tabs() *memhost.Tabs { return a.tabs }

// Materializer returns the pass runner.
func (a *Application) Materializer() *federation.Materializer { return a.materializer }

// Helper returns a helper agent and the surface it renders on.
func (a *Application) Helper(id string) (*helper.Agent, *memhost.Surface, error) {
	h, ok := a.helpers[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownHelper, id)
	}
	return h.agent, h.surface, nil
}

// Click publishes a menu click for the application's tab, as the host
// menu does when an item is chosen.
func (a *Application) Click(ctx context.Context, info bridge.ClickInfo) error {
	tab := a.opts.Tab
	return event.Publish(ctx, a.bus, event.TopicMenuClicked, event.MenuClick{Info: info, Tab: &tab}, "host")
}

// Flush waits until content-scope work queued so far has finished.
func (a *Application) Flush(ctx context.Context) error {
	if err := a.tabs.Flush(ctx); err != nil {
		return err
	}
	return a.engine.Sync(ctx)
}
