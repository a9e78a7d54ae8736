package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/contextlets/internal/menu"
)

// Runner evaluates code in the bridge's local scope.
type Runner interface {
	// Run executes the API's code and waits for it to finish.
	Run(ctx context.Context, api *API) error

	// RunDeferred schedules the API's code to run after the caller has
	// returned. It only reports scheduling failures.
	RunDeferred(api *API) error
}

// Transport carries a message out of the local scope to the other one.
type Transport interface {
	Transmit(ctx context.Context, msg TriggerMessage) error
}

// TabChannel is the in-page execution channel of the host.
type TabChannel interface {
	SendToTab(ctx context.Context, tabID int, msg TriggerMessage) error
}

// ItemSource reads the current item definitions.
type ItemSource interface {
	Items(ctx context.Context) ([]menu.ItemDefinition, error)
}

// TabTransport sends messages to the content scope of the message's tab.
type TabTransport struct {
	Tabs TabChannel
}

// Transmit implements Transport.
func (t TabTransport) Transmit(ctx context.Context, msg TriggerMessage) error {
	if msg.Tab == nil {
		return ErrNoTab
	}
	return t.Tabs.SendToTab(ctx, msg.Tab.ID, msg)
}

// Bridge dispatches trigger messages into scopes.
type Bridge struct {
	local     Scope
	runner    Runner
	transport Transport
	items     ItemSource
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithItemSource sets the configuration read by HandleClick.
func WithItemSource(items ItemSource) Option {
	return func(b *Bridge) {
		b.items = items
	}
}

// New creates a bridge whose local scope is evaluated by runner. Messages
// for the other scope go through transport.
func New(local Scope, runner Runner, transport Transport, opts ...Option) *Bridge {
	b := &Bridge{
		local:     local,
		runner:    runner,
		transport: transport,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewBackground creates the bridge of the privileged background scope.
// Content-scope messages go to the tab they were triggered in.
func NewBackground(runner Runner, tabs TabChannel, items ItemSource) *Bridge {
	return New(ScopeBackground, runner, TabTransport{Tabs: tabs}, WithItemSource(items))
}

// LocalScope returns the scope this bridge evaluates in.
func (b *Bridge) LocalScope() Scope {
	return b.local
}

// API builds the API surface for msg with RunAs bound to this bridge.
func (b *Bridge) API(msg TriggerMessage) (*API, error) {
	return NewAPI(msg, b.RunAs)
}

// RunAs runs code in the named scope on behalf of code triggered by
// origin. The derived message is a shallow copy of origin with code and
// params substituted. Local execution is deferred: RunAs returns before
// the code runs.
func (b *Bridge) RunAs(ctx context.Context, origin TriggerMessage, scope string, code Code, params any) error {
	target, err := ParseScope(scope)
	if err != nil {
		return err
	}
	return b.deliver(ctx, target, DeriveMessage(origin, code, params), true)
}

// Execute runs an inbound code request in the local scope and waits for
// it. This is how the other scope asks for local execution.
func (b *Bridge) Execute(ctx context.Context, msg TriggerMessage) error {
	return b.deliver(ctx, b.local, msg, false)
}

// Resolve finds the definition a click refers to.
func (b *Bridge) Resolve(ctx context.Context, info ClickInfo) (menu.ItemDefinition, error) {
	if b.items == nil {
		return menu.ItemDefinition{}, errors.New("bridge has no item source")
	}

	defs, err := b.items.Items(ctx)
	if err != nil {
		return menu.ItemDefinition{}, fmt.Errorf("reading items: %w", err)
	}

	id := info.DefinitionID()
	for _, def := range defs {
		if def.ID == id {
			return def, nil
		}
	}
	return menu.ItemDefinition{}, &UnknownItemError{ID: id}
}

// HandleClick runs the code of the clicked item in the item's scope.
// Clicks on ids with no matching definition are ignored.
func (b *Bridge) HandleClick(ctx context.Context, info ClickInfo, tab *Tab) error {
	def, err := b.Resolve(ctx, info)
	if err != nil {
		if errors.Is(err, ErrUnknownItem) {
			return nil
		}
		return err
	}

	scope, err := ParseScope(def.Scope)
	if err != nil {
		return err
	}
	return b.deliver(ctx, scope, clickMessage(def, info, tab), false)
}

// deliver sends msg into scope: locally through the runner, otherwise
// through the transport.
func (b *Bridge) deliver(ctx context.Context, scope Scope, msg TriggerMessage, deferred bool) error {
	if scope != b.local {
		if b.transport == nil {
			return fmt.Errorf("no transport to %s scope", scope)
		}
		return b.transport.Transmit(ctx, msg)
	}

	api, err := b.API(msg)
	if err != nil {
		return err
	}
	if deferred {
		return b.runner.RunDeferred(api)
	}
	return b.runner.Run(ctx, api)
}
