// Package helper implements a remote renderer agent: an agent that owns
// items in the primary agent's menu but renders them on its own surface.
//
// The primary delegates the owner's items with an items message; the
// helper replaces its surface contents with them and acknowledges by
// returning nil. Clicks on the helper's surface go back to the primary as
// clicked messages so the items' code runs there.
package helper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dshills/contextlets/internal/bridge"
	"github.com/dshills/contextlets/internal/federation"
	"github.com/dshills/contextlets/internal/menu"
	"github.com/dshills/contextlets/internal/wire"
)

var (
	// ErrForeignSender is returned for messages not sent by the primary.
	ErrForeignSender = errors.New("message not from the primary agent")

	// ErrUnexpectedMessage is returned for message kinds a helper does
	// not accept.
	ErrUnexpectedMessage = errors.New("unexpected message")
)

// Agent is a remote renderer.
type Agent struct {
	id        string
	primary   string
	surface   federation.Surface
	messenger federation.Messenger
	logger    *slog.Logger

	mu    sync.Mutex
	items []menu.RenderedItem
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the agent's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates a helper identified by id that renders for primary.
func New(id, primary string, surface federation.Surface, messenger federation.Messenger, opts ...Option) *Agent {
	a := &Agent{
		id:        id,
		primary:   primary,
		surface:   surface,
		messenger: messenger,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ID returns the helper's agent id.
func (a *Agent) ID() string { return a.id }

// Items returns the items of the last accepted delegation.
func (a *Agent) Items() []menu.RenderedItem {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]menu.RenderedItem(nil), a.items...)
}

// Receive handles a message from sender. A nil return acknowledges it.
func (a *Agent) Receive(ctx context.Context, sender string, payload []byte) error {
	if sender != a.primary {
		return fmt.Errorf("%w: %q", ErrForeignSender, sender)
	}

	switch kind := wire.Kind(payload); kind {
	case wire.TypeItems:
		items, err := wire.DecodeItems(payload)
		if err != nil {
			return err
		}
		return a.render(ctx, items)
	default:
		return fmt.Errorf("%w: type %q", ErrUnexpectedMessage, kind)
	}
}

// render replaces the surface contents. The delegation is acknowledged
// only if every item was created.
func (a *Agent) render(ctx context.Context, items []menu.RenderedItem) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.surface.RemoveAll(ctx); err != nil {
		return fmt.Errorf("resetting surface: %w", err)
	}
	a.items = nil

	var errs []error
	for _, item := range items {
		if err := a.surface.Create(ctx, item); err != nil {
			errs = append(errs, fmt.Errorf("creating %s: %w", item.ID, err))
			continue
		}
		a.items = append(a.items, item)
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	a.logger.Debug("helper rendered items", "agent", a.id, "items", len(items))
	return nil
}

// Click forwards a click on the helper's surface to the primary.
func (a *Agent) Click(ctx context.Context, info bridge.ClickInfo, tab *bridge.Tab) error {
	payload, err := wire.EncodeClicked(info, tab)
	if err != nil {
		return err
	}
	return a.messenger.Send(ctx, a.primary, payload)
}

// RequestUpdate asks the primary to run a new pass.
func (a *Agent) RequestUpdate(ctx context.Context) error {
	payload, err := wire.EncodeUpdate()
	if err != nil {
		return err
	}
	return a.messenger.Send(ctx, a.primary, payload)
}
