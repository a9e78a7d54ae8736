// Package router connects host events to the federation pipeline and the
// execution bridge. It is the only component that subscribes to host
// events.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dshills/contextlets/internal/bridge"
	"github.com/dshills/contextlets/internal/config"
	"github.com/dshills/contextlets/internal/event"
	"github.com/dshills/contextlets/internal/federation"
	"github.com/dshills/contextlets/internal/menu"
	"github.com/dshills/contextlets/internal/wire"
)

// ErrUnauthorizedSender is returned for external messages from agents that
// own no items in the current registry.
var ErrUnauthorizedSender = errors.New("sender owns no menu items")

// Materializer commits a partitioned registry.
type Materializer interface {
	Materialize(ctx context.Context, reg *menu.Registry) (*federation.Report, error)
	IsRegistered(agentID string) bool
}

// Dispatcher runs item code.
type Dispatcher interface {
	HandleClick(ctx context.Context, info bridge.ClickInfo, tab *bridge.Tab) error
	Execute(ctx context.Context, msg bridge.TriggerMessage) error
}

// Router reacts to host events.
type Router struct {
	local      string
	items      bridge.ItemSource
	mat        Materializer
	dispatcher Dispatcher
	logger     *slog.Logger

	bus  *event.Bus
	subs []*event.Subscription
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Router for the agent local.
func New(local string, items bridge.ItemSource, mat Materializer, dispatcher Dispatcher, opts ...Option) *Router {
	r := &Router{
		local:      local,
		items:      items,
		mat:        mat,
		dispatcher: dispatcher,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attach subscribes the router to bus. It fails if already attached.
func (r *Router) Attach(bus *event.Bus) error {
	if r.bus != nil {
		return errors.New("router already attached")
	}

	handlers := []struct {
		topic event.Topic
		fn    event.Handler
	}{
		{event.TopicInstalled, r.onLifecycle},
		{event.TopicStartup, r.onLifecycle},
		{event.TopicStorageChanged, r.onStorageChanged},
		{event.TopicMenuClicked, r.onClicked},
		{event.TopicMessage, r.onMessage},
		{event.TopicExternalMessage, r.onExternalMessage},
	}

	subs := make([]*event.Subscription, 0, len(handlers))
	for _, h := range handlers {
		sub, err := bus.Subscribe(h.topic, h.fn)
		if err != nil {
			for _, s := range subs {
				bus.Unsubscribe(s)
			}
			return fmt.Errorf("subscribing to %s: %w", h.topic, err)
		}
		subs = append(subs, sub)
	}

	r.bus = bus
	r.subs = subs
	return nil
}

// Detach removes the router's subscriptions.
func (r *Router) Detach() {
	if r.bus == nil {
		return
	}
	for _, s := range r.subs {
		r.bus.Unsubscribe(s)
	}
	r.bus, r.subs = nil, nil
}

// Update runs a full pass: read the items, partition them, materialize.
func (r *Router) Update(ctx context.Context) (*federation.Report, error) {
	defs, err := r.items.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading items: %w", err)
	}

	reg := menu.Partition(r.local, defs)
	r.logger.Debug("menu partitioned", "definitions", len(defs), "owners", reg.Owners(), "items", reg.ItemCount())

	report, err := r.mat.Materialize(ctx, reg)
	if err != nil {
		r.logger.Warn("materialize pass failed", "error", err)
		return report, err
	}
	r.logReport(report)
	return report, nil
}

func (r *Router) logReport(report *federation.Report) {
	attrs := []any{
		"pass", report.PassID,
		"owners", len(report.Results),
		"committed", report.Count(federation.OutcomeCommitted),
		"delegated", report.Count(federation.OutcomeDelegated),
		"duration", report.Duration(),
	}
	if report.Complete() {
		r.logger.Debug("menu materialized", attrs...)
		return
	}

	attrs = append(attrs,
		"failed", report.Count(federation.OutcomeFailed),
		"skipped", report.Count(federation.OutcomeSkipped),
		"error", report.Err())
	r.logger.Warn("menu partially materialized", attrs...)
}

// HandleMessage handles a message sent from this agent's content scope.
// Messages without a code field are ignored.
func (r *Router) HandleMessage(ctx context.Context, msg event.Message) error {
	if !wire.HasCode(msg.Payload) {
		return nil
	}
	payload, err := wire.AttachTab(msg.Payload, msg.Tab)
	if err != nil {
		return err
	}
	trigger, err := wire.DecodeTrigger(payload)
	if err != nil {
		return err
	}
	return r.dispatcher.Execute(ctx, trigger)
}

// HandleExternal handles a message from another agent. Only agents owning
// items in the current registry are heard.
func (r *Router) HandleExternal(ctx context.Context, msg event.Message) error {
	if !r.mat.IsRegistered(msg.Sender) {
		return fmt.Errorf("%w: %q", ErrUnauthorizedSender, msg.Sender)
	}

	switch wire.Kind(msg.Payload) {
	case wire.TypeClicked:
		info, tab, err := wire.DecodeClicked(msg.Payload)
		if err != nil {
			r.logger.Debug("ignoring clicked message", "sender", msg.Sender, "error", err)
			return nil
		}
		return r.dispatcher.HandleClick(ctx, info, tab)
	case wire.TypeUpdate:
		_, err := r.Update(ctx)
		return err
	default:
		return nil
	}
}

func (r *Router) onLifecycle(ctx context.Context, _ event.Envelope) error {
	_, err := r.Update(ctx)
	return err
}

func (r *Router) onStorageChanged(ctx context.Context, ev event.Envelope) error {
	change, ok := event.Payload[event.StorageChange](ev)
	if !ok || !change.Has(config.FieldItems) {
		return nil
	}
	_, err := r.Update(ctx)
	return err
}

func (r *Router) onClicked(ctx context.Context, ev event.Envelope) error {
	click, ok := event.Payload[event.MenuClick](ev)
	if !ok {
		return nil
	}
	return r.dispatcher.HandleClick(ctx, click.Info, click.Tab)
}

func (r *Router) onMessage(ctx context.Context, ev event.Envelope) error {
	msg, ok := event.Payload[event.Message](ev)
	if !ok {
		return nil
	}
	return r.HandleMessage(ctx, msg)
}

func (r *Router) onExternalMessage(ctx context.Context, ev event.Envelope) error {
	msg, ok := event.Payload[event.Message](ev)
	if !ok {
		return nil
	}
	err := r.HandleExternal(ctx, msg)
	if errors.Is(err, ErrUnauthorizedSender) {
		r.logger.Debug("ignoring message from unregistered agent", "sender", msg.Sender)
		return nil
	}
	return err
}
