package federation

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/contextlets/internal/menu"
	"github.com/dshills/contextlets/internal/wire"
)

// Surface is the host menu the local owner renders into.
type Surface interface {
	RemoveAll(ctx context.Context) error
	Create(ctx context.Context, item menu.RenderedItem) error
}

// Messenger sends a payload to another agent. A nil error is the
// agent's acknowledgment.
type Messenger interface {
	Send(ctx context.Context, agentID string, payload []byte) error
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithDelegationTimeout bounds how long a pass waits for one remote
// acknowledgment. Zero waits as long as the pass context allows.
func WithDelegationTimeout(d time.Duration) Option {
	return func(m *Materializer) {
		if d >= 0 {
			m.timeout = d
		}
	}
}

// WithContinueOnFailure keeps a pass going after a failed delegation
// instead of skipping the remaining owners.
func WithContinueOnFailure(enabled bool) Option {
	return func(m *Materializer) {
		m.continueOnFailure = enabled
	}
}

// WithClock sets the time source used for reports.
func WithClock(now func() time.Time) Option {
	return func(m *Materializer) {
		if now != nil {
			m.now = now
		}
	}
}

// Materializer runs materialization passes.
type Materializer struct {
	surface   Surface
	messenger Messenger

	timeout           time.Duration
	continueOnFailure bool
	now               func() time.Time

	// pass admits one pass at a time.
	pass chan struct{}

	current atomic.Pointer[menu.Registry]
}

// New creates a Materializer for the local agent.
func New(local string, surface Surface, messenger Messenger, opts ...Option) *Materializer {
	m := &Materializer{
		surface:   surface,
		messenger: messenger,
		now:       time.Now,
		pass:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.current.Store(menu.NewRegistry(local))
	return m
}

// Current returns the registry of the last pass that got past the reset.
func (m *Materializer) Current() *menu.Registry {
	return m.current.Load()
}

// IsRegistered reports whether agentID owns items in the current registry.
func (m *Materializer) IsRegistered(agentID string) bool {
	return m.Current().Has(agentID)
}

// Materialize commits reg to the host surface and to remote owners.
//
// It returns an error only if the pass could not start: the context ended
// while queued, or the surface reset failed. Per-owner failures are in the
// report. reg replaces the current registry once the reset succeeded, even
// if the pass then halted.
func (m *Materializer) Materialize(ctx context.Context, reg *menu.Registry) (*Report, error) {
	select {
	case m.pass <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-m.pass }()

	report := &Report{
		PassID:  uuid.NewString(),
		Started: m.now(),
	}

	if err := m.surface.RemoveAll(ctx); err != nil {
		report.Finished = m.now()
		return report, &ResetError{Err: err}
	}

	halted := false
	for _, rd := range reg.Renderers() {
		res := OwnerResult{
			OwnerID: rd.OwnerID,
			Local:   reg.IsLocal(rd),
			Items:   len(rd.Items),
		}

		switch {
		case halted:
			res.Outcome = OutcomeSkipped
		case res.Local:
			res.Outcome = OutcomeCommitted
			if err := m.create(ctx, rd.Items); err != nil {
				res.Outcome = OutcomeFailed
				res.Err = err
			}
		default:
			res.Outcome = OutcomeDelegated
			if err := m.delegate(ctx, rd); err != nil {
				res.Outcome = OutcomeFailed
				res.Err = err
				halted = !m.continueOnFailure
			}
		}

		report.Results = append(report.Results, res)
	}

	m.current.Store(reg)
	report.Finished = m.now()
	return report, nil
}

// create adds items to the surface in order. A failed item does not stop
// the remaining ones.
func (m *Materializer) create(ctx context.Context, items []menu.RenderedItem) error {
	var errs []error
	for _, item := range items {
		if err := m.surface.Create(ctx, item); err != nil {
			errs = append(errs, fmt.Errorf("creating %s: %w", item.ID, err))
		}
	}
	return errors.Join(errs...)
}

// delegate sends an owner's items and waits for the acknowledgment.
func (m *Materializer) delegate(ctx context.Context, rd *menu.Renderer) error {
	payload, err := wire.EncodeItems(rd.Items)
	if err != nil {
		return &DelegationError{OwnerID: rd.OwnerID, Err: err}
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	if err := m.messenger.Send(ctx, rd.OwnerID, payload); err != nil {
		return &DelegationError{OwnerID: rd.OwnerID, Err: err}
	}
	return nil
}
