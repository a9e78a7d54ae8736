package event

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
)

// Handler processes one event.
type Handler func(ctx context.Context, ev Envelope) error

// Subscription is a registered handler.
type Subscription struct {
	id      string
	pattern Topic
	handler Handler
}

// ID returns the subscription's unique id.
func (s *Subscription) ID() string {
	return s.id
}

// Pattern returns the topic pattern the subscription matches.
func (s *Subscription) Pattern() Topic {
	return s.pattern
}

// Bus delivers events synchronously, in subscription order, in the
// publisher's goroutine. Handlers may subscribe or publish re-entrantly.
type Bus struct {
	mu   sync.RWMutex
	subs []*Subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers h for every topic matching pattern.
func (b *Bus) Subscribe(pattern Topic, h Handler) (*Subscription, error) {
	if !pattern.IsValid() {
		return nil, ErrInvalidTopic
	}
	if h == nil {
		return nil, ErrNilHandler
	}

	sub := &Subscription{id: uuid.NewString(), pattern: pattern, handler: h}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return sub, nil
}

// Unsubscribe removes sub. Events already being delivered still reach it.
func (b *Bus) Unsubscribe(sub *Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return nil
		}
	}
	return ErrSubscriptionNotFound
}

// Len returns the number of subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers ev to every matching handler. A failing or panicking
// handler does not stop delivery to the rest; their errors are joined.
func (b *Bus) Publish(ctx context.Context, ev Envelope) error {
	if !ev.Topic.IsValid() || ev.Topic.IsPattern() {
		return ErrInvalidTopic
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var errs []error
	for _, sub := range b.matching(ev.Topic) {
		if err := sub.deliver(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) matching(t Topic) []*Subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []*Subscription
	for _, s := range b.subs {
		if t.Matches(s.pattern) {
			out = append(out, s)
		}
	}
	return out
}

func (s *Subscription) deliver(ctx context.Context, ev Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				SubscriptionID: s.id,
				Topic:          ev.Topic,
				Value:          r,
				Stack:          string(debug.Stack()),
			}
		}
	}()

	if herr := s.handler(ctx, ev); herr != nil {
		return &HandlerError{SubscriptionID: s.id, Topic: ev.Topic, Err: herr}
	}
	return nil
}

// Publish wraps payload in a new event and publishes it on b.
func Publish[T any](ctx context.Context, b *Bus, topic Topic, payload T, source string) error {
	return b.Publish(ctx, New(topic, payload, source).Envelope())
}
