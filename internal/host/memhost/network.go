package memhost

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnknownAgent is returned when sending to an unregistered agent.
	ErrUnknownAgent = errors.New("unknown agent")

	// ErrAgentExists is returned when registering an id twice.
	ErrAgentExists = errors.New("agent already registered")
)

// Handler receives a message for an agent. A nil return acknowledges it.
type Handler func(ctx context.Context, sender string, payload []byte) error

// Network routes messages between agents by id.
type Network struct {
	mu     sync.RWMutex
	agents map[string]Handler
}

// NewNetwork creates a network with no agents.
func NewNetwork() *Network {
	return &Network{agents: make(map[string]Handler)}
}

// Register attaches h as the agent id.
func (n *Network) Register(id string, h Handler) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.agents[id]; ok {
		return fmt.Errorf("%w: %q", ErrAgentExists, id)
	}
	n.agents[id] = h
	return nil
}

// Unregister detaches the agent id.
func (n *Network) Unregister(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.agents, id)
}

// Endpoint returns a messenger that sends as the agent from.
func (n *Network) Endpoint(from string) *Endpoint {
	return &Endpoint{net: n, from: from}
}

func (n *Network) handler(id string) (Handler, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	h, ok := n.agents[id]
	return h, ok
}

// Endpoint sends messages on behalf of one agent.
type Endpoint struct {
	net  *Network
	from string
}

// Send delivers payload to the agent to and waits for its answer or the
// end of ctx. The receiver gets its own copy of payload.
func (e *Endpoint) Send(ctx context.Context, to string, payload []byte) error {
	h, ok := e.net.handler(to)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAgent, to)
	}

	msg := append([]byte(nil), payload...)
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("agent %q panicked: %v", to, r)
			}
		}()
		done <- h(ctx, e.from, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
