// Package memhost is an in-memory host: a menu surface, a network of
// agents and a content-scope tab runtime. It backs the headless mode of
// the command and the end-to-end tests.
package memhost

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/contextlets/internal/menu"
)

// ErrDuplicateItem is returned when creating an item whose id exists.
var ErrDuplicateItem = errors.New("duplicate menu item id")

// Surface records the items of a host menu.
type Surface struct {
	mu       sync.Mutex
	items    []menu.RenderedItem
	resets   int
	resetErr error
	failures map[string]error
}

// NewSurface creates an empty surface.
func NewSurface() *Surface {
	return &Surface{failures: make(map[string]error)}
}

// RemoveAll clears the surface.
func (s *Surface) RemoveAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetErr != nil {
		return s.resetErr
	}
	s.items = nil
	s.resets++
	return nil
}

// Create appends item to the surface.
func (s *Surface) Create(ctx context.Context, item menu.RenderedItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures[item.ID]; err != nil {
		return err
	}
	for _, existing := range s.items {
		if existing.ID == item.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateItem, item.ID)
		}
	}
	s.items = append(s.items, item)
	return nil
}

// Items returns the current items in creation order.
func (s *Surface) Items() []menu.RenderedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]menu.RenderedItem(nil), s.items...)
}

// IDs returns the current item ids in creation order.
func (s *Surface) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.items))
	for i, item := range s.items {
		ids[i] = item.ID
	}
	return ids
}

// Lookup finds an item by rendered id.
func (s *Surface) Lookup(id string) (menu.RenderedItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return menu.RenderedItem{}, false
}

// Resets returns how many times the surface was cleared.
func (s *Surface) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}

// FailCreate makes Create of id fail with err. A nil err clears it.
func (s *Surface) FailCreate(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, id)
		return
	}
	s.failures[id] = err
}

// FailReset makes RemoveAll fail with err. A nil err clears it.
func (s *Surface) FailReset(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetErr = err
}
