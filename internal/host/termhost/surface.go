// Package termhost renders the materialized menu in a terminal and turns
// key presses into menu clicks.
package termhost

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/contextlets/internal/bridge"
	"github.com/dshills/contextlets/internal/menu"
)

// ClickFunc is called when the user activates an item.
type ClickFunc func(ctx context.Context, info bridge.ClickInfo, tab *bridge.Tab) error

var (
	styleHeader   = tcell.StyleDefault.Bold(true)
	styleItem     = tcell.StyleDefault
	styleSelected = tcell.StyleDefault.Reverse(true)
	styleDisabled = tcell.StyleDefault.Dim(true)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

// Surface is a terminal menu. It implements federation.Surface.
type Surface struct {
	screen  tcell.Screen
	tab     bridge.Tab
	onClick ClickFunc

	mu       sync.Mutex
	items    []menu.RenderedItem
	rows     []int // item indexes in display order
	selected int
	status   string
}

// New creates a surface drawing on screen. Clicks are reported for tab.
func New(screen tcell.Screen, tab bridge.Tab, onClick ClickFunc) *Surface {
	return &Surface{screen: screen, tab: tab, onClick: onClick}
}

// NewTerminal creates a surface on the process terminal.
func NewTerminal(tab bridge.Tab, onClick ClickFunc) (*Surface, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return New(screen, tab, onClick), nil
}

// Init prepares the screen.
func (s *Surface) Init() error {
	if err := s.screen.Init(); err != nil {
		return err
	}
	s.screen.EnableMouse()
	s.Draw()
	return nil
}

// Fini restores the terminal.
func (s *Surface) Fini() {
	s.screen.Fini()
}

// RemoveAll clears the menu.
func (s *Surface) RemoveAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.items = nil
	s.layout()
	s.mu.Unlock()

	s.Draw()
	return nil
}

// Create adds item to the menu.
func (s *Surface) Create(ctx context.Context, item menu.RenderedItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	for _, existing := range s.items {
		if existing.ID == item.ID {
			s.mu.Unlock()
			return fmt.Errorf("duplicate menu item id %s", item.ID)
		}
	}
	s.items = append(s.items, item)
	s.layout()
	s.mu.Unlock()

	s.Draw()
	return nil
}

// layout orders page-class items before object-class ones. Caller holds mu.
func (s *Surface) layout() {
	s.rows = s.rows[:0]
	for _, class := range []menu.Class{menu.ClassPage, menu.ClassObject} {
		for i, item := range s.items {
			if item.Class() == class {
				s.rows = append(s.rows, i)
			}
		}
	}
	if s.selected >= len(s.rows) {
		s.selected = max(len(s.rows)-1, 0)
	}
}

// Items returns the menu items in creation order.
func (s *Surface) Items() []menu.RenderedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]menu.RenderedItem(nil), s.items...)
}

// Selected returns the highlighted item.
func (s *Surface) Selected() (menu.RenderedItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rows) == 0 {
		return menu.RenderedItem{}, false
	}
	return s.items[s.rows[s.selected]], true
}

// Status returns the last status line.
func (s *Surface) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}
