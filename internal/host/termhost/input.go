package termhost

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/contextlets/internal/bridge"
	"github.com/dshills/contextlets/internal/menu"
)

// Draw repaints the screen.
func (s *Surface) Draw() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.screen.Clear()
	width, height := s.screen.Size()

	y := 0
	s.text(0, y, width, styleHeader, "contextlets: "+s.tab.URL)
	y++

	var class menu.Class = -1
	for pos, idx := range s.rows {
		if y >= height-1 {
			break
		}
		item := s.items[idx]
		if c := item.Class(); c != class {
			class = c
			s.text(0, y, width, styleHeader, c.String())
			y++
		}

		style := styleItem
		if item.Enabled != nil && !*item.Enabled {
			style = styleDisabled
		}
		if pos == s.selected {
			style = styleSelected
		}
		s.text(2, y, width, style, label(item))
		y++
	}

	if s.status != "" && height > 0 {
		s.text(0, height-1, width, styleStatus, s.status)
	}
	s.screen.Show()
}

func label(item menu.RenderedItem) string {
	checked := item.Checked != nil && *item.Checked
	switch item.Type {
	case menu.TypeSeparator:
		return "--------"
	case menu.TypeCheckbox:
		if checked {
			return "[x] " + item.Title
		}
		return "[ ] " + item.Title
	case menu.TypeRadio:
		if checked {
			return "(*) " + item.Title
		}
		return "( ) " + item.Title
	default:
		return item.Title
	}
}

func (s *Surface) text(x, y, width int, style tcell.Style, str string) {
	for _, r := range str {
		if x >= width {
			return
		}
		s.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// Move shifts the selection by delta rows, skipping separators.
func (s *Surface) Move(delta int) {
	s.mu.Lock()
	n := len(s.rows)
	if n > 0 {
		next := s.selected
		for range n {
			next = (next + delta + n) % n
			if s.items[s.rows[next]].Type != menu.TypeSeparator {
				s.selected = next
				break
			}
		}
	}
	s.mu.Unlock()
	s.Draw()
}

// Activate clicks the selected item. Checkbox and radio items flip their
// checked state first, as a host menu does.
func (s *Surface) Activate(ctx context.Context) error {
	s.mu.Lock()
	if len(s.rows) == 0 {
		s.mu.Unlock()
		return nil
	}
	idx := s.rows[s.selected]
	item := s.items[idx]
	if item.Type == menu.TypeSeparator || (item.Enabled != nil && !*item.Enabled) {
		s.mu.Unlock()
		return nil
	}

	info := bridge.ClickInfo{
		MenuItemID: bridge.ItemID(item.ID),
		PageURL:    s.tab.URL,
	}
	switch item.Type {
	case menu.TypeCheckbox:
		was := item.Checked != nil && *item.Checked
		info.WasChecked, info.Checked = was, !was
		s.items[idx].Checked = menu.Bool(!was)
	case menu.TypeRadio:
		info.WasChecked = item.Checked != nil && *item.Checked
		info.Checked = true
		s.checkRadio(idx)
	}
	tab := s.tab
	s.mu.Unlock()

	err := s.onClick(ctx, info, &tab)
	s.mu.Lock()
	if err != nil {
		s.status = "error: " + err.Error()
	} else {
		s.status = "clicked " + item.Title
	}
	s.mu.Unlock()
	s.Draw()
	return err
}

// checkRadio checks idx and unchecks the radio items adjacent to it.
// Caller holds mu.
func (s *Surface) checkRadio(idx int) {
	s.items[idx].Checked = menu.Bool(true)
	for i := idx - 1; i >= 0 && s.items[i].Type == menu.TypeRadio; i-- {
		s.items[i].Checked = menu.Bool(false)
	}
	for i := idx + 1; i < len(s.items) && s.items[i].Type == menu.TypeRadio; i++ {
		s.items[i].Checked = menu.Bool(false)
	}
}

// HandleEvent applies one terminal event. It reports whether the user
// asked to quit.
func (s *Surface) HandleEvent(ctx context.Context, ev tcell.Event) (quit bool, err error) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		switch e.Key() {
		case tcell.KeyUp:
			s.Move(-1)
		case tcell.KeyDown:
			s.Move(1)
		case tcell.KeyEnter:
			return false, s.Activate(ctx)
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true, nil
		case tcell.KeyRune:
			switch e.Rune() {
			case 'k':
				s.Move(-1)
			case 'j':
				s.Move(1)
			case 'q':
				return true, nil
			}
		}
	case *tcell.EventResize:
		s.screen.Sync()
		s.Draw()
	case *tcell.EventInterrupt:
		return true, nil
	}
	return false, nil
}

// Run processes terminal events until the user quits or ctx ends. Click
// failures are shown on the status line and do not stop the loop.
func (s *Surface) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = s.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()

	for {
		ev := s.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if quit, _ := s.HandleEvent(ctx, ev); quit {
			return nil
		}
	}
}
