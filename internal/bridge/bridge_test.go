package bridge

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/dshills/contextlets/internal/menu"
)

// mockRunner records every API it is asked to run.
type mockRunner struct {
	mu       sync.Mutex
	run      []*API
	deferred []*API
	err      error
}

func (m *mockRunner) Run(_ context.Context, api *API) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.run = append(m.run, api)
	return m.err
}

func (m *mockRunner) RunDeferred(api *API) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deferred = append(m.deferred, api)
	return m.err
}

// mockTabs records messages sent to tabs.
type mockTabs struct {
	mu   sync.Mutex
	sent []sentMessage
}

type sentMessage struct {
	tabID int
	msg   TriggerMessage
}

func (m *mockTabs) SendToTab(_ context.Context, tabID int, msg TriggerMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{tabID, msg})
	return nil
}

type staticItems []menu.ItemDefinition

func (s staticItems) Items(context.Context) ([]menu.ItemDefinition, error) {
	return s, nil
}

func newTestBridge(defs ...menu.ItemDefinition) (*Bridge, *mockRunner, *mockTabs) {
	runner := &mockRunner{}
	tabs := &mockTabs{}
	return NewBackground(runner, tabs, staticItems(defs)), runner, tabs
}

func TestRunAsContentClosure(t *testing.T) {
	b, runner, tabs := newTestBridge()
	origin := TriggerMessage{Code: Source("x = 1"), Tab: &Tab{ID: 7}}

	fn := Closure("return function(self) end", []int{0})
	params := map[string]any{"x": 1}

	if err := b.RunAs(context.Background(), origin, "content", fn, params); err != nil {
		t.Fatalf("RunAs() error = %v", err)
	}

	if len(tabs.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(tabs.sent))
	}
	sent := tabs.sent[0]
	if sent.tabID != 7 {
		t.Errorf("tabID = %d, want 7", sent.tabID)
	}
	if !sent.msg.Code.IsClosure() {
		t.Error("code is not a closure descriptor")
	}
	if got, want := sent.msg.Code.String(), fn.String(); got != want {
		t.Errorf("code = %q, want %q", got, want)
	}
	if !reflect.DeepEqual(sent.msg.Params, params) {
		t.Errorf("params = %v, want %v", sent.msg.Params, params)
	}
	if len(runner.run)+len(runner.deferred) != 0 {
		t.Error("content delivery ran code locally")
	}

	// Origin untouched.
	if origin.Code.String() != "x = 1" || origin.Params != nil {
		t.Errorf("origin modified: %+v", origin)
	}
}

func TestRunAsBackgroundIsDeferred(t *testing.T) {
	b, runner, tabs := newTestBridge()
	origin := TriggerMessage{Tab: &Tab{ID: 1}}

	if err := b.RunAs(context.Background(), origin, "background", Source("print(1)"), nil); err != nil {
		t.Fatalf("RunAs() error = %v", err)
	}

	if len(runner.run) != 0 {
		t.Error("background RunAs ran synchronously")
	}
	if len(runner.deferred) != 1 {
		t.Fatalf("deferred = %d, want 1", len(runner.deferred))
	}
	if got := runner.deferred[0].Code().String(); got != "print(1)" {
		t.Errorf("deferred code = %q", got)
	}
	if len(tabs.sent) != 0 {
		t.Error("background RunAs sent to a tab")
	}
}

func TestRunAsUnknownScope(t *testing.T) {
	b, runner, tabs := newTestBridge()

	err := b.RunAs(context.Background(), TriggerMessage{Tab: &Tab{ID: 1}}, "unknown", Source(""), nil)

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("RunAs() error = %v, want *ConfigurationError", err)
	}
	if cfgErr.Scope != "unknown" {
		t.Errorf("Scope = %q", cfgErr.Scope)
	}
	if !errors.Is(err, ErrUnrecognizedScope) {
		t.Error("errors.Is(err, ErrUnrecognizedScope) = false")
	}
	if len(tabs.sent)+len(runner.run)+len(runner.deferred) != 0 {
		t.Error("something was dispatched for an unknown scope")
	}
}

func TestRunAsContentWithoutTab(t *testing.T) {
	b, _, _ := newTestBridge()

	err := b.RunAs(context.Background(), TriggerMessage{}, "content", Source(""), nil)
	if !errors.Is(err, ErrNoTab) {
		t.Errorf("RunAs() error = %v, want ErrNoTab", err)
	}
}

func TestHandleClickResolvesSuffix(t *testing.T) {
	def := menu.ItemDefinition{ID: "42", Code: "print('hi')", Scope: "background"}
	b, runner, _ := newTestBridge(menu.ItemDefinition{ID: "41", Scope: "content"}, def)

	info := ClickInfo{MenuItemID: "42-object", LinkURL: "https://example.com"}
	tab := &Tab{ID: 3}

	if err := b.HandleClick(context.Background(), info, tab); err != nil {
		t.Fatalf("HandleClick() error = %v", err)
	}
	if len(runner.run) != 1 {
		t.Fatalf("run = %d, want 1", len(runner.run))
	}

	msg := runner.run[0].Trigger()
	if msg.ItemSettings == nil || msg.ItemSettings.ID != "42" {
		t.Errorf("itemSettings = %+v", msg.ItemSettings)
	}
	if msg.Code.String() != "print('hi')" {
		t.Errorf("code = %q", msg.Code.String())
	}
	if msg.Params != nil {
		t.Errorf("params = %v, want nil", msg.Params)
	}
	if msg.Tab != tab || msg.Info.MenuItemID != "42-object" {
		t.Errorf("click context not carried: %+v", msg)
	}
}

func TestHandleClickContentScope(t *testing.T) {
	b, runner, tabs := newTestBridge(menu.ItemDefinition{ID: "9", Code: "x()", Scope: "content"})

	if err := b.HandleClick(context.Background(), ClickInfo{MenuItemID: "9-page"}, &Tab{ID: 12}); err != nil {
		t.Fatalf("HandleClick() error = %v", err)
	}
	if len(runner.run) != 0 {
		t.Error("content item ran in background")
	}
	if len(tabs.sent) != 1 || tabs.sent[0].tabID != 12 {
		t.Fatalf("sent = %+v", tabs.sent)
	}
}

func TestHandleClickUnknownItem(t *testing.T) {
	b, runner, tabs := newTestBridge(menu.ItemDefinition{ID: "1", Scope: "background"})

	if err := b.HandleClick(context.Background(), ClickInfo{MenuItemID: "stale-page"}, &Tab{ID: 1}); err != nil {
		t.Fatalf("HandleClick() error = %v, want nil", err)
	}
	if len(runner.run)+len(tabs.sent) != 0 {
		t.Error("unknown item was dispatched")
	}

	_, err := b.Resolve(context.Background(), ClickInfo{MenuItemID: "stale-page"})
	var unknown *UnknownItemError
	if !errors.As(err, &unknown) || unknown.ID != "stale" {
		t.Errorf("Resolve() error = %v, want UnknownItemError{stale}", err)
	}
}

func TestResolveMatchesIDsExactly(t *testing.T) {
	b, _, _ := newTestBridge(
		menu.ItemDefinition{ID: " padded ", Scope: "background"},
		menu.ItemDefinition{ID: "plain", Scope: "background"},
	)

	tests := []struct {
		clicked ItemID
		want    string
		found   bool
	}{
		{" padded -page", " padded ", true},
		{"plain-object", "plain", true},
		{"padded-page", "", false},
		{" plain-page", "", false},
	}
	for _, tt := range tests {
		def, err := b.Resolve(context.Background(), ClickInfo{MenuItemID: tt.clicked})
		if tt.found {
			if err != nil || def.ID != tt.want {
				t.Errorf("Resolve(%q) = %q, %v, want %q", tt.clicked, def.ID, err, tt.want)
			}
			continue
		}
		if !errors.Is(err, ErrUnknownItem) {
			t.Errorf("Resolve(%q) error = %v, want ErrUnknownItem", tt.clicked, err)
		}
	}
}

func TestHandleClickBadScope(t *testing.T) {
	b, runner, tabs := newTestBridge(menu.ItemDefinition{ID: "1", Scope: "sideways"})

	err := b.HandleClick(context.Background(), ClickInfo{MenuItemID: "1-page"}, &Tab{ID: 1})
	if !errors.Is(err, ErrUnrecognizedScope) {
		t.Fatalf("HandleClick() error = %v, want ConfigurationError", err)
	}
	if len(runner.run)+len(tabs.sent) != 0 {
		t.Error("dispatched despite bad scope")
	}
}

func TestExecuteRunsLocally(t *testing.T) {
	b, runner, _ := newTestBridge()

	if err := b.Execute(context.Background(), TriggerMessage{Code: Source("y = 2")}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(runner.run) != 1 {
		t.Fatalf("run = %d, want 1", len(runner.run))
	}
}

func TestAPIRunAsForwardsOriginal(t *testing.T) {
	b, _, tabs := newTestBridge()
	origin := TriggerMessage{Code: Source("a"), Tab: &Tab{ID: 5, URL: "https://a"}}

	api, err := b.API(origin)
	if err != nil {
		t.Fatalf("API() error = %v", err)
	}

	if err := api.RunAs(context.Background(), "content", Source("b"), nil); err != nil {
		t.Fatalf("RunAs() error = %v", err)
	}
	if len(tabs.sent) != 1 || tabs.sent[0].msg.Tab.URL != "https://a" {
		t.Fatalf("sent = %+v", tabs.sent)
	}
}
