package wire

import (
	"testing"

	"github.com/tidwall/gjson"

	"github.com/dshills/contextlets/internal/bridge"
	"github.com/dshills/contextlets/internal/menu"
)

func TestEncodeItems(t *testing.T) {
	raw, err := EncodeItems([]menu.RenderedItem{{ID: "1-page", Title: "One", Contexts: []menu.ContextTag{menu.ContextPage}}})
	if err != nil {
		t.Fatalf("EncodeItems() error = %v", err)
	}

	if Kind(raw) != TypeItems {
		t.Errorf("Kind() = %q", Kind(raw))
	}
	if got := gjson.GetBytes(raw, "items.0.id").String(); got != "1-page" {
		t.Errorf("items.0.id = %q", got)
	}

	items, err := DecodeItems(raw)
	if err != nil {
		t.Fatalf("DecodeItems() error = %v", err)
	}
	if len(items) != 1 || items[0].Title != "One" {
		t.Errorf("DecodeItems() = %+v", items)
	}
}

func TestEncodeItemsEmpty(t *testing.T) {
	raw, _ := EncodeItems(nil)
	if got := gjson.GetBytes(raw, "items").Raw; got != "[]" {
		t.Errorf("items = %s, want []", got)
	}
}

func TestHasFields(t *testing.T) {
	tests := []struct {
		payload string
		names   []string
		want    bool
	}{
		{`{"code": "x"}`, []string{"code"}, true},
		{`{"code": null}`, []string{"code"}, true},
		{`{"type": "update"}`, []string{"code"}, false},
		{`{"info": {}, "tab": {}}`, []string{"info", "tab"}, true},
		{`{"info": {}}`, []string{"info", "tab"}, false},
		{`["code"]`, []string{"code"}, false},
		{`not json`, []string{"code"}, false},
		{`{"a.b": 1}`, []string{"a.b"}, true},
	}

	for _, tt := range tests {
		if got := HasFields([]byte(tt.payload), tt.names...); got != tt.want {
			t.Errorf("HasFields(%s, %v) = %v, want %v", tt.payload, tt.names, got, tt.want)
		}
	}
}

func TestClickedRoundTrip(t *testing.T) {
	raw, err := EncodeClicked(bridge.ClickInfo{MenuItemID: "3-object", LinkURL: "https://x"}, &bridge.Tab{ID: 8})
	if err != nil {
		t.Fatalf("EncodeClicked() error = %v", err)
	}
	if Kind(raw) != TypeClicked {
		t.Errorf("Kind() = %q", Kind(raw))
	}

	info, tab, err := DecodeClicked(raw)
	if err != nil {
		t.Fatalf("DecodeClicked() error = %v", err)
	}
	if info.MenuItemID != "3-object" || info.LinkURL != "https://x" || tab == nil || tab.ID != 8 {
		t.Errorf("DecodeClicked() = %+v, %+v", info, tab)
	}

	if _, _, err := DecodeClicked([]byte(`{"type":"clicked","info":{}}`)); err == nil {
		t.Error("DecodeClicked() accepted message without tab")
	}
}

func TestTriggerRoundTrip(t *testing.T) {
	raw, err := EncodeTrigger(bridge.TriggerMessage{
		Code:   bridge.Closure("return function() end", []int{0}),
		Params: map[string]any{"x": 1},
		Tab:    &bridge.Tab{ID: 2},
	})
	if err != nil {
		t.Fatalf("EncodeTrigger() error = %v", err)
	}
	if !HasCode(raw) {
		t.Error("HasCode() = false")
	}

	msg, err := DecodeTrigger(raw)
	if err != nil {
		t.Fatalf("DecodeTrigger() error = %v", err)
	}
	if !msg.Code.IsClosure() || msg.Tab.ID != 2 {
		t.Errorf("DecodeTrigger() = %+v", msg)
	}
	if msg.Params.(map[string]any)["x"] != float64(1) {
		t.Errorf("params = %v", msg.Params)
	}
}

func TestAttachTab(t *testing.T) {
	tab := &bridge.Tab{ID: 6, URL: "https://example.com/"}
	tests := []struct {
		name    string
		payload string
		tab     *bridge.Tab
		wantID  int64
		wantRaw string
	}{
		{"absent", `{"code":"x","extra":[1, 2]}`, tab, 6, ""},
		{"null", `{"code":"x","tab":null}`, tab, 6, ""},
		{"present", `{"code":"x","tab":{"id":3}}`, tab, 3, `{"code":"x","tab":{"id":3}}`},
		{"no sender tab", `{"code":"x"}`, nil, 0, `{"code":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AttachTab([]byte(tt.payload), tt.tab)
			if err != nil {
				t.Fatalf("AttachTab() error = %v", err)
			}
			if id := gjson.GetBytes(got, "tab.id").Int(); id != tt.wantID {
				t.Errorf("tab.id = %d, want %d", id, tt.wantID)
			}
			if tt.wantRaw != "" && string(got) != tt.wantRaw {
				t.Errorf("AttachTab() = %s, want %s", got, tt.wantRaw)
			}
			if !gjson.GetBytes(got, "code").Exists() {
				t.Errorf("code lost: %s", got)
			}
		})
	}

	got, _ := AttachTab([]byte(`{"code":"x","extra":[1, 2]}`), tab)
	if raw := gjson.GetBytes(got, "extra").Raw; raw != "[1, 2]" {
		t.Errorf("extra = %s, want untouched", raw)
	}
}

func TestEncodeUpdate(t *testing.T) {
	raw, _ := EncodeUpdate()
	if string(raw) != `{"type":"update"}` {
		t.Errorf("EncodeUpdate() = %s", raw)
	}
}
