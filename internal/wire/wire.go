// Package wire defines the messages exchanged between agents.
//
// Field names are part of the public protocol:
//
//	{"type": "items", "items": [...]}        delegated item set
//	{"type": "update"}                        forced re-materialization
//	{"type": "clicked", "info": ..., "tab": ...} delegated click replay
//
// plus any object carrying a "code" field, which is a code execution
// request from the content scope. Inbound payloads are inspected with
// gjson before decoding so presence checks match the sender's intent: a
// field that is present but null still counts as present.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/contextlets/internal/bridge"
	"github.com/dshills/contextlets/internal/menu"
)

// Message kinds.
const (
	TypeItems   = "items"
	TypeUpdate  = "update"
	TypeClicked = "clicked"
)

// ItemsMessage delegates an item set to a remote owner.
type ItemsMessage struct {
	Type  string              `json:"type"`
	Items []menu.RenderedItem `json:"items"`
}

// UpdateMessage asks the receiver to re-materialize its menu.
type UpdateMessage struct {
	Type string `json:"type"`
}

// ClickedMessage replays a click on a delegated item.
type ClickedMessage struct {
	Type string           `json:"type"`
	Info bridge.ClickInfo `json:"info"`
	Tab  *bridge.Tab      `json:"tab"`
}

// EncodeItems encodes an items message. A nil item list encodes as [].
func EncodeItems(items []menu.RenderedItem) ([]byte, error) {
	if items == nil {
		items = []menu.RenderedItem{}
	}
	return json.Marshal(ItemsMessage{Type: TypeItems, Items: items})
}

// EncodeUpdate encodes an update request.
func EncodeUpdate() ([]byte, error) {
	return json.Marshal(UpdateMessage{Type: TypeUpdate})
}

// EncodeClicked encodes a click replay.
func EncodeClicked(info bridge.ClickInfo, tab *bridge.Tab) ([]byte, error) {
	return json.Marshal(ClickedMessage{Type: TypeClicked, Info: info, Tab: tab})
}

// EncodeTrigger encodes a code execution request.
func EncodeTrigger(msg bridge.TriggerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// AttachTab sets the tab of a code request that carries no tab object,
// the way the host stamps messages sent from a page. Other fields are left
// byte for byte as the sender wrote them.
func AttachTab(payload []byte, tab *bridge.Tab) ([]byte, error) {
	if tab == nil || gjson.GetBytes(payload, "tab").IsObject() {
		return payload, nil
	}
	out, err := sjson.SetBytes(payload, "tab", tab)
	if err != nil {
		return nil, fmt.Errorf("attaching tab: %w", err)
	}
	return out, nil
}

// Kind returns the "type" field of a payload, or "" if absent.
func Kind(payload []byte) string {
	return gjson.GetBytes(payload, "type").String()
}

// HasFields reports whether payload is a JSON object carrying every named
// top-level field.
func HasFields(payload []byte, names ...string) bool {
	if !gjson.ValidBytes(payload) {
		return false
	}
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return false
	}
	for _, name := range names {
		if !root.Get(gjson.Escape(name)).Exists() {
			return false
		}
	}
	return true
}

// HasCode reports whether payload is a code execution request.
func HasCode(payload []byte) bool {
	return HasFields(payload, "code")
}

// DecodeItems decodes an items message.
func DecodeItems(payload []byte) ([]menu.RenderedItem, error) {
	if Kind(payload) != TypeItems {
		return nil, fmt.Errorf("not an items message: type %q", Kind(payload))
	}
	var msg ItemsMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("decoding items message: %w", err)
	}
	return msg.Items, nil
}

// DecodeClicked decodes a click replay. Both info and tab must be present.
func DecodeClicked(payload []byte) (bridge.ClickInfo, *bridge.Tab, error) {
	if !HasFields(payload, "info", "tab") {
		return bridge.ClickInfo{}, nil, fmt.Errorf("clicked message lacks info or tab")
	}
	var msg ClickedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return bridge.ClickInfo{}, nil, fmt.Errorf("decoding clicked message: %w", err)
	}
	return msg.Info, msg.Tab, nil
}

// DecodeTrigger decodes a code execution request.
func DecodeTrigger(payload []byte) (bridge.TriggerMessage, error) {
	var msg bridge.TriggerMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return bridge.TriggerMessage{}, fmt.Errorf("decoding trigger message: %w", err)
	}
	return msg, nil
}
