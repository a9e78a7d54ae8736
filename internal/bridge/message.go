package bridge

import (
	"encoding/json"

	"github.com/dshills/contextlets/internal/menu"
)

// Tab describes the browser tab an event happened in.
type Tab struct {
	ID        int    `json:"id"`
	WindowID  int    `json:"windowId,omitempty"`
	Index     int    `json:"index,omitempty"`
	URL       string `json:"url,omitempty"`
	Title     string `json:"title,omitempty"`
	Active    bool   `json:"active,omitempty"`
	Incognito bool   `json:"incognito,omitempty"`
}

// ItemID is a menu item id. Hosts may report ids as numbers; they decode
// to their decimal text.
type ItemID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ItemID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ItemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ItemID(n.String())
	return nil
}

// ClickInfo describes a menu click as reported by the host.
type ClickInfo struct {
	MenuItemID       ItemID   `json:"menuItemId"`
	ParentMenuItemID ItemID   `json:"parentMenuItemId,omitempty"`
	MediaType        string   `json:"mediaType,omitempty"`
	LinkURL          string   `json:"linkUrl,omitempty"`
	SrcURL           string   `json:"srcUrl,omitempty"`
	PageURL          string   `json:"pageUrl,omitempty"`
	FrameURL         string   `json:"frameUrl,omitempty"`
	SelectionText    string   `json:"selectionText,omitempty"`
	Editable         bool     `json:"editable,omitempty"`
	WasChecked       bool     `json:"wasChecked,omitempty"`
	Checked          bool     `json:"checked,omitempty"`
	Modifiers        []string `json:"modifiers,omitempty"`
	Button           int      `json:"button,omitempty"`
}

// DefinitionID returns the id of the definition the clicked item was
// rendered from.
func (i ClickInfo) DefinitionID() string {
	return menu.StripSuffix(string(i.MenuItemID))
}

// TriggerMessage is the payload carried across a scope boundary.
type TriggerMessage struct {
	Code         Code                 `json:"code"`
	Params       any                  `json:"params"`
	Tab          *Tab                 `json:"tab,omitempty"`
	Info         *ClickInfo           `json:"info,omitempty"`
	ItemSettings *menu.ItemDefinition `json:"itemSettings,omitempty"`
}

// DeriveMessage returns a shallow copy of msg with code and params
// substituted. The original is not modified.
func DeriveMessage(msg TriggerMessage, code Code, params any) TriggerMessage {
	derived := msg
	derived.Code = code
	derived.Params = params
	return derived
}

// clickMessage builds the message for a click on def.
func clickMessage(def menu.ItemDefinition, info ClickInfo, tab *Tab) TriggerMessage {
	settings := def
	return TriggerMessage{
		Code:         ParseCode(def.Code),
		Params:       nil,
		Tab:          tab,
		Info:         &info,
		ItemSettings: &settings,
	}
}
