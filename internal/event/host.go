package event

import (
	"slices"

	"github.com/dshills/contextlets/internal/bridge"
)

// Host event topics.
const (
	TopicInstalled       Topic = "runtime.installed"
	TopicStartup         Topic = "runtime.startup"
	TopicStorageChanged  Topic = "storage.changed"
	TopicMenuClicked     Topic = "menu.clicked"
	TopicMessage         Topic = "runtime.message"
	TopicExternalMessage Topic = "runtime.message.external"
)

// Lifecycle is the payload of install and startup events.
type Lifecycle struct {
	// Reason is "install", "update" or "startup".
	Reason string
}

// StorageChange lists the top-level settings fields that changed.
type StorageChange struct {
	Area   string
	Fields []string
}

// Has reports whether field is among the changed fields.
func (c StorageChange) Has(field string) bool {
	return slices.Contains(c.Fields, field)
}

// MenuClick is a host menu activation.
type MenuClick struct {
	Info bridge.ClickInfo
	Tab  *bridge.Tab
}

// Message is a raw message between agents or between scopes of one agent.
type Message struct {
	// Sender is the sending agent's id.
	Sender string

	// Tab is the sending tab for messages from the content scope.
	Tab *bridge.Tab

	Payload []byte
}
