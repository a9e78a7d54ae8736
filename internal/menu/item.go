package menu

// ItemType is the kind of menu entry.
type ItemType string

// Menu item types.
const (
	TypeNormal    ItemType = "normal"
	TypeCheckbox  ItemType = "checkbox"
	TypeRadio     ItemType = "radio"
	TypeSeparator ItemType = "separator"
)

// IsKnown reports whether the type is one the host understands.
// The empty type is accepted and means normal.
func (t ItemType) IsKnown() bool {
	switch t {
	case "", TypeNormal, TypeCheckbox, TypeRadio, TypeSeparator:
		return true
	default:
		return false
	}
}

// DefaultIconSize is the size key used when an item names a single icon.
const DefaultIconSize = "16"

// Icons maps an icon size in pixels to an icon path.
type Icons map[string]string

// SingleIcon returns an Icons set holding one path at the default size.
func SingleIcon(path string) Icons {
	return Icons{DefaultIconSize: path}
}

// ItemDefinition is a configured menu item. It is read-only for the
// duration of a materialization pass.
type ItemDefinition struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Type     ItemType     `json:"type,omitempty"`
	Checked  *bool        `json:"checked,omitempty"`
	Enabled  *bool        `json:"enabled,omitempty"`
	Icons    Icons        `json:"icons,omitempty"`
	Contexts []ContextTag `json:"contexts"`

	// Patterns is a newline separated list of URL match patterns. An
	// empty value matches every URL.
	Patterns string `json:"patterns"`

	// DocumentURLPatterns and TargetURLPatterns override the patterns
	// derived from Patterns. A nil slice means unset.
	DocumentURLPatterns []string `json:"documentUrlPatterns,omitempty"`
	TargetURLPatterns   []string `json:"targetUrlPatterns,omitempty"`

	// OwnerID is the agent that renders the item. Empty means the local
	// agent.
	OwnerID string `json:"extensionId,omitempty"`

	Code  string `json:"code"`
	Scope string `json:"scope"`
}

// Owner returns the owning agent, falling back to local when unset.
func (d ItemDefinition) Owner(local string) string {
	if d.OwnerID == "" {
		return local
	}
	return d.OwnerID
}

// RenderedItem is one context-class-scoped entry handed to a menu surface.
// Field names are part of the wire protocol.
type RenderedItem struct {
	ID                  string       `json:"id"`
	Title               string       `json:"title"`
	Type                ItemType     `json:"type,omitempty"`
	Checked             *bool        `json:"checked,omitempty"`
	Enabled             *bool        `json:"enabled,omitempty"`
	Icons               Icons        `json:"icons,omitempty"`
	Contexts            []ContextTag `json:"contexts"`
	DocumentURLPatterns []string     `json:"documentUrlPatterns,omitempty"`
	TargetURLPatterns   []string     `json:"targetUrlPatterns,omitempty"`
}

// Class returns the context class the item was rendered for, derived from
// its first context.
func (r RenderedItem) Class() Class {
	if len(r.Contexts) == 0 {
		return ClassPage
	}
	return Classify(r.Contexts[0])
}

// SourceID returns the id of the definition the item was rendered from.
func (r RenderedItem) SourceID() string {
	return StripSuffix(r.ID)
}

// Bool returns a pointer to b, for the optional Checked and Enabled fields.
func Bool(b bool) *bool {
	return &b
}
