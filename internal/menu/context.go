package menu

import "strings"

// ContextTag names a menu context in which an item may be shown.
type ContextTag string

// Known context tags.
const (
	ContextAll           ContextTag = "all"
	ContextAudio         ContextTag = "audio"
	ContextBookmark      ContextTag = "bookmark"
	ContextBrowserAction ContextTag = "browser_action"
	ContextEditable      ContextTag = "editable"
	ContextFrame         ContextTag = "frame"
	ContextImage         ContextTag = "image"
	ContextLauncher      ContextTag = "launcher"
	ContextLink          ContextTag = "link"
	ContextPage          ContextTag = "page"
	ContextPageAction    ContextTag = "page_action"
	ContextPassword      ContextTag = "password"
	ContextSelection     ContextTag = "selection"
	ContextTab           ContextTag = "tab"
	ContextToolsMenu     ContextTag = "tools_menu"
	ContextVideo         ContextTag = "video"
)

// AllContexts lists every known context tag.
var AllContexts = []ContextTag{
	ContextAll, ContextAudio, ContextBookmark, ContextBrowserAction,
	ContextEditable, ContextFrame, ContextImage, ContextLauncher,
	ContextLink, ContextPage, ContextPageAction, ContextPassword,
	ContextSelection, ContextTab, ContextToolsMenu, ContextVideo,
}

// IsKnown reports whether the tag is part of the known enumeration.
func (t ContextTag) IsKnown() bool {
	for _, c := range AllContexts {
		if c == t {
			return true
		}
	}
	return false
}

// Class returns the context class of the tag.
func (t ContextTag) Class() Class {
	return Classify(t)
}

// Class is the URL-matching class of a context.
type Class int

const (
	// ClassPage contexts match URL patterns against the document.
	ClassPage Class = iota
	// ClassObject contexts match URL patterns against the target.
	ClassObject
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassPage:
		return "page"
	case ClassObject:
		return "object"
	default:
		return "unknown"
	}
}

// Suffix returns the id suffix used for items of this class.
func (c Class) Suffix() string {
	return "-" + c.String()
}

// Classify returns the class of a context tag. Every tag, known or not,
// belongs to exactly one class; anything outside the page set is an
// object-class context.
func Classify(t ContextTag) Class {
	switch t {
	case ContextEditable, ContextFrame, ContextPage,
		ContextPassword, ContextSelection, ContextTab:
		return ClassPage
	default:
		return ClassObject
	}
}

// SplitContexts separates tags into page-class and object-class subsets,
// preserving input order within each subset.
func SplitContexts(tags []ContextTag) (page, object []ContextTag) {
	for _, t := range tags {
		if Classify(t) == ClassPage {
			page = append(page, t)
		} else {
			object = append(object, t)
		}
	}
	return page, object
}

// StripSuffix removes a trailing class suffix from a rendered item id.
// Ids without a suffix are returned unchanged.
func StripSuffix(id string) string {
	for _, c := range []Class{ClassPage, ClassObject} {
		if s, ok := strings.CutSuffix(id, c.Suffix()); ok {
			return s
		}
	}
	return id
}
