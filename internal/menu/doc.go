// Package menu models contextual menu items and compiles them into
// per-owner renderer sets.
//
// An ItemDefinition is what a user configures: a title, the contexts it
// appears in, URL patterns, the code it runs and the scope that code runs
// in. Browsers interpret URL patterns differently depending on the context
// a menu is shown for, so each definition is split by context class:
//
//   - page-class contexts (editable, frame, page, password, selection, tab)
//     match the pattern against the document URL
//   - object-class contexts (everything else) match it against the target
//     URL (link, image, media source)
//
// A definition whose contexts span both classes therefore yields two
// RenderedItems, suffixed "-page" and "-object".
//
// # Partitioning
//
//	reg := menu.Partition("local-agent", defs)
//	for _, r := range reg.Renderers() {
//	    fmt.Println(r.OwnerID, len(r.Items))
//	}
//
// Partition is pure. The resulting Registry is handed to the federation
// package which commits it to the host and to remote owners.
package menu
