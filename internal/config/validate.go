package config

import (
	"errors"
	"fmt"

	"github.com/dshills/contextlets/internal/bridge"
	"github.com/dshills/contextlets/internal/menu"
)

// Validation failures.
var (
	ErrMissingID    = errors.New("item has no id")
	ErrDuplicateID  = errors.New("duplicate item id")
	ErrUnknownType  = errors.New("unknown item type")
	ErrUnknownCtx   = errors.New("unknown context")
	ErrInvalidScope = errors.New("invalid scope")
	ErrInvalidCode  = errors.New("invalid code")
)

// CodeChecker compiles code without running it.
type CodeChecker func(code bridge.Code) error

// ItemError describes one problem with a configured item. Dropped errors
// removed the item from the settings; the others are warnings.
type ItemError struct {
	Index   int
	ID      string
	Err     error
	Dropped bool
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d (%q): %v", e.Index, e.ID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// Validate checks items and returns the ones that can be rendered.
//
// Items without an id, with a reused id or with an unknown type are
// dropped. Unknown contexts, scopes and code that does not compile are
// reported but kept: the host and the click dispatch report those. check
// may be nil to skip compiling code.
func Validate(items []menu.ItemDefinition, check CodeChecker) ([]menu.ItemDefinition, []*ItemError) {
	kept := make([]menu.ItemDefinition, 0, len(items))
	var problems []*ItemError
	seen := make(map[string]bool, len(items))

	report := func(i int, def menu.ItemDefinition, err error, dropped bool) {
		problems = append(problems, &ItemError{Index: i, ID: def.ID, Err: err, Dropped: dropped})
	}

	for i, def := range items {
		switch {
		case def.ID == "":
			report(i, def, ErrMissingID, true)
			continue
		case seen[def.ID]:
			report(i, def, ErrDuplicateID, true)
			continue
		case !def.Type.IsKnown():
			report(i, def, fmt.Errorf("%w %q", ErrUnknownType, def.Type), true)
			continue
		}
		seen[def.ID] = true

		for _, c := range def.Contexts {
			if !c.IsKnown() {
				report(i, def, fmt.Errorf("%w %q", ErrUnknownCtx, c), false)
			}
		}
		if _, err := bridge.ParseScope(def.Scope); err != nil {
			report(i, def, fmt.Errorf("%w: %v", ErrInvalidScope, err), false)
		}
		if check != nil && def.Code != "" {
			if err := check(bridge.ParseCode(def.Code)); err != nil {
				report(i, def, fmt.Errorf("%w: %v", ErrInvalidCode, err), false)
			}
		}

		kept = append(kept, def)
	}

	return kept, problems
}
