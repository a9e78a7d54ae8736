// Package config provides the user configuration: the menu item
// definitions and the editor preferences stored next to them.
//
// Settings are read from a TOML, YAML or JSON file by the loader package,
// decoded with defaults applied, optionally validated, and held by a
// Store. The Store notifies observers with a per-field diff whenever the
// settings change, either through Set or because the Watcher saw the file
// change on disk.
//
//	store := config.NewStore(l, config.WithChecker(script.Check))
//	if _, err := store.Load(ctx); err != nil {
//	    return err
//	}
//	store.Subscribe(func(changes []config.Change) {
//	    // react to changes
//	})
package config
