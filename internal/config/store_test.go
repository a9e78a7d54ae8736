package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/dshills/contextlets/internal/config/loader"
	"github.com/dshills/contextlets/internal/menu"
)

// staticLoader returns a fixed map.
type staticLoader struct {
	mu   sync.Mutex
	data map[string]any
	err  error
}

func (l *staticLoader) Load() (map[string]any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return loader.Merge(nil, l.data), l.err
}

func (l *staticLoader) set(data map[string]any, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data, l.err = data, err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func itemsRaw(ids ...string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = map[string]any{"id": id, "scope": "background", "contexts": []any{"page"}}
	}
	return out
}

func TestStoreLoadAndDiff(t *testing.T) {
	src := &staticLoader{data: map[string]any{"items": itemsRaw("1")}}
	store := NewStore(src, WithLogger(quietLogger()))

	var mu sync.Mutex
	var seen [][]Change
	store.Subscribe(func(changes []Change) {
		mu.Lock()
		seen = append(seen, changes)
		mu.Unlock()
	})

	ctx := context.Background()
	changes, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(changes) != 1 || changes[0].Field != FieldItems {
		t.Errorf("first load changes = %+v", changes)
	}

	// Reloading the same content changes nothing.
	changes, err = store.Load(ctx)
	if err != nil || len(changes) != 0 {
		t.Errorf("second load = %+v, %v", changes, err)
	}

	src.set(map[string]any{"items": itemsRaw("1"), "lineNumbers": true}, nil)
	changes, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(changes) != 1 || changes[0].Field != FieldLineNumbers || changes[0].New != true {
		t.Errorf("lineNumbers changes = %+v", changes)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Errorf("observer called %d times, want 2", len(seen))
	}
}

func TestStoreLoadErrorKeepsSettings(t *testing.T) {
	src := &staticLoader{data: map[string]any{"items": itemsRaw("1")}}
	store := NewStore(src, WithLogger(quietLogger()))
	ctx := context.Background()

	if _, err := store.Load(ctx); err != nil {
		t.Fatal(err)
	}

	src.set(nil, errors.New("disk on fire"))
	if _, err := store.Load(ctx); err == nil {
		t.Fatal("Load() error = nil")
	}

	src.set(map[string]any{"items": "not a list"}, nil)
	if _, err := store.Load(ctx); err == nil {
		t.Fatal("Load() error = nil for bad items")
	}

	items, err := store.Items(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != "1" {
		t.Errorf("items after failed loads = %+v", items)
	}
}

func TestStoreValidation(t *testing.T) {
	src := &staticLoader{data: map[string]any{"items": itemsRaw("1", "1", "")}}
	store := NewStore(src, WithLogger(quietLogger()))

	if _, err := store.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := len(store.Get().Items); got != 1 {
		t.Errorf("validated items = %d, want 1", got)
	}

	src.set(map[string]any{"items": itemsRaw("1", "1", ""), "validate": false}, nil)
	if _, err := store.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := len(store.Get().Items); got != 3 {
		t.Errorf("unvalidated items = %d, want 3", got)
	}
}

func TestStoreEnvOverrides(t *testing.T) {
	src := &staticLoader{data: map[string]any{"lineNumbers": false}}
	env := loader.NewEnvLoader(EnvMapping).WithLookup(func(key string) (string, bool) {
		if key == "CONTEXTLETS_LINE_NUMBERS" {
			return "true", true
		}
		return "", false
	})
	store := NewStore(src, WithEnv(env), WithLogger(quietLogger()))

	if _, err := store.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !store.Get().LineNumbers {
		t.Error("environment override not applied")
	}
}

func TestStoreSetAndUnsubscribe(t *testing.T) {
	store := NewStore(nil, WithLogger(quietLogger()))

	calls := 0
	sub := store.Subscribe(func([]Change) { calls++ })
	store.Subscribe(func([]Change) { panic("observer bug") })

	ctx := context.Background()
	store.Set(ctx, Settings{Items: []menu.ItemDefinition{{ID: "a", Scope: "background"}}, Validate: true})
	sub.Unsubscribe()
	store.Set(ctx, Settings{Validate: true})

	if calls != 1 {
		t.Errorf("observer calls = %d, want 1", calls)
	}
	if items, _ := store.Items(ctx); len(items) != 0 {
		t.Errorf("items = %v", items)
	}
}

func TestStoreSnapshotIsolation(t *testing.T) {
	store := NewStore(nil, WithLogger(quietLogger()))
	store.Set(context.Background(), Settings{Items: []menu.ItemDefinition{{ID: "a"}}})

	snap := store.Get()
	snap.Items[0].ID = "changed"

	if got := store.Get().Items[0].ID; got != "a" {
		t.Errorf("store mutated through snapshot: %q", got)
	}
}

func TestStoreItemsContextCancelled(t *testing.T) {
	store := NewStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Items(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Items() error = %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v", err)
	}
}

func TestStoreLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contextlets.toml")
	content := `
[[items]]
id = 1
title = "Shout"
contexts = ["selection"]
scope = "content"
code = "print(api.info.selectionText)"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	l, err := loader.New(path)
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(l, WithLogger(quietLogger()))
	if _, err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []menu.ItemDefinition{{
		ID:       "1",
		Title:    "Shout",
		Contexts: []menu.ContextTag{menu.ContextSelection},
		Scope:    "content",
		Code:     "print(api.info.selectionText)",
	}}
	if got := store.Get().Items; !reflect.DeepEqual(got, want) {
		t.Errorf("items = %+v\nwant %+v", got, want)
	}
}
