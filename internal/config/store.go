package config

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/dshills/contextlets/internal/config/loader"
	"github.com/dshills/contextlets/internal/menu"
)

// EnvMapping binds environment variables to top-level settings.
var EnvMapping = map[string]string{
	"CONTEXTLETS_LINE_NUMBERS": FieldLineNumbers,
	"CONTEXTLETS_VALIDATE":     FieldValidate,
}

// Change describes one top-level setting that differs between two loads.
type Change struct {
	Field string
	Old   any
	New   any
}

// Diff returns the fields that differ between prev and next, in the
// order items, lineNumbers, validate.
func Diff(prev, next Settings) []Change {
	var changes []Change
	if !reflect.DeepEqual(prev.Items, next.Items) {
		changes = append(changes, Change{Field: FieldItems, Old: prev.Items, New: next.Items})
	}
	if prev.LineNumbers != next.LineNumbers {
		changes = append(changes, Change{Field: FieldLineNumbers, Old: prev.LineNumbers, New: next.LineNumbers})
	}
	if prev.Validate != next.Validate {
		changes = append(changes, Change{Field: FieldValidate, Old: prev.Validate, New: next.Validate})
	}
	return changes
}

// Observer is called with the changes of one update. It is not called
// for updates that change nothing. Observers must not call Load or Set.
type Observer func(changes []Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id    uint64
	store *Store
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.store != nil {
		s.store.unsubscribe(s.id)
	}
}

// Option configures a Store.
type Option func(*Store)

// WithEnv applies overrides from env on top of the file.
func WithEnv(env loader.Loader) Option {
	return func(s *Store) {
		s.env = env
	}
}

// WithChecker sets the code checker used when validation is enabled.
func WithChecker(check CodeChecker) Option {
	return func(s *Store) {
		s.check = check
	}
}

// WithLogger sets the logger for validation warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store holds the current settings and notifies observers of changes.
// It implements bridge.ItemSource.
type Store struct {
	source loader.Loader
	env    loader.Loader
	check  CodeChecker
	logger *slog.Logger

	mu      sync.RWMutex
	current Settings

	obsMu     sync.Mutex
	observers map[uint64]Observer
	order     []uint64
	nextID    uint64

	// update serializes Load and Set so observers see changes in order.
	update sync.Mutex
}

// NewStore creates a store reading from source. source may be nil for a
// store that is only updated with Set. The store starts with Defaults.
func NewStore(source loader.Loader, opts ...Option) *Store {
	s := &Store{
		source:    source,
		logger:    slog.Default(),
		current:   Defaults(),
		observers: make(map[uint64]Observer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the source and replaces the current settings. A missing file
// yields Defaults. On error the current settings are kept.
func (s *Store) Load(ctx context.Context) ([]Change, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw map[string]any
	if s.source != nil {
		var err error
		if raw, err = s.source.Load(); err != nil {
			return nil, err
		}
	}
	if s.env != nil {
		overrides, err := s.env.Load()
		if err != nil {
			return nil, fmt.Errorf("reading environment: %w", err)
		}
		raw = loader.Merge(raw, overrides)
	}

	settings, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return s.Set(ctx, settings), nil
}

// Set replaces the current settings, validating items when the settings
// ask for it, and notifies observers of the resulting changes.
func (s *Store) Set(_ context.Context, settings Settings) []Change {
	settings = settings.Clone()
	if settings.Validate {
		settings.Items = s.validate(settings.Items)
	}

	s.update.Lock()
	defer s.update.Unlock()

	s.mu.Lock()
	old := s.current
	s.current = settings
	s.mu.Unlock()

	changes := Diff(old, settings)
	if len(changes) > 0 {
		s.notify(changes)
	}
	return changes
}

func (s *Store) validate(items []menu.ItemDefinition) []menu.ItemDefinition {
	kept, problems := Validate(items, s.check)
	for _, p := range problems {
		if p.Dropped {
			s.logger.Warn("dropping invalid item", "index", p.Index, "id", p.ID, "error", p.Err)
			continue
		}
		s.logger.Warn("invalid item", "index", p.Index, "id", p.ID, "error", p.Err)
	}
	return kept
}

// Get returns a snapshot of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Items returns the current item definitions.
func (s *Store) Items(ctx context.Context) ([]menu.ItemDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Get().Items, nil
}

// Subscribe registers an observer for all changes.
func (s *Store) Subscribe(observer Observer) *Subscription {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	s.nextID++
	id := s.nextID
	s.observers[id] = observer
	s.order = append(s.order, id)
	return &Subscription{id: id, store: s}
}

func (s *Store) unsubscribe(id uint64) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	delete(s.observers, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// notify calls observers in subscription order, outside the lock.
func (s *Store) notify(changes []Change) {
	s.obsMu.Lock()
	observers := make([]Observer, 0, len(s.order))
	for _, id := range s.order {
		observers = append(observers, s.observers[id])
	}
	s.obsMu.Unlock()

	for _, obs := range observers {
		s.safeCall(obs, changes)
	}
}

// safeCall calls an observer with panic recovery.
func (s *Store) safeCall(obs Observer, changes []Change) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("config observer panicked", "panic", r)
		}
	}()
	obs(changes)
}
