// Package favourites keeps the user's shortlist of properties and persists it
// as a single JSON document in a key-value storage.
package favourites

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/evcraddock/havenrise/internal/property"
)

// DefaultKey is the storage key the favourites document is written under.
const DefaultKey = "favourites"

// Storage is a string key-value store.
type Storage interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Observer is notified after every change to the set.
type Observer interface {
	FavouriteMutated(op string, size int)
}

// Store is an ordered set of properties, unique by id.
// It is safe for concurrent use.
type Store struct {
	storage  Storage
	key      string
	logger   *slog.Logger
	observer Observer

	mu    sync.Mutex
	items []property.Property
}

// Option configures a Store.
type Option func(*Store)

// WithKey sets the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver sets a mutation observer, typically metrics.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// NewStore creates an empty store over storage. Call Restore to load the
// persisted set.
func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		key:     DefaultKey,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads the persisted set. A missing key leaves the set empty.
// Unreadable or corrupt data is logged and also leaves the set empty.
func (s *Store) Restore(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil

	raw, found, err := s.storage.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("reading favourites", "key", s.key, "error", err)
		return
	}
	if !found {
		return
	}

	var saved []property.Property
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		s.logger.Warn("discarding corrupt favourites", "key", s.key, "error", err)
		return
	}

	seen := make(map[string]bool, len(saved))
	for _, p := range saved {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		s.items = append(s.items, p)
	}
	s.logger.Debug("favourites restored", "count", len(s.items))
}

// Add appends p unless a favourite with the same id exists, then persists.
// It reports whether p was added. A persist error leaves p in the set.
func (s *Store) Add(ctx context.Context, p property.Property) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := s.indexOf(p.ID) < 0
	if added {
		s.items = append(s.items, p)
		s.notify("add")
	}
	return added, s.persistLocked(ctx)
}

// Remove drops the favourite with id, then persists.
// It reports whether a favourite was removed.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	removed := i >= 0
	if removed {
		s.items = append(s.items[:i:i], s.items[i+1:]...)
		s.notify("remove")
	}
	return removed, s.persistLocked(ctx)
}

// Clear empties the set and deletes the storage key.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.notify("clear")
	if err := s.storage.Delete(ctx, s.key); err != nil {
		s.logger.Error("clearing favourites", "key", s.key, "error", err)
		return fmt.Errorf("clearing favourites: %w", err)
	}
	return nil
}

// Persist writes the current set to storage.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

// Contains reports whether id is a favourite.
func (s *Store) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

// List returns the favourites in insertion order. The slice is a copy.
func (s *Store) List() []property.Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]property.Property, len(s.items))
	copy(out, s.items)
	return out
}

// IDs returns the favourite ids in insertion order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.items))
	for i, p := range s.items {
		out[i] = p.ID
	}
	return out
}

// Len returns the number of favourites.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) indexOf(id string) int {
	for i, p := range s.items {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked(ctx context.Context) error {
	items := s.items
	if items == nil {
		items = []property.Property{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding favourites: %w", err)
	}
	if err := s.storage.Set(ctx, s.key, string(data)); err != nil {
		s.logger.Error("persisting favourites", "key", s.key, "error", err)
		return fmt.Errorf("persisting favourites: %w", err)
	}
	return nil
}

func (s *Store) notify(op string) {
	if s.observer != nil {
		s.observer.FavouriteMutated(op, len(s.items))
	}
}
