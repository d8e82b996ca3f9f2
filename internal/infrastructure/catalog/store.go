package catalog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/tarkovlens/scanner/internal/domain"
)

// Store holds the item catalog, loaded once at startup from a JSON file
// mapping normalized shortName -> item record. Readers see the index be
// replaced wholesale on reload, never a partial update.
type Store struct {
	path string

	mu    sync.RWMutex
	index map[string]*domain.Item
	keys  []string
}

// Load reads the catalog file and builds the normalized-shortName index.
func Load(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the catalog file and swaps the index atomically.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	var raw map[string]*domain.Item
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}

	index := make(map[string]*domain.Item, len(raw))
	keys := make([]string, 0, len(raw))
	for key, item := range raw {
		normalized := domain.NormalizeKey(key)
		if normalized == "" || item == nil {
			continue
		}
		index[normalized] = item
		keys = append(keys, normalized)
	}

	s.mu.Lock()
	s.index = index
	s.keys = keys
	s.mu.Unlock()

	log.Printf("[Catalog] Loaded %d items from %s", len(index), s.path)
	return nil
}

// Save writes the current catalog back to disk, preserving the
// normalized-key map shape.
func (s *Store) Save() error {
	s.mu.RLock()
	snapshot := make(map[string]*domain.Item, len(s.index))
	for k, v := range s.index {
		snapshot[k] = v
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

// Lookup returns the item for a normalized shortName key.
func (s *Store) Lookup(key string) (*domain.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.index[key]
	return item, ok
}

// ByID returns the item with the given catalog id.
func (s *Store) ByID(id string) (*domain.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.index {
		if item.ID == id {
			return item, true
		}
	}
	return nil, false
}

// Keys returns all normalized shortName keys. The returned slice is shared;
// callers must not mutate it.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys
}

// Len returns the number of catalog entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index)
}

// Update applies fn to the item stored under key, if present. Used by the
// price-catalog refresh to fold fresh prices into the persisted records.
func (s *Store) Update(key string, fn func(*domain.Item)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.index[key]
	if !ok {
		return false
	}
	fn(item)
	return true
}

// All returns a snapshot of key -> item pairs.
func (s *Store) All() map[string]*domain.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*domain.Item, len(s.index))
	for k, v := range s.index {
		out[k] = v
	}
	return out
}
