// Package store provides crash-safe snapshot persistence for slab and
// router state using JSON files.
//
// Each slab is stored as a separate file: slab_<slab_id>.json; the router
// registry as router.json. Writes use atomic file replacement (write to a
// .tmp file, then rename) so a crash mid-write never leaves a corrupt
// snapshot — the harness calls SaveSlab/SaveRouter after every applied
// instruction, and cmd/slabd calls LoadSlab/LoadRouter on startup to
// restore state.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"slabcore/internal/router"
	"slabcore/internal/slab"
)

// Store persists snapshots to JSON files in a designated directory.
// All operations are mutex-protected to prevent concurrent file corruption.
type Store struct {
	dir string
	mu  sync.Mutex
}

// Open creates a store backed by the given directory.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Close is a no-op for file-based storage.
func (s *Store) Close() error {
	return nil
}

func (s *Store) writeAtomic(name string, data []byte) error {
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return os.Rename(tmp, path)
}

// SaveSlab atomically persists slabID's full state.
func (s *Store) SaveSlab(slabID string, st *slab.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal slab %s: %w", slabID, err)
	}
	return s.writeAtomic("slab_"+slabID+".json", data)
}

// LoadSlab restores slabID's state into st. Returns (false, nil) if no
// snapshot exists yet for this slab_id.
func (s *Store) LoadSlab(slabID string, st *slab.State) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, "slab_"+slabID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read slab %s: %w", slabID, err)
	}
	if err := json.Unmarshal(data, st); err != nil {
		return false, fmt.Errorf("unmarshal slab %s: %w", slabID, err)
	}
	return true, nil
}

// SaveRouter atomically persists the router registry.
func (s *Store) SaveRouter(r *router.Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal router: %w", err)
	}
	return s.writeAtomic("router.json", data)
}

// LoadRouter restores the router registry into r. Returns (false, nil) if
// no snapshot exists yet.
func (s *Store) LoadRouter(r *router.Registry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, "router.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read router: %w", err)
	}
	if err := json.Unmarshal(data, r); err != nil {
		return false, fmt.Errorf("unmarshal router: %w", err)
	}
	return true, nil
}
