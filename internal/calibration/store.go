package calibration

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Store is the read surface the detection core depends on. The management
// operations exist for the HTTP surface and the CLI; persistence beyond process
// memory belongs to an external collaborator.
type Store interface {
	// Get returns a snapshot of the calibration with the given ID, or
	// ErrNotFound.
	Get(id string) (*Calibration, error)
	Put(cal *Calibration) error
	Delete(id string) error
	List() []*Calibration
}

// MemoryStore is an in-memory Store safe for concurrent use. Get returns a
// deep copy, so a calibration snapshot taken at request start is never mutated
// by a concurrent update.
type MemoryStore struct {
	mu   sync.RWMutex
	cals map[string]*Calibration
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cals: make(map[string]*Calibration)}
}

// Get returns a snapshot of the stored calibration or ErrNotFound.
func (s *MemoryStore) Get(id string) (*Calibration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cal, ok := s.cals[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cal.Clone(), nil
}

// Put validates and stores a calibration, replacing any existing one with the
// same ID.
func (s *MemoryStore) Put(cal *Calibration) error {
	if cal.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidCalibration)
	}
	if err := cal.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.cals[cal.ID] = cal.Clone()
	s.mu.Unlock()
	return nil
}

// Delete removes a calibration. Deleting an unknown ID returns ErrNotFound.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cals[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.cals, id)
	return nil
}

// List returns snapshots of all stored calibrations ordered by ID.
func (s *MemoryStore) List() []*Calibration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*Calibration, 0, len(s.cals))
	for _, cal := range s.cals {
		all = append(all, cal.Clone())
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// Export serializes a calibration to JSON, preserving point order.
func Export(cal *Calibration) ([]byte, error) {
	data, err := json.MarshalIndent(cal, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to export calibration: %w", err)
	}
	return data, nil
}

// Import parses and validates a calibration previously produced by Export.
// Re-importing an export yields an identical ordered set of points.
func Import(data []byte) (*Calibration, error) {
	var cal Calibration
	if err := json.Unmarshal(data, &cal); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCalibration, err)
	}
	if err := cal.Validate(); err != nil {
		return nil, err
	}
	return &cal, nil
}
