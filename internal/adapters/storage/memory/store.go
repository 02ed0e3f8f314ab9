// Package memory provides a process-lifetime project store. Nothing is
// persisted anywhere; the process exiting is the end of the data.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tautline/taut/internal/app"
)

// Store keeps project records keyed by id, in creation order. The mutex
// guards the record map; the service layer drives one operation at a time per
// caller.
type Store struct {
	mu      sync.RWMutex
	records map[string]app.ProjectRecord
	order   []string
}

// New constructs an empty store.
func New() *Store {
	return &Store{records: map[string]app.ProjectRecord{}}
}

// Put inserts or replaces one record.
func (s *Store) Put(_ context.Context, rec app.ProjectRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; !ok {
		s.order = append(s.order, rec.ID)
	}
	s.records[rec.ID] = rec
	return nil
}

// Get returns one record by id.
func (s *Store) Get(_ context.Context, id string) (app.ProjectRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return app.ProjectRecord{}, app.ErrProjectNotFound
	}
	return rec, nil
}

// List returns all records in creation order.
func (s *Store) List(_ context.Context) ([]app.ProjectRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]app.ProjectRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out, nil
}

// Delete removes one record by id.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return app.ErrProjectNotFound
	}
	delete(s.records, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
