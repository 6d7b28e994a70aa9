// Package memory contains an in-memory journal store for tests.
package memory

import (
	"context"
	"sync"

	"github.com/litmetrics/journal-crawler/internal/journal"
)

// Store keeps records keyed by title, mirroring the dedup semantics of the
// SQL backends.
type Store struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]journal.Record
	ids    map[string]int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		nextID: 1,
		byID:   map[int64]journal.Record{},
		ids:    map[string]int64{},
	}
}

// Init implements journal.Store; nothing to create.
func (s *Store) Init(context.Context) error {
	return nil
}

// UpsertIfAbsent returns the id already mapped to the record's title, or
// stores the record under a fresh id.
func (s *Store) UpsertIfAbsent(_ context.Context, record journal.Record) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.ids[record.JournalTitle]; ok {
		return id, false, nil
	}
	id := s.nextID
	s.nextID++
	record.ID = id
	s.byID[id] = record
	s.ids[record.JournalTitle] = id
	return id, true, nil
}

// Get returns the stored record for inspection in tests.
func (s *Store) Get(id int64) (journal.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	return rec, ok
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Close implements journal.Store; it performs no action.
func (s *Store) Close() error {
	return nil
}
