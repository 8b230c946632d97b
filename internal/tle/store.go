package tle

import (
	"sync"
	"sync/atomic"
)

// Store holds the element dataset currently served. Readers never block;
// reloads are serialized so two downloads never race to replace it.
type Store struct {
	dataset atomic.Pointer[Dataset]
	reload  sync.Mutex
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current dataset, or nil before the first load.
func (s *Store) Get() *Dataset {
	return s.dataset.Load()
}

// Set replaces the current dataset.
func (s *Store) Set(ds *Dataset) {
	s.dataset.Store(ds)
}

// Reload runs load while holding the reload lock and publishes its result.
// On error the current dataset is kept.
func (s *Store) Reload(load func() (*Dataset, error)) (*Dataset, error) {
	s.reload.Lock()
	defer s.reload.Unlock()

	ds, err := load()
	if err != nil {
		return nil, err
	}
	s.dataset.Store(ds)
	return ds, nil
}

// Ready reports ErrNoElements until a non-empty dataset is loaded.
func (s *Store) Ready() error {
	ds := s.dataset.Load()
	if ds == nil || len(ds.Entries) == 0 {
		return ErrNoElements
	}
	return nil
}
