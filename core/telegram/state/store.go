package state

import (
	"sync"
	"time"
)

type entry[T any] struct {
	mu      sync.Mutex
	value   T
	touched time.Time
	// refs counts in-flight Do calls; guarded by Store.mu.
	refs int
}

// Store is an in-memory map of values keyed by user id with one lock per entry.
type Store[T any] struct {
	mu      sync.Mutex
	entries map[int64]*entry[T]
	init    func(id int64) T
	now     func() time.Time
}

// NewStore constructs a Store. init builds the value for an unseen id.
func NewStore[T any](init func(id int64) T) *Store[T] {
	if init == nil {
		init = func(int64) T {
			var zero T
			return zero
		}
	}
	return &Store[T]{
		entries: make(map[int64]*entry[T]),
		init:    init,
		now:     time.Now,
	}
}

// Do runs fn with exclusive access to the value of id, creating it if needed.
// Calls for the same id run one at a time in arrival order of lock acquisition.
func (s *Store[T]) Do(id int64, fn func(v *T)) {
	e := s.acquire(id)
	defer s.release(e)

	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.value)
	e.touched = s.now()
}

// Has reports whether a value exists for id without waiting on its lock.
func (s *Store[T]) Has(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	return ok
}

// Peek returns a copy of the value for id. It waits while a Do call holds the entry.
func (s *Store[T]) Peek(id int64) (T, bool) {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		var zero T
		return zero, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value, true
}

// Len returns the number of stored values.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops values untouched for longer than idle. Entries held by Do are kept.
func (s *Store[T]) Sweep(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if e.refs > 0 || e.touched.After(cutoff) {
			continue
		}
		delete(s.entries, id)
		removed++
	}
	return removed
}

func (s *Store[T]) acquire(id int64) *entry[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		e = &entry[T]{value: s.init(id), touched: s.now()}
		s.entries[id] = e
	}
	e.refs++
	return e
}

func (s *Store[T]) release(e *entry[T]) {
	s.mu.Lock()
	e.refs--
	s.mu.Unlock()
}
