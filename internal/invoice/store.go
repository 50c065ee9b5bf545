package invoice

import "sync"

// Store is an in-memory, insertion-ordered collection of one record kind.
// Records are held by value; reads return copies.
type Store[T Record] struct {
	mu      sync.RWMutex
	records []T
	byToken map[string]int // token -> position of the first record carrying it
}

// NewStore creates an empty Store
func NewStore[T Record]() *Store[T] {
	return &Store[T]{byToken: make(map[string]int)}
}

// Insert appends a record. Identifiers are not checked for duplicates; a
// second record with the same ID is shadowed by the first in every lookup.
func (s *Store[T]) Insert(rec T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	if token := rec.Correlation(); token != "" {
		if _, ok := s.byToken[token]; !ok {
			s.byToken[token] = len(s.records) - 1
		}
	}
}

// UpdateByID replaces the first record with the same ID. It returns false,
// changing nothing, when no record matches.
func (s *Store[T]) UpdateByID(rec T) bool {
	return s.Update(rec.Identity(), func(stored *T) { *stored = rec })
}

// Update applies fn to the first record with the given ID while holding the
// write lock. It returns false when no record matches.
func (s *Store[T]) Update(id string, fn func(*T)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].Identity() == id {
			s.apply(i, func(rec *T) bool {
				fn(rec)
				return true
			})
			return true
		}
	}
	return false
}

// UpdateByToken applies fn to the first record carrying token while holding
// the write lock. fn reports whether it changed the record.
func (s *Store[T]) UpdateByToken(token string, fn func(*T) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byToken[token]
	if !ok {
		return false
	}
	return s.apply(i, fn)
}

func (s *Store[T]) apply(i int, fn func(*T) bool) bool {
	previous := s.records[i].Correlation()
	changed := fn(&s.records[i])
	if s.records[i].Correlation() != previous {
		s.reindex()
	}
	return changed
}

func (s *Store[T]) reindex() {
	s.byToken = make(map[string]int, len(s.records))
	for i, rec := range s.records {
		token := rec.Correlation()
		if token == "" {
			continue
		}
		if _, ok := s.byToken[token]; !ok {
			s.byToken[token] = i
		}
	}
}

// Get returns the first record with the given ID
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.Identity() == id {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

// FindByToken returns the first record whose correlation token equals token
func (s *Store[T]) FindByToken(token string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byToken[token]
	if !ok {
		var zero T
		return zero, false
	}
	return s.records[i], true
}

// CountByToken returns how many records carry token
func (s *Store[T]) CountByToken(token string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, rec := range s.records {
		if rec.Correlation() == token {
			n++
		}
	}
	return n
}

// List returns every record in insertion order
func (s *Store[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records, shadowed duplicates included
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Stores groups the three collections built by ingestion
type Stores struct {
	Invoices  *Store[Invoice]
	Customers *Store[Customer]
	Products  *Store[Product]
}

// NewStores creates three empty stores
func NewStores() *Stores {
	return &Stores{
		Invoices:  NewStore[Invoice](),
		Customers: NewStore[Customer](),
		Products:  NewStore[Product](),
	}
}
