package cart

import "sync"

// Store keeps one cart per table number. It is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	carts map[int]*Cart
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{carts: make(map[int]*Cart)}
}

// Get returns a snapshot of the cart for table. Tables without a cart get
// an empty one.
func (s *Store) Get(table int) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.carts[table]; ok {
		return c.Clone()
	}
	return &Cart{}
}

// Update runs fn against the cart of table while holding the store lock and
// returns a snapshot of the result. The function result is passed through
// so callers can report not-found outcomes.
func (s *Store) Update(table int, fn func(c *Cart) bool) (*Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[table]
	if !ok {
		c = &Cart{}
		s.carts[table] = c
	}
	applied := fn(c)
	if c.IsEmpty() && c.Notes() == "" {
		delete(s.carts, table)
	}
	return c.Clone(), applied
}

// Clear discards the cart of table.
func (s *Store) Clear(table int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, table)
}
