package cart

import "sync"

// Store keeps one cart per session. Carts are created on first use and
// torn down after checkout or an explicit clear, so abandoned sessions
// do not accumulate partial sales.
type Store struct {
	mu    sync.RWMutex
	carts map[string]*Cart
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{carts: make(map[string]*Cart)}
}

// Get returns the cart bound to the session, creating it when absent.
func (s *Store) Get(sessionID string) *Cart {
	s.mu.RLock()
	c, ok := s.carts[sessionID]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.carts[sessionID]; ok {
		return c
	}
	c = New()
	s.carts[sessionID] = c
	return c
}

// Drop removes the session's cart entirely.
func (s *Store) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
}
