package cart

import (
	"sync"
)

// Sessions holds one cart per checkout session.
type Sessions struct {
	mu    sync.Mutex
	carts map[string]*Cart
	opts  []Option
}

func NewSessions(opts ...Option) *Sessions {
	return &Sessions{
		carts: make(map[string]*Cart),
		opts:  opts,
	}
}

// Get returns the session's cart, creating an empty one on first use.
func (s *Sessions) Get(sessionID string) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.carts[sessionID]; ok {
		return c
	}
	c := New(s.opts...)
	s.carts[sessionID] = c
	return c
}

// Peek returns the session's cart without creating one.
func (s *Sessions) Peek(sessionID string) (*Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[sessionID]
	return c, ok
}

// Discard forgets the session's cart.
func (s *Sessions) Discard(sessionID string) {
	s.mu.Lock()
	delete(s.carts, sessionID)
	s.mu.Unlock()
}

// Take detaches the session's cart. Units added to the session afterwards go
// into a fresh cart.
func (s *Sessions) Take(sessionID string) (*Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[sessionID]
	if ok {
		delete(s.carts, sessionID)
	}
	return c, ok
}

// Restore reattaches a cart returned by Take. Units added to the session in
// the meantime follow the restored ones.
func (s *Sessions) Restore(sessionID string, c *Cart) {
	if c == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.carts[sessionID]; ok && current != c {
		c.append(current.Items())
	}
	s.carts[sessionID] = c
}

// Count is the number of live sessions.
func (s *Sessions) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}
