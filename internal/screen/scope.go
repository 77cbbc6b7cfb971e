// Package screen holds per-screen state for the POS client: the order menu,
// the table picker, the login form and the cart. State changes are driven by
// explicit events and applied through a Scope bound to the screen lifetime,
// so no update lands after the screen is closed.
package screen

import (
	"context"
	"sync"
	"sync/atomic"
)

// Observer is notified with a copy of the state after every change.
type Observer[S any] func(S)

// Scope runs background tasks tied to a screen lifetime.
//
// Tasks receive a context that is cancelled by Close. State updates must go
// through Apply, which becomes a no-op once Close is called.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	// Read-held by Launch and Apply, write-held by Close to set closed.
	mu     sync.RWMutex
	wg     sync.WaitGroup
	closed atomic.Bool
}

// NewScope creates a Scope whose context derives from parent.
func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

// Context returns the scope context.
func (s *Scope) Context() context.Context { return s.ctx }

// Launch runs fn in a new goroutine. It reports false and does nothing if
// the scope is already closed.
func (s *Scope) Launch(fn func(ctx context.Context)) bool {
	s.mu.RLock()
	if s.closed.Load() {
		s.mu.RUnlock()
		return false
	}
	s.wg.Add(1)
	s.mu.RUnlock()

	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
	return true
}

// Apply runs fn unless the scope is closed and reports whether it ran. Close
// waits for a running fn, so no update lands after Close returns. fn must
// not call Apply or Close.
func (s *Scope) Apply(fn func()) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() || s.ctx.Err() != nil {
		return false
	}
	fn()
	return true
}

// Closed reports whether Close was called.
func (s *Scope) Closed() bool { return s.closed.Load() }

// Close cancels the scope context and waits for launched tasks to return.
// It is safe to call more than once.
func (s *Scope) Close() {
	s.mu.Lock()
	s.closed.Store(true)
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
