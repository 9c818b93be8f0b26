// Package readiness implements the Readiness Signal: a single-producer,
// multi-consumer broadcast of the latest boolean liveness value, with
// edge-triggered wait primitives.
//
// Go has no built-in equivalent of a watched cell (e.g. tokio::sync::watch
// in the original implementation this module is a rebuild of). This
// package reproduces the semantics with the idiomatic substitute: a mutex
// guarding the current value and generation counter, plus a channel that
// is closed and replaced on every transition so waiters can select on it
// alongside context cancellation.
package readiness

import (
	"context"
	"sync"
)

// Signal is the Readiness Signal. The zero value is not usable; construct
// with New. Safe for concurrent use by one publisher and many waiters.
type Signal struct {
	mu         sync.Mutex
	value      bool
	generation uint64
	changed    chan struct{}
	closed     bool
}

// New creates a Signal with initial value false.
func New() *Signal {
	return &Signal{changed: make(chan struct{})}
}

// Publish sets the value and wakes all waiters observing the change.
// Idempotent on equal values: it neither advances the generation nor wakes
// any waiter. Publish on a closed signal does nothing.
func (s *Signal) Publish(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.value == v {
		return
	}

	s.value = v
	s.generation++
	close(s.changed)
	s.changed = make(chan struct{})
}

// Close marks the signal as shut down. Waiters currently blocked, and any
// future callers that would otherwise block, return ErrClosed instead of
// waiting for a value change; Close itself does not change Value(), it
// only releases waiters.
func (s *Signal) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.changed)
}

// Value returns the current value and generation without blocking.
func (s *Signal) Value() (value bool, generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.generation
}

// WaitUntilTrue blocks until the value is true, returning immediately if
// it already is. Returns ctx.Err() if ctx is canceled first, or
// ErrClosed if the signal is closed while waiting.
func (s *Signal) WaitUntilTrue(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.value {
			s.mu.Unlock()
			return nil
		}
		if s.closed {
			s.mu.Unlock()
			return ErrClosed
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// WaitForChange blocks until the next transition (or until the signal is
// closed), then returns the new value. A generation observed via Value or
// a previous WaitForChange call should be passed as observed so that a
// transition that already happened before the call is not missed; pass 0
// on first use.
func (s *Signal) WaitForChange(ctx context.Context, observed uint64) (value bool, generation uint64, err error) {
	for {
		s.mu.Lock()
		if s.generation != observed {
			value, generation = s.value, s.generation
			s.mu.Unlock()
			return value, generation, nil
		}
		if s.closed {
			s.mu.Unlock()
			return false, observed, ErrClosed
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return false, observed, ctx.Err()
		case <-ch:
		}
	}
}
