// Package semaphore implements the memory admission-control primitive
// that bounds the total bytes committed to concurrently running
// sandboxes. It is the only mutable state shared across judge
// requests besides the plugin registry.
package semaphore

import (
	"context"
	"errors"
	"sync"
)

// ErrImpossible is returned when the requested byte count exceeds the
// semaphore's total capacity, so no amount of waiting would ever
// satisfy it.
var ErrImpossible = errors.New("semaphore: requested bytes exceed capacity")

// ErrTooManyWaiters is returned when the waiter queue is already at
// max_wait; the caller should treat this as resource-exhausted rather
// than retry.
var ErrTooManyWaiters = errors.New("semaphore: waiter queue full")

type waiter struct {
	bytes uint64
	done  chan struct{}
	woke  bool
}

// Semaphore is a byte-denominated admission-control semaphore with a
// bounded waiter queue and fail-fast, non-reordering wakeups: only the
// head-of-line (oldest) waiter is ever considered for a wakeup, so a
// smaller request queued behind it waits until the head is satisfied
// or gives up, even if the available bytes would cover it.
type Semaphore struct {
	mu        sync.Mutex
	available uint64
	capacity  uint64
	maxWait   int
	waiters   []*waiter
}

// New creates a semaphore with capacity total bytes and a waiter queue
// bounded to maxWait pending acquisitions.
func New(capacity uint64, maxWait int) *Semaphore {
	return &Semaphore{
		available: capacity,
		capacity:  capacity,
		maxWait:   maxWait,
	}
}

// Acquire reserves bytes, blocking until they become available, the
// waiter queue is full, the request is impossible, or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context, bytes uint64) (*Permit, error) {
	if bytes > s.capacity {
		return nil, ErrImpossible
	}

	s.mu.Lock()
	if s.available >= bytes && len(s.waiters) == 0 {
		s.available -= bytes
		s.mu.Unlock()
		return &Permit{semaphore: s, bytes: bytes}, nil
	}
	if len(s.waiters) >= s.maxWait {
		s.mu.Unlock()
		return nil, ErrTooManyWaiters
	}
	w := &waiter{bytes: bytes, done: make(chan struct{})}
	s.waiters = append(s.waiters, w)
	s.mu.Unlock()

	s.tryWake()

	select {
	case <-w.done:
		return &Permit{semaphore: s, bytes: bytes}, nil
	case <-ctx.Done():
		s.abandon(w)
		return nil, ctx.Err()
	}
}

// abandon removes w from the queue if it has not already been woken;
// a woken waiter's bytes have already been debited from available, so
// they must be returned instead of silently dropped.
func (s *Semaphore) abandon(w *waiter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, q := range s.waiters {
		if q == w {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			return
		}
	}
	if w.woke {
		s.available += w.bytes
	}
}

// tryWake examines only the head-of-line waiter; if the available
// bytes cover its request it is debited and woken and popped from the
// queue, otherwise the call returns without touching the waiters
// behind it.
func (s *Semaphore) tryWake() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.waiters) == 0 {
		return
	}
	w := s.waiters[0]
	if s.available < w.bytes {
		return
	}
	s.available -= w.bytes
	w.woke = true
	s.waiters = s.waiters[1:]
	close(w.done)
}

func (s *Semaphore) release(bytes uint64) {
	s.mu.Lock()
	s.available += bytes
	s.mu.Unlock()
	s.tryWake()
}

// Available returns the current uncommitted byte count.
func (s *Semaphore) Available() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available
}

// Waiters returns the current waiter queue depth.
func (s *Semaphore) Waiters() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiters)
}

// Capacity returns the semaphore's total byte capacity.
func (s *Semaphore) Capacity() uint64 {
	return s.capacity
}

// Permit is a reservation of bytes against a Semaphore, released
// exactly once.
type Permit struct {
	semaphore *Semaphore
	bytes     uint64
	once      sync.Once
}

// Release returns the permit's bytes to the semaphore. Safe to call
// more than once; only the first call has effect.
func (p *Permit) Release() {
	p.once.Do(func() {
		p.semaphore.release(p.bytes)
	})
}

// Bytes reports the reserved byte count.
func (p *Permit) Bytes() uint64 {
	return p.bytes
}
