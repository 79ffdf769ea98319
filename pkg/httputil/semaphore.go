// Package httputil holds small HTTP-side helpers for the gateway.
package httputil

import (
	"context"
	"sync/atomic"
)

// Semaphore bounds how many analyze requests run at once. Past capacity
// the gateway sheds load with 503 instead of queueing unboundedly.
type Semaphore struct {
	slots    chan struct{}
	rejected atomic.Int64
}

// NewSemaphore creates a semaphore admitting up to capacity concurrent
// requests.
func NewSemaphore(capacity int) *Semaphore {
	if capacity <= 0 {
		capacity = 256
	}
	return &Semaphore{
		slots: make(chan struct{}, capacity),
	}
}

// TryAcquire admits a request without blocking. Returns false at
// capacity; the caller should respond with a retryable rejection.
func (s *Semaphore) TryAcquire() bool {
	select {
	case s.slots <- struct{}{}:
		return true
	default:
		s.rejected.Add(1)
		return false
	}
}

// Acquire blocks until a slot frees up or the context ends. Used for
// administrative calls that must not be shed.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns an admitted request's slot.
func (s *Semaphore) Release() {
	select {
	case <-s.slots:
	default:
		// Release without a matching acquire.
	}
}

// Stats reports admission pressure for the health endpoint.
func (s *Semaphore) Stats() Stats {
	return Stats{
		Capacity:  cap(s.slots),
		InFlight:  len(s.slots),
		Available: cap(s.slots) - len(s.slots),
		Rejected:  s.rejected.Load(),
	}
}

// Stats is the admission snapshot exposed on /healthz.
type Stats struct {
	Capacity  int   `json:"capacity"`
	InFlight  int   `json:"in_flight"`
	Available int   `json:"available"`
	Rejected  int64 `json:"rejected"`
}
