package httputil

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSemaphoreTryAcquire(t *testing.T) {
	sem := NewSemaphore(2)

	if !sem.TryAcquire() {
		t.Error("first TryAcquire should succeed")
	}
	if !sem.TryAcquire() {
		t.Error("second TryAcquire should succeed")
	}
	if sem.TryAcquire() {
		t.Error("third TryAcquire should fail at capacity")
	}

	if got := sem.Stats().Rejected; got != 1 {
		t.Errorf("Rejected = %d, want 1", got)
	}

	sem.Release()
	if !sem.TryAcquire() {
		t.Error("TryAcquire should succeed after Release")
	}
}

func TestSemaphoreAcquireBlocks(t *testing.T) {
	sem := NewSemaphore(1)

	if err := sem.Acquire(context.Background()); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := sem.Acquire(ctx); err != context.DeadlineExceeded {
		t.Errorf("Acquire at capacity = %v, want DeadlineExceeded", err)
	}
}

func TestSemaphoreConcurrent(t *testing.T) {
	sem := NewSemaphore(10)
	var admitted atomic.Int32
	var wg sync.WaitGroup

	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem.TryAcquire() {
				admitted.Add(1)
				time.Sleep(10 * time.Millisecond)
				sem.Release()
			}
		}()
	}
	wg.Wait()

	stats := sem.Stats()
	t.Logf("admitted=%d rejected=%d", admitted.Load(), stats.Rejected)
	if stats.InFlight != 0 {
		t.Errorf("InFlight = %d after completion, want 0", stats.InFlight)
	}
}

func TestSemaphoreStats(t *testing.T) {
	sem := NewSemaphore(5)

	stats := sem.Stats()
	if stats.Capacity != 5 || stats.Available != 5 || stats.InFlight != 0 {
		t.Errorf("fresh stats = %+v", stats)
	}

	sem.TryAcquire()
	sem.TryAcquire()

	stats = sem.Stats()
	if stats.InFlight != 2 || stats.Available != 3 {
		t.Errorf("stats after two admissions = %+v", stats)
	}
}

func TestNewSemaphoreDefaultCapacity(t *testing.T) {
	if sem := NewSemaphore(0); cap(sem.slots) != 256 {
		t.Errorf("zero capacity should default to 256, got %d", cap(sem.slots))
	}
	if sem := NewSemaphore(-5); cap(sem.slots) != 256 {
		t.Errorf("negative capacity should default to 256, got %d", cap(sem.slots))
	}
}

func BenchmarkSemaphoreTryAcquire(b *testing.B) {
	sem := NewSemaphore(1000)
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if sem.TryAcquire() {
				sem.Release()
			}
		}
	})
}
