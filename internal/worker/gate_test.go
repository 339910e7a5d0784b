package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGate_BoundsConcurrency(t *testing.T) {
	gate := NewGate(3)

	var current, peak int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gate.Acquire(context.Background()); err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			defer gate.Release()

			n := atomic.AddInt32(&current, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&current, -1)
		}()
	}

	wg.Wait()

	if peak > 3 {
		t.Errorf("expected at most 3 concurrent holders, saw %d", peak)
	}
}

func TestGate_AcquireCancelled(t *testing.T) {
	gate := NewGate(1)
	if err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := gate.Acquire(ctx); err == nil {
		t.Error("expected error when gate is full and context expires")
	}

	gate.Release()
	if gate.InFlight() != 0 {
		t.Errorf("expected 0 in flight after release, got %d", gate.InFlight())
	}
}

func TestGate_DefaultSize(t *testing.T) {
	gate := NewGate(0)
	if cap(gate.sem) != 32 {
		t.Errorf("expected default size 32, got %d", cap(gate.sem))
	}
}
