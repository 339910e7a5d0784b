package worker

import "context"

// Gate bounds the number of concurrently in-flight verifications.
// New speech is never blocked synchronously; the pipeline acquires a
// slot from the goroutine it spawns per statement, so a full gate
// delays processing, not ingestion.
type Gate struct {
	sem chan struct{}
}

// NewGate creates a gate admitting at most size concurrent holders
func NewGate(size int) *Gate {
	if size <= 0 {
		size = 32
	}
	return &Gate{sem: make(chan struct{}, size)}
}

// Acquire blocks until a slot is free or ctx is done
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case g.sem <- struct{}{}:
		return nil
	}
}

// Release frees a slot acquired earlier
func (g *Gate) Release() {
	<-g.sem
}

// InFlight returns the number of currently held slots
func (g *Gate) InFlight() int {
	return len(g.sem)
}
