package interject

import (
	"sync"
	"time"
)

// staleAfter treats a signal with no recent samples as silence; a feed
// that stops sending energy levels must not block corrections forever
const staleAfter = 2 * time.Second

// EnergyMonitor folds a stream of normalized energy samples into a
// boolean speaking signal. Safe for one writer and many readers.
type EnergyMonitor struct {
	mu        sync.RWMutex
	threshold float64
	lastLevel float64
	lastAt    time.Time
	now       func() time.Time
}

// NewEnergyMonitor creates a monitor. Levels at or above threshold count
// as speech.
func NewEnergyMonitor(threshold float64) *EnergyMonitor {
	if threshold <= 0 {
		threshold = 0.05
	}
	return &EnergyMonitor{threshold: threshold, now: time.Now}
}

// SetLevel records one energy sample from the audio feed.
func (m *EnergyMonitor) SetLevel(level float64, at time.Time) {
	m.mu.Lock()
	m.lastLevel = level
	m.lastAt = at
	m.mu.Unlock()
}

// Speaking reports whether someone is currently talking. No samples, or
// only stale ones, reads as silence.
func (m *EnergyMonitor) Speaking() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastAt.IsZero() || m.now().Sub(m.lastAt) > staleAfter {
		return false
	}
	return m.lastLevel >= m.threshold
}
