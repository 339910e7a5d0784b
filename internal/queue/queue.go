package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/veristream/veristream/internal/model"
	"github.com/veristream/veristream/internal/store"
)

var (
	// ErrUnknownEntry means no entry with the given ID exists
	ErrUnknownEntry = errors.New("unknown queue entry")

	// ErrTerminalState means the entry already reached processed or
	// failed; transitions are monotonic and never revisited
	ErrTerminalState = errors.New("entry is in a terminal state")
)

// Queue tracks each declarative statement through its verification
// lifecycle: pending -> processing -> processed|failed. In-memory state
// is authoritative; every transition is mirrored to the record store
// best-effort.
type Queue struct {
	mu      sync.RWMutex
	entries map[string]*model.QueueEntry
	order   []string // IDs in enqueue order

	records store.RecordStore
	logger  *slog.Logger
	now     func() time.Time

	notifyMu sync.RWMutex
	notify   func(model.QueueEntry)
}

// OnTransition registers a callback invoked after every entry creation
// and status change, outside the queue lock. One observer at a time.
// Callbacks for a single entry arrive in lifecycle order; callbacks
// across entries carry no ordering guarantee.
func (q *Queue) OnTransition(fn func(model.QueueEntry)) {
	q.notifyMu.Lock()
	q.notify = fn
	q.notifyMu.Unlock()
}

func (q *Queue) emit(entry model.QueueEntry) {
	q.notifyMu.RLock()
	fn := q.notify
	q.notifyMu.RUnlock()
	if fn != nil {
		fn(entry)
	}
}

// New creates an empty queue. A nil records store disables persistence.
func New(records store.RecordStore, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		entries: make(map[string]*model.QueueEntry),
		records: records,
		logger:  logger,
		now:     time.Now,
	}
}

// Enqueue creates a pending entry for a declarative statement and
// returns its ID.
func (q *Queue) Enqueue(ctx context.Context, sessionID string, st model.Statement) string {
	now := q.now()
	entry := &model.QueueEntry{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Statement: st,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	q.mu.Lock()
	q.entries[entry.ID] = entry
	q.order = append(q.order, entry.ID)
	q.mu.Unlock()

	q.persist(ctx, *entry)
	q.emit(*entry)
	return entry.ID
}

// MarkProcessing moves a pending entry to processing.
func (q *Queue) MarkProcessing(ctx context.Context, id string) error {
	return q.transition(ctx, id, model.StatusProcessing, func(e *model.QueueEntry) {})
}

// Complete moves a processing entry to processed and attaches the
// verification result.
func (q *Queue) Complete(ctx context.Context, id string, result *model.VerificationResult) error {
	return q.transition(ctx, id, model.StatusProcessed, func(e *model.QueueEntry) {
		e.Result = result
	})
}

// Fail moves an entry to failed and records the reason. Allowed from
// pending or processing.
func (q *Queue) Fail(ctx context.Context, id string, reason string) error {
	return q.transition(ctx, id, model.StatusFailed, func(e *model.QueueEntry) {
		e.Error = reason
	})
}

// allowed lists the legal predecessor for each target status
func allowed(from, to model.EntryStatus) bool {
	switch to {
	case model.StatusProcessing:
		return from == model.StatusPending
	case model.StatusProcessed:
		return from == model.StatusProcessing
	case model.StatusFailed:
		return from == model.StatusPending || from == model.StatusProcessing
	}
	return false
}

func (q *Queue) transition(ctx context.Context, id string, to model.EntryStatus, mutate func(*model.QueueEntry)) error {
	q.mu.Lock()
	entry, ok := q.entries[id]
	if !ok {
		q.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownEntry, id)
	}
	if entry.Status.Terminal() {
		q.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", ErrTerminalState, id, entry.Status)
	}
	if !allowed(entry.Status, to) {
		q.mu.Unlock()
		return fmt.Errorf("illegal transition %s -> %s for entry %s", entry.Status, to, id)
	}

	entry.Status = to
	entry.UpdatedAt = q.now()
	mutate(entry)
	snapshot := *entry
	q.mu.Unlock()

	// Outside the lock so a slow store or observer never stalls other
	// transitions. An entry's own transitions are serialized by its
	// lifecycle, so the observer sees them in order; notifications for
	// different entries may interleave in any order.
	q.persist(ctx, snapshot)
	q.emit(snapshot)
	return nil
}

// persist mirrors an entry to the record store. Failures are logged and
// never roll back the in-memory transition.
func (q *Queue) persist(ctx context.Context, entry model.QueueEntry) {
	if q.records == nil {
		return
	}
	if err := q.records.SaveEntry(ctx, entry); err != nil {
		q.logger.Warn("queue entry persistence failed",
			"entry_id", entry.ID, "status", entry.Status, "error", err)
	}
}

// Entry returns a copy of one entry.
func (q *Queue) Entry(id string) (model.QueueEntry, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	entry, ok := q.entries[id]
	if !ok {
		return model.QueueEntry{}, fmt.Errorf("%w: %s", ErrUnknownEntry, id)
	}
	return *entry, nil
}

// Entries returns copies of all entries in enqueue order.
func (q *Queue) Entries() []model.QueueEntry {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]model.QueueEntry, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, *q.entries[id])
	}
	return out
}

// PendingCount reports how many entries still await processing.
func (q *Queue) PendingCount() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	n := 0
	for _, e := range q.entries {
		if e.Status == model.StatusPending || e.Status == model.StatusProcessing {
			n++
		}
	}
	return n
}
