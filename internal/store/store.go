package store

import (
	"context"
	"fmt"

	"github.com/veristream/veristream/internal/model"
)

// RecordStore persists statements and queue entries. Persistence is
// best-effort: callers log store errors and continue, in-memory state
// stays authoritative.
type RecordStore interface {
	// SaveStatement records a classified statement.
	SaveStatement(ctx context.Context, sessionID string, st model.Statement) error

	// SaveEntry upserts a queue entry by ID. Called on creation and on
	// every status transition.
	SaveEntry(ctx context.Context, entry model.QueueEntry) error
}

// New builds the record store named by cfg.Backend.
func New(cfg model.StoreConfig) (RecordStore, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "supabase":
		return NewSupabaseStore(cfg)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}
