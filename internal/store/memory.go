package store

import (
	"context"
	"sync"

	"github.com/veristream/veristream/internal/model"
)

// MemoryStore keeps records in process memory. The default backend and
// the one used in tests.
type MemoryStore struct {
	mu         sync.RWMutex
	statements []sessionStatement
	entries    map[string]model.QueueEntry
}

type sessionStatement struct {
	SessionID string
	Statement model.Statement
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]model.QueueEntry),
	}
}

func (m *MemoryStore) SaveStatement(ctx context.Context, sessionID string, st model.Statement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statements = append(m.statements, sessionStatement{SessionID: sessionID, Statement: st})
	return nil
}

func (m *MemoryStore) SaveEntry(ctx context.Context, entry model.QueueEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = entry
	return nil
}

// Entry returns the stored copy of one entry, for inspection in tests
// and the check command's final report.
func (m *MemoryStore) Entry(id string) (model.QueueEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	return e, ok
}

// Statements returns all statements recorded for a session, in order.
func (m *MemoryStore) Statements(sessionID string) []model.Statement {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Statement
	for _, s := range m.statements {
		if s.SessionID == sessionID {
			out = append(out, s.Statement)
		}
	}
	return out
}
