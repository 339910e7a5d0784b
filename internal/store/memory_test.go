package store

import (
	"context"
	"testing"
	"time"

	"github.com/veristream/veristream/internal/model"
)

func TestMemoryStore_EntryUpsert(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	entry := model.QueueEntry{
		ID:        "e1",
		SessionID: "s1",
		Statement: model.Statement{Text: "The moon is made of cheese"},
		Status:    model.StatusPending,
		CreatedAt: time.Now(),
	}
	if err := s.SaveEntry(ctx, entry); err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}

	entry.Status = model.StatusProcessing
	if err := s.SaveEntry(ctx, entry); err != nil {
		t.Fatalf("SaveEntry update: %v", err)
	}

	got, ok := s.Entry("e1")
	if !ok {
		t.Fatal("entry not found")
	}
	if got.Status != model.StatusProcessing {
		t.Errorf("status = %s, want processing", got.Status)
	}
}

func TestMemoryStore_StatementsBySession(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.SaveStatement(ctx, "s1", model.Statement{Text: "a"})
	_ = s.SaveStatement(ctx, "s2", model.Statement{Text: "b"})
	_ = s.SaveStatement(ctx, "s1", model.Statement{Text: "c"})

	got := s.Statements("s1")
	if len(got) != 2 || got[0].Text != "a" || got[1].Text != "c" {
		t.Errorf("statements = %+v", got)
	}
	if s.Statements("missing") != nil {
		t.Error("expected nil for unknown session")
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New(model.StoreConfig{Backend: "redis"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNew_DefaultsToMemory(t *testing.T) {
	s, err := New(model.StoreConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("got %T, want *MemoryStore", s)
	}
}
