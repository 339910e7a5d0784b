package store

import (
	"context"
	"fmt"

	"github.com/supabase-community/supabase-go"
	"github.com/veristream/veristream/internal/model"
)

// SupabaseStore persists records to Supabase Postgres tables via the
// PostgREST API.
type SupabaseStore struct {
	client         *supabase.Client
	statementTable string
	entryTable     string
}

func NewSupabaseStore(cfg model.StoreConfig) (*SupabaseStore, error) {
	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, fmt.Errorf("supabase store requires supabase_url and supabase_key")
	}

	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}

	statementTable := cfg.StatementTable
	if statementTable == "" {
		statementTable = "statements"
	}
	entryTable := cfg.EntryTable
	if entryTable == "" {
		entryTable = "queue_entries"
	}

	return &SupabaseStore{
		client:         client,
		statementTable: statementTable,
		entryTable:     entryTable,
	}, nil
}

type statementRow struct {
	SessionID  string  `json:"session_id"`
	Text       string  `json:"text"`
	Speaker    string  `json:"speaker,omitempty"`
	At         string  `json:"at"`
	Kind       string  `json:"kind"`
	Confidence float64 `json:"confidence"`
	Heuristic  string  `json:"heuristic,omitempty"`
}

type entryRow struct {
	ID         string  `json:"id"`
	SessionID  string  `json:"session_id"`
	Text       string  `json:"text"`
	Status     string  `json:"status"`
	Error      string  `json:"error,omitempty"`
	Consensus  string  `json:"consensus,omitempty"`
	Score      float64 `json:"score,omitempty"`
	Correction string  `json:"correction,omitempty"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

func (s *SupabaseStore) SaveStatement(ctx context.Context, sessionID string, st model.Statement) error {
	row := statementRow{
		SessionID:  sessionID,
		Text:       st.Text,
		Speaker:    st.Speaker,
		At:         st.At.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Kind:       string(st.Kind),
		Confidence: st.Confidence,
		Heuristic:  st.Heuristic,
	}

	_, _, err := s.client.From(s.statementTable).Insert(row, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("insert statement: %w", err)
	}
	return nil
}

func (s *SupabaseStore) SaveEntry(ctx context.Context, entry model.QueueEntry) error {
	row := entryRow{
		ID:        entry.ID,
		SessionID: entry.SessionID,
		Text:      entry.Statement.Text,
		Status:    string(entry.Status),
		Error:     entry.Error,
		CreatedAt: entry.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		UpdatedAt: entry.UpdatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if entry.Result != nil {
		row.Consensus = string(entry.Result.Consensus)
		row.Score = entry.Result.Score
		row.Correction = entry.Result.Correction
	}

	// Upsert on the entry ID so status transitions overwrite the row
	_, _, err := s.client.From(s.entryTable).Insert(row, true, "id", "", "").Execute()
	if err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}
	return nil
}
