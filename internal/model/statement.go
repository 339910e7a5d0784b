package model

import "time"

// Statement is one atomic unit of transcribed speech after segmentation
// and classification. Immutable once classified.
type Statement struct {
	Text       string        `json:"text"`                 // The statement text itself
	Speaker    string        `json:"speaker,omitempty"`    // Speaker identifier from the transcript
	At         time.Time     `json:"at"`                   // When the statement was heard
	Kind       StatementKind `json:"kind"`                 // Declarative, opinion, question, other
	Confidence float64       `json:"confidence"`           // Classification confidence (0-1)
	Heuristic  string        `json:"heuristic,omitempty"`  // Which classification rule matched (e.g. "local:question")
}

// StatementKind categorizes what sort of utterance a statement is
type StatementKind string

const (
	KindDeclarative StatementKind = "declarative" // A checkable factual claim
	KindOpinion     StatementKind = "opinion"     // First-person attitude, not checkable
	KindQuestion    StatementKind = "question"    // Interrogative
	KindOther       StatementKind = "other"       // Fragments, interjections, everything else
)

// EntryStatus is the lifecycle state of a queued statement.
// Transitions are monotonic: pending -> processing -> processed|failed.
type EntryStatus string

const (
	StatusPending    EntryStatus = "pending"
	StatusProcessing EntryStatus = "processing"
	StatusProcessed  EntryStatus = "processed"
	StatusFailed     EntryStatus = "failed"
)

// Terminal reports whether no further transition is allowed from s.
func (s EntryStatus) Terminal() bool {
	return s == StatusProcessed || s == StatusFailed
}

// QueueEntry wraps a declarative Statement through the verification
// lifecycle. One entry per statement, never reused; the status field is
// the only mutation after creation.
type QueueEntry struct {
	ID        string              `json:"id"`
	SessionID string              `json:"session_id"`
	Statement Statement           `json:"statement"`
	Status    EntryStatus         `json:"status"`
	Error     string              `json:"error,omitempty"`  // Set when status is failed
	Result    *VerificationResult `json:"result,omitempty"` // Set when status is processed
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}
