package model

import "time"

// Verdict is a single agent's judgement of one statement
type Verdict string

const (
	VerdictTrue         Verdict = "true"
	VerdictFalse        Verdict = "false"
	VerdictInconclusive Verdict = "inconclusive"
)

// AgentVerdict is what one verification agent returned for one statement.
// Agent failures are absorbed here as inconclusive verdicts with zero
// confidence rather than surfacing as errors.
type AgentVerdict struct {
	Agent      string   `json:"agent"`                // Which verifier produced this
	Verdict    Verdict  `json:"verdict"`
	Confidence float64  `json:"confidence"`           // 0-1
	Reasoning  string   `json:"reasoning,omitempty"`  // Free-text justification (or failure reason)
	Citations  []string `json:"citations,omitempty"`
}

// Consensus is the single combined verdict over all agents
type Consensus string

const (
	ConsensusTrue         Consensus = "verified_true"
	ConsensusFalse        Consensus = "verified_false"
	ConsensusInconclusive Consensus = "inconclusive"
)

// VerificationResult is the immutable outcome of verifying one statement:
// every agent's verdict (in dispatch order), the folded consensus, and the
// correction prepared when the consensus is false.
type VerificationResult struct {
	StatementID string         `json:"statement_id"`
	Consensus   Consensus      `json:"consensus"`
	Score       float64        `json:"score"`                // 0-1
	Verdicts    []AgentVerdict `json:"verdicts"`             // One per configured agent
	Correction  string         `json:"correction,omitempty"` // Only when consensus is false
	Citations   []string       `json:"citations,omitempty"`  // Union of false-voting agents' citations
	CompletedAt time.Time      `json:"completed_at"`
}
