package consensus

import (
	"context"
	"log/slog"

	"github.com/veristream/veristream/internal/model"
)

// Threshold is the vote fraction required for a true or false consensus.
// Fixed design constant, not a per-call parameter.
const Threshold = 0.6

// Authority is a remote consensus arbiter. Any error triggers the
// deterministic local vote; the authority is never load-bearing.
type Authority interface {
	Consense(ctx context.Context, verdicts []model.AgentVerdict) (model.Consensus, float64, error)
}

// Engine reduces a set of agent verdicts to one final verdict and score
type Engine struct {
	authority Authority // nil = local vote only
	logger    *slog.Logger
}

// NewEngine creates a consensus engine. A nil authority means the local
// majority vote is always used.
func NewEngine(authority Authority, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{authority: authority, logger: logger}
}

// Consense folds the verdict set into a final consensus and score.
// Deterministic for identical input when the local vote decides.
func (e *Engine) Consense(ctx context.Context, verdicts []model.AgentVerdict) (model.Consensus, float64) {
	if e.authority != nil {
		consensus, score, err := e.authority.Consense(ctx, verdicts)
		if err == nil {
			return consensus, score
		}
		e.logger.Debug("consensus authority failed, using local vote", "error", err)
	}

	return localVote(verdicts)
}

// localVote applies the majority-threshold rule: false wins at >= 60%
// false votes, true wins at >= 60% true votes, otherwise inconclusive
// with the dominant fraction as score. Inconclusive verdicts count
// toward the total only.
func localVote(verdicts []model.AgentVerdict) (model.Consensus, float64) {
	n := len(verdicts)
	if n == 0 {
		return model.ConsensusInconclusive, 0
	}

	var trueVotes, falseVotes int
	for _, v := range verdicts {
		switch v.Verdict {
		case model.VerdictTrue:
			trueVotes++
		case model.VerdictFalse:
			falseVotes++
		}
	}

	f := float64(falseVotes) / float64(n)
	t := float64(trueVotes) / float64(n)
	inc := float64(n-trueVotes-falseVotes) / float64(n)

	// f+t <= 1, so at most one side can reach the threshold
	if f >= Threshold {
		return model.ConsensusFalse, f
	}
	if t >= Threshold {
		return model.ConsensusTrue, t
	}

	score := f
	if t > score {
		score = t
	}
	if inc > score {
		score = inc
	}
	return model.ConsensusInconclusive, score
}
