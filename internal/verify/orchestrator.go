package verify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/veristream/veristream/internal/model"
	"github.com/veristream/veristream/internal/worker"
)

// Orchestrator fans one statement out to the full agent roster and
// collects every verdict before returning. A failing agent degrades the
// vote count (inconclusive, zero confidence) instead of aborting the
// others or excluding the statement; there is no early exit on first
// result.
type Orchestrator struct {
	agents       []Agent
	limiter      *worker.Limiter // Per-agent dispatch pacing; may be nil
	agentTimeout time.Duration
	logger       *slog.Logger
}

// NewOrchestrator creates an orchestrator over a fixed agent roster
func NewOrchestrator(agents []Agent, limiter *worker.Limiter, agentTimeout time.Duration, logger *slog.Logger) (*Orchestrator, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("at least one verification agent is required")
	}
	if agentTimeout <= 0 {
		agentTimeout = 20 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		agents:       agents,
		limiter:      limiter,
		agentTimeout: agentTimeout,
		logger:       logger,
	}, nil
}

// AgentCount returns the roster size
func (o *Orchestrator) AgentCount() int {
	return len(o.agents)
}

// Verify dispatches the statement concurrently to every agent and waits
// for all calls to settle. The returned slice always has one verdict per
// agent, in dispatch order.
func (o *Orchestrator) Verify(ctx context.Context, statement string) []model.AgentVerdict {
	verdicts := make([]model.AgentVerdict, len(o.agents))
	var wg sync.WaitGroup

	for i, agent := range o.agents {
		wg.Add(1)
		go func(idx int, a Agent) {
			defer wg.Done()
			verdicts[idx] = o.callAgent(ctx, a, statement)
		}(i, agent)
	}

	wg.Wait()
	return verdicts
}

// callAgent guards one agent call: rate limit, per-call timeout, and
// conversion of any failure into an inconclusive verdict
func (o *Orchestrator) callAgent(ctx context.Context, agent Agent, statement string) model.AgentVerdict {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx, agent.Name()); err != nil {
			return inconclusiveVerdict(agent.Name(), fmt.Sprintf("dispatch cancelled: %v", err))
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, o.agentTimeout)
	defer cancel()

	verdict, err := agent.Verify(callCtx, statement)
	if err != nil {
		o.logger.Warn("agent call failed", "agent", agent.Name(), "error", err)
		return inconclusiveVerdict(agent.Name(), fmt.Sprintf("agent call failed: %v", err))
	}

	return verdict
}

// inconclusiveVerdict is the degraded form of a failed agent call
func inconclusiveVerdict(agent, reason string) model.AgentVerdict {
	return model.AgentVerdict{
		Agent:      agent,
		Verdict:    model.VerdictInconclusive,
		Confidence: 0,
		Reasoning:  reason,
	}
}
