package verify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/veristream/veristream/internal/model"
	"github.com/veristream/veristream/internal/worker"
)

// fakeAgent implements Agent for testing
type fakeAgent struct {
	name    string
	verdict model.Verdict
	err     error
	delay   time.Duration
	calls   int32
}

func (a *fakeAgent) Name() string { return a.name }

func (a *fakeAgent) Verify(ctx context.Context, statement string) (model.AgentVerdict, error) {
	atomic.AddInt32(&a.calls, 1)
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return model.AgentVerdict{}, ctx.Err()
		}
	}
	if a.err != nil {
		return model.AgentVerdict{}, a.err
	}
	return model.AgentVerdict{
		Agent:      a.name,
		Verdict:    a.verdict,
		Confidence: 0.9,
		Reasoning:  "looked it up",
	}, nil
}

func TestOrchestrator_RequiresAgents(t *testing.T) {
	if _, err := NewOrchestrator(nil, nil, 0, nil); err == nil {
		t.Fatal("expected error for empty roster")
	}
}

func TestOrchestrator_AllAgentsSettle(t *testing.T) {
	agents := []Agent{
		&fakeAgent{name: "a", verdict: model.VerdictTrue},
		&fakeAgent{name: "b", verdict: model.VerdictFalse},
		&fakeAgent{name: "c", verdict: model.VerdictInconclusive},
	}

	o, err := NewOrchestrator(agents, nil, time.Second, nil)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	verdicts := o.Verify(context.Background(), "the moon is made of cheese")
	if len(verdicts) != 3 {
		t.Fatalf("expected 3 verdicts, got %d", len(verdicts))
	}

	// Dispatch order is preserved
	for i, want := range []string{"a", "b", "c"} {
		if verdicts[i].Agent != want {
			t.Errorf("verdict %d from %s, want %s", i, verdicts[i].Agent, want)
		}
	}
}

func TestOrchestrator_FailingAgentDegrades(t *testing.T) {
	agents := []Agent{
		&fakeAgent{name: "healthy", verdict: model.VerdictFalse},
		&fakeAgent{name: "broken", err: errors.New("connection refused")},
		&fakeAgent{name: "slow", verdict: model.VerdictTrue, delay: 10 * time.Second},
	}

	o, err := NewOrchestrator(agents, nil, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	verdicts := o.Verify(context.Background(), "test statement")
	if len(verdicts) != 3 {
		t.Fatalf("expected complete result with 3 verdicts, got %d", len(verdicts))
	}

	if verdicts[0].Verdict != model.VerdictFalse {
		t.Errorf("healthy agent verdict = %v, want false", verdicts[0].Verdict)
	}

	// Both the erroring and timed-out agents become inconclusive, zero confidence
	for _, idx := range []int{1, 2} {
		if verdicts[idx].Verdict != model.VerdictInconclusive {
			t.Errorf("agent %s verdict = %v, want inconclusive", verdicts[idx].Agent, verdicts[idx].Verdict)
		}
		if verdicts[idx].Confidence != 0 {
			t.Errorf("agent %s confidence = %v, want 0", verdicts[idx].Agent, verdicts[idx].Confidence)
		}
		if verdicts[idx].Reasoning == "" {
			t.Errorf("agent %s should carry the failure reason", verdicts[idx].Agent)
		}
	}
}

func TestOrchestrator_EveryAgentCalledOnce(t *testing.T) {
	a := &fakeAgent{name: "a", verdict: model.VerdictTrue}
	b := &fakeAgent{name: "b", err: errors.New("boom")}

	o, err := NewOrchestrator([]Agent{a, b}, worker.NewLimiter(100, 10), time.Second, nil)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	o.Verify(context.Background(), "statement")

	if atomic.LoadInt32(&a.calls) != 1 {
		t.Errorf("agent a called %d times, want 1", a.calls)
	}
	if atomic.LoadInt32(&b.calls) != 1 {
		t.Errorf("agent b called %d times, want 1", b.calls)
	}
}
