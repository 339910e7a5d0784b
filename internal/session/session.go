package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/veristream/veristream/internal/cache"
	"github.com/veristream/veristream/internal/classify"
	"github.com/veristream/veristream/internal/consensus"
	"github.com/veristream/veristream/internal/correction"
	"github.com/veristream/veristream/internal/model"
	"github.com/veristream/veristream/internal/queue"
	"github.com/veristream/veristream/internal/segment"
	"github.com/veristream/veristream/internal/store"
	"github.com/veristream/veristream/internal/verify"
	"github.com/veristream/veristream/internal/worker"
)

// CorrectionScheduler delivers a spoken correction at a suitable moment.
type CorrectionScheduler interface {
	ScheduleCorrection(ctx context.Context, correction string)
}

// Deps are the pipeline components a session runs on. Sessions share
// them; only conversational state is per-session.
type Deps struct {
	Segmenter    *segment.Segmenter
	Classifier   *classify.Classifier
	Orchestrator *verify.Orchestrator
	Consensus    *consensus.Engine
	Synthesizer  *correction.Synthesizer
	Queue        *queue.Queue
	Records      store.RecordStore   // May be nil
	Cache        *cache.ResultCache  // May be nil
	Gate         *worker.Gate
	Scheduler    CorrectionScheduler // May be nil; corrections are then only recorded
	Logger       *slog.Logger
}

// Session is one live conversation: it carries the rolling statement
// history and drives each utterance through segmentation,
// classification, verification and correction delivery.
type Session struct {
	id   string
	deps Deps

	mu      sync.Mutex
	history []string // Most recent last, capped at segment.HistorySize

	wg sync.WaitGroup
}

// New creates a session with a fresh ID.
func New(deps Deps) *Session {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Session{
		id:   uuid.New().String(),
		deps: deps,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// HandleUtterance ingests one transcribed utterance. Declarative
// statements are enqueued and verified on background goroutines; the
// call itself never blocks on verification. Returns the statements
// recognized in the utterance, in order.
//
// Cancelling ctx cancels the background verifications too; ingress
// callers that must not abort verification when the carrying request
// ends pass a detached context.
func (s *Session) HandleUtterance(ctx context.Context, text, speaker string) []model.Statement {
	s.mu.Lock()
	history := append([]string(nil), s.history...)
	s.mu.Unlock()

	parts := s.deps.Segmenter.Segment(ctx, text, history)

	statements := make([]model.Statement, 0, len(parts))
	for _, part := range parts {
		result := s.deps.Classifier.Classify(ctx, part, history)
		st := model.Statement{
			Text:       part,
			Speaker:    speaker,
			At:         time.Now(),
			Kind:       result.Kind,
			Confidence: result.Confidence,
			Heuristic:  result.Heuristic,
		}
		statements = append(statements, st)
		s.remember(part)
		history = append(history, part)

		if s.deps.Records != nil {
			if err := s.deps.Records.SaveStatement(ctx, s.id, st); err != nil {
				s.deps.Logger.Warn("statement persistence failed", "error", err)
			}
		}

		if st.Kind != model.KindDeclarative {
			s.deps.Logger.Debug("statement skipped",
				"kind", st.Kind, "heuristic", st.Heuristic, "text", part)
			continue
		}

		entryID := s.deps.Queue.Enqueue(ctx, s.id, st)
		s.wg.Add(1)
		go func(id, text string) {
			defer s.wg.Done()
			s.process(ctx, id, text)
		}(entryID, part)
	}

	return statements
}

// remember appends one statement to the rolling history window
func (s *Session) remember(text string) {
	s.mu.Lock()
	s.history = append(s.history, text)
	if len(s.history) > segment.HistorySize {
		s.history = s.history[len(s.history)-segment.HistorySize:]
	}
	s.mu.Unlock()
}

// process runs one queue entry through verification to a terminal state
func (s *Session) process(ctx context.Context, entryID, text string) {
	if err := s.deps.Gate.Acquire(ctx); err != nil {
		s.fail(ctx, entryID, fmt.Sprintf("verification cancelled: %v", err))
		return
	}
	defer s.deps.Gate.Release()

	if err := s.deps.Queue.MarkProcessing(ctx, entryID); err != nil {
		s.deps.Logger.Warn("queue transition failed", "entry_id", entryID, "error", err)
		return
	}

	result := s.lookup(entryID, text)
	if result == nil {
		result = s.verify(ctx, entryID, text)
	}

	if err := s.deps.Queue.Complete(ctx, entryID, result); err != nil {
		s.deps.Logger.Warn("queue transition failed", "entry_id", entryID, "error", err)
		return
	}

	if result.Consensus == model.ConsensusFalse && s.deps.Scheduler != nil {
		s.deps.Scheduler.ScheduleCorrection(ctx, result.Correction)
	}
}

// lookup serves a cached verdict for a repeated claim. The cached result
// is copied and restamped with the current entry's ID; every entry owns
// a result that points back at it.
func (s *Session) lookup(entryID, text string) *model.VerificationResult {
	if s.deps.Cache == nil {
		return nil
	}
	cached, found := s.deps.Cache.Get(text)
	if !found {
		return nil
	}
	s.deps.Logger.Debug("verification cache hit", "text", text)

	result := *cached
	result.StatementID = entryID
	return &result
}

// verify runs the full agent fan-out and consensus for one statement
func (s *Session) verify(ctx context.Context, entryID, text string) *model.VerificationResult {
	verdicts := s.deps.Orchestrator.Verify(ctx, text)
	cons, score := s.deps.Consensus.Consense(ctx, verdicts)

	result := &model.VerificationResult{
		StatementID: entryID,
		Consensus:   cons,
		Score:       score,
		Verdicts:    verdicts,
		CompletedAt: time.Now(),
	}

	if cons == model.ConsensusFalse {
		result.Correction, result.Citations = s.deps.Synthesizer.Synthesize(ctx, text, verdicts)
	}

	if s.deps.Cache != nil {
		s.deps.Cache.Set(text, result)
	}

	s.deps.Logger.Info("statement verified",
		"entry_id", entryID, "consensus", cons, "score", score, "agents", len(verdicts))
	return result
}

func (s *Session) fail(ctx context.Context, entryID, reason string) {
	if err := s.deps.Queue.Fail(ctx, entryID, reason); err != nil {
		s.deps.Logger.Warn("queue transition failed", "entry_id", entryID, "error", err)
	}
}

// Wait blocks until every in-flight verification spawned by this session
// has reached a terminal state.
func (s *Session) Wait() {
	s.wg.Wait()
}
