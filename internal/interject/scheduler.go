package interject

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// LeadIn softens every spoken correction before the substance lands
const LeadIn = "Actually, that's not quite right. "

// Timing constants for the silence gate. A correction waits for a
// natural pause but never goes stale.
const (
	pollInterval  = 100 * time.Millisecond
	silenceWindow = 1 * time.Second  // Continuous silence required before speaking
	maxWait       = 10 * time.Second // Ceiling; interject even mid-speech
)

// Signal reports whether anyone is currently speaking.
type Signal interface {
	Speaking() bool
}

// Speaker renders one correction as audio output.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Scheduler delivers corrections at conversational pauses. It polls the
// speaking signal and speaks after more than a second of continuous
// silence, or unconditionally once the ceiling expires.
type Scheduler struct {
	signal  Signal
	speaker Speaker
	logger  *slog.Logger

	// Overridable in tests; production always uses the package constants
	poll    time.Duration
	silence time.Duration
	ceiling time.Duration

	speakMu sync.Mutex // Corrections never talk over each other
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler over the given speaking signal and
// speech output.
func NewScheduler(signal Signal, speaker Speaker, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		signal:  signal,
		speaker: speaker,
		logger:  logger,
		poll:    pollInterval,
		silence: silenceWindow,
		ceiling: maxWait,
	}
}

// ScheduleCorrection queues a correction for delivery and returns
// immediately. The correction is spoken with the lead-in once the
// silence gate opens or the ceiling passes, whichever comes first.
func (s *Scheduler) ScheduleCorrection(ctx context.Context, correction string) {
	if correction == "" {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.deliver(ctx, correction)
	}()
}

// Wait blocks until every scheduled correction has been delivered or
// abandoned. Used at shutdown and by the one-shot check command.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) deliver(ctx context.Context, correction string) {
	deadline := time.Now().Add(s.ceiling)
	var silentSince time.Time

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("correction abandoned", "reason", ctx.Err(), "correction", correction)
			return
		case now := <-ticker.C:
			if s.signal.Speaking() {
				silentSince = time.Time{}
			} else if silentSince.IsZero() {
				silentSince = now
			}

			pause := !silentSince.IsZero() && now.Sub(silentSince) > s.silence
			expired := now.After(deadline)
			if pause || expired {
				s.speak(ctx, correction, expired && !pause)
				return
			}
		}
	}
}

func (s *Scheduler) speak(ctx context.Context, correction string, forced bool) {
	s.speakMu.Lock()
	defer s.speakMu.Unlock()

	text := LeadIn + correction
	s.logger.Info("delivering correction", "forced", forced, "text", text)
	if err := s.speaker.Speak(ctx, text); err != nil {
		s.logger.Warn("speech output failed", "error", err)
	}
}
