package interject

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// toggleSignal is a hand-driven speaking signal
type toggleSignal struct{ speaking atomic.Bool }

func (s *toggleSignal) Speaking() bool { return s.speaking.Load() }

type recordingSpeaker struct {
	mu     sync.Mutex
	spoken []string
	at     []time.Time
}

func (s *recordingSpeaker) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	s.at = append(s.at, time.Now())
	return nil
}

func (s *recordingSpeaker) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

// fastScheduler shrinks the gate timings so tests finish quickly
func fastScheduler(signal Signal, speaker Speaker) *Scheduler {
	s := NewScheduler(signal, speaker, nil)
	s.poll = 5 * time.Millisecond
	s.silence = 40 * time.Millisecond
	s.ceiling = 300 * time.Millisecond
	return s
}

func TestScheduler_WaitsForSilence(t *testing.T) {
	signal := &toggleSignal{}
	signal.speaking.Store(true)
	speaker := &recordingSpeaker{}
	s := fastScheduler(signal, speaker)

	start := time.Now()
	s.ScheduleCorrection(context.Background(), "the capital of Australia is Canberra")

	// Keep talking well past the silence window, then stop
	time.Sleep(100 * time.Millisecond)
	if len(speaker.texts()) != 0 {
		t.Fatal("spoke while the speaker was still talking")
	}
	signal.speaking.Store(false)

	s.Wait()
	texts := speaker.texts()
	if len(texts) != 1 {
		t.Fatalf("spoken = %v", texts)
	}
	if elapsed := time.Since(start); elapsed < 140*time.Millisecond {
		t.Errorf("spoke too early: %v", elapsed)
	}
}

func TestScheduler_LeadInPrefix(t *testing.T) {
	signal := &toggleSignal{} // silent from the start
	speaker := &recordingSpeaker{}
	s := fastScheduler(signal, speaker)

	s.ScheduleCorrection(context.Background(), "water boils at 100 degrees Celsius at sea level")
	s.Wait()

	texts := speaker.texts()
	if len(texts) != 1 {
		t.Fatalf("spoken = %v", texts)
	}
	want := LeadIn + "water boils at 100 degrees Celsius at sea level"
	if texts[0] != want {
		t.Errorf("text = %q, want %q", texts[0], want)
	}
}

func TestScheduler_CeilingForcesDelivery(t *testing.T) {
	signal := &toggleSignal{}
	signal.speaking.Store(true) // never stops talking
	speaker := &recordingSpeaker{}
	s := fastScheduler(signal, speaker)

	s.ScheduleCorrection(context.Background(), "x")
	s.Wait()

	if len(speaker.texts()) != 1 {
		t.Fatal("ceiling did not force delivery")
	}
}

func TestScheduler_SilenceMustBeContinuous(t *testing.T) {
	signal := &toggleSignal{}
	speaker := &recordingSpeaker{}
	s := fastScheduler(signal, speaker)

	done := make(chan struct{})
	go func() {
		// Toggle faster than the silence window so it never accumulates
		for {
			select {
			case <-done:
				return
			default:
				signal.speaking.Store(true)
				time.Sleep(15 * time.Millisecond)
				signal.speaking.Store(false)
				time.Sleep(15 * time.Millisecond)
			}
		}
	}()

	start := time.Now()
	s.ScheduleCorrection(context.Background(), "x")
	s.Wait()
	close(done)

	// Only the ceiling can have delivered it
	if elapsed := time.Since(start); elapsed < 250*time.Millisecond {
		t.Errorf("delivered before the ceiling: %v", elapsed)
	}
	if len(speaker.texts()) != 1 {
		t.Fatal("correction never delivered")
	}
}

func TestScheduler_NonBlocking(t *testing.T) {
	signal := &toggleSignal{}
	signal.speaking.Store(true)
	s := fastScheduler(signal, &recordingSpeaker{})

	start := time.Now()
	s.ScheduleCorrection(context.Background(), "x")
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("ScheduleCorrection blocked for %v", elapsed)
	}
	s.Wait()
}

func TestScheduler_ContextCancelAbandons(t *testing.T) {
	signal := &toggleSignal{}
	signal.speaking.Store(true)
	speaker := &recordingSpeaker{}
	s := fastScheduler(signal, speaker)

	ctx, cancel := context.WithCancel(context.Background())
	s.ScheduleCorrection(ctx, "x")
	cancel()
	s.Wait()

	if len(speaker.texts()) != 0 {
		t.Errorf("spoke after cancellation: %v", speaker.texts())
	}
}

func TestScheduler_EmptyCorrectionIgnored(t *testing.T) {
	speaker := &recordingSpeaker{}
	s := fastScheduler(&toggleSignal{}, speaker)
	s.ScheduleCorrection(context.Background(), "")
	s.Wait()
	if len(speaker.texts()) != 0 {
		t.Error("empty correction was spoken")
	}
}

func TestEnergyMonitor_Thresholding(t *testing.T) {
	m := NewEnergyMonitor(0.05)
	if m.Speaking() {
		t.Error("speaking with no samples")
	}

	m.SetLevel(0.2, time.Now())
	if !m.Speaking() {
		t.Error("expected speaking above threshold")
	}

	m.SetLevel(0.01, time.Now())
	if m.Speaking() {
		t.Error("expected silence below threshold")
	}
}

func TestEnergyMonitor_StaleSamplesReadAsSilence(t *testing.T) {
	m := NewEnergyMonitor(0.05)
	m.SetLevel(0.9, time.Now().Add(-5*time.Second))
	if m.Speaking() {
		t.Error("stale sample still reads as speech")
	}
}

func TestLeadIn_EndsWithSpace(t *testing.T) {
	if !strings.HasSuffix(LeadIn, " ") {
		t.Error("lead-in must end with a space so the correction reads naturally")
	}
}
