package correction

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/veristream/veristream/internal/llm"
	"github.com/veristream/veristream/internal/model"
)

type stubProvider struct {
	text string
	err  error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Text: p.text}, nil
}

func (p *stubProvider) IsAvailable(ctx context.Context) bool { return true }

func falseVerdict(agent, reasoning string, citations ...string) model.AgentVerdict {
	return model.AgentVerdict{
		Agent: agent, Verdict: model.VerdictFalse, Confidence: 0.9,
		Reasoning: reasoning, Citations: citations,
	}
}

func TestSynthesize_RemoteComposition(t *testing.T) {
	provider := &stubProvider{text: "The Great Wall is not visible from low Earth orbit with the naked eye."}
	s := NewSynthesizer(provider, nil)

	text, citations := s.Synthesize(context.Background(), "The Great Wall is visible from space", []model.AgentVerdict{
		falseVerdict("checker-a", "Astronauts report it is not visible unaided", "https://example.org/nasa"),
		{Agent: "checker-b", Verdict: model.VerdictTrue, Confidence: 0.4},
	})

	if !strings.Contains(text, "not visible") {
		t.Errorf("unexpected correction text: %q", text)
	}
	if !reflect.DeepEqual(citations, []string{"https://example.org/nasa"}) {
		t.Errorf("citations = %v", citations)
	}
}

func TestSynthesize_FallbackQuotesFirstFalseVoter(t *testing.T) {
	provider := &stubProvider{err: errors.New("model overloaded")}
	s := NewSynthesizer(provider, nil)

	text, _ := s.Synthesize(context.Background(), "x", []model.AgentVerdict{
		falseVerdict("checker-a", "the date is wrong"),
		falseVerdict("checker-b", "the place is wrong"),
	})

	want := FallbackPrefix + "the date is wrong"
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestSynthesize_NoProviderQuotesDirectly(t *testing.T) {
	s := NewSynthesizer(nil, nil)

	text, _ := s.Synthesize(context.Background(), "x", []model.AgentVerdict{
		falseVerdict("checker-a", "source says otherwise"),
	})

	if text != FallbackPrefix+"source says otherwise" {
		t.Errorf("text = %q", text)
	}
}

func TestSynthesize_NoFalseVotersGeneric(t *testing.T) {
	// Valid outcome: the authority called it false though no agent did
	s := NewSynthesizer(nil, nil)

	text, citations := s.Synthesize(context.Background(), "x", []model.AgentVerdict{
		{Agent: "a", Verdict: model.VerdictTrue, Confidence: 0.5},
		{Agent: "b", Verdict: model.VerdictInconclusive, Confidence: 0},
	})

	if text != genericCorrection {
		t.Errorf("text = %q", text)
	}
	if citations != nil {
		t.Errorf("expected no citations, got %v", citations)
	}
}

func TestSynthesize_CitationUnionDeduplicated(t *testing.T) {
	s := NewSynthesizer(nil, nil)

	_, citations := s.Synthesize(context.Background(), "x", []model.AgentVerdict{
		falseVerdict("a", "r1", "https://one", "https://two"),
		falseVerdict("b", "r2", "https://two", "https://three"),
		falseVerdict("c", "r3", "https://one"),
	})

	want := []string{"https://one", "https://two", "https://three"}
	if !reflect.DeepEqual(citations, want) {
		t.Errorf("citations = %v, want %v", citations, want)
	}
}
