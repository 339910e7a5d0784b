package segment

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/veristream/veristream/internal/llm"
)

// stubProvider implements llm.Provider for testing
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

func TestSegmenter_Segment_ConjunctionSplit(t *testing.T) {
	s := NewSegmenter(nil, nil)

	got := s.Segment(context.Background(), "The sky is blue and water is wet", nil)
	want := []string{"The sky is blue", "water is wet"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment() = %v, want %v", got, want)
	}
}

func TestSegmenter_Segment_NoSplitWithoutFiniteVerbs(t *testing.T) {
	s := NewSegmenter(nil, nil)

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "modifier phrase after conjunction",
			input: "The report is thorough and well written.",
			want:  []string{"The report is thorough and well written"},
		},
		{
			name:  "short halves",
			input: "It is and was.",
			want:  []string{"It is and was"},
		},
		{
			name:  "no conjunction",
			input: "The capital of France is Paris.",
			want:  []string{"The capital of France is Paris"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Segment(context.Background(), tt.input, nil)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Segment(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSegmenter_Segment_Sentences(t *testing.T) {
	s := NewSegmenter(nil, nil)

	got := s.Segment(context.Background(), "The earth is round. The moon has craters.", nil)
	want := []string{"The earth is round", "The moon has craters"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment() = %v, want %v", got, want)
	}
}

func TestSegmenter_Segment_Semicolon(t *testing.T) {
	s := NewSegmenter(nil, nil)

	got := s.Segment(context.Background(), "The earth is round; the moon has craters", nil)
	want := []string{"The earth is round", "the moon has craters"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment() = %v, want %v", got, want)
	}
}

func TestSegmenter_Segment_NeverEmpty(t *testing.T) {
	s := NewSegmenter(nil, nil)

	inputs := []string{"", "   ", "...", "hello", "um"}
	for _, input := range inputs {
		got := s.Segment(context.Background(), input, nil)
		if len(got) == 0 {
			t.Errorf("Segment(%q) returned empty sequence", input)
		}
	}

	// Whitespace-only input echoes the original back unmodified
	got := s.Segment(context.Background(), "   ", nil)
	if !reflect.DeepEqual(got, []string{"   "}) {
		t.Errorf("Segment(whitespace) = %v, want original text", got)
	}
}

func TestSegmenter_Segment_ImprovedText(t *testing.T) {
	provider := &stubProvider{text: "The tower is in Paris and it was built in 1889."}
	s := NewSegmenter(provider, nil)

	got := s.Segment(context.Background(), "the tower is in paris an it was built in 1889", []string{"We were discussing the Eiffel Tower"})
	want := []string{"The tower is in Paris", "it was built in 1889"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment() = %v, want %v", got, want)
	}
}

func TestSegmenter_Segment_ImproveFailureFallsBack(t *testing.T) {
	provider := &stubProvider{err: errors.New("network down")}
	s := NewSegmenter(provider, nil)

	got := s.Segment(context.Background(), "The sky is blue and water is wet", nil)
	want := []string{"The sky is blue", "water is wet"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment() with failing provider = %v, want %v", got, want)
	}
}

func TestHasFiniteVerb(t *testing.T) {
	tests := []struct {
		clause string
		want   bool
	}{
		{"the sky is blue", true},
		{"they have arrived", true},
		{"running quickly", false},
		{"", false},
		{"it was.", true},
	}

	for _, tt := range tests {
		if got := hasFiniteVerb(tt.clause); got != tt.want {
			t.Errorf("hasFiniteVerb(%q) = %v, want %v", tt.clause, got, tt.want)
		}
	}
}
