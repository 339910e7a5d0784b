package correction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/veristream/veristream/internal/llm"
	"github.com/veristream/veristream/internal/model"
)

// FallbackPrefix labels a correction quoted verbatim from an agent when
// remote synthesis is unavailable
const FallbackPrefix = "Correction: "

// genericCorrection covers the case where the consensus is false but no
// individual agent voted false (the authority may overrule the vote)
const genericCorrection = "That statement was determined to be false, but no specific correction is available."

// Synthesizer turns the false-voting agents' reasoning into a short
// spoken correction. Only invoked when the consensus is false.
type Synthesizer struct {
	provider llm.Provider // nil = always quote the first false voter
	logger   *slog.Logger
}

// NewSynthesizer creates a synthesizer. A nil provider disables remote
// synthesis and corrections quote agent reasoning directly.
func NewSynthesizer(provider llm.Provider, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{provider: provider, logger: logger}
}

// Synthesize produces the corrective message and citation list for a
// statement judged false. Citations are the order-preserving
// deduplicated union of all false-voting agents' citations.
func (s *Synthesizer) Synthesize(ctx context.Context, statement string, verdicts []model.AgentVerdict) (string, []string) {
	var reasonings []string
	var citations []string
	seen := make(map[string]bool)

	for _, v := range verdicts {
		if v.Verdict != model.VerdictFalse {
			continue
		}
		if r := strings.TrimSpace(v.Reasoning); r != "" {
			reasonings = append(reasonings, r)
		}
		for _, c := range v.Citations {
			if !seen[c] {
				seen[c] = true
				citations = append(citations, c)
			}
		}
	}

	if len(reasonings) == 0 {
		return genericCorrection, nil
	}

	if text := s.compose(ctx, statement, reasonings); text != "" {
		return text, citations
	}

	return FallbackPrefix + reasonings[0], citations
}

// compose makes one remote synthesis attempt; empty string means fall back
func (s *Synthesizer) compose(ctx context.Context, statement string, reasonings []string) string {
	if s.provider == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Statement judged false: %s\n\nFact-checker findings:\n", statement)
	for _, r := range reasonings {
		fmt.Fprintf(&b, "- %s\n", r)
	}

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		System: "You write one-sentence spoken corrections for false statements. Be factual and neutral; never address anyone in the first or second person. Reply with the correction only.",
		Prompt: b.String(),
	})
	if err != nil {
		s.logger.Debug("correction synthesis failed, quoting agent reasoning", "error", err)
		return ""
	}

	return strings.TrimSpace(resp.Text)
}
