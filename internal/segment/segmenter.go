package segment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/veristream/veristream/internal/llm"
)

// Coordinating conjunctions that can join two independent clauses.
// A split is only accepted when both halves look like standalone claims.
var conjunctions = []string{"and", "but", "or", "so", "yet"}

// Closed set of finite-verb tokens. A clause without one of these is a
// modifier phrase, not an independent claim, and is never split off.
var finiteVerbs = map[string]bool{
	"is": true, "are": true, "was": true, "were": true,
	"has": true, "have": true, "had": true,
	"will": true, "would": true, "can": true, "could": true,
	"does": true, "did": true,
}

// Clauses shorter than this are fragments, not claims
const minClauseLen = 5

// HistorySize is how many prior statements are kept as disambiguating
// context for segmentation and classification.
const HistorySize = 5

// Segmenter splits a raw transcribed utterance into atomic statements.
// It holds no state across calls; history is supplied by the caller.
type Segmenter struct {
	provider llm.Provider // Optional semantic improvement; nil = local only
	logger   *slog.Logger
}

// NewSegmenter creates a segmenter. A nil provider disables the remote
// improvement pass and segmentation runs purely on local rules.
func NewSegmenter(provider llm.Provider, logger *slog.Logger) *Segmenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Segmenter{provider: provider, logger: logger}
}

// Segment splits one utterance into an ordered, non-empty sequence of
// candidate statements. history carries up to HistorySize prior
// statements, most recent last. Any non-empty input yields at least one
// statement; empty input echoes the original text back as one statement.
func (s *Segmenter) Segment(ctx context.Context, utterance string, history []string) []string {
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return []string{utterance}
	}

	text := s.improve(ctx, trimmed, history)

	var statements []string
	for _, sentence := range splitSentences(text) {
		statements = append(statements, splitClauses(sentence)...)
	}

	if len(statements) == 0 {
		return []string{utterance}
	}
	return statements
}

// improve optionally clarifies garbled transcription via the remote
// provider. Any failure falls back to the original text unchanged.
func (s *Segmenter) improve(ctx context.Context, text string, history []string) string {
	if s.provider == nil {
		return text
	}

	prompt := buildImprovePrompt(text, history)
	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		System: "You clean up speech-to-text output. Fix transcription artifacts and broken grammar without adding, removing, or reinterpreting any content. Reply with the cleaned text only.",
		Prompt: prompt,
	})
	if err != nil {
		s.logger.Debug("semantic improvement failed, using original text", "error", err)
		return text
	}

	improved := strings.TrimSpace(resp.Text)
	if improved == "" {
		return text
	}
	return improved
}

func buildImprovePrompt(text string, history []string) string {
	if len(history) == 0 {
		return text
	}
	var b strings.Builder
	b.WriteString("Recent conversation for context:\n")
	for _, h := range history {
		fmt.Fprintf(&b, "- %s\n", h)
	}
	b.WriteString("\nText to clean up:\n")
	b.WriteString(text)
	return b.String()
}

// splitSentences splits text on sentence-terminating punctuation,
// keeping any trailing unterminated text as a final sentence.
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if sentence := strings.TrimSpace(current.String()); sentence != "" {
				sentences = append(sentences, sentence)
			}
			current.Reset()
		}
	}

	if sentence := strings.TrimSpace(current.String()); sentence != "" {
		sentences = append(sentences, sentence)
	}

	return sentences
}

// splitClauses splits one sentence at coordinating conjunctions and
// semicolons, but only where both halves are independent claims: each
// must contain a finite verb and exceed minClauseLen characters. With no
// valid split point the sentence is emitted whole.
func splitClauses(sentence string) []string {
	for _, point := range splitPoints(sentence) {
		left := strings.TrimSpace(sentence[:point.start])
		right := strings.TrimSpace(sentence[point.end:])

		if len(left) <= minClauseLen || len(right) <= minClauseLen {
			continue
		}
		if !hasFiniteVerb(left) || !hasFiniteVerb(right) {
			continue
		}

		return append(splitClauses(left), splitClauses(right)...)
	}

	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sentence), "."))
	if trimmed == "" {
		return nil
	}
	return []string{trimmed}
}

// splitPoint marks a candidate split: the byte range of the connective
type splitPoint struct {
	start, end int
}

// splitPoints returns every conjunction and semicolon position in order
func splitPoints(sentence string) []splitPoint {
	var points []splitPoint

	for i, r := range sentence {
		if r == ';' {
			points = append(points, splitPoint{start: i, end: i + 1})
		}
	}

	lower := strings.ToLower(sentence)
	for _, conj := range conjunctions {
		needle := " " + conj + " "
		offset := 0
		for {
			idx := strings.Index(lower[offset:], needle)
			if idx < 0 {
				break
			}
			at := offset + idx
			points = append(points, splitPoint{start: at, end: at + len(needle)})
			offset = at + len(needle)
		}
	}

	// Scan left to right regardless of connective kind
	for i := 1; i < len(points); i++ {
		for j := i; j > 0 && points[j].start < points[j-1].start; j-- {
			points[j], points[j-1] = points[j-1], points[j]
		}
	}

	return points
}

// hasFiniteVerb reports whether any token of the clause is in the
// closed finite-verb set
func hasFiniteVerb(clause string) bool {
	for _, token := range strings.Fields(strings.ToLower(clause)) {
		token = strings.Trim(token, ".,;:!?\"'")
		if finiteVerbs[token] {
			return true
		}
	}
	return false
}
