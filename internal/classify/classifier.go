package classify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"unicode"

	"github.com/veristream/veristream/internal/llm"
	"github.com/veristream/veristream/internal/model"
)

// Confidence assigned by the local rules
const (
	questionConfidence    = 0.9
	opinionConfidence     = 0.85
	declarativeConfidence = 0.7
	otherConfidence       = 0.5

	// Assigned when the remote tier was configured but failed
	degradedConfidence = 0.4
)

var questionPrefixes = []string{
	"what", "who", "whom", "whose", "where", "when", "why", "how", "which",
	"can you", "could you", "would you", "will you", "do you", "are you",
}

// Attitude markers make a statement an opinion wherever they appear
// ("Honestly, I think..." is still an opinion)
var opinionMarkers = []string{
	"i think", "i believe", "i feel", "in my opinion",
}

// Preference verbs only count at the start; mid-sentence they are too
// often part of a factual report ("critics say they hate it")
var opinionPrefixes = []string{
	"i prefer", "i like", "i love", "i hate", "i dislike",
}

// Copular/auxiliary verbs that mark a declarative assertion
var auxiliaryVerbs = map[string]bool{
	"is": true, "are": true, "was": true, "were": true, "am": true, "be": true,
	"has": true, "have": true, "had": true,
	"will": true, "would": true, "can": true, "could": true,
	"does": true, "did": true, "do": true,
}

var pronouns = map[string]bool{
	"i": true, "you": true, "he": true, "she": true, "it": true,
	"we": true, "they": true,
	"this": true, "that": true, "these": true, "those": true,
}

// Result is one classification outcome
type Result struct {
	Kind       model.StatementKind
	Confidence float64
	Heuristic  string // Which rule decided (e.g. "local:question", "remote:claim")
}

// Classifier decides whether a statement is a checkable claim.
// Local pattern rules run first; an optional remote classifier is the
// tie-breaker of record for declarative-vs-not. Remote failure silently
// degrades to the local result with a fixed low confidence.
type Classifier struct {
	provider llm.Provider // nil = local rules only
	logger   *slog.Logger
}

// NewClassifier creates a classifier. A nil provider disables the remote tier.
func NewClassifier(provider llm.Provider, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{provider: provider, logger: logger}
}

// Classify determines the kind and confidence of one candidate statement.
// history carries recent prior statements for context, most recent last.
func (c *Classifier) Classify(ctx context.Context, text string, history []string) Result {
	local := classifyLocal(text)

	// Punctuation is decisive for questions; they never reach the remote tier
	if c.provider == nil || local.Kind == model.KindQuestion {
		return local
	}

	remote, err := c.classifyRemote(ctx, text, history)
	if err != nil {
		c.logger.Debug("remote classification failed, using local rule", "error", err)
		return Result{Kind: local.Kind, Confidence: degradedConfidence, Heuristic: local.Heuristic + ":degraded"}
	}

	confidence := local.Confidence
	if remote.Confidence > confidence {
		confidence = remote.Confidence
	}

	// The remote boolean overrides declarative-vs-not only
	if remote.IsClaim {
		return Result{Kind: model.KindDeclarative, Confidence: confidence, Heuristic: "remote:claim"}
	}
	if local.Kind == model.KindDeclarative {
		return Result{Kind: model.KindOther, Confidence: confidence, Heuristic: "remote:not-claim"}
	}
	return Result{Kind: local.Kind, Confidence: confidence, Heuristic: local.Heuristic}
}

// classifyLocal applies the pattern rules
func classifyLocal(text string) Result {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	if strings.HasSuffix(trimmed, "?") || hasAnyPrefix(lower, questionPrefixes) {
		return Result{Kind: model.KindQuestion, Confidence: questionConfidence, Heuristic: "local:question"}
	}

	if containsAnyPhrase(lower, opinionMarkers) || hasAnyPrefix(lower, opinionPrefixes) {
		return Result{Kind: model.KindOpinion, Confidence: opinionConfidence, Heuristic: "local:opinion"}
	}

	if looksDeclarative(lower) {
		return Result{Kind: model.KindDeclarative, Confidence: declarativeConfidence, Heuristic: "local:declarative"}
	}

	return Result{Kind: model.KindOther, Confidence: otherConfidence, Heuristic: "local:other"}
}

func hasAnyPrefix(lower string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if lower == prefix || strings.HasPrefix(lower, prefix+" ") {
			return true
		}
	}
	return false
}

// containsAnyPhrase matches a phrase on word boundaries anywhere in the text
func containsAnyPhrase(lower string, phrases []string) bool {
	for _, phrase := range phrases {
		if lower == phrase ||
			strings.HasPrefix(lower, phrase+" ") ||
			strings.HasSuffix(lower, " "+phrase) ||
			strings.Contains(lower, " "+phrase+" ") {
			return true
		}
	}
	return false
}

// looksDeclarative checks for an auxiliary verb, a pronoun, or a digit
func looksDeclarative(lower string) bool {
	for _, r := range lower {
		if unicode.IsDigit(r) {
			return true
		}
	}
	for _, token := range strings.Fields(lower) {
		token = strings.Trim(token, ".,;:!?\"'")
		if auxiliaryVerbs[token] || pronouns[token] {
			return true
		}
	}
	return false
}

// remoteDecision is what the remote classifier returns
type remoteDecision struct {
	IsClaim    bool    `json:"claim"`
	Confidence float64 `json:"confidence"`
}

func (c *Classifier) classifyRemote(ctx context.Context, text string, history []string) (*remoteDecision, error) {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, h := range history {
			b.WriteString("- ")
			b.WriteString(h)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Statement: ")
	b.WriteString(text)

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		System: `You decide whether a statement is a verifiable factual claim. Reply with JSON only: {"claim": true|false, "confidence": 0.0-1.0}`,
		Prompt: b.String(),
	})
	if err != nil {
		return nil, err
	}

	var decision remoteDecision
	if err := json.Unmarshal([]byte(extractJSON(resp.Text)), &decision); err != nil {
		return nil, err
	}
	if decision.Confidence < 0 {
		decision.Confidence = 0
	}
	if decision.Confidence > 1 {
		decision.Confidence = 1
	}
	return &decision, nil
}

// extractJSON pulls the first {...} object out of a completion that may
// wrap it in prose or a code fence
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}
