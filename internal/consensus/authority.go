package consensus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/veristream/veristream/internal/model"
)

// HTTPAuthority reaches a remote consensus service:
// POST [{agentName, verdict, confidence}] -> {verdict, score}.
// The authority is not required to be a pure vote; it may overrule the
// individual agents.
type HTTPAuthority struct {
	url        string
	httpClient *http.Client
}

// NewHTTPAuthority creates an authority client with its own timeout
func NewHTTPAuthority(url string, timeout time.Duration) *HTTPAuthority {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPAuthority{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type authorityRequestEntry struct {
	AgentName  string  `json:"agentName"`
	Verdict    string  `json:"verdict"`
	Confidence float64 `json:"confidence"`
}

type authorityResponse struct {
	Verdict string  `json:"verdict"` // true, false, inconclusive
	Score   float64 `json:"score"`
}

// Consense submits the verdict set and parses the arbiter's decision
func (a *HTTPAuthority) Consense(ctx context.Context, verdicts []model.AgentVerdict) (model.Consensus, float64, error) {
	entries := make([]authorityRequestEntry, len(verdicts))
	for i, v := range verdicts {
		entries[i] = authorityRequestEntry{
			AgentName:  v.Agent,
			Verdict:    string(v.Verdict),
			Confidence: v.Confidence,
		}
	}

	body, err := json.Marshal(entries)
	if err != nil {
		return "", 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("HTTP %d from consensus authority", resp.StatusCode)
	}

	var decision authorityResponse
	if err := json.Unmarshal(respBody, &decision); err != nil {
		return "", 0, fmt.Errorf("parse response: %w", err)
	}

	var consensus model.Consensus
	switch strings.ToLower(strings.TrimSpace(decision.Verdict)) {
	case "true", "verified_true":
		consensus = model.ConsensusTrue
	case "false", "verified_false":
		consensus = model.ConsensusFalse
	case "inconclusive":
		consensus = model.ConsensusInconclusive
	default:
		return "", 0, fmt.Errorf("unknown authority verdict %q", decision.Verdict)
	}

	score := decision.Score
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return consensus, score, nil
}
