package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/veristream/veristream/internal/llm"
	"github.com/veristream/veristream/internal/model"
)

// Agent is one independent fact-verification provider. Implementations
// are opaque beyond this contract; the orchestrator converts any error
// into an inconclusive verdict rather than propagating it.
type Agent interface {
	// Name identifies the agent; carried into the final result
	Name() string

	// Verify judges one statement
	Verify(ctx context.Context, statement string) (model.AgentVerdict, error)
}

// NewAgent builds an agent from configuration. Kind "http" reaches a
// remote verifier endpoint; kind "llm" runs the shared provider under
// this agent's name.
func NewAgent(cfg model.AgentConfig, provider llm.Provider) (Agent, error) {
	switch cfg.Kind {
	case "http":
		if cfg.URL == "" {
			return nil, fmt.Errorf("agent %s: http agent requires a url", cfg.Name)
		}
		return NewHTTPAgent(cfg), nil
	case "llm":
		if provider == nil {
			return nil, fmt.Errorf("agent %s: llm agent requires a configured provider", cfg.Name)
		}
		return NewLLMAgent(cfg, provider), nil
	default:
		return nil, fmt.Errorf("agent %s: unknown kind %q (supported: http, llm)", cfg.Name, cfg.Kind)
	}
}

// agentWire is the JSON exchanged with a remote verifier
type agentWire struct {
	Verdict    string   `json:"verdict"` // true, false, inconclusive
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning,omitempty"`
	Citations  []string `json:"citations,omitempty"`
}

// HTTPAgent calls a remote verifier endpoint:
// POST {statement} -> {verdict, confidence, reasoning, citations}
type HTTPAgent struct {
	name       string
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPAgent creates an HTTP agent with its own per-call timeout
func NewHTTPAgent(cfg model.AgentConfig) *HTTPAgent {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &HTTPAgent{
		name:   cfg.Name,
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (a *HTTPAgent) Name() string { return a.name }

// Verify posts the statement and parses the verdict
func (a *HTTPAgent) Verify(ctx context.Context, statement string) (model.AgentVerdict, error) {
	body, err := json.Marshal(map[string]string{"statement": statement})
	if err != nil {
		return model.AgentVerdict{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return model.AgentVerdict{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return model.AgentVerdict{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.AgentVerdict{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.AgentVerdict{}, fmt.Errorf("HTTP %d from %s", resp.StatusCode, a.name)
	}

	var wire agentWire
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return model.AgentVerdict{}, fmt.Errorf("parse response: %w", err)
	}

	return verdictFromWire(a.name, wire)
}

// LLMAgent runs the shared LLM provider as a named verifier
type LLMAgent struct {
	name     string
	model    string
	provider llm.Provider
}

// NewLLMAgent creates an LLM-backed agent
func NewLLMAgent(cfg model.AgentConfig, provider llm.Provider) *LLMAgent {
	return &LLMAgent{
		name:     cfg.Name,
		model:    cfg.Model,
		provider: provider,
	}
}

func (a *LLMAgent) Name() string { return a.name }

// Verify prompts the provider for a structured verdict
func (a *LLMAgent) Verify(ctx context.Context, statement string) (model.AgentVerdict, error) {
	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		System: `You are an independent fact-checker. Judge the statement and reply with JSON only: {"verdict": "true"|"false"|"inconclusive", "confidence": 0.0-1.0, "reasoning": "...", "citations": ["..."]}`,
		Prompt: statement,
		Model:  a.model,
	})
	if err != nil {
		return model.AgentVerdict{}, err
	}

	var wire agentWire
	if err := json.Unmarshal([]byte(extractJSON(resp.Text)), &wire); err != nil {
		return model.AgentVerdict{}, fmt.Errorf("parse verdict: %w", err)
	}

	return verdictFromWire(a.name, wire)
}

// verdictFromWire validates and converts a wire verdict
func verdictFromWire(agent string, wire agentWire) (model.AgentVerdict, error) {
	var verdict model.Verdict
	switch strings.ToLower(strings.TrimSpace(wire.Verdict)) {
	case "true":
		verdict = model.VerdictTrue
	case "false":
		verdict = model.VerdictFalse
	case "inconclusive", "unknown", "":
		verdict = model.VerdictInconclusive
	default:
		return model.AgentVerdict{}, fmt.Errorf("agent %s returned unknown verdict %q", agent, wire.Verdict)
	}

	confidence := wire.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return model.AgentVerdict{
		Agent:      agent,
		Verdict:    verdict,
		Confidence: confidence,
		Reasoning:  wire.Reasoning,
		Citations:  wire.Citations,
	}, nil
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
