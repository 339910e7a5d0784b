package verify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/veristream/veristream/internal/llm"
	"github.com/veristream/veristream/internal/model"
)

func TestHTTPAgent_Verify_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["statement"] != "the earth is flat" {
			t.Errorf("unexpected statement %q", req["statement"])
		}

		_ = json.NewEncoder(w).Encode(agentWire{
			Verdict:    "false",
			Confidence: 0.97,
			Reasoning:  "overwhelming observational evidence",
			Citations:  []string{"https://example.org/earth"},
		})
	}))
	defer server.Close()

	agent := NewHTTPAgent(model.AgentConfig{
		Name:    "checker",
		URL:     server.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})

	verdict, err := agent.Verify(context.Background(), "the earth is flat")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if verdict.Agent != "checker" {
		t.Errorf("agent name = %q, want checker", verdict.Agent)
	}
	if verdict.Verdict != model.VerdictFalse {
		t.Errorf("verdict = %v, want false", verdict.Verdict)
	}
	if verdict.Confidence != 0.97 {
		t.Errorf("confidence = %v, want 0.97", verdict.Confidence)
	}
	if len(verdict.Citations) != 1 {
		t.Errorf("expected 1 citation, got %d", len(verdict.Citations))
	}
}

func TestHTTPAgent_Verify_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	agent := NewHTTPAgent(model.AgentConfig{Name: "checker", URL: server.URL})

	if _, err := agent.Verify(context.Background(), "x"); err == nil {
		t.Fatal("expected error for HTTP 502")
	}
}

func TestHTTPAgent_Verify_UnknownVerdict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(agentWire{Verdict: "maybe"})
	}))
	defer server.Close()

	agent := NewHTTPAgent(model.AgentConfig{Name: "checker", URL: server.URL})

	if _, err := agent.Verify(context.Background(), "x"); err == nil {
		t.Fatal("expected error for unknown verdict value")
	}
}

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

func TestLLMAgent_Verify_ParsesFencedJSON(t *testing.T) {
	provider := &stubProvider{text: "```json\n{\"verdict\": \"true\", \"confidence\": 0.8, \"reasoning\": \"well documented\"}\n```"}
	agent := NewLLMAgent(model.AgentConfig{Name: "reasoner"}, provider)

	verdict, err := agent.Verify(context.Background(), "water boils at 100C at sea level")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if verdict.Verdict != model.VerdictTrue {
		t.Errorf("verdict = %v, want true", verdict.Verdict)
	}
	if verdict.Confidence != 0.8 {
		t.Errorf("confidence = %v, want 0.8", verdict.Confidence)
	}
}

func TestLLMAgent_Verify_ConfidenceClamped(t *testing.T) {
	provider := &stubProvider{text: `{"verdict": "false", "confidence": 7}`}
	agent := NewLLMAgent(model.AgentConfig{Name: "reasoner"}, provider)

	verdict, err := agent.Verify(context.Background(), "x")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if verdict.Confidence != 1 {
		t.Errorf("confidence = %v, want clamped to 1", verdict.Confidence)
	}
}

func TestNewAgent_Validation(t *testing.T) {
	if _, err := NewAgent(model.AgentConfig{Name: "a", Kind: "http"}, nil); err == nil {
		t.Error("expected error for http agent without url")
	}
	if _, err := NewAgent(model.AgentConfig{Name: "a", Kind: "llm"}, nil); err == nil {
		t.Error("expected error for llm agent without provider")
	}
	if _, err := NewAgent(model.AgentConfig{Name: "a", Kind: "carrier-pigeon"}, nil); err == nil {
		t.Error("expected error for unknown kind")
	}
}
