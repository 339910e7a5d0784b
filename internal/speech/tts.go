package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/veristream/veristream/internal/model"
)

// TTSSpeaker sends text to an ElevenLabs-compatible streaming TTS
// endpoint. The audio is consumed and discarded here; the endpoint is
// expected to play it out of band (a media relay or room bridge).
type TTSSpeaker struct {
	url        string
	apiKey     string
	voiceID    string
	httpClient *http.Client
}

func NewTTSSpeaker(cfg model.SpeechConfig) *TTSSpeaker {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &TTSSpeaker{
		url:     cfg.TTSURL,
		apiKey:  cfg.APIKey,
		voiceID: cfg.VoiceID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type ttsRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id,omitempty"`
	ModelID string `json:"model_id,omitempty"`
}

func (s *TTSSpeaker) Speak(ctx context.Context, text string) error {
	body, err := json.Marshal(ttsRequest{
		Text:    text,
		VoiceID: s.voiceID,
		ModelID: "eleven_flash_v2_5",
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("xi-api-key", s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tts request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tts HTTP %d: %s", resp.StatusCode, string(msg))
	}

	// Drain the audio stream so the server finishes synthesis
	_, err = io.Copy(io.Discard, resp.Body)
	if err != nil {
		return fmt.Errorf("read audio stream: %w", err)
	}
	return nil
}
