package speech

import (
	"context"
	"log/slog"

	"github.com/veristream/veristream/internal/model"
)

// Speaker renders one piece of text as spoken audio.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// New builds the speech output for cfg. Without a TTS endpoint,
// corrections are logged instead of spoken.
func New(cfg model.SpeechConfig, logger *slog.Logger) Speaker {
	if cfg.TTSURL == "" {
		return NewLogSpeaker(logger)
	}
	return NewTTSSpeaker(cfg)
}

// LogSpeaker writes spoken text to the log. Used when no TTS endpoint
// is configured and as the delivery path for the check command.
type LogSpeaker struct {
	logger *slog.Logger
}

func NewLogSpeaker(logger *slog.Logger) *LogSpeaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSpeaker{logger: logger}
}

func (s *LogSpeaker) Speak(ctx context.Context, text string) error {
	s.logger.Info("speaking", "text", text)
	return nil
}
