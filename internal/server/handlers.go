package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/veristream/veristream/internal/model"
)

type utteranceRequest struct {
	SessionID string `json:"session_id,omitempty"` // Empty starts a new session
	Text      string `json:"text"`
	Speaker   string `json:"speaker,omitempty"`
}

type utteranceResponse struct {
	SessionID  string            `json:"session_id"`
	Statements []model.Statement `json:"statements"`
}

func (s *Server) handleUtterance(c echo.Context) error {
	var req utteranceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	sess := s.sessionByID(req.SessionID)

	// Verification outlives the request that carried the utterance
	ctx := context.WithoutCancel(c.Request().Context())
	statements := sess.HandleUtterance(ctx, req.Text, req.Speaker)

	return c.JSON(http.StatusAccepted, utteranceResponse{
		SessionID:  sess.ID(),
		Statements: statements,
	})
}

type energyRequest struct {
	Level float64 `json:"level"` // Normalized 0-1
}

func (s *Server) handleEnergy(c echo.Context) error {
	var req energyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	s.monitor.SetLevel(req.Level, time.Now())
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleEntries(c echo.Context) error {
	sessionID := c.Param("id")

	var entries []model.QueueEntry
	for _, e := range s.deps.Queue.Entries() {
		if e.SessionID == sessionID {
			entries = append(entries, e)
		}
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"pending": s.deps.Queue.PendingCount(),
	})
}
