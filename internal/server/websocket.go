package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/veristream/veristream/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Transcript feeds come from trusted bridges, not browsers
		return true
	},
}

// wsInbound is a client frame: a transcript utterance or an energy sample
type wsInbound struct {
	Type    string  `json:"type"` // utterance, energy
	Text    string  `json:"text,omitempty"`
	Speaker string  `json:"speaker,omitempty"`
	Level   float64 `json:"level,omitempty"`
}

// wsOutbound is a server frame
type wsOutbound struct {
	Type       string            `json:"type"` // session, statements, entry, error
	SessionID  string            `json:"session_id,omitempty"`
	Statements []model.Statement `json:"statements,omitempty"`
	Entry      *model.QueueEntry `json:"entry,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// handleWebSocket runs one live session over a WebSocket: inbound
// utterances and energy samples, outbound statements and every queue
// transition for the session.
func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	sess := s.sessionByID("")
	updates := s.subscribe(sess.ID())
	defer s.unsubscribe(sess.ID(), updates)

	if err := conn.WriteJSON(wsOutbound{Type: "session", SessionID: sess.ID()}); err != nil {
		return nil
	}

	// Writer: a single goroutine owns the connection for writes
	outbound := make(chan wsOutbound, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case entry, ok := <-updates:
				if !ok {
					return
				}
				if err := conn.WriteJSON(wsOutbound{Type: "entry", Entry: &entry}); err != nil {
					return
				}
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			}
		}
	}()
	defer close(outbound)

	// Verifications keep running if the socket drops mid-statement
	ctx := context.WithoutCancel(c.Request().Context())
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket closed", "session_id", sess.ID(), "error", err)
			}
			return nil
		}

		var msg wsInbound
		if err := json.Unmarshal(data, &msg); err != nil {
			s.send(outbound, done, wsOutbound{Type: "error", Error: "invalid message"})
			continue
		}

		switch msg.Type {
		case "utterance":
			if msg.Text == "" {
				s.send(outbound, done, wsOutbound{Type: "error", Error: "text is required"})
				continue
			}
			statements := sess.HandleUtterance(ctx, msg.Text, msg.Speaker)
			s.send(outbound, done, wsOutbound{
				Type:       "statements",
				SessionID:  sess.ID(),
				Statements: statements,
			})
		case "energy":
			s.monitor.SetLevel(msg.Level, time.Now())
		default:
			s.send(outbound, done, wsOutbound{Type: "error", Error: "unknown message type"})
		}
	}
}

func (s *Server) send(outbound chan wsOutbound, done chan struct{}, msg wsOutbound) {
	select {
	case outbound <- msg:
	case <-done:
	}
}
