package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/zulumai/exam-portal/internal/middleware"
	"github.com/zulumai/exam-portal/internal/service"
	ws "github.com/zulumai/exam-portal/internal/websocket"
)

// streamConn serializes writes: the tick pump and the reader loop both
// push frames, and gorilla/websocket allows only one writer at a time.
type streamConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *streamConn) write(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ws.WriteEvent(s.conn, v)
}

func (s *streamConn) writeError(msg string) error {
	return s.write(ws.ErrorResponse{Event: ws.EventError, Error: msg})
}

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// StreamHandler handles the WebSocket exam stream: countdown ticks are
// pushed once per second while answer, key, and submit intents flow in.
type StreamHandler struct {
	presenter *service.SessionPresenter
	log       zerolog.Logger
	upgrader  websocket.Upgrader
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(presenter *service.SessionPresenter, log zerolog.Logger, allowedOrigins []string) *StreamHandler {
	return &StreamHandler{
		presenter: presenter,
		log:       log.With().Str("component", "stream_handler").Logger(),
		upgrader:  buildUpgrader(allowedOrigins),
	}
}

// ExamStream godoc
// WS /ws/v1/portal/exam/stream
// Upgrades to WebSocket for the live countdown and in-exam intents.
func (h *StreamHandler) ExamStream(c *gin.Context) {
	userID, ok := middleware.GetStudentID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	sc := &streamConn{conn: conn}

	ticks, cancel, err := h.presenter.Subscribe(userID)
	if err != nil {
		sc.writeError("no exam session in progress")
		return
	}
	defer cancel()

	wsLog := h.log.With().Str("user_id", userID.String()).Logger()
	wsLog.Info().Msg("Student connected")
	defer wsLog.Info().Msg("Student disconnected")

	// Tick pump. Stops when the session ends or the reader exits.
	pumpCtx, stopPump := context.WithCancel(c.Request.Context())
	defer stopPump()
	go func() {
		for {
			select {
			case <-pumpCtx.Done():
				return
			case ev, open := <-ticks:
				if !open {
					return
				}
				sc.write(ws.TickResponse{
					Event:            ws.EventTick,
					RemainingSeconds: ev.RemainingSeconds,
					Clock:            ev.Clock,
					Expired:          ev.Expired,
				})
				if ev.Expired {
					if summary, err := h.presenter.PopSummary(userID); err == nil {
						sc.write(ws.SummaryResponse{Event: ws.EventSummary, Summary: summary})
					}
					return
				}
			}
		}
	}()

	for {
		ws.RefreshReadDeadline(conn)
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		var envelope ws.RequestEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			sc.writeError("invalid message")
			continue
		}

		switch envelope.Action {
		case ws.ActionAnswer:
			var req ws.AnswerRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				sc.writeError("invalid answer payload")
				continue
			}
			if err := h.presenter.SelectAnswer(userID, req.Question, req.Option); err != nil {
				sc.writeError(err.Error())
			}

		case ws.ActionKey:
			var req ws.KeyRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				sc.writeError("invalid key payload")
				continue
			}
			cursor, err := h.presenter.HandleKey(userID, req.Key)
			if err != nil {
				sc.writeError(err.Error())
				continue
			}
			sc.write(ws.CursorResponse{Event: ws.EventCursor, Cursor: cursor})

		case ws.ActionNavigate:
			var req ws.NavigateRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				sc.writeError("invalid navigate payload")
				continue
			}
			cursor, err := h.presenter.Navigate(userID, req.Delta)
			if err != nil {
				sc.writeError(err.Error())
				continue
			}
			sc.write(ws.CursorResponse{Event: ws.EventCursor, Cursor: cursor})

		case ws.ActionSubmit:
			summary, err := h.presenter.Submit(c.Request.Context(), userID)
			if err != nil {
				sc.writeError(err.Error())
				continue
			}
			sc.write(ws.SummaryResponse{Event: ws.EventSummary, Summary: summary})
			return

		case ws.ActionPing:
			sc.write(ws.PongResponse{Event: ws.EventPong})

		default:
			sc.writeError("unknown action")
		}
	}
}
