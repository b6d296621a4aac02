package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lautarok/yourstack/internal/response"
	"github.com/lautarok/yourstack/internal/service"
	"github.com/lautarok/yourstack/internal/session"
	ws "github.com/lautarok/yourstack/internal/websocket"
)

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

// WSHandler streams the countdown of one session and accepts the same
// actions as the HTTP endpoints.
type WSHandler struct {
	sessions *service.SessionService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessions *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:session_id/stream
// Pushes tick, submitted and closed events; replies to client actions.
// All writes happen on this goroutine; the reader only queues replies.
// A leave closes the session only after the left event is written.
func (h *WSHandler) SessionStream(c *gin.Context) {
	ctrl, err := h.sessions.Get(c.Param("session_id"))
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(ws.MaxMessageSize)

	wsLog := h.log.With().Str("session_id", ctrl.ID()).Logger()
	wsLog.Info().Msg("Client connected")

	events, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	replies := make(chan interface{}, 8)
	quit := make(chan struct{})
	readerDone := make(chan struct{})
	defer close(quit)

	go func() {
		defer close(readerDone)
		h.readLoop(conn, ctrl, replies, quit, wsLog)
	}()

	if err := ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, State: ctrl.Snapshot()}); err != nil {
		return
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				ws.WriteClose(conn, string(session.EventClosed))
				wsLog.Debug().Msg("Session closed, dropping client")
				return
			}
			if err := ws.WriteTyped(conn, ev); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}
		case msg := <-replies:
			if err := ws.WriteTyped(conn, msg); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}
			if _, left := msg.(ws.LeftResponse); left {
				h.sessions.Close(ctrl.ID())
				ws.WriteClose(conn, "left")
				return
			}
		case <-readerDone:
			h.closeIfLeft(ctrl, replies)
			return
		}
	}
}

// closeIfLeft drains replies the writer never sent. A pending leave still
// closes the session.
func (h *WSHandler) closeIfLeft(ctrl *session.Controller, replies <-chan interface{}) {
	for {
		select {
		case msg := <-replies:
			if _, left := msg.(ws.LeftResponse); left {
				h.sessions.Close(ctrl.ID())
				return
			}
		default:
			return
		}
	}
}

func (h *WSHandler) readLoop(conn *websocket.Conn, ctrl *session.Controller, replies chan<- interface{}, quit <-chan struct{}, wsLog zerolog.Logger) {
	for {
		var msg ws.Request
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		reply := h.dispatch(ctrl, &msg, wsLog)
		select {
		case replies <- reply:
		case <-quit:
			return
		}
	}
}

// dispatch applies one client action and builds the reply.
func (h *WSHandler) dispatch(ctrl *session.Controller, msg *ws.Request, wsLog zerolog.Logger) interface{} {
	var err error
	switch msg.Action {
	case ws.ActionPing:
		return ws.PongResponse{Event: ws.EventPong}
	case ws.ActionSelect:
		if msg.QuestionID == nil || msg.OptionID == nil {
			return ws.NewError(string(response.ErrValidation), "question_id and option_id are required")
		}
		err = ctrl.SelectAnswer(*msg.QuestionID, *msg.OptionID)
	case ws.ActionNext:
		err = ctrl.GoNext()
	case ws.ActionPrevious:
		var left bool
		left, err = h.sessions.StepBack(ctrl)
		if err == nil && left {
			return ws.LeftResponse{Event: ws.EventLeft}
		}
	case ws.ActionSubmit:
		_, err = h.sessions.Submit(context.Background(), ctrl)
	default:
		wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		return ws.NewError(string(response.ErrInvalidPayload), "unknown action: "+string(msg.Action))
	}

	if err != nil {
		_, code := classify(err)
		if code == response.ErrPreconditionFailed {
			wsLog.Warn().Err(err).Str("action", string(msg.Action)).Msg("Session precondition violated")
		}
		return ws.NewError(string(code), response.GetMessage(code))
	}
	return ws.StateResponse{Event: ws.EventState, State: ctrl.Snapshot()}
}
