package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	// WriteWait bounds a single write.
	WriteWait = 10 * time.Second
	// ReadWait bounds the silence between two client messages. Clients ping
	// well inside it to keep an idle exam page connected.
	ReadWait = 5 * time.Minute
	// MaxMessageSize caps inbound frames; actions are tiny.
	MaxMessageSize = 4096
)

// WriteTyped sends a strongly-typed payload over the WebSocket. Only the
// connection's writer goroutine may call it.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(WriteWait))
	return conn.WriteJSON(v)
}

// NewError builds an ErrorResponse.
func NewError(code, msg string) ErrorResponse {
	return ErrorResponse{Event: EventError, Code: code, Error: msg}
}

// ReadJSON reads and decodes a message into the provided structure.
// It sets a read deadline.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(ReadWait))
	return conn.ReadJSON(v)
}

// WriteClose sends a normal close frame, best effort.
func WriteClose(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(WriteWait))
}
