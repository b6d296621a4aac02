package websocket

import "github.com/lautarok/yourstack/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSelect   Action = "select"
	ActionNext     Action = "next"
	ActionPrevious Action = "previous"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// Request carries every client action. QuestionID and OptionID are only
// read for ActionSelect.
type Request struct {
	Action     Action `json:"action"`
	QuestionID *int   `json:"question_id,omitempty"`
	OptionID   *int   `json:"option_id,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────
// Timer events (tick, submitted, closed) are session.Event values written as is.

type Event string

const (
	EventState Event = "state"
	EventLeft  Event = "left"
	EventError Event = "error"
	EventPong  Event = "pong"
)

// StateResponse answers every action that changes or reads the session.
type StateResponse struct {
	Event Event              `json:"event"`
	State model.SessionState `json:"state"`
}

// LeftResponse tells the client the visitor left the exam from the first question.
type LeftResponse struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
