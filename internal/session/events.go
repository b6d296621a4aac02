package session

import "github.com/lautarok/yourstack/internal/model"

// EventType names a notification pushed to session subscribers.
type EventType string

const (
	EventTick      EventType = "tick"
	EventSubmitted EventType = "submitted"
	EventClosed    EventType = "closed"
)

// Event is delivered to subscribers on every tick and on terminal transitions.
type Event struct {
	Type             EventType       `json:"event"`
	SecondsRemaining int             `json:"secondsRemaining"`
	Clock            string          `json:"clock"`
	TimeLevel        model.TimeLevel `json:"timeLevel"`
	Result           *model.Result   `json:"result,omitempty"`
}

// subscriberBuffer bounds each subscriber channel. Slow readers lose ticks,
// never block the controller.
const subscriberBuffer = 8
