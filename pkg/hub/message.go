// Package hub fans live activity events out to parent-dashboard
// websocket clients using the channel-based broadcast pattern.
package hub

import "time"

// Event kinds carried on the activity feed.
const (
	// KindActivity is a completed interaction (story told, question
	// answered) recorded for the parent dashboard.
	KindActivity = "activity"

	// KindSession is a voice-capture state change.
	KindSession = "session"

	// KindHello is the snapshot sent to a client on connect.
	KindHello = "hello"
)

// Event is one feed entry, serialized as JSON before fan-out.
type Event struct {
	Kind string    `json:"kind"`
	At   time.Time `json:"at"`
	Data any       `json:"data,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(kind string, data any) Event {
	return Event{Kind: kind, At: time.Now().UTC(), Data: data}
}
