package models

import "time"

// Journal event types.
const (
	EventSessionOpen     = "SESSION_OPEN"
	EventSessionClose    = "SESSION_CLOSE"
	EventSetModel        = "SET_MODEL"
	EventSetSpeed        = "SET_SPEED"
	EventSetAcceleration = "SET_ACCELERATION"
	EventStart           = "START"
	EventStop            = "STOP"
	EventRampStep        = "RAMP_STEP"
	EventError           = "ERROR"
)

// MotorEvent is a single journal entry.
type MotorEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"` // SET_SPEED | START | STOP | ...
	SessionID   string    `json:"session_id,omitempty"`
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
