package models

import "time"

// Event types recorded by the workflow journal.
const (
	EventSettings   = "SETTINGS"
	EventPassword   = "PASSWORD"
	EventRegister   = "REGISTER"
	EventToken      = "TOKEN"
	EventFetchLocks = "FETCH_LOCKS"
	EventLockAction = "LOCK_ACTION"
	EventSetup      = "SETUP"
	EventError      = "ERROR"
)

// BridgeEvent is a single workflow journal entry.
type BridgeEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
