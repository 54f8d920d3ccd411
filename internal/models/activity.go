package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Event is the envelope published to the message broker for every domain change.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Subject    string          `json:"subject"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// MessageID lets the broker tag the message with the event id.
func (e Event) MessageID() string { return e.ID }

// ActivityEntry is the admin-facing projection of an Event.
type ActivityEntry struct {
	EventID    string         `gorm:"primaryKey;size:36" json:"event_id"`
	Type       string         `gorm:"size:64;not null;index" json:"type"`
	Subject    string         `gorm:"size:100;not null" json:"subject"`
	Payload    datatypes.JSON `json:"payload"`
	OccurredAt time.Time      `gorm:"not null;index" json:"occurred_at"`
	CreatedAt  time.Time      `json:"created_at"`
}
