package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

// Notification is one delivered (or to-be-delivered) fact for one subscriber.
// At most one row exists per (ConnectionID, EventID) pair.
type Notification struct {
	ID           uint            `json:"id"`
	ConnectionID uint            `json:"connection_id"`
	EventID      uuid.UUID       `json:"event_id"`
	AthleteID    uint            `json:"athlete_id"`
	Category     Category        `json:"category"`
	Title        string          `json:"title"`
	Message      string          `json:"message"`
	Data         json.RawMessage `json:"data,omitempty"`
	Status       DeliveryStatus  `json:"status"`
	SentAt       *time.Time      `json:"sent_at,omitempty"`
	OpenedAt     *time.Time      `json:"opened_at,omitempty"`
	ClickedAt    *time.Time      `json:"clicked_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
