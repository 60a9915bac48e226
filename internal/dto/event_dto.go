package dto

import (
	"time"

	"github.com/noah-isme/socium-go/internal/models"
)

// Event is a state change pushed to the rendering layer and external consumers.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Section    models.Section `json:"section,omitempty"`
	UserID     uint           `json:"user_id,omitempty"`
	Payload    interface{}    `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
