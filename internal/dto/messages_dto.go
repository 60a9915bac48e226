package dto

import "github.com/noah-isme/socium-go/internal/models"

// SendTextRequest carries a text message.
type SendTextRequest struct {
	Content string `json:"content" validate:"max=4000"`
}

// AttachMediaRequest appends a placeholder attachment.
type AttachMediaRequest struct {
	Kind string `json:"kind" validate:"required,oneof=image audio"`
}

// ShareLocationRequest forwards the device geolocation outcome. When neither coordinates nor a
// denial are reported the configured locator is used.
type ShareLocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
	Denied    bool     `json:"denied"`
}

// Reported reports whether the request carries a device outcome.
func (r ShareLocationRequest) Reported() bool {
	return r.Denied || (r.Latitude != nil && r.Longitude != nil)
}

// MessagesSnapshot is the messages section's view model.
type MessagesSnapshot struct {
	Conversations []models.Conversation `json:"conversations"`
	SelectedID    *uint                 `json:"selected_id,omitempty"`
	Messages      []models.Message      `json:"messages"`
	Recording     bool                  `json:"recording"`
	LastError     string                `json:"last_error,omitempty"`
}

// RecordingResponse reports the voice recorder state.
type RecordingResponse struct {
	Recording bool   `json:"recording"`
	Started   bool   `json:"started"`
	TaskID    string `json:"task_id,omitempty"`
}
