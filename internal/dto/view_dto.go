package dto

import "github.com/noah-isme/socium-go/internal/models"

// SetSectionRequest switches the active section. Unknown names fall back to the feed.
type SetSectionRequest struct {
	Section string `json:"section" validate:"max=32"`
}

// ViewResponse describes the navigation state.
type ViewResponse struct {
	Active   models.Section   `json:"active"`
	Sections []models.Section `json:"sections"`
}

// RenderResponse is the snapshot of the active section.
type RenderResponse struct {
	Section models.Section `json:"section"`
	Data    interface{}    `json:"data"`
}

// ProfileSnapshot is the profile section's view model.
type ProfileSnapshot struct {
	UserID      uint   `json:"user_id"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Initial     string `json:"initial"`
}
