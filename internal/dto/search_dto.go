package dto

import "github.com/noah-isme/socium-go/internal/models"

// SearchSnapshot holds the people and channel results for a query.
type SearchSnapshot struct {
	Query    string                 `json:"query"`
	People   []models.UserResult    `json:"people"`
	Channels []models.ChannelResult `json:"channels"`
}
