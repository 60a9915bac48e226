package dto

import "github.com/noah-isme/socium-go/internal/models"

// CreatePostRequest carries the new post form.
type CreatePostRequest struct {
	Content string `json:"content" validate:"max=5000"`
	Tags    string `json:"tags" validate:"max=500"`
}

// FilterRequest selects a tag filter; a nil tag clears it.
type FilterRequest struct {
	Tag *string `json:"tag" validate:"omitempty,max=64"`
}

// FeedSnapshot is the feed section's view model.
type FeedSnapshot struct {
	Posts         []models.Post     `json:"posts"`
	SelectedTag   *string           `json:"selected_tag,omitempty"`
	TrendingTags  []models.TagCount `json:"trending_tags"`
	SuggestedTags []string          `json:"suggested_tags"`
}
