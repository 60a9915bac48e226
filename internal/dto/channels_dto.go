package dto

import "github.com/noah-isme/socium-go/internal/models"

// CreateChannelRequest carries the new channel form.
type CreateChannelRequest struct {
	Name        string `json:"name" validate:"max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// UpdateMemberRoleRequest reassigns a member's role.
type UpdateMemberRoleRequest struct {
	RoleID uint `json:"role_id" validate:"required"`
}

// RenameRoleRequest renames a channel role.
type RenameRoleRequest struct {
	Name string `json:"name" validate:"max=64"`
}

// ChannelDetail is a channel with its members and the acting user's permissions.
type ChannelDetail struct {
	Channel   models.Channel         `json:"channel"`
	Members   []models.ChannelMember `json:"members"`
	CanManage bool                   `json:"can_manage"`
}

// ChannelsSnapshot is the channels section's view model.
type ChannelsSnapshot struct {
	Channels []models.Channel `json:"channels"`
	Selected *ChannelDetail   `json:"selected,omitempty"`
}
