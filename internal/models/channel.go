package models

// Role is a channel rank. Higher levels carry more authority.
type Role struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// DefaultRoles returns a fresh copy of the role set every new channel starts with.
func DefaultRoles() []Role {
	return []Role{
		{ID: 1, Name: "Newcomer", Level: 0},
		{ID: 2, Name: "Member", Level: 1},
		{ID: 3, Name: "Moderator", Level: 2},
		{ID: 4, Name: "Administrator", Level: 3},
	}
}

// Channel groups members under a creator-managed role set.
type Channel struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatorID   uint   `json:"creator_id"`
	Members     int    `json:"members"`
	Roles       []Role `json:"roles"`
}

// Role looks up a role of the channel by id.
func (c Channel) Role(id uint) (Role, bool) {
	for _, role := range c.Roles {
		if role.ID == id {
			return role, true
		}
	}
	return Role{}, false
}

// HighestRole returns the role with the greatest level.
func (c Channel) HighestRole() (Role, bool) {
	if len(c.Roles) == 0 {
		return Role{}, false
	}
	best := c.Roles[0]
	for _, role := range c.Roles[1:] {
		if role.Level > best.Level {
			best = role
		}
	}
	return best, true
}

// Clone returns a deep copy of the channel.
func (c Channel) Clone() Channel {
	c.Roles = append([]Role(nil), c.Roles...)
	return c
}

// ChannelMember is a user's membership in one channel. RoleID references a role of that channel.
type ChannelMember struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	RoleID   uint   `json:"role_id"`
}
