package models

// Relationship is the current user's one-way relationship towards another user.
type Relationship string

const (
	RelationshipNone        Relationship = "none"
	RelationshipRequestSent Relationship = "request_sent"
	RelationshipFriend      Relationship = "friend"
)

// UserResult is the people projection used by search.
type UserResult struct {
	ID           uint         `json:"id"`
	Name         string       `json:"name"`
	Username     string       `json:"username"`
	Bio          string       `json:"bio"`
	Relationship Relationship `json:"relationship"`
}

// IsFriend reports whether the users are already friends.
func (u UserResult) IsFriend() bool { return u.Relationship == RelationshipFriend }

// FriendRequestSent reports whether a request is pending.
func (u UserResult) FriendRequestSent() bool { return u.Relationship == RelationshipRequestSent }

// ChannelResult is the channel projection used by search.
type ChannelResult struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Members     int    `json:"members"`
	IsMember    bool   `json:"is_member"`
}
