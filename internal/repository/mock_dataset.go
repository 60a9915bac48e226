package repository

import (
	"time"

	"github.com/noah-isme/socium-go/internal/models"
)

// Dataset supplies the seed collections each section controller starts from. Every call returns
// a fresh copy, so controllers never share backing arrays.
type Dataset interface {
	Posts() []models.Post
	TrendingBaseline() []models.TagCount
	SuggestedTags() []string
	People() []models.UserResult
	ChannelResults() []models.ChannelResult
	Conversations() []models.Conversation
	ConversationMessages(currentUserID uint) map[uint][]models.Message
	Channels() []models.Channel
	ChannelMembers() map[uint][]models.ChannelMember
}

type mockDataset struct {
	now func() time.Time
}

// NewMockDataset returns the hard-coded in-memory dataset.
func NewMockDataset() Dataset {
	return &mockDataset{now: time.Now}
}

func (d *mockDataset) Posts() []models.Post {
	now := d.now()
	return []models.Post{
		{
			ID:        1,
			Author:    models.PostAuthor{ID: 2, Name: "Anna Smirnova", Username: "anna_dev"},
			Content:   "Just finished working on a new project! Incredibly proud of the result 🚀",
			Tags:      []string{"web-development", "project", "design"},
			Likes:     124,
			Comments:  18,
			Timestamp: "2h ago",
			CreatedAt: now.Add(-2 * time.Hour),
		},
		{
			ID:        2,
			Author:    models.PostAuthor{ID: 3, Name: "Maxim Petrov", Username: "max_code"},
			Content:   "Has anyone worked with the new API? Please share your experience",
			Tags:      []string{"programming", "api", "help"},
			Likes:     67,
			Liked:     true,
			Comments:  24,
			Timestamp: "4h ago",
			CreatedAt: now.Add(-4 * time.Hour),
		},
	}
}

func (d *mockDataset) TrendingBaseline() []models.TagCount {
	return []models.TagCount{
		{Tag: "web-development", Count: 1243},
		{Tag: "design", Count: 987},
		{Tag: "programming", Count: 876},
		{Tag: "minimalism", Count: 654},
		{Tag: "ux", Count: 543},
	}
}

func (d *mockDataset) SuggestedTags() []string {
	return []string{"react", "typescript", "css", "backend", "frontend", "ai"}
}

func (d *mockDataset) People() []models.UserResult {
	return []models.UserResult{
		{ID: 2, Name: "Anna Smirnova", Username: "anna_dev", Bio: "Frontend developer", Relationship: models.RelationshipNone},
		{ID: 3, Name: "Maxim Petrov", Username: "max_code", Bio: "Backend developer", Relationship: models.RelationshipFriend},
	}
}

func (d *mockDataset) ChannelResults() []models.ChannelResult {
	return []models.ChannelResult{
		{ID: 1, Name: "Web development", Description: "Everything about web technologies", Members: 1243},
		{ID: 2, Name: "Design", Description: "UI/UX and visual design", Members: 987, IsMember: true},
	}
}

func (d *mockDataset) Conversations() []models.Conversation {
	return []models.Conversation{
		{ID: 1, Peer: models.Peer{Name: "Anna Smirnova", Username: "anna_dev"}, LastMessage: "Hi! How are you?", Timestamp: "10 min ago", Unread: 2},
		{ID: 2, Peer: models.Peer{Name: "Maxim Petrov", Username: "max_code"}, LastMessage: "Thanks for the help!", Timestamp: "1h ago"},
	}
}

func (d *mockDataset) ConversationMessages(currentUserID uint) map[uint][]models.Message {
	return map[uint][]models.Message{
		1: {
			{ID: 1, SenderID: 2, Kind: models.MessageText, Content: "Hi! How are you?", Timestamp: "10:30"},
			{ID: 2, SenderID: currentUserID, Kind: models.MessageText, Content: "Hi! All good, thanks!", Timestamp: "10:32"},
		},
		2: {
			{ID: 1, SenderID: 3, Kind: models.MessageText, Content: "Thanks for the help!", Timestamp: "09:15"},
		},
	}
}

func (d *mockDataset) Channels() []models.Channel {
	return []models.Channel{
		{ID: 1, Name: "Web development", Description: "Everything about web technologies", CreatorID: 1, Members: 1243, Roles: models.DefaultRoles()},
		{ID: 2, Name: "Design", Description: "UI/UX and visual design", CreatorID: 2, Members: 987, Roles: models.DefaultRoles()},
	}
}

func (d *mockDataset) ChannelMembers() map[uint][]models.ChannelMember {
	members := func() []models.ChannelMember {
		return []models.ChannelMember{
			{ID: 2, Name: "Anna Smirnova", Username: "anna_dev", RoleID: 2},
			{ID: 3, Name: "Maxim Petrov", Username: "max_code", RoleID: 1},
		}
	}
	return map[uint][]models.ChannelMember{
		1: members(),
		2: members(),
	}
}
