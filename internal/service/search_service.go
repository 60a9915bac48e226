package service

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/noah-isme/socium-go/internal/dto"
	"github.com/noah-isme/socium-go/internal/models"
	"github.com/noah-isme/socium-go/internal/repository"
)

// SearchService matches people and channels and applies the one-way relationship intents.
type SearchService interface {
	Search(query string) dto.SearchSnapshot
	Snapshot() dto.SearchSnapshot
	AddFriend(ctx context.Context, userID uint) (models.UserResult, error)
	JoinChannel(ctx context.Context, channelID uint) (models.ChannelResult, error)
}

type searchService struct {
	user      models.User
	publisher EventPublisher
	logger    zerolog.Logger

	mu       sync.Mutex
	query    string
	people   []models.UserResult
	channels []models.ChannelResult
}

// NewSearchService constructs the search controller from the dataset's projections.
func NewSearchService(user models.User, dataset repository.Dataset, publisher EventPublisher, logger zerolog.Logger) SearchService {
	return &searchService{
		user:      user,
		publisher: publisherOrNop(publisher),
		logger:    logger.With().Str("component", "search_service").Logger(),
		people:    dataset.People(),
		channels:  dataset.ChannelResults(),
	}
}

// Search stores the query and returns the matches. An empty query lists everything.
func (s *searchService) Search(query string) dto.SearchSnapshot {
	s.mu.Lock()
	s.query = strings.TrimSpace(query)
	s.mu.Unlock()
	return s.Snapshot()
}

func (s *searchService) Snapshot() dto.SearchSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(s.query)
	snapshot := dto.SearchSnapshot{
		Query:    s.query,
		People:   []models.UserResult{},
		Channels: []models.ChannelResult{},
	}
	for _, person := range s.people {
		if matches(needle, person.Name, person.Username) {
			snapshot.People = append(snapshot.People, person)
		}
	}
	for _, channel := range s.channels {
		if matches(needle, channel.Name, channel.Description) {
			snapshot.Channels = append(snapshot.Channels, channel)
		}
	}
	return snapshot
}

// AddFriend moves a relationship from none to request_sent. Any other state is left alone.
func (s *searchService) AddFriend(ctx context.Context, userID uint) (models.UserResult, error) {
	s.mu.Lock()
	index := -1
	for i := range s.people {
		if s.people[i].ID == userID {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		recordIntent("search", "add_friend", ErrUserNotFound)
		return models.UserResult{}, ErrUserNotFound
	}

	changed := false
	if s.people[index].Relationship == models.RelationshipNone {
		s.people[index].Relationship = models.RelationshipRequestSent
		changed = true
	}
	person := s.people[index]
	s.mu.Unlock()

	recordIntent("search", "add_friend", nil)
	if changed {
		s.publisher.Publish(ctx, NewEvent(EventFriendRequested, models.SectionSearch, s.user.ID, person))
	}
	return person, nil
}

// JoinChannel marks the channel joined and counts the new member exactly once.
func (s *searchService) JoinChannel(ctx context.Context, channelID uint) (models.ChannelResult, error) {
	s.mu.Lock()
	index := -1
	for i := range s.channels {
		if s.channels[i].ID == channelID {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		recordIntent("search", "join_channel", ErrChannelNotFound)
		return models.ChannelResult{}, ErrChannelNotFound
	}

	changed := false
	if !s.channels[index].IsMember {
		s.channels[index].IsMember = true
		s.channels[index].Members++
		changed = true
	}
	channel := s.channels[index]
	s.mu.Unlock()

	recordIntent("search", "join_channel", nil)
	if changed {
		s.publisher.Publish(ctx, NewEvent(EventChannelJoined, models.SectionSearch, s.user.ID, channel))
	}
	return channel, nil
}

func matches(needle string, fields ...string) bool {
	if needle == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
