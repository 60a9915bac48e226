package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/noah-isme/socium-go/internal/dto"
	"github.com/noah-isme/socium-go/internal/models"
	"github.com/noah-isme/socium-go/internal/repository"
)

// CanManageRoles is the single authorization predicate for role mutations: only the channel's
// creator may reassign member roles or rename roles.
func CanManageRoles(actingUser models.User, channel models.Channel) bool {
	return actingUser.ID != 0 && actingUser.ID == channel.CreatorID
}

// ChannelsService owns the channel list, per-channel members and role sets.
type ChannelsService interface {
	Channels() []models.Channel
	Channel(channelID uint) (dto.ChannelDetail, error)
	SelectChannel(ctx context.Context, channelID uint) (dto.ChannelDetail, error)
	Snapshot() dto.ChannelsSnapshot
	CreateChannel(ctx context.Context, payload dto.CreateChannelRequest) (models.Channel, error)
	UpdateMemberRole(ctx context.Context, channelID, memberID, roleID uint) (models.ChannelMember, error)
	RenameRole(ctx context.Context, channelID, roleID uint, name string) (models.Role, error)
}

type channelsService struct {
	user      models.User
	publisher EventPublisher
	logger    zerolog.Logger

	mu       sync.Mutex
	channels []models.Channel
	members  map[uint][]models.ChannelMember
	selected *uint
	nextID   uint
}

// NewChannelsService constructs the channels controller acting as user.
func NewChannelsService(user models.User, dataset repository.Dataset, publisher EventPublisher, logger zerolog.Logger) ChannelsService {
	channels := dataset.Channels()
	var maxID uint
	for _, channel := range channels {
		if channel.ID > maxID {
			maxID = channel.ID
		}
	}

	return &channelsService{
		user:      user,
		publisher: publisherOrNop(publisher),
		logger:    logger.With().Str("component", "channels_service").Logger(),
		channels:  channels,
		members:   dataset.ChannelMembers(),
		nextID:    maxID + 1,
	}
}

func (s *channelsService) Channels() []models.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()

	channels := make([]models.Channel, 0, len(s.channels))
	for _, channel := range s.channels {
		channels = append(channels, channel.Clone())
	}
	return channels
}

func (s *channelsService) Channel(channelID uint) (dto.ChannelDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexLocked(channelID)
	if index < 0 {
		return dto.ChannelDetail{}, ErrChannelNotFound
	}
	return s.detailLocked(index), nil
}

func (s *channelsService) SelectChannel(ctx context.Context, channelID uint) (dto.ChannelDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexLocked(channelID)
	if index < 0 {
		return dto.ChannelDetail{}, ErrChannelNotFound
	}
	id := channelID
	s.selected = &id
	return s.detailLocked(index), nil
}

func (s *channelsService) Snapshot() dto.ChannelsSnapshot {
	channels := s.Channels()

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := dto.ChannelsSnapshot{Channels: channels}
	if s.selected != nil {
		if index := s.indexLocked(*s.selected); index >= 0 {
			detail := s.detailLocked(index)
			snapshot.Selected = &detail
		}
	}
	return snapshot
}

// CreateChannel adds a channel with the default roles. The acting user is its creator and
// first member, holding the highest role.
func (s *channelsService) CreateChannel(ctx context.Context, payload dto.CreateChannelRequest) (models.Channel, error) {
	name := plainText(payload.Name)
	if name == "" {
		recordIntent("channels", "create", ErrEmptyName)
		return models.Channel{}, ErrEmptyName
	}
	description := plainText(payload.Description)

	s.mu.Lock()
	channel := models.Channel{
		ID:          s.nextID,
		Name:        name,
		Description: description,
		CreatorID:   s.user.ID,
		Members:     1,
		Roles:       models.DefaultRoles(),
	}
	s.nextID++

	creatorRole, _ := channel.HighestRole()
	s.channels = append(s.channels, channel)
	s.members[channel.ID] = []models.ChannelMember{{
		ID:       s.user.ID,
		Name:     s.user.DisplayName(),
		Username: s.user.Username(),
		RoleID:   creatorRole.ID,
	}}
	created := channel.Clone()
	s.mu.Unlock()

	recordIntent("channels", "create", nil)
	s.logger.Info().Uint("channel_id", created.ID).Uint("creator_id", created.CreatorID).Msg("channel created")
	s.publisher.Publish(ctx, NewEvent(EventChannelCreated, models.SectionChannels, s.user.ID, created))
	return created, nil
}

// UpdateMemberRole reassigns a member's role. Only the creator may do this, never on themself,
// and the role must exist on the channel.
func (s *channelsService) UpdateMemberRole(ctx context.Context, channelID, memberID, roleID uint) (models.ChannelMember, error) {
	s.mu.Lock()
	member, err := s.updateMemberRoleLocked(channelID, memberID, roleID)
	s.mu.Unlock()

	recordIntent("channels", "update_member_role", err)
	if err != nil {
		s.logger.Debug().Err(err).Uint("channel_id", channelID).Uint("member_id", memberID).Msg("role change rejected")
		return models.ChannelMember{}, err
	}

	s.publisher.Publish(ctx, NewEvent(EventMemberRoleUpdated, models.SectionChannels, s.user.ID, map[string]interface{}{
		"channel_id": channelID,
		"member":     member,
	}))
	return member, nil
}

func (s *channelsService) updateMemberRoleLocked(channelID, memberID, roleID uint) (models.ChannelMember, error) {
	index := s.indexLocked(channelID)
	if index < 0 {
		return models.ChannelMember{}, ErrChannelNotFound
	}
	channel := s.channels[index]
	if !CanManageRoles(s.user, channel) {
		return models.ChannelMember{}, ErrNotChannelCreator
	}
	if memberID == s.user.ID {
		return models.ChannelMember{}, ErrSelfRoleChange
	}
	if _, ok := channel.Role(roleID); !ok {
		return models.ChannelMember{}, ErrRoleNotFound
	}

	members := s.members[channelID]
	for i := range members {
		if members[i].ID == memberID {
			members[i].RoleID = roleID
			return members[i], nil
		}
	}
	return models.ChannelMember{}, ErrMemberNotFound
}

// RenameRole renames a role of the channel. Only the creator may do this; blank names are rejected.
func (s *channelsService) RenameRole(ctx context.Context, channelID, roleID uint, name string) (models.Role, error) {
	name = plainText(name)

	s.mu.Lock()
	role, err := s.renameRoleLocked(channelID, roleID, name)
	s.mu.Unlock()

	recordIntent("channels", "rename_role", err)
	if err != nil {
		return models.Role{}, err
	}

	s.publisher.Publish(ctx, NewEvent(EventRoleRenamed, models.SectionChannels, s.user.ID, map[string]interface{}{
		"channel_id": channelID,
		"role":       role,
	}))
	return role, nil
}

func (s *channelsService) renameRoleLocked(channelID, roleID uint, name string) (models.Role, error) {
	index := s.indexLocked(channelID)
	if index < 0 {
		return models.Role{}, ErrChannelNotFound
	}
	channel := &s.channels[index]
	if !CanManageRoles(s.user, *channel) {
		return models.Role{}, ErrNotChannelCreator
	}
	if name == "" {
		return models.Role{}, ErrEmptyName
	}

	for i := range channel.Roles {
		if channel.Roles[i].ID == roleID {
			channel.Roles[i].Name = name
			return channel.Roles[i], nil
		}
	}
	return models.Role{}, ErrRoleNotFound
}

func (s *channelsService) detailLocked(index int) dto.ChannelDetail {
	channel := s.channels[index].Clone()
	return dto.ChannelDetail{
		Channel:   channel,
		Members:   append([]models.ChannelMember{}, s.members[channel.ID]...),
		CanManage: CanManageRoles(s.user, channel),
	}
}

func (s *channelsService) indexLocked(channelID uint) int {
	for i := range s.channels {
		if s.channels[i].ID == channelID {
			return i
		}
	}
	return -1
}
