package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/socium-go/internal/dto"
	"github.com/noah-isme/socium-go/internal/models"
	"github.com/noah-isme/socium-go/internal/repository"
)

const (
	defaultTrendingLimit = 5
	justNow              = "just now"
)

// FeedService owns the feed's post collection and tag filter.
type FeedService interface {
	Snapshot() dto.FeedSnapshot
	Visible() []models.Post
	SelectedTag() *string
	ToggleLike(ctx context.Context, postID uint) (models.Post, error)
	CreatePost(ctx context.Context, payload dto.CreatePostRequest) (models.Post, error)
	FilterByTag(ctx context.Context, tag *string) []models.Post
	TrendingTags(limit int) []models.TagCount
	SuggestedTags() []string
}

type feedService struct {
	user      models.User
	publisher EventPublisher
	logger    zerolog.Logger
	now       func() time.Time

	mu        sync.Mutex
	posts     []models.Post
	selected  *string
	nextID    uint
	trending  []models.TagCount
	suggested []string
}

// NewFeedService constructs the feed controller for user from the dataset's seed posts.
func NewFeedService(user models.User, dataset repository.Dataset, publisher EventPublisher, logger zerolog.Logger) FeedService {
	posts := dataset.Posts()
	var maxID uint
	for _, post := range posts {
		if post.ID > maxID {
			maxID = post.ID
		}
	}

	return &feedService{
		user:      user,
		publisher: publisherOrNop(publisher),
		logger:    logger.With().Str("component", "feed_service").Logger(),
		now:       time.Now,
		posts:     posts,
		nextID:    maxID + 1,
		trending:  dataset.TrendingBaseline(),
		suggested: dataset.SuggestedTags(),
	}
}

func (s *feedService) Snapshot() dto.FeedSnapshot {
	return dto.FeedSnapshot{
		Posts:         s.Visible(),
		SelectedTag:   s.SelectedTag(),
		TrendingTags:  s.TrendingTags(defaultTrendingLimit),
		SuggestedTags: s.SuggestedTags(),
	}
}

func (s *feedService) Visible() []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleLocked()
}

func (s *feedService) SelectedTag() *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	tag := *s.selected
	return &tag
}

// ToggleLike flips the liked flag and moves the like count with it in one update.
func (s *feedService) ToggleLike(ctx context.Context, postID uint) (models.Post, error) {
	s.mu.Lock()
	index := s.indexLocked(postID)
	if index < 0 {
		s.mu.Unlock()
		recordIntent("feed", "toggle_like", ErrPostNotFound)
		return models.Post{}, ErrPostNotFound
	}

	post := &s.posts[index]
	if post.Liked {
		post.Liked = false
		if post.Likes > 0 {
			post.Likes--
		}
	} else {
		post.Liked = true
		post.Likes++
	}
	updated := post.Clone()
	s.mu.Unlock()

	recordIntent("feed", "toggle_like", nil)
	s.publisher.Publish(ctx, NewEvent(EventPostLiked, models.SectionFeed, s.user.ID, map[string]interface{}{
		"post_id": updated.ID,
		"liked":   updated.Liked,
		"likes":   updated.Likes,
	}))
	return updated, nil
}

// CreatePost prepends a post authored by the current user. Blank content is rejected.
func (s *feedService) CreatePost(ctx context.Context, payload dto.CreatePostRequest) (models.Post, error) {
	content := plainText(payload.Content)
	if content == "" {
		recordIntent("feed", "create_post", ErrEmptyContent)
		return models.Post{}, ErrEmptyContent
	}

	s.mu.Lock()
	post := models.Post{
		ID: s.nextID,
		Author: models.PostAuthor{
			ID:       s.user.ID,
			Name:     s.user.DisplayName(),
			Username: s.user.Username(),
		},
		Content:   content,
		Tags:      parseTags(payload.Tags),
		Timestamp: justNow,
		CreatedAt: s.now().UTC(),
	}
	s.nextID++
	s.posts = append([]models.Post{post}, s.posts...)
	created := post.Clone()
	s.mu.Unlock()

	recordIntent("feed", "create_post", nil)
	s.logger.Debug().Uint("post_id", created.ID).Int("tags", len(created.Tags)).Msg("post created")
	s.publisher.Publish(ctx, NewEvent(EventPostCreated, models.SectionFeed, s.user.ID, created))
	return created, nil
}

// FilterByTag sets or clears (nil or blank tag) the filter and returns the visible posts.
func (s *feedService) FilterByTag(ctx context.Context, tag *string) []models.Post {
	s.mu.Lock()
	if tag == nil || strings.TrimSpace(*tag) == "" {
		s.selected = nil
	} else {
		value := *tag
		s.selected = &value
	}
	visible := s.visibleLocked()
	var selected interface{}
	if s.selected != nil {
		selected = *s.selected
	}
	s.mu.Unlock()

	recordIntent("feed", "filter", nil)
	s.publisher.Publish(ctx, NewEvent(EventFilterChanged, models.SectionFeed, s.user.ID, map[string]interface{}{
		"tag":     selected,
		"visible": len(visible),
	}))
	return visible
}

// TrendingTags adds the tag counts of the current posts to the trending baseline.
func (s *feedService) TrendingTags(limit int) []models.TagCount {
	s.mu.Lock()
	counts := make(map[string]int, len(s.trending))
	for _, entry := range s.trending {
		counts[entry.Tag] += entry.Count
	}
	for _, post := range s.posts {
		for _, tag := range post.Tags {
			counts[tag]++
		}
	}
	s.mu.Unlock()

	result := make([]models.TagCount, 0, len(counts))
	for tag, count := range counts {
		result = append(result, models.TagCount{Tag: tag, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Tag < result[j].Tag
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func (s *feedService) SuggestedTags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.suggested...)
}

func (s *feedService) visibleLocked() []models.Post {
	visible := make([]models.Post, 0, len(s.posts))
	for _, post := range s.posts {
		if s.selected != nil && !post.HasTag(*s.selected) {
			continue
		}
		visible = append(visible, post.Clone())
	}
	return visible
}

func (s *feedService) indexLocked(postID uint) int {
	for i := range s.posts {
		if s.posts[i].ID == postID {
			return i
		}
	}
	return -1
}

// parseTags splits a comma separated list, normalizing each entry. Order and duplicates are kept.
func parseTags(raw string) []string {
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		tag := strings.ToLower(plainText(part))
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}
