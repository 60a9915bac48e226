package models

import "time"

// PostAuthor is the author reference embedded in a post.
type PostAuthor struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Post is a feed entry. Liked and Likes always move together.
type Post struct {
	ID        uint       `json:"id"`
	Author    PostAuthor `json:"author"`
	Content   string     `json:"content"`
	Tags      []string   `json:"tags"`
	Likes     int        `json:"likes"`
	Liked     bool       `json:"liked"`
	Comments  int        `json:"comments"`
	Timestamp string     `json:"timestamp"`
	CreatedAt time.Time  `json:"created_at"`
}

// HasTag reports whether the post carries tag exactly as stored.
func (p Post) HasTag(tag string) bool {
	for _, candidate := range p.Tags {
		if candidate == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot mutate controller-owned tag slices.
func (p Post) Clone() Post {
	p.Tags = append([]string(nil), p.Tags...)
	return p
}

// TagCount pairs a tag with the number of posts using it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
