package model

import "time"

// Post is an article published by an author under a category.
// Slug is derived from Title and unique across all posts.
type Post struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Content      string           `json:"content"`
	Excerpt      string           `json:"excerpt,omitempty"`
	Slug         string           `json:"slug"`
	AuthorID     string           `json:"author_id"`
	CategoryID   string           `json:"category_id"`
	Author       *UserSummary     `json:"author,omitempty"`
	Category     *CategorySummary `json:"category,omitempty"`
	CommentCount int64            `json:"comments_count"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Touch advances UpdatedAt to now, never moving it backwards.
func (p *Post) Touch(now time.Time) {
	if now.After(p.UpdatedAt) {
		p.UpdatedAt = now
	}
}

// PostDetail is a post together with its comments.
type PostDetail struct {
	*Post
	Comments []*Comment `json:"comments"`
}
