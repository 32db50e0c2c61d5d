package model

import "time"

// Comment is free-text feedback left on a post. The commenter need not be a registered user.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post"`
	PostSlug  string    `json:"post_slug,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
