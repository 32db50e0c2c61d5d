package dto

// CreateCommentRequest is the body of POST /api/comments.
type CreateCommentRequest struct {
	Slug    string `json:"slug" validate:"notblank,max=255"`
	Name    string `json:"name" validate:"notblank,max=80"` // comments.name is VARCHAR(80)
	Email   string `json:"email" validate:"required,email,max=254"`
	Content string `json:"content" validate:"notblank"`
}

// UpdateCommentRequest is the body of PUT /api/comments/{id}.
type UpdateCommentRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,notblank,max=80"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Content *string `json:"content,omitempty" validate:"omitempty,notblank"`
}
