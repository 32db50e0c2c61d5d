package dto

// CreatePostRequest is the body of POST /api/posts.
type CreatePostRequest struct {
	Title      string `json:"title" validate:"notblank,max=200"`
	Content    string `json:"content" validate:"notblank"`
	Excerpt    string `json:"excerpt" validate:"max=500"`
	CategoryID string `json:"category_id" validate:"required"`
}

// UpdatePostRequest is the body of PUT and PATCH /api/posts/{slug}.
// Omitted fields are left unchanged.
type UpdatePostRequest struct {
	Title      *string `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Content    *string `json:"content,omitempty" validate:"omitempty,notblank"`
	Excerpt    *string `json:"excerpt,omitempty" validate:"omitempty,max=500"`
	CategoryID *string `json:"category_id,omitempty" validate:"omitempty,required"`
}
