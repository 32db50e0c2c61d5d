package dto

import "github.com/inkwell/inkwell/internal/model"

// CreateCategoryRequest is the body of POST /api/category.
type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// UpdateCategoryRequest is the body of PUT /api/category/{name}.
type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,notblank,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

// CategoryOutcomeResponse reports what a create request did.
type CategoryOutcomeResponse struct {
	Category *model.Category         `json:"category"`
	Outcome  model.MembershipOutcome `json:"outcome"`
	Message  string                  `json:"message"`
}

// ToCategoryOutcomeResponse converts a create result into its response.
func ToCategoryOutcomeResponse(category *model.Category, outcome model.MembershipOutcome) *CategoryOutcomeResponse {
	var msg string
	switch outcome {
	case model.OutcomeCreated:
		msg = "Category created."
	case model.OutcomeJoined:
		msg = "Category already exists; you have joined it."
	default:
		msg = "You are already a member of this category."
	}
	return &CategoryOutcomeResponse{Category: category, Outcome: outcome, Message: msg}
}
