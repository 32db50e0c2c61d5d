package model

import (
	"slices"
	"strings"
	"time"
)

// Category groups posts and gates who may publish into it.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   *string   `json:"created_by,omitempty"` // nil once the creator is deleted
	Members     []string  `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// CategorySummary is the category shape embedded in post responses.
type CategorySummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// NormalizeCategoryName returns the stored form of a category name.
func NormalizeCategoryName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// HasMember reports whether userID belongs to the category.
func (c *Category) HasMember(userID string) bool {
	return slices.Contains(c.Members, userID)
}

// Summary returns the embeddable view of the category.
func (c *Category) Summary() CategorySummary {
	return CategorySummary{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
	}
}

// MembershipOutcome describes what a category create request did.
type MembershipOutcome string

const (
	// OutcomeCreated means a new category was created with the caller as its only member.
	OutcomeCreated MembershipOutcome = "created"
	// OutcomeJoined means the category already existed and the caller was added.
	OutcomeJoined MembershipOutcome = "joined"
	// OutcomeAlreadyMember means the category existed and the caller was already a member.
	OutcomeAlreadyMember MembershipOutcome = "already_member"
)
