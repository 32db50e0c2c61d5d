package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/inkwell/inkwell/internal/metrics"
	"github.com/inkwell/inkwell/internal/model"
	"github.com/inkwell/inkwell/internal/policy"
	"github.com/inkwell/inkwell/internal/repository"
)

const maxCategoryNameLength = 100

// CategoryService handles categories and their memberships.
type CategoryService struct {
	categories CategoryStore
	posts      PostLister
	cache      PostCache
	metrics    metrics.Recorder
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(categories CategoryStore, posts PostLister, cache PostCache, recorder metrics.Recorder) *CategoryService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CategoryService{
		categories: categories,
		posts:      posts,
		cache:      cache,
		metrics:    recorder,
	}
}

// CreateCategoryInput defines input for creating a category.
type CreateCategoryInput struct {
	Name        string
	Description string
}

// Create creates a category owned by the caller. When a category with the
// same name exists, the caller joins it instead and the outcome says so.
func (s *CategoryService) Create(ctx context.Context, caller model.Caller, input CreateCategoryInput) (*model.Category, model.MembershipOutcome, error) {
	if err := policy.Check(caller, policy.Create, policy.Category{}); err != nil {
		return nil, "", err
	}

	name, err := validCategoryName(input.Name)
	if err != nil {
		return nil, "", err
	}

	existing, err := s.categories.FindCategoryByName(ctx, name)
	if err == nil {
		return s.join(ctx, caller, existing)
	}
	if !errors.Is(err, repository.ErrCategoryNotFound) {
		return nil, "", err
	}

	createdBy := caller.UserID
	category := &model.Category{
		ID:          ulid.Make().String(),
		Name:        name,
		Description: input.Description,
		CreatedBy:   &createdBy,
		Members:     []string{caller.UserID},
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.categories.CreateCategory(ctx, category); err != nil {
		if !errors.Is(err, repository.ErrCategoryExists) {
			return nil, "", fmt.Errorf("failed to create category: %w", err)
		}
		// A concurrent request created it first; join that one.
		existing, err := s.categories.FindCategoryByName(ctx, name)
		if err != nil {
			return nil, "", err
		}
		return s.join(ctx, caller, existing)
	}

	s.metrics.IncCategoryCreated()

	return category, model.OutcomeCreated, nil
}

func (s *CategoryService) join(ctx context.Context, caller model.Caller, category *model.Category) (*model.Category, model.MembershipOutcome, error) {
	added, err := s.categories.AddCategoryMember(ctx, category.ID, caller.UserID)
	if err != nil {
		return nil, "", err
	}
	if !added {
		return category, model.OutcomeAlreadyMember, nil
	}

	if !category.HasMember(caller.UserID) {
		category.Members = append(category.Members, caller.UserID)
	}
	s.metrics.IncCategoryJoined()

	return category, model.OutcomeJoined, nil
}

// List returns all categories.
func (s *CategoryService) List(ctx context.Context) ([]*model.Category, error) {
	return s.categories.ListCategories(ctx)
}

// Get retrieves a category by name, ignoring case.
func (s *CategoryService) Get(ctx context.Context, name string) (*model.Category, error) {
	category, err := s.categories.FindCategoryByName(ctx, model.NormalizeCategoryName(name))
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// UpdateCategoryInput defines the editable fields. Nil fields are left unchanged.
type UpdateCategoryInput struct {
	Name        *string
	Description *string
}

// Update edits a category. Any authenticated caller may do so; membership
// is not required.
func (s *CategoryService) Update(ctx context.Context, caller model.Caller, name string, input UpdateCategoryInput) (*model.Category, error) {
	category, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := policy.Check(caller, policy.Update, policy.Category{Members: category.Members}); err != nil {
		return nil, err
	}

	if input.Name != nil {
		newName, err := validCategoryName(*input.Name)
		if err != nil {
			return nil, err
		}
		category.Name = newName
	}
	if input.Description != nil {
		category.Description = *input.Description
	}

	if err := s.categories.UpdateCategory(ctx, category); err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryExists):
			return nil, invalid("name", "category with this name already exists.")
		case errors.Is(err, repository.ErrCategoryNotFound):
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	// Cached posts embed the category name and description.
	invalidatePosts(ctx, s.posts, s.cache, repository.PostFilter{CategoryName: category.Name})

	return category, nil
}

// Delete removes a category with all of its posts and their comments.
// Any authenticated caller may do so; membership is not required.
func (s *CategoryService) Delete(ctx context.Context, caller model.Caller, name string) error {
	category, err := s.Get(ctx, name)
	if err != nil {
		return err
	}

	if err := policy.Check(caller, policy.Delete, policy.Category{Members: category.Members}); err != nil {
		return err
	}

	slugs, err := s.categories.DeleteCategory(ctx, category.ID)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	_ = s.cache.DeletePosts(ctx, slugs...)

	return nil
}

func validCategoryName(raw string) (string, error) {
	name := model.NormalizeCategoryName(raw)
	if name == "" {
		return "", invalid("name", "This field is required.")
	}
	if utf8.RuneCountInString(name) > maxCategoryNameLength {
		return "", invalid("name", fmt.Sprintf("Ensure this field has no more than %d characters.", maxCategoryNameLength))
	}
	return name, nil
}
