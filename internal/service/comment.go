package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/inkwell/inkwell/internal/metrics"
	"github.com/inkwell/inkwell/internal/model"
	"github.com/inkwell/inkwell/internal/policy"
	"github.com/inkwell/inkwell/internal/repository"
)

// CommentService handles comments. Commenting requires no account.
type CommentService struct {
	comments CommentStore
	posts    PostStore
	metrics  metrics.Recorder
}

// NewCommentService creates a new CommentService.
func NewCommentService(comments CommentStore, posts PostStore, recorder metrics.Recorder) *CommentService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CommentService{
		comments: comments,
		posts:    posts,
		metrics:  recorder,
	}
}

// CreateCommentInput defines input for creating a comment on the post with Slug.
type CreateCommentInput struct {
	Slug    string
	Name    string
	Email   string
	Content string
}

// Create adds a comment to a post identified by slug.
func (s *CommentService) Create(ctx context.Context, caller model.Caller, input CreateCommentInput) (*model.Comment, error) {
	postSlug := strings.TrimSpace(input.Slug)
	if postSlug == "" {
		return nil, invalid("slug", "This field is required.")
	}
	if err := requireCommentFields(input.Name, input.Email, input.Content); err != nil {
		return nil, err
	}

	post, err := s.posts.GetPostBySlug(ctx, postSlug)
	if err != nil && !errors.Is(err, repository.ErrPostNotFound) {
		return nil, err
	}

	if err := policy.Check(caller, policy.Create, policy.Comment{PostExists: post != nil}); err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	comment := &model.Comment{
		ID:        ulid.Make().String(),
		PostID:    post.ID,
		PostSlug:  post.Slug,
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(input.Email),
		Content:   input.Content,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	s.metrics.IncCommentCreated()

	return comment, nil
}

// List returns comments, optionally only those on the post with postSlug.
func (s *CommentService) List(ctx context.Context, postSlug string) ([]*model.Comment, error) {
	return s.comments.ListComments(ctx, strings.TrimSpace(postSlug))
}

// Get retrieves a comment by ID.
func (s *CommentService) Get(ctx context.Context, id string) (*model.Comment, error) {
	comment, err := s.comments.GetComment(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}

// UpdateCommentInput defines the editable fields. Nil fields are left unchanged.
type UpdateCommentInput struct {
	Name    *string
	Email   *string
	Content *string
}

// Update edits a comment. Comments carry no owner, so anyone may edit them.
func (s *CommentService) Update(ctx context.Context, caller model.Caller, id string, input UpdateCommentInput) (*model.Comment, error) {
	comment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Check(caller, policy.Update, policy.Comment{PostExists: true}); err != nil {
		return nil, err
	}

	if input.Name != nil {
		comment.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		comment.Email = strings.TrimSpace(*input.Email)
	}
	if input.Content != nil {
		comment.Content = *input.Content
	}
	if err := requireCommentFields(comment.Name, comment.Email, comment.Content); err != nil {
		return nil, err
	}

	if err := s.comments.UpdateComment(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	return comment, nil
}

// Delete removes a comment. Comments carry no owner, so anyone may delete them.
func (s *CommentService) Delete(ctx context.Context, caller model.Caller, id string) error {
	if err := policy.Check(caller, policy.Delete, policy.Comment{PostExists: true}); err != nil {
		return err
	}

	if err := s.comments.DeleteComment(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		return err
	}

	return nil
}

func requireCommentFields(name, email, content string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return invalid("name", "This field is required.")
	case strings.TrimSpace(email) == "":
		return invalid("email", "This field is required.")
	case strings.TrimSpace(content) == "":
		return invalid("content", "This field is required.")
	}
	return nil
}
