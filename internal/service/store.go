package service

import (
	"context"
	"time"

	"github.com/inkwell/inkwell/internal/model"
	"github.com/inkwell/inkwell/internal/repository"
)

// UserStore persists users.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	UpdateUserProfile(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) ([]string, error)
}

// CategoryStore persists categories and their memberships.
type CategoryStore interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	FindCategoryByName(ctx context.Context, name string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]*model.Category, error)
	AddCategoryMember(ctx context.Context, categoryID, userID string) (bool, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id string) ([]string, error)
}

// PostStore persists posts. ExistsBySlug makes it a slug.Checker.
type PostStore interface {
	ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error)
	CreatePost(ctx context.Context, post *model.Post) error
	GetPostBySlug(ctx context.Context, slug string) (*model.Post, error)
	ListPosts(ctx context.Context, filter repository.PostFilter) ([]*model.Post, error)
	UpdatePost(ctx context.Context, post *model.Post) error
	DeletePost(ctx context.Context, id string) error
}

// CommentStore persists comments.
type CommentStore interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	GetComment(ctx context.Context, id string) (*model.Comment, error)
	ListComments(ctx context.Context, postSlug string) ([]*model.Comment, error)
	ListCommentsByPost(ctx context.Context, postID string) ([]*model.Comment, error)
	UpdateComment(ctx context.Context, comment *model.Comment) error
	DeleteComment(ctx context.Context, id string) error
}

// StatsStore answers dashboard queries.
type StatsStore interface {
	AuthorStats(ctx context.Context, authorID string) (posts, comments int64, err error)
	RecentCommentsForAuthor(ctx context.Context, authorID string, limit int) ([]*model.Comment, error)
}

// PostLister lists posts; services holding embedded post data use it to
// find cache entries to invalidate.
type PostLister interface {
	ListPosts(ctx context.Context, filter repository.PostFilter) ([]*model.Post, error)
}

// invalidatePosts drops every cached post matching filter. Cache and lookup
// errors are ignored; entries expire on their own.
func invalidatePosts(ctx context.Context, posts PostLister, cache PostCache, filter repository.PostFilter) {
	affected, err := posts.ListPosts(ctx, filter)
	if err != nil || len(affected) == 0 {
		return
	}
	slugs := make([]string, 0, len(affected))
	for _, p := range affected {
		slugs = append(slugs, p.Slug)
	}
	_ = cache.DeletePosts(ctx, slugs...)
}

// PostCache is the read-through cache for posts by slug.
type PostCache interface {
	GetPost(ctx context.Context, slug string) (*model.Post, error)
	SetPost(ctx context.Context, post *model.Post) error
	DeletePosts(ctx context.Context, slugs ...string) error
	IsPostMissing(ctx context.Context, slug string) (bool, error)
	SetPostMissing(ctx context.Context, slug string) error
}

// TokenRevoker tracks revoked refresh tokens.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}
