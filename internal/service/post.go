package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/inkwell/inkwell/internal/cache"
	"github.com/inkwell/inkwell/internal/metrics"
	"github.com/inkwell/inkwell/internal/model"
	"github.com/inkwell/inkwell/internal/policy"
	"github.com/inkwell/inkwell/internal/repository"
	"github.com/inkwell/inkwell/internal/slug"
)

const (
	maxTitleLength = 200
	// maxSlugRetries bounds re-selection after the unique constraint
	// rejects a slug taken by a concurrent writer.
	maxSlugRetries = 3
	// DefaultRecentLimit is the number of posts Recent returns by default.
	DefaultRecentLimit = 5
)

// PostService handles posts.
type PostService struct {
	posts       PostStore
	comments    CommentStore
	categories  CategoryStore
	cache       PostCache
	assigner    *slug.Assigner
	metrics     metrics.Recorder
	recentLimit int
	now         func() time.Time
}

// PostServiceConfig holds tunables for PostService.
type PostServiceConfig struct {
	SlugMaxAttempts int
	RecentLimit     int
}

// NewPostService creates a new PostService.
func NewPostService(posts PostStore, comments CommentStore, categories CategoryStore, postCache PostCache, recorder metrics.Recorder, cfg PostServiceConfig) *PostService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = DefaultRecentLimit
	}
	return &PostService{
		posts:      posts,
		comments:   comments,
		categories: categories,
		cache:      postCache,
		assigner: slug.NewAssigner(posts,
			slug.WithMaxAttempts(cfg.SlugMaxAttempts),
			slug.WithCollisionHook(recorder.IncSlugCollision),
		),
		metrics:     recorder,
		recentLimit: cfg.RecentLimit,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreatePostInput defines input for creating a post.
type CreatePostInput struct {
	Title      string
	Content    string
	Excerpt    string
	CategoryID string
}

// Create publishes a post. The caller must be a member of the target category.
func (s *PostService) Create(ctx context.Context, caller model.Caller, input CreatePostInput) (*model.Post, error) {
	if !caller.IsAuthenticated() {
		return nil, policy.ErrUnauthenticated
	}

	title, err := validTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, invalid("content", "This field is required.")
	}
	if input.CategoryID == "" {
		return nil, invalid("category_id", "This field is required.")
	}

	target, err := s.categorySnapshot(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(caller, policy.Create, policy.Post{Category: target}); err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	now := s.now()
	post := &model.Post{
		ID:         ulid.Make().String(),
		Title:      title,
		Content:    input.Content,
		Excerpt:    input.Excerpt,
		AuthorID:   caller.UserID,
		CategoryID: input.CategoryID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	req := slug.Request{Title: title, TitleChanged: true}
	if err := s.saveWithSlug(ctx, post, req, s.posts.CreatePost); err != nil {
		return nil, err
	}

	s.metrics.IncPostCreated()
	// The slug may have been negatively cached before it existed.
	_ = s.cache.DeletePosts(ctx, post.Slug)

	return s.reload(ctx, post), nil
}

// Get retrieves a post with its comments. The post itself is served from
// cache when possible; comments always come from the store.
func (s *PostService) Get(ctx context.Context, postSlug string) (*model.PostDetail, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObservePostLookupDuration(time.Since(start))
	}()

	post, err := s.lookup(ctx, postSlug)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.ListCommentsByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	post.CommentCount = int64(len(comments))

	return &model.PostDetail{Post: post, Comments: comments}, nil
}

func (s *PostService) lookup(ctx context.Context, postSlug string) (*model.Post, error) {
	cached, err := s.cache.GetPost(ctx, postSlug)
	if err == nil {
		s.metrics.IncPostCacheHit()
		return cached, nil
	}

	if errors.Is(err, cache.ErrCacheMiss) {
		s.metrics.IncPostCacheMiss()
		if missing, _ := s.cache.IsPostMissing(ctx, postSlug); missing {
			return nil, ErrPostNotFound
		}
	}
	// Other cache errors fall through to the store

	post, err := s.posts.GetPostBySlug(ctx, postSlug)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			_ = s.cache.SetPostMissing(ctx, postSlug)
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	_ = s.cache.SetPost(ctx, post)

	return post, nil
}

// List returns posts newest first, optionally only those in a category.
func (s *PostService) List(ctx context.Context, category string) ([]*model.Post, error) {
	return s.posts.ListPosts(ctx, repository.PostFilter{
		CategoryName: model.NormalizeCategoryName(category),
	})
}

// Recent returns the newest posts.
func (s *PostService) Recent(ctx context.Context) ([]*model.Post, error) {
	return s.posts.ListPosts(ctx, repository.PostFilter{Limit: s.recentLimit})
}

// Search returns posts whose title, content or excerpt contains q, ignoring case.
func (s *PostService) Search(ctx context.Context, q string) ([]*model.Post, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, invalid("q", "Search query is required.")
	}
	return s.posts.ListPosts(ctx, repository.PostFilter{Query: q})
}

// ListByAuthor returns the caller's own posts.
func (s *PostService) ListByAuthor(ctx context.Context, caller model.Caller) ([]*model.Post, error) {
	if !caller.IsAuthenticated() {
		return nil, policy.ErrUnauthenticated
	}
	return s.posts.ListPosts(ctx, repository.PostFilter{AuthorID: caller.UserID})
}

// UpdatePostInput defines the editable fields. Nil fields are left unchanged.
type UpdatePostInput struct {
	Title      *string
	Content    *string
	Excerpt    *string
	CategoryID *string
}

// Update edits a post. Only its author may do so. The slug is recomputed
// only when the title changes.
func (s *PostService) Update(ctx context.Context, caller model.Caller, postSlug string, input UpdatePostInput) (*model.Post, error) {
	post, err := s.getForWrite(ctx, postSlug)
	if err != nil {
		return nil, err
	}

	if err := policy.Check(caller, policy.Update, policy.Post{AuthorID: post.AuthorID}); err != nil {
		return nil, err
	}

	titleChanged := false
	if input.Title != nil {
		title, err := validTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		titleChanged = title != post.Title
		post.Title = title
	}
	if input.Content != nil {
		if strings.TrimSpace(*input.Content) == "" {
			return nil, invalid("content", "This field may not be blank.")
		}
		post.Content = *input.Content
	}
	if input.Excerpt != nil {
		post.Excerpt = *input.Excerpt
	}
	if input.CategoryID != nil && *input.CategoryID != post.CategoryID {
		// Moving a post is publishing into the new category.
		target, err := s.categorySnapshot(ctx, *input.CategoryID)
		if err != nil {
			return nil, err
		}
		if err := policy.Check(caller, policy.Create, policy.Post{Category: target}); err != nil {
			if errors.Is(err, policy.ErrNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
		post.CategoryID = *input.CategoryID
	}

	oldSlug := post.Slug
	post.Touch(s.now())

	req := slug.Request{
		Title:        post.Title,
		PostID:       post.ID,
		ExistingSlug: oldSlug,
		TitleChanged: titleChanged,
	}
	if err := s.saveWithSlug(ctx, post, req, s.posts.UpdatePost); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	s.metrics.IncPostUpdated()
	_ = s.cache.DeletePosts(ctx, oldSlug, post.Slug)

	return s.reload(ctx, post), nil
}

// Delete removes a post and its comments. Only its author may do so.
func (s *PostService) Delete(ctx context.Context, caller model.Caller, postSlug string) error {
	post, err := s.getForWrite(ctx, postSlug)
	if err != nil {
		return err
	}

	if err := policy.Check(caller, policy.Delete, policy.Post{AuthorID: post.AuthorID}); err != nil {
		return err
	}

	if err := s.posts.DeletePost(ctx, post.ID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		return err
	}

	s.metrics.IncPostDeleted()
	_ = s.cache.DeletePosts(ctx, post.Slug)

	return nil
}

// saveWithSlug assigns a slug and persists the post with save. The
// assigner's check is racy, so when the store's unique constraint rejects
// the slug the selection is re-run, at most maxSlugRetries times.
func (s *PostService) saveWithSlug(ctx context.Context, post *model.Post, req slug.Request, save func(context.Context, *model.Post) error) error {
	for attempt := 1; ; attempt++ {
		assigned, err := s.assigner.Assign(ctx, req)
		if err != nil {
			switch {
			case errors.Is(err, slug.ErrEmptySlug):
				return errTitleNoSlug
			case errors.Is(err, slug.ErrExhausted):
				return fmt.Errorf("%w: %w", ErrConflict, err)
			}
			return err
		}
		post.Slug = assigned

		err = save(ctx, post)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrSlugExists) {
			return err
		}
		if attempt >= maxSlugRetries {
			return fmt.Errorf("%w: slug %q taken by concurrent writers", ErrConflict, assigned)
		}
		s.metrics.IncSlugRetry()
		// A retry must recompute even if the title did not change.
		req.TitleChanged = true
	}
}

// getForWrite loads a post from the store, bypassing the cache.
func (s *PostService) getForWrite(ctx context.Context, postSlug string) (*model.Post, error) {
	post, err := s.posts.GetPostBySlug(ctx, postSlug)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

// reload fetches the stored read shape of post, falling back to post itself.
func (s *PostService) reload(ctx context.Context, post *model.Post) *model.Post {
	stored, err := s.posts.GetPostBySlug(ctx, post.Slug)
	if err != nil {
		return post
	}
	return stored
}

// categorySnapshot returns the policy view of a category, or nil if it does not exist.
func (s *PostService) categorySnapshot(ctx context.Context, id string) (*policy.Category, error) {
	category, err := s.categories.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &policy.Category{Members: category.Members}, nil
}

var errTitleNoSlug = invalid("title", "Title must contain at least one letter or digit.")

func validTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", invalid("title", "This field is required.")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", invalid("title", fmt.Sprintf("Ensure this field has no more than %d characters.", maxTitleLength))
	}
	if slug.Normalize(title) == "" {
		return "", errTitleNoSlug
	}
	return title, nil
}
