package service

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/inkwell/inkwell/internal/cache"
	"github.com/inkwell/inkwell/internal/model"
	"github.com/inkwell/inkwell/internal/repository"
)

// memStore is an in-memory implementation of every store interface with
// the same uniqueness and cascade rules as the PostgreSQL repository.
type memStore struct {
	mu         sync.Mutex
	users      map[string]*model.User
	categories map[string]*model.Category
	posts      map[string]*model.Post
	comments   map[string]*model.Comment

	// beforeCreatePost runs inside CreatePost before the slug constraint
	// is checked; tests use it to play a concurrent writer.
	beforeCreatePost func(post *model.Post)
	// beforeCreateCategory plays a concurrent category creator.
	beforeCreateCategory func(category *model.Category)
	existsCalls          int
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[string]*model.User{},
		categories: map[string]*model.Category{},
		posts:      map[string]*model.Post{},
		comments:   map[string]*model.Comment{},
	}
}

// Users

func (m *memStore) CreateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return repository.ErrUsernameExists
		}
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrEmailExists
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *memStore) UpdateUserProfile(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.FirstName, u.LastName, u.Bio, u.Photo = user.FirstName, user.LastName, user.Bio, user.Photo
	return nil
}

func (m *memStore) DeleteUser(ctx context.Context, id string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return nil, repository.ErrUserNotFound
	}
	slugs := m.deletePostsLocked(func(p *model.Post) bool { return p.AuthorID == id })
	for _, c := range m.categories {
		c.Members = slices.DeleteFunc(c.Members, func(member string) bool { return member == id })
		if c.CreatedBy != nil && *c.CreatedBy == id {
			c.CreatedBy = nil
		}
	}
	delete(m.users, id)
	return slugs, nil
}

// Categories

func copyCategory(c *model.Category) *model.Category {
	cp := *c
	cp.Members = slices.Clone(c.Members)
	return &cp
}

func (m *memStore) CreateCategory(ctx context.Context, category *model.Category) error {
	if m.beforeCreateCategory != nil {
		hook := m.beforeCreateCategory
		m.beforeCreateCategory = nil
		hook(category)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if strings.EqualFold(c.Name, category.Name) {
			return repository.ErrCategoryExists
		}
	}
	m.categories[category.ID] = copyCategory(category)
	return nil
}

func (m *memStore) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return copyCategory(c), nil
}

func (m *memStore) FindCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if strings.EqualFold(c.Name, name) {
			return copyCategory(c), nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (m *memStore) ListCategories(ctx context.Context) ([]*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, copyCategory(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) AddCategoryMember(ctx context.Context, categoryID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[categoryID]
	if !ok {
		return false, errors.New("foreign key violation")
	}
	if c.HasMember(userID) {
		return false, nil
	}
	c.Members = append(c.Members, userID)
	return true, nil
}

func (m *memStore) UpdateCategory(ctx context.Context, category *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[category.ID]
	if !ok {
		return repository.ErrCategoryNotFound
	}
	for _, other := range m.categories {
		if other.ID != category.ID && strings.EqualFold(other.Name, category.Name) {
			return repository.ErrCategoryExists
		}
	}
	c.Name, c.Description = category.Name, category.Description
	return nil
}

func (m *memStore) DeleteCategory(ctx context.Context, id string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return nil, repository.ErrCategoryNotFound
	}
	slugs := m.deletePostsLocked(func(p *model.Post) bool { return p.CategoryID == id })
	delete(m.categories, id)
	return slugs, nil
}

// Posts

func (m *memStore) ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.existsCalls++
	for _, p := range m.posts {
		if p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) slugTakenLocked(slug, excludeID string) bool {
	for _, p := range m.posts {
		if p.Slug == slug && p.ID != excludeID {
			return true
		}
	}
	return false
}

func (m *memStore) CreatePost(ctx context.Context, post *model.Post) error {
	if m.beforeCreatePost != nil {
		m.beforeCreatePost(post)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugTakenLocked(post.Slug, "") {
		return repository.ErrSlugExists
	}
	cp := *post
	cp.Author, cp.Category = nil, nil
	m.posts[post.ID] = &cp
	return nil
}

// insertPost stores a post directly, bypassing hooks.
func (m *memStore) insertPost(post *model.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *post
	m.posts[post.ID] = &cp
}

func (m *memStore) readShapeLocked(p *model.Post) *model.Post {
	cp := *p
	if u, ok := m.users[p.AuthorID]; ok {
		summary := u.Summary()
		cp.Author = &summary
	}
	if c, ok := m.categories[p.CategoryID]; ok {
		summary := c.Summary()
		cp.Category = &summary
	}
	var n int64
	for _, c := range m.comments {
		if c.PostID == p.ID {
			n++
		}
	}
	cp.CommentCount = n
	return &cp
}

func (m *memStore) GetPostBySlug(ctx context.Context, slug string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.Slug == slug {
			return m.readShapeLocked(p), nil
		}
	}
	return nil, repository.ErrPostNotFound
}

func (m *memStore) ListPosts(ctx context.Context, filter repository.PostFilter) ([]*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Post, 0)
	q := strings.ToLower(filter.Query)
	for _, p := range m.posts {
		if filter.AuthorID != "" && p.AuthorID != filter.AuthorID {
			continue
		}
		if filter.CategoryName != "" {
			c, ok := m.categories[p.CategoryID]
			if !ok || !strings.EqualFold(c.Name, filter.CategoryName) {
				continue
			}
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Title+"\x00"+p.Content+"\x00"+p.Excerpt), q) {
			continue
		}
		out = append(out, m.readShapeLocked(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memStore) UpdatePost(ctx context.Context, post *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[post.ID]
	if !ok {
		return repository.ErrPostNotFound
	}
	if m.slugTakenLocked(post.Slug, post.ID) {
		return repository.ErrSlugExists
	}
	p.Title, p.Content, p.Excerpt, p.Slug, p.CategoryID, p.UpdatedAt =
		post.Title, post.Content, post.Excerpt, post.Slug, post.CategoryID, post.UpdatedAt
	return nil
}

func (m *memStore) DeletePost(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.deletePostsLocked(func(p *model.Post) bool { return p.ID == id })) == 0 {
		return repository.ErrPostNotFound
	}
	return nil
}

func (m *memStore) deletePostsLocked(match func(*model.Post) bool) []string {
	var slugs []string
	for id, p := range m.posts {
		if !match(p) {
			continue
		}
		for cid, c := range m.comments {
			if c.PostID == id {
				delete(m.comments, cid)
			}
		}
		slugs = append(slugs, p.Slug)
		delete(m.posts, id)
	}
	return slugs
}

// Comments

func (m *memStore) CreateComment(ctx context.Context, comment *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[comment.PostID]; !ok {
		return errors.New("foreign key violation")
	}
	cp := *comment
	m.comments[comment.ID] = &cp
	return nil
}

func (m *memStore) commentShapeLocked(c *model.Comment) *model.Comment {
	cp := *c
	if p, ok := m.posts[c.PostID]; ok {
		cp.PostSlug = p.Slug
	}
	return &cp
}

func (m *memStore) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, repository.ErrCommentNotFound
	}
	return m.commentShapeLocked(c), nil
}

func (m *memStore) listCommentsLocked(match func(*model.Comment) bool) []*model.Comment {
	out := make([]*model.Comment, 0)
	for _, c := range m.comments {
		if match(c) {
			out = append(out, m.commentShapeLocked(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memStore) ListComments(ctx context.Context, postSlug string) ([]*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCommentsLocked(func(c *model.Comment) bool {
		if postSlug == "" {
			return true
		}
		p, ok := m.posts[c.PostID]
		return ok && p.Slug == postSlug
	}), nil
}

func (m *memStore) ListCommentsByPost(ctx context.Context, postID string) ([]*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCommentsLocked(func(c *model.Comment) bool { return c.PostID == postID }), nil
}

func (m *memStore) UpdateComment(ctx context.Context, comment *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[comment.ID]
	if !ok {
		return repository.ErrCommentNotFound
	}
	c.Name, c.Email, c.Content = comment.Name, comment.Email, comment.Content
	return nil
}

func (m *memStore) DeleteComment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[id]; !ok {
		return repository.ErrCommentNotFound
	}
	delete(m.comments, id)
	return nil
}

// Stats

func (m *memStore) AuthorStats(ctx context.Context, authorID string) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var posts, comments int64
	for _, p := range m.posts {
		if p.AuthorID == authorID {
			posts++
		}
	}
	for _, c := range m.comments {
		if p, ok := m.posts[c.PostID]; ok && p.AuthorID == authorID {
			comments++
		}
	}
	return posts, comments, nil
}

func (m *memStore) RecentCommentsForAuthor(ctx context.Context, authorID string, limit int) ([]*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.listCommentsLocked(func(c *model.Comment) bool {
		p, ok := m.posts[c.PostID]
		return ok && p.AuthorID == authorID
	})
	slices.Reverse(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) allSlugs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.posts))
	for _, p := range m.posts {
		out = append(out, p.Slug)
	}
	return out
}

// memCache implements PostCache and TokenRevoker.
type memCache struct {
	mu      sync.Mutex
	posts   map[string]model.Post
	missing map[string]bool
	revoked map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{
		posts:   map[string]model.Post{},
		missing: map[string]bool{},
		revoked: map[string]time.Duration{},
	}
}

func (c *memCache) GetPost(ctx context.Context, slug string) (*model.Post, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.posts[slug]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &p, nil
}

func (c *memCache) SetPost(ctx context.Context, post *model.Post) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts[post.Slug] = *post
	delete(c.missing, post.Slug)
	return nil
}

func (c *memCache) DeletePosts(ctx context.Context, slugs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range slugs {
		delete(c.posts, s)
		delete(c.missing, s)
	}
	return nil
}

func (c *memCache) IsPostMissing(ctx context.Context, slug string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.missing[slug], nil
}

func (c *memCache) SetPostMissing(ctx context.Context, slug string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.missing[slug] = true
	return nil
}

func (c *memCache) cached(slug string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.posts[slug]
	return ok
}

func (c *memCache) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revoked[tokenID] = ttl
	return nil
}

func (c *memCache) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.revoked[tokenID]
	return ok, nil
}
