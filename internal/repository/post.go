package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/inkwell/inkwell/internal/model"
	"github.com/jackc/pgx/v5"
)

// Common errors for post repository operations.
var (
	ErrPostNotFound = errors.New("post not found")
	ErrSlugExists   = errors.New("slug already exists")
)

// PostFilter narrows ListPosts. Zero fields are ignored.
type PostFilter struct {
	CategoryName string // case-insensitive
	AuthorID     string
	Query        string // case-insensitive substring of title, content or excerpt
	Limit        int
}

const postSelect = `
	SELECT p.id, p.title, p.content, p.excerpt, p.slug, p.author_id, p.category_id, p.created_at, p.updated_at,
	       u.username, u.email, u.first_name, u.last_name,
	       c.name, c.description,
	       (SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id)
	FROM posts p
	JOIN users u ON u.id = p.author_id
	JOIN categories c ON c.id = p.category_id
`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ExistsBySlug reports whether a post other than excludeID uses slug.
func (r *Repository) ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, slug, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check slug existence: %w", err)
	}

	return exists, nil
}

// CreatePost inserts a new post. ErrSlugExists means a concurrent writer
// took the slug after it was checked.
func (r *Repository) CreatePost(ctx context.Context, post *model.Post) error {
	query := `
		INSERT INTO posts (id, title, content, excerpt, slug, author_id, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		post.Excerpt,
		post.Slug,
		post.AuthorID,
		post.CategoryID,
		post.CreatedAt,
		post.UpdatedAt,
	)

	if err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == "posts_slug_key" {
			return ErrSlugExists
		}
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

// GetPostBySlug retrieves a post with its author and category summaries.
func (r *Repository) GetPostBySlug(ctx context.Context, slug string) (*model.Post, error) {
	query := postSelect + ` WHERE p.slug = $1`

	post, err := scanPost(r.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post by slug: %w", err)
	}

	return post, nil
}

// ListPosts returns posts newest first.
func (r *Repository) ListPosts(ctx context.Context, filter PostFilter) ([]*model.Post, error) {
	query := postSelect + ` WHERE TRUE`
	args := []any{}
	argIndex := 1

	if filter.CategoryName != "" {
		query += fmt.Sprintf(" AND LOWER(c.name) = LOWER($%d)", argIndex)
		args = append(args, filter.CategoryName)
		argIndex++
	}

	if filter.AuthorID != "" {
		query += fmt.Sprintf(" AND p.author_id = $%d", argIndex)
		args = append(args, filter.AuthorID)
		argIndex++
	}

	if filter.Query != "" {
		query += fmt.Sprintf(" AND (p.title ILIKE $%d OR p.content ILIKE $%d OR p.excerpt ILIKE $%d)", argIndex, argIndex, argIndex)
		args = append(args, "%"+likeEscaper.Replace(filter.Query)+"%")
		argIndex++
	}

	query += " ORDER BY p.created_at DESC, p.id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*model.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}

	return posts, rows.Err()
}

// UpdatePost updates a post's mutable fields including its slug.
func (r *Repository) UpdatePost(ctx context.Context, post *model.Post) error {
	query := `
		UPDATE posts
		SET title = $2, content = $3, excerpt = $4, slug = $5, category_id = $6, updated_at = $7
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		post.Excerpt,
		post.Slug,
		post.CategoryID,
		post.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == "posts_slug_key" {
			return ErrSlugExists
		}
		return fmt.Errorf("failed to update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}

	return nil
}

// DeletePost removes a post and its comments in one transaction.
func (r *Repository) DeletePost(ctx context.Context, id string) error {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		slugs, err := deletePostsWhere(ctx, tx, "id = $1", id)
		if err != nil {
			return err
		}
		if len(slugs) == 0 {
			return ErrPostNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete post: %w", err)
	}

	return nil
}

// deletePostsWhere deletes the posts matching where, and their comments,
// returning the deleted slugs.
func deletePostsWhere(ctx context.Context, tx pgx.Tx, where string, arg any) ([]string, error) {
	rows, err := tx.Query(ctx, `SELECT id, slug FROM posts WHERE `+where+` FOR UPDATE`, arg)
	if err != nil {
		return nil, fmt.Errorf("select posts: %w", err)
	}

	var ids, slugs []string
	for rows.Next() {
		var id, slug string
		if err := rows.Scan(&id, &slug); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan post: %w", err)
		}
		ids = append(ids, id)
		slugs = append(slugs, slug)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select posts: %w", err)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE post_id = ANY($1)`, ids); err != nil {
		return nil, fmt.Errorf("delete comments: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = ANY($1)`, ids); err != nil {
		return nil, fmt.Errorf("delete posts: %w", err)
	}

	return slugs, nil
}

func scanPost(row pgx.Row) (*model.Post, error) {
	var (
		post     model.Post
		author   model.UserSummary
		category model.CategorySummary
	)
	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.Excerpt,
		&post.Slug,
		&post.AuthorID,
		&post.CategoryID,
		&post.CreatedAt,
		&post.UpdatedAt,
		&author.Username,
		&author.Email,
		&author.FirstName,
		&author.LastName,
		&category.Name,
		&category.Description,
		&post.CommentCount,
	)
	if err != nil {
		return nil, err
	}

	author.ID = post.AuthorID
	category.ID = post.CategoryID
	post.Author = &author
	post.Category = &category
	return &post, nil
}
