package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/inkwell/inkwell/internal/model"
	"github.com/jackc/pgx/v5"
)

// ErrCommentNotFound is returned when a comment does not exist.
var ErrCommentNotFound = errors.New("comment not found")

const commentSelect = `
	SELECT cm.id, cm.post_id, p.slug, cm.name, cm.email, cm.content, cm.created_at
	FROM comments cm
	JOIN posts p ON p.id = cm.post_id
`

// CreateComment inserts a new comment.
func (r *Repository) CreateComment(ctx context.Context, comment *model.Comment) error {
	query := `
		INSERT INTO comments (id, post_id, name, email, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		comment.ID,
		comment.PostID,
		comment.Name,
		comment.Email,
		comment.Content,
		comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// GetComment retrieves a comment by ID.
func (r *Repository) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	query := commentSelect + ` WHERE cm.id = $1`

	comment, err := scanComment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return comment, nil
}

// ListComments returns comments oldest first, optionally limited to the post with postSlug.
func (r *Repository) ListComments(ctx context.Context, postSlug string) ([]*model.Comment, error) {
	query := commentSelect
	args := []any{}
	if postSlug != "" {
		query += ` WHERE p.slug = $1`
		args = append(args, postSlug)
	}
	query += ` ORDER BY cm.created_at, cm.id`

	return r.queryComments(ctx, query, args...)
}

// ListCommentsByPost returns the comments of a post, oldest first.
func (r *Repository) ListCommentsByPost(ctx context.Context, postID string) ([]*model.Comment, error) {
	query := commentSelect + ` WHERE cm.post_id = $1 ORDER BY cm.created_at, cm.id`
	return r.queryComments(ctx, query, postID)
}

// UpdateComment updates the editable fields of a comment.
func (r *Repository) UpdateComment(ctx context.Context, comment *model.Comment) error {
	query := `UPDATE comments SET name = $2, email = $3, content = $4 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, comment.ID, comment.Name, comment.Email, comment.Content)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCommentNotFound
	}

	return nil
}

// DeleteComment removes a comment.
func (r *Repository) DeleteComment(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCommentNotFound
	}

	return nil
}

func (r *Repository) queryComments(ctx context.Context, query string, args ...any) ([]*model.Comment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*model.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	return comments, rows.Err()
}

func scanComment(row pgx.Row) (*model.Comment, error) {
	var comment model.Comment
	err := row.Scan(
		&comment.ID,
		&comment.PostID,
		&comment.PostSlug,
		&comment.Name,
		&comment.Email,
		&comment.Content,
		&comment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}
