package repository

import (
	"context"
	"fmt"

	"github.com/inkwell/inkwell/internal/model"
)

// AuthorStats returns post and comment totals for an author's posts.
func (r *Repository) AuthorStats(ctx context.Context, authorID string) (posts, comments int64, err error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM posts WHERE author_id = $1),
			(SELECT COUNT(*) FROM comments cm JOIN posts p ON p.id = cm.post_id WHERE p.author_id = $1)
	`

	if err := r.pool.QueryRow(ctx, query, authorID).Scan(&posts, &comments); err != nil {
		return 0, 0, fmt.Errorf("failed to get author stats: %w", err)
	}

	return posts, comments, nil
}

// RecentCommentsForAuthor returns the newest comments left on an author's posts.
func (r *Repository) RecentCommentsForAuthor(ctx context.Context, authorID string, limit int) ([]*model.Comment, error) {
	query := commentSelect + ` WHERE p.author_id = $1 ORDER BY cm.created_at DESC, cm.id DESC LIMIT $2`
	return r.queryComments(ctx, query, authorID, limit)
}
