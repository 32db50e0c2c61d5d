package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/inkwell/inkwell/internal/model"
	"github.com/jackc/pgx/v5"
)

// Common errors for category repository operations.
var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
)

const categorySelect = `
	SELECT c.id, c.name, c.description, c.created_by, c.created_at,
	       COALESCE(array_agg(m.user_id ORDER BY m.joined_at) FILTER (WHERE m.user_id IS NOT NULL), '{}')
	FROM categories c
	LEFT JOIN category_members m ON m.category_id = c.id
`

// CreateCategory inserts a category and its initial members.
func (r *Repository) CreateCategory(ctx context.Context, category *model.Category) error {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO categories (id, name, description, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, category.ID, category.Name, category.Description, category.CreatedBy, category.CreatedAt)
		if err != nil {
			return err
		}

		for _, userID := range category.Members {
			if _, err := tx.Exec(ctx, `
				INSERT INTO category_members (category_id, user_id, joined_at)
				VALUES ($1, $2, $3)
				ON CONFLICT DO NOTHING
			`, category.ID, userID, category.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return ErrCategoryExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// GetCategoryByID retrieves a category with its members.
func (r *Repository) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	query := categorySelect + ` WHERE c.id = $1 GROUP BY c.id`

	category, err := scanCategory(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category by ID: %w", err)
	}

	return category, nil
}

// FindCategoryByName retrieves a category by name, ignoring case.
func (r *Repository) FindCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	query := categorySelect + ` WHERE LOWER(c.name) = LOWER($1) GROUP BY c.id`

	category, err := scanCategory(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by name: %w", err)
	}

	return category, nil
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]*model.Category, error) {
	query := categorySelect + ` GROUP BY c.id ORDER BY c.name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*model.Category, 0)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

// AddCategoryMember adds userID to the category. It reports whether the
// membership is new; re-adding an existing member is a no-op.
func (r *Repository) AddCategoryMember(ctx context.Context, categoryID, userID string) (bool, error) {
	query := `
		INSERT INTO category_members (category_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (category_id, user_id) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query, categoryID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to add category member: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// UpdateCategory updates the name and description of a category.
func (r *Repository) UpdateCategory(ctx context.Context, category *model.Category) error {
	query := `UPDATE categories SET name = $2, description = $3 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, category.ID, category.Name, category.Description)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return ErrCategoryExists
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// DeleteCategory removes a category with its posts, their comments and its
// memberships in one transaction. It returns the slugs of the deleted posts.
func (r *Repository) DeleteCategory(ctx context.Context, id string) ([]string, error) {
	var slugs []string

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		slugs, err = deletePostsWhere(ctx, tx, "category_id = $1", id)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM category_members WHERE category_id = $1`, id); err != nil {
			return fmt.Errorf("delete memberships: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrCategoryNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete category: %w", err)
	}

	return slugs, nil
}

func scanCategory(row pgx.Row) (*model.Category, error) {
	var (
		category model.Category
		members  []string
	)
	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.CreatedBy,
		&category.CreatedAt,
		&members, // text[] arrives binary-encoded; pgx decodes it natively
	)
	if err != nil {
		return nil, err
	}
	category.Members = members
	return &category, nil
}
