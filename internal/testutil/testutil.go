// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/inkwell/inkwell/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 730115

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops and recreates every table from the init migration.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	for _, name := range []string{"000001_init.down.sql", "000001_init.up.sql"} {
		sql, err := os.ReadFile(filepath.Join(root, "migrations", name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

var seq atomic.Uint64

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), seq.Add(1))
}

// NewTestUser creates a user with sensible defaults. The password hash is
// a placeholder; tests that log in hash a real password.
func NewTestUser(t testing.TB, username string) *model.User {
	t.Helper()
	return &model.User{
		ID:           ulid.Make().String(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		FirstName:    "Test",
		LastName:     "User",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestCategory creates a category created by and containing ownerID.
func NewTestCategory(t testing.TB, name, ownerID string) *model.Category {
	t.Helper()
	return &model.Category{
		ID:        ulid.Make().String(),
		Name:      model.NormalizeCategoryName(name),
		CreatedBy: &ownerID,
		Members:   []string{ownerID},
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestPost creates a post with the given slug.
func NewTestPost(t testing.TB, slug, authorID, categoryID string) *model.Post {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Post{
		ID:         ulid.Make().String(),
		Title:      "Post " + slug,
		Content:    "content of " + slug,
		Slug:       slug,
		AuthorID:   authorID,
		CategoryID: categoryID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewTestComment creates a comment on postID.
func NewTestComment(t testing.TB, postID string) *model.Comment {
	t.Helper()
	return &model.Comment{
		ID:        ulid.Make().String(),
		PostID:    postID,
		Name:      "Reader",
		Email:     "reader@example.com",
		Content:   "Nice post",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}
