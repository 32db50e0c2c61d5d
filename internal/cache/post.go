package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inkwell/inkwell/internal/model"
)

// Cache key prefixes and TTLs.
const (
	postKeyPrefix     = "post:"
	negCacheKeySuffix = ":neg"

	// DefaultPostTTL is the TTL for cached posts.
	DefaultPostTTL = 10 * time.Minute

	// NegativeCacheTTL is the TTL for unknown-slug entries.
	NegativeCacheTTL = time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

func postKey(slug string) string {
	return postKeyPrefix + slug
}

// GetPost retrieves a post by slug. Returns ErrCacheMiss if not cached.
// Comments are never cached; callers load them from the store.
func (c *Cache) GetPost(ctx context.Context, slug string) (*model.Post, error) {
	data, err := c.client.Get(ctx, postKey(slug)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var post model.Post
	if err := json.Unmarshal(data, &post); err != nil {
		// Corrupted entry - drop it and report a miss
		c.client.Del(ctx, postKey(slug))
		return nil, ErrCacheMiss
	}

	return &post, nil
}

// SetPost stores a post under its slug and clears any negative entry.
func (c *Cache) SetPost(ctx context.Context, post *model.Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("marshal post: %w", err)
	}

	key := postKey(post.Slug)
	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, c.postTTL)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache post: %w", err)
	}

	return nil
}

// DeletePosts removes cached posts and negative entries for the given slugs.
func (c *Cache) DeletePosts(ctx context.Context, slugs ...string) error {
	if len(slugs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(slugs)*2)
	for _, slug := range slugs {
		keys = append(keys, postKey(slug), postKey(slug)+negCacheKeySuffix)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete posts from cache: %w", err)
	}

	return nil
}

// IsPostMissing reports whether slug is negatively cached.
func (c *Cache) IsPostMissing(ctx context.Context, slug string) (bool, error) {
	exists, err := c.client.Exists(ctx, postKey(slug)+negCacheKeySuffix).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetPostMissing marks slug as not found for NegativeCacheTTL.
func (c *Cache) SetPostMissing(ctx context.Context, slug string) error {
	if err := c.client.SetEx(ctx, postKey(slug)+negCacheKeySuffix, "", NegativeCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}
