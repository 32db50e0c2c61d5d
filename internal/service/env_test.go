package service

import (
	"context"
	"testing"
	"time"

	"github.com/inkwell/inkwell/internal/auth"
	"github.com/inkwell/inkwell/internal/metrics"
	"github.com/inkwell/inkwell/internal/model"
)

type testEnv struct {
	store    *memStore
	cache    *memCache
	recorder *metrics.InMemoryRecorder
	tokens   *auth.TokenManager

	users      *UserService
	categories *CategoryService
	posts      *PostService
	comments   *CommentService
	dashboard  *DashboardService
}

func newTestEnv(t *testing.T, cfg PostServiceConfig) *testEnv {
	t.Helper()

	store := newMemStore()
	c := newMemCache()
	recorder := metrics.NewInMemory()
	tokens := auth.NewTokenManager("access-secret-for-tests", "refresh-secret-for-tests", 15*time.Minute, 24*time.Hour)

	env := &testEnv{
		store:      store,
		cache:      c,
		recorder:   recorder,
		tokens:     tokens,
		users:      NewUserService(store, store, tokens, c, c, recorder),
		categories: NewCategoryService(store, store, c, recorder),
		posts:      NewPostService(store, store, store, c, recorder, cfg),
		comments:   NewCommentService(store, store, recorder),
		dashboard:  NewDashboardService(store, store),
	}

	// Advance one second per post so ordering is deterministic.
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	env.posts.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	return env
}

// addUser stores a user directly, skipping password hashing.
func (e *testEnv) addUser(t *testing.T, id, username string) model.Caller {
	t.Helper()
	err := e.store.CreateUser(context.Background(), &model.User{
		ID:       id,
		Username: username,
		Email:    username + "@example.com",
	})
	if err != nil {
		t.Fatalf("addUser(%s): %v", username, err)
	}
	return model.Authenticated(id)
}
