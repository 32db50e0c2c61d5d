package service

import (
	"context"
	"errors"
	"testing"

	"github.com/inkwell/inkwell/internal/model"
	"github.com/inkwell/inkwell/internal/policy"
)

func registerAlice(t *testing.T, env *testEnv) *model.User {
	t.Helper()
	user, err := env.users.Register(context.Background(), RegisterInput{
		Username:  "alice",
		Email:     "  Alice@Example.COM ",
		Password:  "correct horse battery",
		FirstName: "Alice",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return user
}

func TestUserService_Register(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, PostServiceConfig{})
	ctx := context.Background()

	user := registerAlice(t, env)
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, want lowercased", user.Email)
	}
	if user.PasswordHash == "" || user.PasswordHash == "correct horse battery" {
		t.Errorf("PasswordHash = %q, want argon2 hash", user.PasswordHash)
	}

	tests := []struct {
		name      string
		input     RegisterInput
		wantField string
		wantMsg   string
	}{
		{"email taken ignoring case", RegisterInput{Username: "other", Email: "ALICE@example.com", Password: "pw123456x"}, "email", "A user with this email already exists."},
		{"username taken", RegisterInput{Username: "alice", Email: "new@example.com", Password: "pw123456x"}, "username", "A user with that username already exists."},
		{"missing username", RegisterInput{Email: "x@example.com", Password: "pw123456x"}, "username", "This field is required."},
		{"missing email", RegisterInput{Username: "x", Password: "pw123456x"}, "email", "This field is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.Register(ctx, tt.input)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Register() error = %v, want ValidationError", err)
			}
			if verr.Field != tt.wantField || verr.Message != tt.wantMsg {
				t.Errorf("error = %s: %s, want %s: %s", verr.Field, verr.Message, tt.wantField, tt.wantMsg)
			}
		})
	}
}

func TestUserService_Login(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, PostServiceConfig{})
	ctx := context.Background()
	alice := registerAlice(t, env)

	for _, login := range []string{"alice", "ALICE@example.com"} {
		user, pair, err := env.users.Login(ctx, login, "correct horse battery")
		if err != nil {
			t.Fatalf("Login(%q) error = %v", login, err)
		}
		if user.ID != alice.ID {
			t.Errorf("Login(%q) user = %s, want %s", login, user.ID, alice.ID)
		}
		if pair.Access == "" || pair.Refresh == "" {
			t.Errorf("Login(%q) returned empty tokens", login)
		}
	}

	tests := []struct {
		login, password string
		wantMsg         string
	}{
		{"nobody@example.com", "x", "No user found with this email address."},
		{"nobody", "x", "No user found with this username."},
		{"alice", "wrong password", "Incorrect password."},
	}
	for _, tt := range tests {
		_, _, err := env.users.Login(ctx, tt.login, tt.password)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login(%q) error = %v, want ErrInvalidCredentials", tt.login, err)
			continue
		}
		if err.Error() != tt.wantMsg {
			t.Errorf("Login(%q) message = %q, want %q", tt.login, err.Error(), tt.wantMsg)
		}
	}

	if got := env.recorder.Snapshot().LoginsFailed; got != 3 {
		t.Errorf("LoginsFailed = %d, want 3", got)
	}
}

func TestUserService_Sessions(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, PostServiceConfig{})
	ctx := context.Background()
	alice := registerAlice(t, env)

	_, pair, err := env.users.Login(ctx, "alice", "correct horse battery")
	if err != nil {
		t.Fatal(err)
	}

	caller, err := env.users.Authenticate(ctx, pair.Access)
	if err != nil || !caller.Is(alice.ID) {
		t.Fatalf("Authenticate() = %+v, %v", caller, err)
	}
	if err := env.users.Verify(ctx, pair.Access); err != nil {
		t.Errorf("Verify(access) error = %v", err)
	}
	if err := env.users.Verify(ctx, pair.Refresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify(refresh) error = %v, want ErrInvalidToken", err)
	}
	if _, err := env.users.Authenticate(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Authenticate(garbage) error = %v", err)
	}

	access, _, err := env.users.Refresh(ctx, pair.Refresh)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if caller, err := env.users.Authenticate(ctx, access); err != nil || !caller.Is(alice.ID) {
		t.Errorf("refreshed access token = %+v, %v", caller, err)
	}
	if _, _, err := env.users.Refresh(ctx, pair.Access); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Refresh(access) error = %v, want ErrInvalidToken", err)
	}

	if err := env.users.Logout(ctx, pair.Refresh); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, _, err := env.users.Refresh(ctx, pair.Refresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Refresh() after logout error = %v, want ErrInvalidToken", err)
	}
}

func TestUserService_ProfileAccess(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, PostServiceConfig{})
	ctx := context.Background()
	alice := registerAlice(t, env)
	bob := env.addUser(t, "u2", "bob")
	self := model.Authenticated(alice.ID)

	if _, err := env.users.UpdateProfile(ctx, bob, "alice", UpdateProfileInput{Bio: ptr("x")}); !errors.Is(err, policy.ErrForbidden) {
		t.Errorf("UpdateProfile(bob) error = %v, want ErrForbidden", err)
	}
	if _, err := env.users.UpdateProfile(ctx, model.Anonymous(), "alice", UpdateProfileInput{}); !errors.Is(err, policy.ErrUnauthenticated) {
		t.Errorf("UpdateProfile(anonymous) error = %v", err)
	}
	if _, err := env.users.UpdateProfile(ctx, self, "ghost", UpdateProfileInput{}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UpdateProfile(ghost) error = %v", err)
	}

	updated, err := env.users.UpdateProfile(ctx, self, "alice", UpdateProfileInput{Bio: ptr("Gopher"), LastName: ptr(" Liddell ")})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.Bio != "Gopher" || updated.LastName != "Liddell" || updated.FirstName != "Alice" {
		t.Errorf("updated = %+v", updated)
	}

	users, _ := env.users.List(ctx)
	if len(users) != 2 {
		t.Errorf("List() = %d, want 2", len(users))
	}
}

func TestUserService_DeleteCascades(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, PostServiceConfig{})
	ctx := context.Background()
	alice := env.addUser(t, "u1", "alice")
	bob := env.addUser(t, "u2", "bob")
	cat := env.addCategory(t, alice, "go")
	env.addCategory(t, bob, "go")

	mine := env.addPost(t, alice, cat.ID, "Alice Post")
	theirs := env.addPost(t, bob, cat.ID, "Bob Post")
	if _, err := env.posts.Get(ctx, mine.Slug); err != nil {
		t.Fatal(err)
	}

	if err := env.users.Delete(ctx, bob, "alice"); !errors.Is(err, policy.ErrForbidden) {
		t.Fatalf("Delete(bob) error = %v, want ErrForbidden", err)
	}
	if err := env.users.Delete(ctx, alice, "alice"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := env.users.Get(ctx, "alice"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Get() after delete error = %v", err)
	}
	if env.cache.cached(mine.Slug) {
		t.Error("deleted user's post still cached")
	}
	if _, err := env.posts.Get(ctx, mine.Slug); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("deleted user's post error = %v", err)
	}
	if _, err := env.posts.Get(ctx, theirs.Slug); err != nil {
		t.Errorf("other user's post error = %v", err)
	}

	category, err := env.categories.Get(ctx, "go")
	if err != nil {
		t.Fatal(err)
	}
	if category.CreatedBy != nil || category.HasMember("u1") {
		t.Errorf("category = %+v, want creator cleared and u1 removed", category)
	}
}

func TestUserService_UpdateProfileRefreshesCachedPosts(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, PostServiceConfig{})
	ctx := context.Background()
	alice := env.addUser(t, "u1", "alice")
	cat := env.addCategory(t, alice, "go")
	post := env.addPost(t, alice, cat.ID, "Hello")

	if _, err := env.posts.Get(ctx, post.Slug); err != nil {
		t.Fatal(err)
	}

	if _, err := env.users.UpdateProfile(ctx, alice, "alice", UpdateProfileInput{FirstName: ptr("Alicia")}); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if env.cache.cached(post.Slug) {
		t.Error("cached post survived profile edit")
	}

	detail, err := env.posts.Get(ctx, post.Slug)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Author == nil || detail.Author.FirstName != "Alicia" {
		t.Errorf("author served after profile edit = %+v, want first name Alicia", detail.Author)
	}
}

func TestUserService_AuthenticateRejectsDeletedUser(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, PostServiceConfig{})
	ctx := context.Background()
	alice := registerAlice(t, env)

	_, pair, err := env.users.Login(ctx, "alice", "correct horse battery")
	if err != nil {
		t.Fatal(err)
	}
	if err := env.users.Delete(ctx, model.Authenticated(alice.ID), "alice"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	caller, err := env.users.Authenticate(ctx, pair.Access)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Authenticate() error = %v, want ErrInvalidToken", err)
	}
	if caller.IsAuthenticated() {
		t.Error("deleted user resolved to an authenticated caller")
	}
}
