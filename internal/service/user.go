package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/inkwell/inkwell/internal/auth"
	"github.com/inkwell/inkwell/internal/metrics"
	"github.com/inkwell/inkwell/internal/model"
	"github.com/inkwell/inkwell/internal/policy"
	"github.com/inkwell/inkwell/internal/repository"
)

// UserService handles accounts and sessions.
type UserService struct {
	users   UserStore
	posts   PostLister
	tokens  *auth.TokenManager
	revoker TokenRevoker
	cache   PostCache
	metrics metrics.Recorder
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, posts PostLister, tokens *auth.TokenManager, revoker TokenRevoker, cache PostCache, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		users:   users,
		posts:   posts,
		tokens:  tokens,
		revoker: revoker,
		cache:   cache,
		metrics: recorder,
	}
}

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates an account. Emails are stored lowercased and compared
// case-insensitively.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if username == "" {
		return nil, invalid("username", "This field is required.")
	}
	if email == "" {
		return nil, invalid("email", "This field is required.")
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, errEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, errUsernameTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent registration
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return nil, errEmailTaken
		case errors.Is(err, repository.ErrUsernameExists):
			return nil, errUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

var (
	errEmailTaken    = invalid("email", "A user with this email already exists.")
	errUsernameTaken = invalid("username", "A user with that username already exists.")
)

// Login authenticates by username, or by email when login contains "@".
func (s *UserService) Login(ctx context.Context, login, password string) (*model.User, *auth.TokenPair, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, nil, invalid("username", "This field is required.")
	}

	var (
		user *model.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.users.GetUserByEmail(ctx, strings.ToLower(login))
		if errors.Is(err, repository.ErrUserNotFound) {
			auth.BurnPasswordCheck(password)
			s.metrics.IncLoginFailed()
			return nil, nil, errNoUserWithEmail
		}
	} else {
		user, err = s.users.GetUserByUsername(ctx, login)
		if errors.Is(err, repository.ErrUserNotFound) {
			auth.BurnPasswordCheck(password)
			s.metrics.IncLoginFailed()
			return nil, nil, errNoUserWithUsername
		}
	}
	if err != nil {
		return nil, nil, err
	}

	if err := auth.ComparePassword(password, user.PasswordHash); err != nil {
		s.metrics.IncLoginFailed()
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, nil, errIncorrectPassword
		}
		return nil, nil, fmt.Errorf("failed to verify password: %w", err)
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new access token.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return "", time.Time{}, ErrInvalidToken
	}

	revoked, err := s.revoker.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return "", time.Time{}, err
	}
	if revoked {
		return "", time.Time{}, ErrInvalidToken
	}

	// Deleted accounts keep no sessions.
	if _, err := s.users.GetUserByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", time.Time{}, ErrInvalidToken
		}
		return "", time.Time{}, err
	}

	return s.tokens.IssueAccess(claims.UserID)
}

// Verify reports whether token is a valid access token.
func (s *UserService) Verify(ctx context.Context, token string) error {
	if _, err := s.tokens.ParseAccess(token); err != nil {
		return ErrInvalidToken
	}
	return nil
}

// Logout revokes a refresh token for the rest of its lifetime.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return ErrInvalidToken
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.revoker.RevokeToken(ctx, claims.ID, ttl); err != nil {
		return err
	}

	return nil
}

// Authenticate resolves a bearer access token to a caller.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (model.Caller, error) {
	claims, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return model.Anonymous(), ErrInvalidToken
	}

	// Tokens outlive account deletion; a deleted user's token is invalid.
	if _, err := s.users.GetUserByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.Anonymous(), ErrInvalidToken
		}
		return model.Anonymous(), err
	}
	return model.Authenticated(claims.UserID), nil
}

// Get retrieves a user by username.
func (s *UserService) Get(ctx context.Context, username string) (*model.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	return s.users.ListUsers(ctx)
}

// UpdateProfileInput defines the editable profile fields. Nil fields are left unchanged.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Bio       *string
	Photo     *string
}

// UpdateProfile edits the caller's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, caller model.Caller, username string, input UpdateProfileInput) (*model.User, error) {
	user, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := policy.Check(caller, policy.Update, policy.User{ID: user.ID}); err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.Photo != nil {
		user.Photo = strings.TrimSpace(*input.Photo)
	}

	if err := s.users.UpdateUserProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// Cached posts embed the author's name and email.
	invalidatePosts(ctx, s.posts, s.cache, repository.PostFilter{AuthorID: user.ID})

	return user, nil
}

// Delete removes the caller's own account along with their posts.
func (s *UserService) Delete(ctx context.Context, caller model.Caller, username string) error {
	user, err := s.Get(ctx, username)
	if err != nil {
		return err
	}

	if err := policy.Check(caller, policy.Delete, policy.User{ID: user.ID}); err != nil {
		return err
	}

	slugs, err := s.users.DeleteUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	// Best effort - cached entries expire on their own
	_ = s.cache.DeletePosts(ctx, slugs...)

	return nil
}
