package dto

import (
	"time"

	"github.com/inkwell/inkwell/internal/auth"
)

// RegisterRequest is the body of POST /api/register.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,max=150"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,password"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

// LoginRequest is the body of POST /api/login. Username may hold an email.
type LoginRequest struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token.
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// VerifyRequest carries an access token to verify.
type VerifyRequest struct {
	Token string `json:"token" validate:"required"`
}

// TokenPairResponse is returned on login.
type TokenPairResponse struct {
	Access           string       `json:"access"`
	AccessExpiresAt  time.Time    `json:"access_expires_at"`
	Refresh          string       `json:"refresh"`
	RefreshExpiresAt time.Time    `json:"refresh_expires_at"`
	User             UserResponse `json:"user"`
}

// AccessTokenResponse is returned on refresh.
type AccessTokenResponse struct {
	Access          string    `json:"access"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

// ToTokenPairResponse converts an issued pair into its response.
func ToTokenPairResponse(pair *auth.TokenPair, user UserResponse) *TokenPairResponse {
	return &TokenPairResponse{
		Access:           pair.Access,
		AccessExpiresAt:  pair.AccessExpiresAt,
		Refresh:          pair.Refresh,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		User:             user,
	}
}

// RegisterResponse is returned on successful registration.
type RegisterResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}
