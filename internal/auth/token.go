package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// ErrInvalidToken is returned for tokens that are malformed, expired,
// signed with the wrong key or of the wrong type.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Claims are the JWT claims issued by TokenManager.
type Claims struct {
	UserID string    `json:"uid"`
	Type   TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	Access           string
	AccessExpiresAt  time.Time
	Refresh          string
	RefreshExpiresAt time.Time
}

// TokenManager issues and validates HS256 tokens. Access and refresh
// tokens use separate secrets.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenManager creates a TokenManager.
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// IssuePair issues an access token and a refresh token for userID.
func (m *TokenManager) IssuePair(userID string) (*TokenPair, error) {
	access, accessExp, err := m.IssueAccess(userID)
	if err != nil {
		return nil, err
	}

	refresh, refreshExp, err := m.sign(userID, TokenRefresh, m.refreshTTL, m.refreshSecret)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		Access:           access,
		AccessExpiresAt:  accessExp,
		Refresh:          refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// IssueAccess issues a new access token for userID.
func (m *TokenManager) IssueAccess(userID string) (string, time.Time, error) {
	return m.sign(userID, TokenAccess, m.accessTTL, m.accessSecret)
}

// ParseAccess validates an access token and returns its claims.
func (m *TokenManager) ParseAccess(token string) (*Claims, error) {
	return m.parse(token, TokenAccess, m.accessSecret)
}

// ParseRefresh validates a refresh token and returns its claims.
func (m *TokenManager) ParseRefresh(token string) (*Claims, error) {
	return m.parse(token, TokenRefresh, m.refreshSecret)
}

func (m *TokenManager) sign(userID string, typ TokenType, ttl time.Duration, secret []byte) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(ttl)

	claims := &Claims{
		UserID: userID,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}

	return signed, exp, nil
}

func (m *TokenManager) parse(token string, typ TokenType, secret []byte) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != typ || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
