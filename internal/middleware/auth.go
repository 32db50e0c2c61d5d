package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/inkwell/inkwell/internal/auth"
	"github.com/inkwell/inkwell/internal/model"
)

// Authenticator resolves an access token to a caller.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (model.Caller, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger        *slog.Logger
	Authenticator Authenticator
}

// Authenticate resolves the caller for every request. Requests without an
// Authorization header continue as anonymous; a header that does not carry
// a valid access token is rejected so clients notice expired sessions.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				ctx := auth.ContextWithCaller(r.Context(), model.Anonymous())
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			token, ok := bearerToken(header)
			if !ok {
				logAuthFailure(cfg.Logger, r, "unsupported_scheme")
				writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authorization header must use the Bearer scheme.")
				return
			}

			caller, err := cfg.Authenticator.Authenticate(r.Context(), token)
			if err != nil {
				logAuthFailure(cfg.Logger, r, "invalid_token")
				writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired.")
				return
			}

			ctx := auth.ContextWithCaller(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous callers. Must run after Authenticate.
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.CallerFromContext(r.Context()).IsAuthenticated() {
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication credentials were not provided.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from "Bearer <token>". The scheme is
// matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", getClientIP(r)),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}
