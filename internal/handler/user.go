package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell/inkwell/internal/auth"
	"github.com/inkwell/inkwell/internal/handler/dto"
	"github.com/inkwell/inkwell/internal/model"
	"github.com/inkwell/inkwell/internal/service"
)

// UserService defines the account operations used by UserHandler.
type UserService interface {
	Register(ctx context.Context, input service.RegisterInput) (*model.User, error)
	Login(ctx context.Context, login, password string) (*model.User, *auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, time.Time, error)
	Verify(ctx context.Context, token string) error
	Logout(ctx context.Context, refreshToken string) error
	Get(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	UpdateProfile(ctx context.Context, caller model.Caller, username string, input service.UpdateProfileInput) (*model.User, error)
	Delete(ctx context.Context, caller model.Caller, username string) error
}

// UserHandler handles accounts, sessions and profiles.
type UserHandler struct {
	svc    UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// Register handles POST /api/register.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("user_registered", "user_id", user.ID)

	writeJSON(w, http.StatusCreated, dto.RegisterResponse{
		Message: "User registered successfully!",
		User:    dto.ToUserResponse(user),
	})
}

// Login handles POST /api/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, pair, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("user_logged_in", "user_id", user.ID)

	writeJSON(w, http.StatusOK, dto.ToTokenPairResponse(pair, dto.ToUserResponse(user)))
}

// Refresh handles POST /api/token/refresh.
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	access, expiresAt, err := h.svc.Refresh(r.Context(), req.Refresh)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccessTokenResponse{Access: access, AccessExpiresAt: expiresAt})
}

// Verify handles POST /api/token/verify.
func (h *UserHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.svc.Verify(r.Context(), req.Token); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

// Logout handles POST /api/logout.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.svc.Logout(r.Context(), req.Refresh); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewList(dto.ToUserResponses(users)))
}

// Get handles GET /api/users/{username}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Get(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// Update handles PUT /api/users/{username}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	caller := auth.CallerFromContext(r.Context())
	user, err := h.svc.UpdateProfile(r.Context(), caller, chi.URLParam(r, "username"), service.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Photo:     req.Photo,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("user_updated", "user_id", user.ID)

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// Delete handles DELETE /api/users/{username}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	username := chi.URLParam(r, "username")

	if err := h.svc.Delete(r.Context(), caller, username); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("user_deleted", "user_id", caller.UserID)

	w.WriteHeader(http.StatusNoContent)
}
