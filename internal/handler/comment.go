package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell/inkwell/internal/auth"
	"github.com/inkwell/inkwell/internal/handler/dto"
	"github.com/inkwell/inkwell/internal/model"
	"github.com/inkwell/inkwell/internal/service"
)

// CommentService defines the comment operations used by CommentHandler.
type CommentService interface {
	Create(ctx context.Context, caller model.Caller, input service.CreateCommentInput) (*model.Comment, error)
	List(ctx context.Context, postSlug string) ([]*model.Comment, error)
	Get(ctx context.Context, id string) (*model.Comment, error)
	Update(ctx context.Context, caller model.Caller, id string, input service.UpdateCommentInput) (*model.Comment, error)
	Delete(ctx context.Context, caller model.Caller, id string) error
}

// CommentHandler handles HTTP requests for comments.
type CommentHandler struct {
	svc    CommentService
	logger *slog.Logger
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(svc CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/comments.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCommentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	comment, err := h.svc.Create(r.Context(), auth.CallerFromContext(r.Context()), service.CreateCommentInput{
		Slug:    req.Slug,
		Name:    req.Name,
		Email:   req.Email,
		Content: req.Content,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("comment_created", "comment_id", comment.ID, "post_id", comment.PostID)

	writeJSON(w, http.StatusCreated, comment)
}

// List handles GET /api/comments with an optional ?slug= filter.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	comments, err := h.svc.List(r.Context(), r.URL.Query().Get("slug"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewList(comments))
}

// Get handles GET /api/comments/{id}.
func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	comment, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, comment)
}

// Update handles PUT /api/comments/{id}.
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateCommentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	comment, err := h.svc.Update(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "id"), service.UpdateCommentInput{
		Name:    req.Name,
		Email:   req.Email,
		Content: req.Content,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("comment_updated", "comment_id", comment.ID)

	writeJSON(w, http.StatusOK, comment)
}

// Delete handles DELETE /api/comments/{id}.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.Delete(r.Context(), auth.CallerFromContext(r.Context()), id); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("comment_deleted", "comment_id", id)

	w.WriteHeader(http.StatusNoContent)
}
