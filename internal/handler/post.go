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

// PostService defines the post operations used by PostHandler.
type PostService interface {
	Create(ctx context.Context, caller model.Caller, input service.CreatePostInput) (*model.Post, error)
	Get(ctx context.Context, slug string) (*model.PostDetail, error)
	List(ctx context.Context, category string) ([]*model.Post, error)
	Recent(ctx context.Context) ([]*model.Post, error)
	Search(ctx context.Context, q string) ([]*model.Post, error)
	ListByAuthor(ctx context.Context, caller model.Caller) ([]*model.Post, error)
	Update(ctx context.Context, caller model.Caller, slug string, input service.UpdatePostInput) (*model.Post, error)
	Delete(ctx context.Context, caller model.Caller, slug string) error
}

// PostHandler handles HTTP requests for posts.
type PostHandler struct {
	svc    PostService
	logger *slog.Logger
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(svc PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/posts.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePostRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	caller := auth.CallerFromContext(r.Context())
	post, err := h.svc.Create(r.Context(), caller, service.CreatePostInput{
		Title:      req.Title,
		Content:    req.Content,
		Excerpt:    req.Excerpt,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("post_created",
		"post_id", post.ID,
		"slug", post.Slug,
		"category_id", post.CategoryID,
	)

	writeJSON(w, http.StatusCreated, post)
}

// Get handles GET /api/posts/{slug}.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// List handles GET /api/posts with an optional ?category= filter.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.List(r.Context(), r.URL.Query().Get("category"))
	h.writeList(w, posts, err)
}

// Recent handles GET /api/posts/recent.
func (h *PostHandler) Recent(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.Recent(r.Context())
	h.writeList(w, posts, err)
}

// Search handles GET /api/posts/search?q=.
func (h *PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"))
	h.writeList(w, posts, err)
}

// Mine handles GET /api/user/posts.
func (h *PostHandler) Mine(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListByAuthor(r.Context(), auth.CallerFromContext(r.Context()))
	h.writeList(w, posts, err)
}

// Update handles PUT and PATCH /api/posts/{slug}.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePostRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	caller := auth.CallerFromContext(r.Context())
	oldSlug := chi.URLParam(r, "slug")
	post, err := h.svc.Update(r.Context(), caller, oldSlug, service.UpdatePostInput{
		Title:      req.Title,
		Content:    req.Content,
		Excerpt:    req.Excerpt,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("post_updated",
		"post_id", post.ID,
		"slug", post.Slug,
		"slug_changed", post.Slug != oldSlug,
	)

	writeJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /api/posts/{slug}.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if err := h.svc.Delete(r.Context(), auth.CallerFromContext(r.Context()), slug); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("post_deleted", "slug", slug)

	w.WriteHeader(http.StatusNoContent)
}

func (h *PostHandler) writeList(w http.ResponseWriter, posts []*model.Post, err error) {
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewList(posts))
}
