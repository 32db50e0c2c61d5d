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

// CategoryService defines the category operations used by CategoryHandler.
type CategoryService interface {
	Create(ctx context.Context, caller model.Caller, input service.CreateCategoryInput) (*model.Category, model.MembershipOutcome, error)
	List(ctx context.Context) ([]*model.Category, error)
	Get(ctx context.Context, name string) (*model.Category, error)
	Update(ctx context.Context, caller model.Caller, name string, input service.UpdateCategoryInput) (*model.Category, error)
	Delete(ctx context.Context, caller model.Caller, name string) error
}

// CategoryHandler handles HTTP requests for categories.
type CategoryHandler struct {
	svc    CategoryService
	logger *slog.Logger
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(svc CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/category. Posting an existing name joins the
// category: 201 when created, 200 otherwise.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCategoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	caller := auth.CallerFromContext(r.Context())
	category, outcome, err := h.svc.Create(r.Context(), caller, service.CreateCategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	switch outcome {
	case model.OutcomeCreated:
		status = http.StatusCreated
		h.logger.Info("category_created", "category_id", category.ID, "name", category.Name)
	case model.OutcomeJoined:
		h.logger.Info("category_joined", "category_id", category.ID, "user_id", caller.UserID)
	}

	writeJSON(w, status, dto.ToCategoryOutcomeResponse(category, outcome))
}

// List handles GET /api/category.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.List(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewList(categories))
}

// Get handles GET /api/category/{name}.
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	category, err := h.svc.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, category)
}

// Update handles PUT /api/category/{name}.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateCategoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	caller := auth.CallerFromContext(r.Context())
	category, err := h.svc.Update(r.Context(), caller, chi.URLParam(r, "name"), service.UpdateCategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("category_updated", "category_id", category.ID, "user_id", caller.UserID)

	writeJSON(w, http.StatusOK, category)
}

// Delete handles DELETE /api/category/{name}.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	name := chi.URLParam(r, "name")

	if err := h.svc.Delete(r.Context(), caller, name); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("category_deleted", "name", name, "user_id", caller.UserID)

	w.WriteHeader(http.StatusNoContent)
}
