package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/inkwell/inkwell/internal/auth"
	"github.com/inkwell/inkwell/internal/model"
)

// DashboardService builds an author's dashboard.
type DashboardService interface {
	Get(ctx context.Context, caller model.Caller) (*model.Dashboard, error)
}

// DashboardHandler serves GET /api/dashboard.
type DashboardHandler struct {
	svc    DashboardService
	logger *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(svc DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, logger: logger}
}

// Get handles GET /api/dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	dash, err := h.svc.Get(r.Context(), auth.CallerFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dash)
}
