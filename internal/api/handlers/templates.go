package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"carecal/internal/core"
	"carecal/internal/scheduler"
)

// TemplateRetirer removes a template's schedules and deactivates it.
type TemplateRetirer interface {
	Retire(ctx context.Context, templateID string) (scheduler.RetireResult, error)
}

// TemplateHandler serves template lifecycle endpoints owned by the engine.
type TemplateHandler struct {
	retirer TemplateRetirer
	logger  *slog.Logger
}

// NewTemplateHandler creates a TemplateHandler.
func NewTemplateHandler(retirer TemplateRetirer, l *slog.Logger) *TemplateHandler {
	if l == nil {
		l = slog.Default()
	}
	return &TemplateHandler{retirer: retirer, logger: l}
}

// RegisterRoutes mounts the template endpoints on a /v1 router.
func (h *TemplateHandler) RegisterRoutes(r chi.Router) {
	r.Delete("/schedule-templates/{id}", h.Retire)
}

// Retire handles DELETE /v1/schedule-templates/{id}. Retiring an already
// inactive template succeeds and reports the schedules swept.
func (h *TemplateHandler) Retire(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "id")

	result, err := h.retirer.Retire(r.Context(), templateID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "template retirement failed",
			"template_id", templateID,
			"error", err,
		)
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, result)
}
