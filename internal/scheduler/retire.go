package scheduler

import (
	"context"
	"fmt"
	"log/slog"
)

// Retirer deactivates templates and removes every schedule they produced.
type Retirer struct {
	templates TemplateStore
	schedules ScheduleStore
	logger    *slog.Logger
}

// NewRetirer creates a Retirer.
func NewRetirer(templates TemplateStore, schedules ScheduleStore, logger *slog.Logger) *Retirer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retirer{templates: templates, schedules: schedules, logger: logger}
}

// Retire hard-deletes all schedules of the template, including hand-edited
// ones, then marks the template inactive. Retiring an already inactive
// template sweeps again and succeeds. An unknown template yields
// ErrCodeNotFoundTemplate.
func (r *Retirer) Retire(ctx context.Context, templateID string) (RetireResult, error) {
	tmpl, err := r.templates.GetTemplate(ctx, templateID)
	if err != nil {
		return RetireResult{}, err
	}
	result := RetireResult{ChildID: tmpl.ChildID}

	deleted, err := r.schedules.DeleteByTemplate(ctx, templateID)
	if err != nil {
		return result, fmt.Errorf("deleting schedules of template %s: %w", templateID, err)
	}
	result.Deleted = deleted

	if err := r.templates.DeactivateTemplate(ctx, templateID); err != nil {
		return result, fmt.Errorf("deactivating template %s: %w", templateID, err)
	}

	r.logger.InfoContext(ctx, "schedule template retired",
		"template_id", templateID,
		"child_id", tmpl.ChildID,
		"was_active", tmpl.IsActive,
		"deleted", deleted,
	)
	return result, nil
}
