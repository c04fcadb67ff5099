package scheduler

import (
	"context"
	"time"

	"carecal/internal/types"
)

// TemplateStore is the read side of the recurrence rule store plus the one
// write the engine performs on rules: retirement. Creating and editing rules
// belongs to the record layer.
type TemplateStore interface {
	// ListTemplatesByChild returns every template of the child, active or not.
	//
	// SQL: SELECT ... FROM schedule_templates WHERE child_id = $1
	//      ORDER BY created_at, id
	ListTemplatesByChild(ctx context.Context, childID string) ([]types.ScheduleTemplate, error)

	// GetTemplate returns the template by ID. A missing template is reported
	// as an AppError with ErrCodeNotFoundTemplate.
	GetTemplate(ctx context.Context, templateID string) (*types.ScheduleTemplate, error)

	// DeactivateTemplate soft-deletes a template. Deactivating an inactive
	// template is not an error.
	//
	// SQL: UPDATE schedule_templates SET is_active = false, updated_at = NOW()
	//      WHERE id = $1
	DeactivateTemplate(ctx context.Context, templateID string) error

	// ListChildrenWithActiveTemplates returns the distinct child IDs owning at
	// least one active template. Used by the roll-forward job.
	//
	// SQL: SELECT DISTINCT child_id FROM schedule_templates WHERE is_active
	ListChildrenWithActiveTemplates(ctx context.Context) ([]string, error)
}

// ScheduleStore is the subset of the schedule instance store the engine
// needs. All ranges are half-open: from <= scheduled_time < to.
type ScheduleStore interface {
	// DeleteOrphanedInRange removes unmodified schedules of the child in the
	// range whose template is set and not among activeTemplateIDs. Ad-hoc
	// schedules are never matched.
	//
	// SQL: DELETE FROM schedules
	//      WHERE child_id = $1 AND scheduled_time >= $2 AND scheduled_time < $3
	//        AND has_been_modified = false AND template_id IS NOT NULL
	//        AND template_id <> ALL($4)
	DeleteOrphanedInRange(ctx context.Context, childID string, from, to time.Time, activeTemplateIDs []string) (int, error)

	// FindByTemplateInRange returns the earliest schedule of (child, template)
	// in the range regardless of its modified flag, or nil when there is none.
	FindByTemplateInRange(ctx context.Context, childID, templateID string, from, to time.Time) (*types.Schedule, error)

	// CreateSchedules inserts the schedules in one round trip. An empty slice
	// is a no-op.
	CreateSchedules(ctx context.Context, schedules []types.Schedule) error

	// DeleteUnmodifiedInRange removes every unmodified schedule of the child in
	// the range, templated or ad-hoc.
	//
	// SQL: DELETE FROM schedules
	//      WHERE child_id = $1 AND scheduled_time >= $2 AND scheduled_time < $3
	//        AND has_been_modified = false
	DeleteUnmodifiedInRange(ctx context.Context, childID string, from, to time.Time) (int, error)

	// DeleteByTemplate removes every schedule referencing the template,
	// modified or not.
	//
	// SQL: DELETE FROM schedules WHERE template_id = $1
	DeleteByTemplate(ctx context.Context, templateID string) (int, error)

	// ListSchedules returns the child's schedules in the range ordered by
	// scheduled_time.
	ListSchedules(ctx context.Context, childID string, from, to time.Time) ([]types.Schedule, error)
}

// Store bundles both stores. Every adapter in this module implements it.
type Store interface {
	TemplateStore
	ScheduleStore
}
