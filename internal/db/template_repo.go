package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"carecal/internal/types"
)

// TemplateRepository reads schedule_templates and performs retirement's soft
// delete. It implements scheduler.TemplateStore.
type TemplateRepository struct {
	db DBTX
}

// NewTemplateRepository creates a new TemplateRepository backed by the given
// database connection (pool or transaction).
func NewTemplateRepository(db DBTX) *TemplateRepository {
	return &TemplateRepository{db: db}
}

const templateColumns = `id, child_id, type, title, description, notes,
	frequency, weekday, time_of_day, is_active, created_at, updated_at`

func scanTemplate(row pgx.Row) (*types.ScheduleTemplate, error) {
	var (
		t         types.ScheduleTemplate
		timeOfDay pgtype.Time
	)
	err := row.Scan(
		&t.ID,
		&t.ChildID,
		&t.Type,
		&t.Title,
		&t.Description,
		&t.Notes,
		&t.Frequency,
		&t.Weekday,
		&timeOfDay,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if timeOfDay.Valid {
		t.TimeOfDay = types.TimeOfDayFromDuration(time.Duration(timeOfDay.Microseconds) * time.Microsecond)
	}
	return &t, nil
}

// ListTemplatesByChild returns every template of the child, active or not.
func (r *TemplateRepository) ListTemplatesByChild(ctx context.Context, childID string) ([]types.ScheduleTemplate, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+templateColumns+`
		 FROM schedule_templates
		 WHERE child_id = $1
		 ORDER BY created_at, id`,
		childID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list schedule templates", err)
	}
	defer rows.Close()

	var results []types.ScheduleTemplate
	for rows.Next() {
		t, scanErr := scanTemplate(rows)
		if scanErr != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan schedule template row", scanErr)
		}
		results = append(results, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating schedule template rows", err)
	}
	return results, nil
}

// GetTemplate returns the template by ID, or ErrCodeNotFoundTemplate.
func (r *TemplateRepository) GetTemplate(ctx context.Context, templateID string) (*types.ScheduleTemplate, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+templateColumns+`
		 FROM schedule_templates
		 WHERE id = $1`,
		templateID,
	)

	t, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundTemplate, "schedule template not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve schedule template", err)
	}
	return t, nil
}

// DeactivateTemplate sets is_active = false. A missing template is reported as
// ErrCodeNotFoundTemplate.
func (r *TemplateRepository) DeactivateTemplate(ctx context.Context, templateID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE schedule_templates
		 SET is_active = false, updated_at = NOW()
		 WHERE id = $1`,
		templateID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to deactivate schedule template", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundTemplate, "schedule template not found", nil)
	}
	return nil
}

// ListChildrenWithActiveTemplates returns the distinct owners of active
// templates in ID order.
func (r *TemplateRepository) ListChildrenWithActiveTemplates(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT child_id
		 FROM schedule_templates
		 WHERE is_active
		 ORDER BY child_id`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list children with active templates", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan child id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating child id rows", err)
	}
	return ids, nil
}
