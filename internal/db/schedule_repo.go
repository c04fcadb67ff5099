package db

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"carecal/internal/types"
)

// ScheduleRepository provides data access for the schedules table. It
// implements scheduler.ScheduleStore.
type ScheduleRepository struct {
	db DBTX
}

// NewScheduleRepository creates a new ScheduleRepository backed by the given
// database connection (pool or transaction).
func NewScheduleRepository(db DBTX) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = `id, child_id, template_id, scheduled_time, type, title,
	description, notes, status, has_been_modified, created_at, updated_at`

// scheduleColumnCount is the number of columns written by CreateSchedules.
const scheduleColumnCount = 12

func scanSchedule(row pgx.Row) (*types.Schedule, error) {
	var s types.Schedule
	err := row.Scan(
		&s.ID,
		&s.ChildID,
		&s.TemplateID,
		&s.ScheduledTime,
		&s.Type,
		&s.Title,
		&s.Description,
		&s.Notes,
		&s.Status,
		&s.HasBeenModified,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteOrphanedInRange removes unmodified templated schedules in the range
// whose template is not active.
func (r *ScheduleRepository) DeleteOrphanedInRange(ctx context.Context, childID string, from, to time.Time, activeTemplateIDs []string) (int, error) {
	// A nil slice encodes as NULL and "<> ALL(NULL)" matches nothing.
	if activeTemplateIDs == nil {
		activeTemplateIDs = []string{}
	}

	tag, err := r.db.Exec(ctx,
		`DELETE FROM schedules
		 WHERE child_id = $1
		   AND scheduled_time >= $2 AND scheduled_time < $3
		   AND has_been_modified = false
		   AND template_id IS NOT NULL
		   AND template_id <> ALL($4)`,
		childID, from, to, activeTemplateIDs,
	)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to delete orphaned schedules", err)
	}
	return int(tag.RowsAffected()), nil
}

// FindByTemplateInRange returns the earliest schedule of (child, template) in
// the range, or nil.
func (r *ScheduleRepository) FindByTemplateInRange(ctx context.Context, childID, templateID string, from, to time.Time) (*types.Schedule, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+scheduleColumns+`
		 FROM schedules
		 WHERE child_id = $1 AND template_id = $2
		   AND scheduled_time >= $3 AND scheduled_time < $4
		 ORDER BY scheduled_time, id
		 LIMIT 1`,
		childID, templateID, from, to,
	)

	s, err := scanSchedule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to look up schedule", err)
	}
	return s, nil
}

// CreateSchedules inserts schedules with multi-row INSERTs of at most
// maxRowsPerInsert rows each.
func (r *ScheduleRepository) CreateSchedules(ctx context.Context, schedules []types.Schedule) error {
	for chunk := range slices.Chunk(schedules, maxRowsPerInsert) {
		if err := r.insertSchedules(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

// maxRowsPerInsert keeps one INSERT under PostgreSQL's 65535 bind parameters.
const maxRowsPerInsert = 65535 / scheduleColumnCount

func (r *ScheduleRepository) insertSchedules(ctx context.Context, schedules []types.Schedule) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO schedules (` + scheduleColumns + `) VALUES `)

	args := make([]any, 0, len(schedules)*scheduleColumnCount)
	for i, s := range schedules {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * scheduleColumnCount
		sb.WriteString("(")
		for j := 0; j < scheduleColumnCount; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			if j >= 10 { // created_at, updated_at
				sb.WriteString(fmt.Sprintf("COALESCE($%d, NOW())", base+j+1))
			} else {
				sb.WriteString(fmt.Sprintf("$%d", base+j+1))
			}
		}
		sb.WriteString(")")

		args = append(args,
			s.ID,
			s.ChildID,
			s.TemplateID,
			s.ScheduledTime,
			s.Type,
			s.Title,
			s.Description,
			s.Notes,
			string(s.Status),
			s.HasBeenModified,
			nilIfZeroTime(s.CreatedAt),
			nilIfZeroTime(s.UpdatedAt),
		)
	}

	if _, err := r.db.Exec(ctx, sb.String(), args...); err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to batch create schedules", err)
	}
	return nil
}

// DeleteUnmodifiedInRange removes every unmodified schedule of the child in
// the range.
func (r *ScheduleRepository) DeleteUnmodifiedInRange(ctx context.Context, childID string, from, to time.Time) (int, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM schedules
		 WHERE child_id = $1
		   AND scheduled_time >= $2 AND scheduled_time < $3
		   AND has_been_modified = false`,
		childID, from, to,
	)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to delete schedules in horizon", err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteByTemplate removes every schedule of the template.
func (r *ScheduleRepository) DeleteByTemplate(ctx context.Context, templateID string) (int, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM schedules WHERE template_id = $1`,
		templateID,
	)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to delete schedules of template", err)
	}
	return int(tag.RowsAffected()), nil
}

// ListSchedules returns the child's schedules in the range by time.
func (r *ScheduleRepository) ListSchedules(ctx context.Context, childID string, from, to time.Time) ([]types.Schedule, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+scheduleColumns+`
		 FROM schedules
		 WHERE child_id = $1 AND scheduled_time >= $2 AND scheduled_time < $3
		 ORDER BY scheduled_time, id`,
		childID, from, to,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list schedules", err)
	}
	defer rows.Close()

	var results []types.Schedule
	for rows.Next() {
		s, scanErr := scanSchedule(rows)
		if scanErr != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan schedule row", scanErr)
		}
		results = append(results, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating schedule rows", err)
	}
	return results, nil
}

func nilIfZeroTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
