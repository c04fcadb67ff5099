// Package sqlite is the embedded, single-file store for local and CLI use.
// It implements the same scheduler.Store contract as the PostgreSQL
// repositories on top of sqlx and go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver

	"carecal/internal/types"
)

// Store is a sqlx-backed scheduler.Store.
type Store struct {
	db *sqlx.DB
}

// Open connects to the database at dsn (a file path or ":memory:"), enables
// foreign keys and applies Schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sqlx.ConnectContext(ctx, "sqlite3", dsn+sep+"_foreign_keys=on")
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to open sqlite database", err)
	}
	// SQLite serializes writers; one connection also keeps ":memory:" a
	// single database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to apply sqlite schema", err)
	}
	return &Store{db: db}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() {
	s.db.Close()
}

func utc(t time.Time) time.Time { return t.UTC() }

// PutTemplate inserts or replaces a template. The record layer owns template
// writes; this exists for seeding local databases and tests.
func (s *Store) PutTemplate(ctx context.Context, t types.ScheduleTemplate) error {
	t.CreatedAt = utc(orNow(t.CreatedAt))
	t.UpdatedAt = utc(orNow(t.UpdatedAt))

	_, err := s.db.NamedExecContext(ctx,
		`INSERT OR REPLACE INTO schedule_templates
		   (id, child_id, type, title, description, notes, frequency, weekday,
		    time_of_day, is_active, created_at, updated_at)
		 VALUES
		   (:id, :child_id, :type, :title, :description, :notes, :frequency, :weekday,
		    :time_of_day, :is_active, :created_at, :updated_at)`,
		t,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to store schedule template", err)
	}
	return nil
}

// ListTemplatesByChild implements scheduler.TemplateStore.
func (s *Store) ListTemplatesByChild(ctx context.Context, childID string) ([]types.ScheduleTemplate, error) {
	var out []types.ScheduleTemplate
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM schedule_templates WHERE child_id = ? ORDER BY created_at, id`,
		childID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list schedule templates", err)
	}
	return out, nil
}

// GetTemplate implements scheduler.TemplateStore.
func (s *Store) GetTemplate(ctx context.Context, templateID string) (*types.ScheduleTemplate, error) {
	var t types.ScheduleTemplate
	err := s.db.GetContext(ctx, &t, `SELECT * FROM schedule_templates WHERE id = ?`, templateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundTemplate, "schedule template not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve schedule template", err)
	}
	return &t, nil
}

// DeactivateTemplate implements scheduler.TemplateStore.
func (s *Store) DeactivateTemplate(ctx context.Context, templateID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE schedule_templates SET is_active = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), templateID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to deactivate schedule template", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.NewAppError(types.ErrCodeNotFoundTemplate, "schedule template not found", nil)
	}
	return nil
}

// ListChildrenWithActiveTemplates implements scheduler.TemplateStore.
func (s *Store) ListChildrenWithActiveTemplates(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids,
		`SELECT DISTINCT child_id FROM schedule_templates WHERE is_active = 1 ORDER BY child_id`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list children with active templates", err)
	}
	return ids, nil
}

// DeleteOrphanedInRange implements scheduler.ScheduleStore.
func (s *Store) DeleteOrphanedInRange(ctx context.Context, childID string, from, to time.Time, activeTemplateIDs []string) (int, error) {
	query := `DELETE FROM schedules
	          WHERE child_id = ? AND scheduled_time >= ? AND scheduled_time < ?
	            AND has_been_modified = 0 AND template_id IS NOT NULL`
	args := []any{childID, utc(from), utc(to)}

	if len(activeTemplateIDs) > 0 {
		var err error
		query, args, err = sqlx.In(query+` AND template_id NOT IN (?)`, childID, utc(from), utc(to), activeTemplateIDs)
		if err != nil {
			return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to build orphan sweep query", err)
		}
	}

	return s.execCount(ctx, "failed to delete orphaned schedules", query, args...)
}

// FindByTemplateInRange implements scheduler.ScheduleStore.
func (s *Store) FindByTemplateInRange(ctx context.Context, childID, templateID string, from, to time.Time) (*types.Schedule, error) {
	var sc types.Schedule
	err := s.db.GetContext(ctx, &sc,
		`SELECT * FROM schedules
		 WHERE child_id = ? AND template_id = ? AND scheduled_time >= ? AND scheduled_time < ?
		 ORDER BY scheduled_time, id
		 LIMIT 1`,
		childID, templateID, utc(from), utc(to),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to look up schedule", err)
	}
	return &sc, nil
}

// CreateSchedules implements scheduler.ScheduleStore with bulk NamedExecs
// of at most maxRowsPerInsert rows.
func (s *Store) CreateSchedules(ctx context.Context, schedules []types.Schedule) error {
	if len(schedules) == 0 {
		return nil
	}

	rows := make([]types.Schedule, len(schedules))
	for i, sc := range schedules {
		sc.ScheduledTime = utc(sc.ScheduledTime)
		sc.CreatedAt = utc(orNow(sc.CreatedAt))
		sc.UpdatedAt = utc(orNow(sc.UpdatedAt))
		if sc.Status == "" {
			sc.Status = types.ScheduleStatusScheduled
		}
		rows[i] = sc
	}

	for chunk := range slices.Chunk(rows, maxRowsPerInsert) {
		_, err := s.db.NamedExecContext(ctx,
			`INSERT INTO schedules
			   (id, child_id, template_id, scheduled_time, type, title, description, notes,
			    status, has_been_modified, created_at, updated_at)
			 VALUES
			   (:id, :child_id, :template_id, :scheduled_time, :type, :title, :description, :notes,
			    :status, :has_been_modified, :created_at, :updated_at)`,
			chunk,
		)
		if err != nil {
			return types.NewAppError(types.ErrCodeInternalDB, "failed to batch create schedules", err)
		}
	}
	return nil
}

// maxRowsPerInsert keeps one INSERT under SQLite's default limit of 32766
// bind parameters for the 12 schedule columns.
const maxRowsPerInsert = 32766 / 12

// DeleteUnmodifiedInRange implements scheduler.ScheduleStore.
func (s *Store) DeleteUnmodifiedInRange(ctx context.Context, childID string, from, to time.Time) (int, error) {
	return s.execCount(ctx, "failed to delete schedules in horizon",
		`DELETE FROM schedules
		 WHERE child_id = ? AND scheduled_time >= ? AND scheduled_time < ?
		   AND has_been_modified = 0`,
		childID, utc(from), utc(to),
	)
}

// DeleteByTemplate implements scheduler.ScheduleStore.
func (s *Store) DeleteByTemplate(ctx context.Context, templateID string) (int, error) {
	return s.execCount(ctx, "failed to delete schedules of template",
		`DELETE FROM schedules WHERE template_id = ?`, templateID)
}

// ListSchedules implements scheduler.ScheduleStore.
func (s *Store) ListSchedules(ctx context.Context, childID string, from, to time.Time) ([]types.Schedule, error) {
	var out []types.Schedule
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM schedules
		 WHERE child_id = ? AND scheduled_time >= ? AND scheduled_time < ?
		 ORDER BY scheduled_time, id`,
		childID, utc(from), utc(to),
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list schedules", err)
	}
	return out, nil
}

// MarkModified flags a schedule as hand-edited, as the record layer does.
func (s *Store) MarkModified(ctx context.Context, scheduleID string) error {
	_, err := s.execCount(ctx, "failed to mark schedule modified",
		`UPDATE schedules SET has_been_modified = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), scheduleID)
	return err
}

func (s *Store) execCount(ctx context.Context, msg, query string, args ...any) (int, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, msg, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, msg, err)
	}
	return int(n), nil
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
