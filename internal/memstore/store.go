// Package memstore is an in-memory implementation of the scheduler stores.
// It backs the engine tests and `carectl --driver memory` dry runs.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"carecal/internal/types"
)

// Store holds templates and schedules in maps guarded by a single mutex.
// The zero value is not usable; call New.
type Store struct {
	mu        sync.Mutex
	templates map[string]types.ScheduleTemplate
	schedules map[string]types.Schedule
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		templates: make(map[string]types.ScheduleTemplate),
		schedules: make(map[string]types.Schedule),
	}
}

// PutTemplate inserts or replaces a template.
func (s *Store) PutTemplate(t types.ScheduleTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.ID] = t
}

// PutSchedule inserts or replaces a schedule.
func (s *Store) PutSchedule(sc types.Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[sc.ID] = sc
}

// Template returns a copy of the template and whether it exists.
func (s *Store) Template(id string) (types.ScheduleTemplate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	return t, ok
}

// Schedule returns a copy of the schedule and whether it exists.
func (s *Store) Schedule(id string) (types.Schedule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.schedules[id]
	return sc, ok
}

// UpdateSchedule applies fn to the stored schedule, the way the record layer
// would when a caregiver edits an instance. It reports whether the schedule
// exists.
func (s *Store) UpdateSchedule(id string, fn func(*types.Schedule)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.schedules[id]
	if !ok {
		return false
	}
	fn(&sc)
	s.schedules[id] = sc
	return true
}

// AllSchedules returns every schedule of the child ordered by time, then ID.
func (s *Store) AllSchedules(childID string) []types.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterSchedules(func(sc types.Schedule) bool { return sc.ChildID == childID })
}

// ListTemplatesByChild implements scheduler.TemplateStore.
func (s *Store) ListTemplatesByChild(ctx context.Context, childID string) ([]types.ScheduleTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.ScheduleTemplate
	for _, t := range s.templates {
		if t.ChildID == childID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetTemplate implements scheduler.TemplateStore.
func (s *Store) GetTemplate(ctx context.Context, templateID string) (*types.ScheduleTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.templates[templateID]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeNotFoundTemplate, "schedule template not found", nil)
	}
	return &t, nil
}

// DeactivateTemplate implements scheduler.TemplateStore.
func (s *Store) DeactivateTemplate(ctx context.Context, templateID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.templates[templateID]
	if !ok {
		return types.NewAppError(types.ErrCodeNotFoundTemplate, "schedule template not found", nil)
	}
	t.IsActive = false
	t.UpdatedAt = time.Now().UTC()
	s.templates[templateID] = t
	return nil
}

// ListChildrenWithActiveTemplates implements scheduler.TemplateStore.
func (s *Store) ListChildrenWithActiveTemplates(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, t := range s.templates {
		if t.IsActive && !slices.Contains(out, t.ChildID) {
			out = append(out, t.ChildID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// DeleteOrphanedInRange implements scheduler.ScheduleStore.
func (s *Store) DeleteOrphanedInRange(ctx context.Context, childID string, from, to time.Time, activeTemplateIDs []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteWhere(func(sc types.Schedule) bool {
		return sc.ChildID == childID &&
			inRange(sc.ScheduledTime, from, to) &&
			!sc.HasBeenModified &&
			sc.TemplateID != nil &&
			!slices.Contains(activeTemplateIDs, *sc.TemplateID)
	}), nil
}

// FindByTemplateInRange implements scheduler.ScheduleStore.
func (s *Store) FindByTemplateInRange(ctx context.Context, childID, templateID string, from, to time.Time) (*types.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	matches := s.filterSchedules(func(sc types.Schedule) bool {
		return sc.ChildID == childID &&
			sc.TemplateID != nil && *sc.TemplateID == templateID &&
			inRange(sc.ScheduledTime, from, to)
	})
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// CreateSchedules implements scheduler.ScheduleStore.
func (s *Store) CreateSchedules(ctx context.Context, schedules []types.Schedule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sc := range schedules {
		if _, exists := s.schedules[sc.ID]; exists {
			return types.NewAppError(types.ErrCodeConflictConcurrent, "schedule id already exists: "+sc.ID, nil)
		}
	}
	for _, sc := range schedules {
		s.schedules[sc.ID] = sc
	}
	return nil
}

// DeleteUnmodifiedInRange implements scheduler.ScheduleStore.
func (s *Store) DeleteUnmodifiedInRange(ctx context.Context, childID string, from, to time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteWhere(func(sc types.Schedule) bool {
		return sc.ChildID == childID && inRange(sc.ScheduledTime, from, to) && !sc.HasBeenModified
	}), nil
}

// DeleteByTemplate implements scheduler.ScheduleStore.
func (s *Store) DeleteByTemplate(ctx context.Context, templateID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteWhere(func(sc types.Schedule) bool {
		return sc.TemplateID != nil && *sc.TemplateID == templateID
	}), nil
}

// ListSchedules implements scheduler.ScheduleStore.
func (s *Store) ListSchedules(ctx context.Context, childID string, from, to time.Time) ([]types.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filterSchedules(func(sc types.Schedule) bool {
		return sc.ChildID == childID && inRange(sc.ScheduledTime, from, to)
	}), nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *Store) Close() {}

// filterSchedules must be called with mu held.
func (s *Store) filterSchedules(keep func(types.Schedule) bool) []types.Schedule {
	var out []types.Schedule
	for _, sc := range s.schedules {
		if keep(sc) {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledTime.Equal(out[j].ScheduledTime) {
			return out[i].ScheduledTime.Before(out[j].ScheduledTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// deleteWhere must be called with mu held.
func (s *Store) deleteWhere(match func(types.Schedule) bool) int {
	n := 0
	for id, sc := range s.schedules {
		if match(sc) {
			delete(s.schedules, id)
			n++
		}
	}
	return n
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
