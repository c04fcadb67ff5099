package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"carecal/internal/memstore"
	"carecal/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

// 2024-01-01 is a Monday.
func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func days(from, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = day(from).AddDate(0, 0, i)
	}
	return out
}

var testNow = types.FixedClock(time.Date(2024, time.January, 1, 6, 30, 0, 0, time.UTC))

func dailyTemplate(id, childID, tod string) types.ScheduleTemplate {
	return types.ScheduleTemplate{
		ID:          id,
		ChildID:     childID,
		Type:        "meal",
		Title:       "Breakfast " + id,
		Description: strPtr("oatmeal"),
		Frequency:   types.FrequencyDaily,
		TimeOfDay:   types.MustParseTimeOfDay(tod),
		IsActive:    true,
		CreatedAt:   time.Date(2023, time.December, 1, 12, 0, 0, 0, time.UTC),
	}
}

func weeklyTemplate(id, childID string, weekday int, tod string) types.ScheduleTemplate {
	t := dailyTemplate(id, childID, tod)
	t.Type = "activity"
	t.Title = "Swim " + id
	t.Frequency = types.FrequencyWeekly
	t.Weekday = intPtr(weekday)
	return t
}

var errStoreDown = errors.New("connection reset by peer")

// faultyStore wraps a memstore and fails selected calls.
type faultyStore struct {
	*memstore.Store

	mu           sync.Mutex
	createCalls  int
	failCreateAt int // 1-based; 0 never fails
	listErr      error
	deleteErr    error
}

func (f *faultyStore) ListTemplatesByChild(ctx context.Context, childID string) ([]types.ScheduleTemplate, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Store.ListTemplatesByChild(ctx, childID)
}

func (f *faultyStore) CreateSchedules(ctx context.Context, schedules []types.Schedule) error {
	f.mu.Lock()
	f.createCalls++
	n := f.createCalls
	f.mu.Unlock()

	if f.failCreateAt > 0 && n == f.failCreateAt {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to insert schedules", errStoreDown)
	}
	return f.Store.CreateSchedules(ctx, schedules)
}

func (f *faultyStore) DeleteUnmodifiedInRange(ctx context.Context, childID string, from, to time.Time) (int, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return f.Store.DeleteUnmodifiedInRange(ctx, childID, from, to)
}

func (f *faultyStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}
