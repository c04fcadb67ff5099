package scheduler

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carecal/internal/memstore"
	"carecal/internal/types"
)

func newTestReplacer(store ScheduleStore, cfg ReplacerConfig) *HorizonReplacer {
	return NewHorizonReplacer(store, time.UTC, testNow, cfg, testLogger())
}

func monWedPlan() []types.PlanItem {
	return []types.PlanItem{{
		Title:     "Nap",
		Type:      "sleep",
		TimeOfDay: "13:00:00",
		Weekdays:  []int{types.WeekdayMonday, types.WeekdayWednesday},
	}}
}

func TestReplace_HorizonDeterminism(t *testing.T) {
	store := memstore.New()
	r := newTestReplacer(store, ReplacerConfig{})
	ctx := context.Background()
	opts := ReplaceOptions{StartDate: mo.Some(day(1)), Weeks: mo.Some(8)}

	first, err := r.Replace(ctx, "c1", monWedPlan(), opts)
	require.NoError(t, err)
	assert.Equal(t, ReplaceResult{Deleted: 0, Created: 16}, first)

	all := store.AllSchedules("c1")
	require.Len(t, all, 16)
	for _, s := range all {
		assert.Nil(t, s.TemplateID)
		assert.Equal(t, types.ScheduleStatusScheduled, s.Status)
		assert.False(t, s.HasBeenModified)
		assert.Equal(t, 13, s.ScheduledTime.Hour())
		assert.Contains(t, []time.Weekday{time.Monday, time.Wednesday}, s.ScheduledTime.Weekday())
	}

	edited := all[3]
	store.UpdateSchedule(edited.ID, func(s *types.Schedule) {
		s.Title = "Short nap"
		s.HasBeenModified = true
	})

	second, err := r.Replace(ctx, "c1", monWedPlan(), opts)
	require.NoError(t, err)
	assert.Equal(t, ReplaceResult{Deleted: 15, Created: 16}, second)

	kept, ok := store.Schedule(edited.ID)
	require.True(t, ok)
	assert.Equal(t, "Short nap", kept.Title)
	assert.Equal(t, edited.ScheduledTime, kept.ScheduledTime)
	assert.Len(t, store.AllSchedules("c1"), 17)
}

func TestReplace_ClearsTemplatedAndAdHocInsideHorizonOnly(t *testing.T) {
	store := memstore.New()
	store.PutSchedule(types.Schedule{ID: "templated", ChildID: "c1", TemplateID: strPtr("t1"), ScheduledTime: day(2).Add(9 * time.Hour)})
	store.PutSchedule(types.Schedule{ID: "adhoc", ChildID: "c1", ScheduledTime: day(3).Add(9 * time.Hour)})
	store.PutSchedule(types.Schedule{ID: "before", ChildID: "c1", ScheduledTime: day(1).Add(-time.Second)})
	store.PutSchedule(types.Schedule{ID: "after", ChildID: "c1", ScheduledTime: day(8)})
	store.PutSchedule(types.Schedule{ID: "other-child", ChildID: "c2", ScheduledTime: day(2).Add(9 * time.Hour)})

	res, err := newTestReplacer(store, ReplacerConfig{}).Replace(context.Background(), "c1", nil,
		ReplaceOptions{StartDate: mo.Some(day(1)), Weeks: mo.Some(1)})
	require.NoError(t, err)
	assert.Equal(t, ReplaceResult{Deleted: 2, Created: 0}, res)

	for _, id := range []string{"before", "after", "other-child"} {
		_, ok := store.Schedule(id)
		assert.True(t, ok, "%s is outside the horizon and must survive", id)
	}
}

func TestReplace_Horizon(t *testing.T) {
	r := newTestReplacer(memstore.New(), ReplacerConfig{})

	tests := []struct {
		name      string
		opts      ReplaceOptions
		wantStart time.Time
		wantWeeks int
	}{
		{"defaults", ReplaceOptions{}, day(1), 8},
		{"zero weeks clamps to one", ReplaceOptions{Weeks: mo.Some(0)}, day(1), 1},
		{"negative weeks clamps to one", ReplaceOptions{Weeks: mo.Some(-3)}, day(1), 1},
		{"too many weeks clamps to max", ReplaceOptions{Weeks: mo.Some(100)}, day(1), 26},
		{"start normalized to midnight", ReplaceOptions{StartDate: mo.Some(day(10).Add(17 * time.Hour))}, day(10), 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := r.Horizon(tt.opts)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantStart.AddDate(0, 0, tt.wantWeeks*7), end)
		})
	}
}

func TestReplace_ConfiguredLimits(t *testing.T) {
	r := newTestReplacer(memstore.New(), ReplacerConfig{DefaultWeeks: 2, MaxWeeks: 4})

	_, end := r.Horizon(ReplaceOptions{})
	assert.Equal(t, day(15), end)

	_, end = r.Horizon(ReplaceOptions{Weeks: mo.Some(10)})
	assert.Equal(t, day(29), end)
}

func TestReplace_LimitsCapped(t *testing.T) {
	r := newTestReplacer(memstore.New(), ReplacerConfig{MaxWeeks: 52, BatchSize: 5000})
	assert.Equal(t, MaxHorizonWeeks, r.cfg.MaxWeeks)
	assert.Equal(t, MaxBatchSize, r.cfg.BatchSize)

	_, end := r.Horizon(ReplaceOptions{Weeks: mo.Some(52)})
	assert.Equal(t, day(1).AddDate(0, 0, MaxHorizonWeeks*7), end)

	_, end = r.Horizon(ReplaceOptions{Weeks: mo.Some(0)})
	assert.Equal(t, day(8), end)
}

func TestReplace_OversizedBatchSplitAtMax(t *testing.T) {
	store := &faultyStore{Store: memstore.New()}
	plan := make([]types.PlanItem, 40)
	for i := range plan {
		plan[i] = types.PlanItem{
			Title:     fmt.Sprintf("Check %d", i),
			Type:      "care",
			TimeOfDay: "08:00:00",
			Weekdays:  []int{1, 2, 3, 4, 5, 6, 7},
		}
	}

	res, err := newTestReplacer(store, ReplacerConfig{BatchSize: 5000}).Replace(context.Background(), "c1", plan,
		ReplaceOptions{StartDate: mo.Some(day(1)), Weeks: mo.Some(26)})
	require.NoError(t, err)
	assert.Equal(t, 40*26*7, res.Created)
	assert.Equal(t, 4, store.calls())
}

func TestReplace_TimeOfDayStableAcrossSpringForward(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	store := memstore.New()
	r := NewHorizonReplacer(store, ny, testNow, ReplacerConfig{}, testLogger())
	plan := []types.PlanItem{{Title: "Meds", Type: "medication", TimeOfDay: "02:30:00", Weekdays: []int{1, 2, 3, 4, 5, 6, 7}}}

	res, err := r.Replace(context.Background(), "c1", plan, ReplaceOptions{
		StartDate: mo.Some(time.Date(2026, time.March, 8, 0, 0, 0, 0, ny)), // 02:00 does not exist that day
		Weeks:     mo.Some(1),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, res.Created)

	all := store.AllSchedules("c1")
	require.Len(t, all, 7)
	sort.Slice(all, func(i, j int) bool { return all[i].ScheduledTime.Before(all[j].ScheduledTime) })
	for i, s := range all {
		local := s.ScheduledTime.In(ny)
		assert.Equal(t, 8+i, local.Day())
		if i == 0 {
			continue
		}
		assert.Equal(t, 2, local.Hour(), "day %d", local.Day())
		assert.Equal(t, 30, local.Minute(), "day %d", local.Day())
	}
}

func TestReplace_InvalidPlanWritesNothing(t *testing.T) {
	tests := []struct {
		name string
		item types.PlanItem
	}{
		{"weekday out of range", types.PlanItem{Title: "Nap", Type: "sleep", TimeOfDay: "13:00:00", Weekdays: []int{2, 8}}},
		{"weekday zero", types.PlanItem{Title: "Nap", Type: "sleep", TimeOfDay: "13:00:00", Weekdays: []int{0}}},
		{"no weekdays", types.PlanItem{Title: "Nap", Type: "sleep", TimeOfDay: "13:00:00"}},
		{"malformed time", types.PlanItem{Title: "Nap", Type: "sleep", TimeOfDay: "1pm", Weekdays: []int{2}}},
		{"missing title", types.PlanItem{Type: "sleep", TimeOfDay: "13:00:00", Weekdays: []int{2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memstore.New()
			store.PutSchedule(types.Schedule{ID: "existing", ChildID: "c1", ScheduledTime: day(2).Add(9 * time.Hour)})

			plan := append(monWedPlan(), tt.item)
			_, err := newTestReplacer(store, ReplacerConfig{}).Replace(context.Background(), "c1", plan, ReplaceOptions{})
			require.Error(t, err)
			assert.Equal(t, types.ErrCodeValidationInvalidRecurrence, types.ErrorCodeOf(err))

			var appErr *types.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, 1, appErr.Details["index"])

			_, ok := store.Schedule("existing")
			assert.True(t, ok, "nothing may be deleted when the plan is invalid")
			assert.Len(t, store.AllSchedules("c1"), 1)
		})
	}
}

func TestReplace_NoIntraDayDeduplication(t *testing.T) {
	store := memstore.New()
	plan := []types.PlanItem{
		{Title: "Snack", Type: "meal", TimeOfDay: "10:00", Weekdays: []int{types.WeekdayTuesday}},
		{Title: "Snack", Type: "meal", TimeOfDay: "10:00", Weekdays: []int{types.WeekdayTuesday}},
	}

	res, err := newTestReplacer(store, ReplacerConfig{}).Replace(context.Background(), "c1", plan,
		ReplaceOptions{StartDate: mo.Some(day(1)), Weeks: mo.Some(1)})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
}

func TestReplace_BatchesInserts(t *testing.T) {
	store := &faultyStore{Store: memstore.New()}
	plan := []types.PlanItem{{Title: "Walk", Type: "activity", TimeOfDay: "17:00:00", Weekdays: []int{1, 2, 3, 4, 5, 6, 7}}}

	res, err := newTestReplacer(store, ReplacerConfig{BatchSize: 5}).Replace(context.Background(), "c1", plan,
		ReplaceOptions{StartDate: mo.Some(day(1)), Weeks: mo.Some(2)})
	require.NoError(t, err)
	assert.Equal(t, 14, res.Created)
	assert.Equal(t, 3, store.calls())
}

func TestReplace_InsertFailureLeavesPartialHorizon(t *testing.T) {
	mem := memstore.New()
	store := &faultyStore{Store: mem, failCreateAt: 2}
	plan := []types.PlanItem{{Title: "Walk", Type: "activity", TimeOfDay: "17:00:00", Weekdays: []int{1, 2, 3, 4, 5, 6, 7}}}
	opts := ReplaceOptions{StartDate: mo.Some(day(1)), Weeks: mo.Some(2)}
	cfg := ReplacerConfig{BatchSize: 5}

	res, err := newTestReplacer(store, cfg).Replace(context.Background(), "c1", plan, opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 5, res.Created)
	assert.Len(t, mem.AllSchedules("c1"), 5)

	// Retrying converges on the full horizon.
	res, err = newTestReplacer(mem, cfg).Replace(context.Background(), "c1", plan, opts)
	require.NoError(t, err)
	assert.Equal(t, ReplaceResult{Deleted: 5, Created: 14}, res)
	assert.Len(t, mem.AllSchedules("c1"), 14)
}

func TestReplace_DeleteFailure(t *testing.T) {
	store := &faultyStore{Store: memstore.New(), deleteErr: errStoreDown}

	res, err := newTestReplacer(store, ReplacerConfig{}).Replace(context.Background(), "c1", monWedPlan(), ReplaceOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, ReplaceResult{}, res)
	assert.Equal(t, 0, store.calls())
}
