package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carecal/internal/memstore"
	"carecal/internal/types"
)

func TestRetire_CascadesAndDeactivates(t *testing.T) {
	store := memstore.New()
	store.PutTemplate(dailyTemplate("t1", "c1", "07:30:00"))
	store.PutTemplate(dailyTemplate("t2", "c1", "12:00:00"))
	store.PutSchedule(types.Schedule{ID: "adhoc", ChildID: "c1", ScheduledTime: day(2).Add(15 * time.Hour)})
	ctx := context.Background()

	results, err := newTestGenerator(store).Generate(ctx, "c1", days(1, 3))
	require.NoError(t, err)
	require.Len(t, results, 6)

	var modifiedID string
	for _, r := range results {
		if r.TemplateID == "t1" {
			modifiedID = r.ScheduleID
			break
		}
	}
	store.UpdateSchedule(modifiedID, func(s *types.Schedule) { s.HasBeenModified = true })

	retirer := NewRetirer(store, store, testLogger())
	res, err := retirer.Retire(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, RetireResult{ChildID: "c1", Deleted: 3}, res)

	_, ok := store.Schedule(modifiedID)
	assert.False(t, ok, "retirement removes hand-edited schedules too")

	tmpl, _ := store.Template("t1")
	assert.False(t, tmpl.IsActive)

	remaining := store.AllSchedules("c1")
	require.Len(t, remaining, 4)
	for _, s := range remaining {
		if s.TemplateID != nil {
			assert.Equal(t, "t2", *s.TemplateID)
		}
	}

	again, err := retirer.Retire(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, RetireResult{ChildID: "c1", Deleted: 0}, again)

	// Generation no longer produces anything for the retired template.
	results, err = newTestGenerator(store).Generate(ctx, "c1", days(1, 3))
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, "t2", r.TemplateID)
	}
}

func TestRetire_NotFound(t *testing.T) {
	_, err := NewRetirer(memstore.New(), memstore.New(), testLogger()).Retire(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeNotFoundTemplate, types.ErrorCodeOf(err))
}

type failingDeactivateStore struct {
	*memstore.Store
}

func (failingDeactivateStore) DeactivateTemplate(context.Context, string) error {
	return types.NewAppError(types.ErrCodeInternalDB, "failed to deactivate template", errStoreDown)
}

func TestRetire_DeactivateFailureReportsDeleted(t *testing.T) {
	mem := memstore.New()
	mem.PutTemplate(dailyTemplate("t1", "c1", "07:30:00"))
	mem.PutSchedule(types.Schedule{ID: "s1", ChildID: "c1", TemplateID: strPtr("t1"), ScheduledTime: day(1)})
	store := failingDeactivateStore{mem}

	res, err := NewRetirer(store, store, testLogger()).Retire(context.Background(), "t1")
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 1, res.Deleted)

	tmpl, _ := mem.Template("t1")
	assert.True(t, tmpl.IsActive)
}
