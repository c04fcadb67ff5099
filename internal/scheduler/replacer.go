package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"carecal/internal/recurrence"
	"carecal/internal/types"
)

// ReplacerConfig holds the horizon limits of a HorizonReplacer. Zero values
// take the package defaults; values above MaxHorizonWeeks and MaxBatchSize
// are capped.
type ReplacerConfig struct {
	DefaultWeeks int
	MaxWeeks     int
	BatchSize    int
}

func (c ReplacerConfig) withDefaults() ReplacerConfig {
	if c.DefaultWeeks <= 0 {
		c.DefaultWeeks = DefaultHorizonWeeks
	}
	if c.MaxWeeks <= 0 || c.MaxWeeks > MaxHorizonWeeks {
		c.MaxWeeks = MaxHorizonWeeks
	}
	if c.DefaultWeeks > c.MaxWeeks {
		c.DefaultWeeks = c.MaxWeeks
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	c.BatchSize = min(c.BatchSize, MaxBatchSize)
	return c
}

// HorizonReplacer wipes a child's unmodified schedules over a window of whole
// weeks and refills it from an ad-hoc weekly plan. Hand-edited schedules in
// the window are left alone and are not counted.
type HorizonReplacer struct {
	schedules ScheduleStore
	loc       *time.Location
	clock     types.Clock
	cfg       ReplacerConfig
	logger    *slog.Logger
}

// NewHorizonReplacer creates a HorizonReplacer. The clock is only consulted
// to default the start date.
func NewHorizonReplacer(schedules ScheduleStore, loc *time.Location, clock types.Clock, cfg ReplacerConfig, logger *slog.Logger) *HorizonReplacer {
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HorizonReplacer{
		schedules: schedules,
		loc:       loc,
		clock:     clock,
		cfg:       cfg.withDefaults(),
		logger:    logger,
	}
}

// Horizon returns the half-open window [start, end) a replacement with opts
// would cover.
func (r *HorizonReplacer) Horizon(opts ReplaceOptions) (time.Time, time.Time) {
	weeks := opts.Weeks.OrElse(r.cfg.DefaultWeeks)
	if weeks < 1 {
		weeks = 1
	}
	if weeks > r.cfg.MaxWeeks {
		weeks = r.cfg.MaxWeeks
	}
	start := recurrence.StartOfDay(opts.StartDate.OrElse(r.clock.Now()), r.loc)
	return start, start.AddDate(0, 0, weeks*7)
}

// Replace validates the plan, deletes every unmodified schedule of the child
// inside the horizon (ad-hoc or templated), then creates one ad-hoc schedule
// per plan item per matching weekday.
//
// The plan is validated before anything is deleted. Deletion and insertion
// are not atomic: a failure part-way leaves a partially populated horizon
// that the next call over the same window repairs.
func (r *HorizonReplacer) Replace(ctx context.Context, childID string, plan []types.PlanItem, opts ReplaceOptions) (ReplaceResult, error) {
	var result ReplaceResult

	slots := make([]recurrence.Slot, len(plan))
	for i := range plan {
		tod, err := plan[i].Validate()
		if err != nil {
			return result, types.NewAppErrorWithDetails(types.ErrorCodeOf(err),
				fmt.Sprintf("plan item %d: %s", i, messageOf(err)), err,
				map[string]any{"index": i})
		}
		slots[i] = recurrence.Slot{Weekdays: plan[i].Weekdays, TimeOfDay: tod}
	}

	start, end := r.Horizon(opts)

	deleted, err := r.schedules.DeleteUnmodifiedInRange(ctx, childID, start, end)
	if err != nil {
		return result, fmt.Errorf("clearing horizon for child %s: %w", childID, err)
	}
	result.Deleted = deleted

	occurrences, err := recurrence.ExpandPlan(slots, start, end)
	if err != nil {
		return result, err
	}

	now := r.clock.Now()
	batch := make([]types.Schedule, 0, min(len(occurrences), r.cfg.BatchSize))
	for _, occ := range occurrences {
		batch = append(batch, adHocSchedule(childID, plan[occ.Index], occ.Time, now))
		if len(batch) == r.cfg.BatchSize {
			if err := r.schedules.CreateSchedules(ctx, batch); err != nil {
				return result, fmt.Errorf("creating plan schedules for child %s: %w", childID, err)
			}
			result.Created += len(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := r.schedules.CreateSchedules(ctx, batch); err != nil {
			return result, fmt.Errorf("creating plan schedules for child %s: %w", childID, err)
		}
		result.Created += len(batch)
	}

	r.logger.InfoContext(ctx, "schedule horizon replaced",
		"child_id", childID,
		"start", start.Format(time.DateOnly),
		"end", end.Format(time.DateOnly),
		"plan_items", len(plan),
		"deleted", result.Deleted,
		"created", result.Created,
	)
	return result, nil
}

// messageOf returns the AppError message of err, or err.Error() otherwise.
func messageOf(err error) string {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
