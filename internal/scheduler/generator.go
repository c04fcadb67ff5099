package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"carecal/internal/recurrence"
	"carecal/internal/types"
)

// Generator materializes a child's active templates into schedules for a set
// of dates. It is idempotent per (child, template, calendar date): re-running
// over filled slots reports the existing schedule instead of inserting.
type Generator struct {
	templates TemplateStore
	schedules ScheduleStore
	loc       *time.Location
	clock     types.Clock
	logger    *slog.Logger
}

// NewGenerator creates a Generator. Dates are interpreted in loc; a nil loc
// means UTC.
func NewGenerator(templates TemplateStore, schedules ScheduleStore, loc *time.Location, clock types.Clock, logger *slog.Logger) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		templates: templates,
		schedules: schedules,
		loc:       loc,
		clock:     clock,
		logger:    logger,
	}
}

// Generate processes each requested date for the child:
//
//  1. Unmodified schedules on that date whose template is no longer active
//     are removed.
//  2. Every active template that fires on the date either reports its
//     existing schedule or gets a new snapshot schedule.
//
// Duplicate dates are collapsed and processed in chronological order. Dates
// are independent: if a store call fails, the results committed so far are
// returned together with the error, and re-running is safe.
func (g *Generator) Generate(ctx context.Context, childID string, dates []time.Time) ([]GenerationResult, error) {
	all, err := g.templates.ListTemplatesByChild(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("loading templates for child %s: %w", childID, err)
	}

	active := make([]types.ScheduleTemplate, 0, len(all))
	activeIDs := make([]string, 0, len(all))
	for i := range all {
		if !all[i].IsActive {
			continue
		}
		if err := all[i].Validate(); err != nil {
			return nil, err
		}
		active = append(active, all[i])
		activeIDs = append(activeIDs, all[i].ID)
	}

	days := g.uniqueDays(dates)
	g.logger.DebugContext(ctx, "generating schedules",
		"child_id", childID,
		"dates", len(days),
		"templates", len(all),
		"active_templates", len(active),
	)

	var (
		results []GenerationResult
		swept   int
	)
	for _, day := range days {
		dayResults, deleted, err := g.generateDay(ctx, childID, day, active, activeIDs)
		results = append(results, dayResults...)
		swept += deleted
		if err != nil {
			g.logger.ErrorContext(ctx, "schedule generation aborted",
				"child_id", childID,
				"date", day.Format(time.DateOnly),
				"committed", len(results),
				"error", err,
			)
			return results, err
		}
	}

	g.logger.InfoContext(ctx, "schedule generation complete",
		"child_id", childID,
		"dates", len(days),
		"created", CountCreated(results),
		"existing", len(results)-CountCreated(results),
		"orphans_deleted", swept,
	)
	return results, nil
}

func (g *Generator) generateDay(
	ctx context.Context,
	childID string,
	day time.Time,
	active []types.ScheduleTemplate,
	activeIDs []string,
) ([]GenerationResult, int, error) {
	start, end := recurrence.DayBounds(day, g.loc)

	deleted, err := g.schedules.DeleteOrphanedInRange(ctx, childID, start, end, activeIDs)
	if err != nil {
		return nil, 0, fmt.Errorf("sweeping orphans on %s: %w", start.Format(time.DateOnly), err)
	}

	var results []GenerationResult
	for _, tmpl := range active {
		if !recurrence.ShouldOccur(tmpl, start) {
			continue
		}

		existing, err := g.schedules.FindByTemplateInRange(ctx, childID, tmpl.ID, start, end)
		if err != nil {
			return results, deleted, fmt.Errorf("looking up schedule for template %s on %s: %w",
				tmpl.ID, start.Format(time.DateOnly), err)
		}
		if existing != nil {
			results = append(results, GenerationResult{
				Date:       start,
				TemplateID: tmpl.ID,
				ScheduleID: existing.ID,
			})
			continue
		}

		sched := snapshotSchedule(tmpl, tmpl.TimeOfDay.On(start, g.loc), g.clock.Now())
		if err := g.schedules.CreateSchedules(ctx, []types.Schedule{sched}); err != nil {
			return results, deleted, fmt.Errorf("creating schedule for template %s on %s: %w",
				tmpl.ID, start.Format(time.DateOnly), err)
		}
		results = append(results, GenerationResult{
			Date:       start,
			TemplateID: tmpl.ID,
			ScheduleID: sched.ID,
			Created:    true,
		})
	}
	return results, deleted, nil
}

// uniqueDays normalizes dates to midnight in the generator's location, drops
// duplicates and sorts them.
func (g *Generator) uniqueDays(dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := recurrence.StartOfDay(d, g.loc)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}
