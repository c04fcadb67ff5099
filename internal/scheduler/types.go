// Package scheduler is the recurring schedule generation and reconciliation
// engine. It turns active ScheduleTemplates into dated Schedules, replaces a
// planning horizon with an ad-hoc weekly plan, and retires templates.
//
// Services here hold no state beyond their injected stores and are safe for
// concurrent use across children. Nothing in the package runs on its own
// clock; the roll-forward job receives "now" from its caller.
package scheduler

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"carecal/internal/types"
)

// Horizon defaults applied by the HorizonReplacer when its config leaves
// them unset. MaxBatchSize keeps a bulk insert of 12-column rows under the
// bind-parameter limits of both PostgreSQL (65535) and SQLite (32766).
const (
	DefaultHorizonWeeks = 8
	MaxHorizonWeeks     = 26
	DefaultBatchSize    = 1000
	MaxBatchSize        = 2000
)

// GenerationResult reports the outcome of one (date, template) slot.
type GenerationResult struct {
	Date       time.Time `json:"date"`
	TemplateID string    `json:"template_id"`
	ScheduleID string    `json:"schedule_id"`
	Created    bool      `json:"created"`
}

// CountCreated returns how many results inserted a new schedule.
func CountCreated(results []GenerationResult) int {
	n := 0
	for _, r := range results {
		if r.Created {
			n++
		}
	}
	return n
}

// ReplaceOptions tunes a horizon replacement. Absent values take the
// replacer's defaults.
type ReplaceOptions struct {
	StartDate mo.Option[time.Time]
	Weeks     mo.Option[int]
}

// ReplaceResult counts the schedules removed and inserted by a replacement.
type ReplaceResult struct {
	Deleted int `json:"deleted"`
	Created int `json:"created"`
}

// RetireResult reports the owner of a retired template and how many of its
// schedules were removed.
type RetireResult struct {
	ChildID string `json:"child_id"`
	Deleted int    `json:"deleted"`
}

// NewScheduleID returns a fresh schedule identifier.
func NewScheduleID() string {
	return "sch_" + uuid.New().String()
}

// snapshotSchedule builds the schedule a template produces at instant at.
// Content fields are copied so later template edits never leak into it.
func snapshotSchedule(tmpl types.ScheduleTemplate, at, now time.Time) types.Schedule {
	templateID := tmpl.ID
	return types.Schedule{
		ID:            NewScheduleID(),
		ChildID:       tmpl.ChildID,
		TemplateID:    &templateID,
		ScheduledTime: at,
		Type:          tmpl.Type,
		Title:         tmpl.Title,
		Description:   cloneString(tmpl.Description),
		Notes:         cloneString(tmpl.Notes),
		Status:        types.ScheduleStatusScheduled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// adHocSchedule builds an unmodified schedule with no template behind it.
func adHocSchedule(childID string, item types.PlanItem, at, now time.Time) types.Schedule {
	return types.Schedule{
		ID:            NewScheduleID(),
		ChildID:       childID,
		ScheduledTime: at,
		Type:          item.Type,
		Title:         item.Title,
		Description:   cloneString(item.Description),
		Notes:         cloneString(item.Notes),
		Status:        types.ScheduleStatusScheduled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
