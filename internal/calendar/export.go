// Package calendar renders a child's schedules as an iCalendar feed so they
// can be subscribed to from any calendar client.
package calendar

import (
	"context"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"carecal/internal/types"
)

// ProductID identifies this service in exported calendars.
const ProductID = "-//carecal//Care Schedules//EN"

// DefaultWindowDays is the export range used when the caller gives none.
const DefaultWindowDays = 28

// DefaultWindow is DefaultWindowDays as a duration, for callers that do not
// need calendar-day arithmetic.
const DefaultWindow = DefaultWindowDays * 24 * time.Hour

// statusProperty carries the schedule status verbatim, since VEVENT STATUS
// only knows tentative, confirmed and cancelled.
const statusProperty = ical.ComponentProperty("X-CARECAL-STATUS")

// ScheduleLister is the store method the exporter reads from.
type ScheduleLister interface {
	ListSchedules(ctx context.Context, childID string, from, to time.Time) ([]types.Schedule, error)
}

// Exporter loads schedules and renders them.
type Exporter struct {
	schedules ScheduleLister
}

// NewExporter creates an Exporter.
func NewExporter(schedules ScheduleLister) *Exporter {
	return &Exporter{schedules: schedules}
}

// Export returns the child's schedules in [from, to) as iCalendar text.
func (e *Exporter) Export(ctx context.Context, childID string, from, to time.Time, now time.Time) (string, error) {
	list, err := e.schedules.ListSchedules(ctx, childID, from, to)
	if err != nil {
		return "", fmt.Errorf("listing schedules for export: %w", err)
	}
	return Build(childID, list, now).Serialize(), nil
}

// Build creates a calendar with one VEVENT per schedule. now stamps every
// event's DTSTAMP.
func Build(childID string, schedules []types.Schedule, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetXWRCalName("Schedules " + childID)

	for _, s := range schedules {
		ev := cal.AddEvent(s.ID)
		ev.SetDtStampTime(now)
		ev.SetStartAt(s.ScheduledTime)
		ev.SetSummary(s.Title)
		if s.Description != nil {
			ev.SetDescription(*s.Description)
		}
		if s.Type != "" {
			ev.AddProperty(ical.ComponentPropertyCategories, s.Type)
		}
		if !s.CreatedAt.IsZero() {
			ev.SetCreatedTime(s.CreatedAt)
		}
		if !s.UpdatedAt.IsZero() {
			ev.SetModifiedAt(s.UpdatedAt)
		}
		ev.SetStatus(eventStatus(s.Status))
		ev.SetProperty(statusProperty, string(s.Status))
	}
	return cal
}

func eventStatus(s types.ScheduleStatus) ical.ObjectStatus {
	if s == types.ScheduleStatusCancelled {
		return ical.ObjectStatusCancelled
	}
	return ical.ObjectStatusConfirmed
}
