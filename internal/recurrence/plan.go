package recurrence

import (
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"carecal/internal/types"
)

// Slot is one weekly plan entry after validation: a set of 1..7 weekdays and
// the time of day it fires at.
type Slot struct {
	Weekdays  []int
	TimeOfDay types.TimeOfDay
}

// Occurrence is a single expanded slot firing. Index is the position of the
// originating slot in the input.
type Occurrence struct {
	Time  time.Time
	Index int
}

// ExpandWeekly returns every firing of slot within [start, end), in
// chronological order. start and end are expected to be midnights in the
// same location; that location governs the wall-clock time of each firing.
// The time of day is pinned per firing, so a slot that falls into a DST gap
// on one day keeps its wall-clock time on every other day.
func ExpandWeekly(slot Slot, start, end time.Time) ([]time.Time, error) {
	if !end.After(start) || len(slot.Weekdays) == 0 {
		return nil, nil
	}
	loc := start.Location()

	byweekday := make([]rrule.Weekday, 0, len(slot.Weekdays))
	for _, wd := range slot.Weekdays {
		if !types.ValidWeekday(wd) {
			return nil, types.NewAppError(types.ErrCodeValidationInvalidRecurrence,
				"weekday out of range 1..7", nil)
		}
		byweekday = append(byweekday, rruleWeekdays[wd-1])
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   start.In(loc),
		Byweekday: byweekday,
		Byhour:    []int{slot.TimeOfDay.Hour},
		Byminute:  []int{slot.TimeOfDay.Minute},
		Bysecond:  []int{slot.TimeOfDay.Second},
		Until:     end,
	})
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidRecurrence,
			"invalid weekly slot", err)
	}

	var out []time.Time
	for _, t := range r.Between(start, end, true) {
		if !t.Before(start) && t.Before(end) {
			out = append(out, t)
		}
	}
	return out, nil
}

// ExpandPlan expands every slot over [start, end) and returns the firings in
// day order, and within a day in slot order. Several slots may fire at the
// same instant; no de-duplication is performed.
func ExpandPlan(slots []Slot, start, end time.Time) ([]Occurrence, error) {
	var out []Occurrence
	for i, slot := range slots {
		times, err := ExpandWeekly(slot, start, end)
		if err != nil {
			return nil, err
		}
		for _, t := range times {
			out = append(out, Occurrence{Time: t, Index: i})
		}
	}

	loc := start.Location()
	sort.SliceStable(out, func(a, b int) bool {
		da, db := StartOfDay(out[a].Time, loc), StartOfDay(out[b].Time, loc)
		if !da.Equal(db) {
			return da.Before(db)
		}
		return out[a].Index < out[b].Index
	})
	return out, nil
}
