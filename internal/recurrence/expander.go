// Package recurrence turns schedule templates and weekly plan slots into
// concrete calendar occurrences. Expansion is delegated to rrule-go so that
// daily, weekly and monthly cadences follow RFC 5545 semantics; in particular
// a monthly rule on day 31 yields nothing in shorter months.
//
// Everything here is pure: no I/O, no clock.
package recurrence

import (
	"time"

	"github.com/teambition/rrule-go"

	"carecal/internal/types"
)

// rruleWeekdays is indexed by Go's time.Weekday (0=Sunday).
var rruleWeekdays = [...]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// Weekday returns the 1..7 weekday number of date (Sunday=1 .. Saturday=7),
// evaluated in date's own location.
func Weekday(date time.Time) int {
	return int(date.Weekday()) + 1
}

// DayBounds returns the half-open range [midnight, next midnight) containing
// date in loc. The next midnight is computed by calendar arithmetic, so DST
// days are 23 or 25 hours long.
func DayBounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	start := StartOfDay(date, loc)
	return start, start.AddDate(0, 0, 1)
}

// StartOfDay normalizes date to midnight of its calendar day in loc.
func StartOfDay(date time.Time, loc *time.Location) time.Time {
	d := date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// ShouldOccur reports whether tmpl fires on the calendar day of date.
//
//   - daily: always.
//   - weekly: when Weekday(date) equals the template weekday; a template
//     without one uses the weekday of its creation date.
//   - monthly: when the day of month equals that of the creation date.
//
// Unknown frequencies never fire; templates are validated before they get here.
func ShouldOccur(tmpl types.ScheduleTemplate, date time.Time) bool {
	loc := date.Location()
	start, end := DayBounds(date, loc)

	opt, ok := templateOption(tmpl, loc)
	if !ok {
		return false
	}
	opt.Dtstart = tmpl.TimeOfDay.On(start, loc)

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return false
	}
	for _, occ := range r.Between(start, end, true) {
		if occ.Before(end) {
			return true
		}
	}
	return false
}

// templateOption builds the frequency part of the rule for tmpl. Dtstart is
// set by the caller.
func templateOption(tmpl types.ScheduleTemplate, loc *time.Location) (rrule.ROption, bool) {
	created := tmpl.CreatedAt.In(loc)

	switch tmpl.Frequency {
	case types.FrequencyDaily:
		return rrule.ROption{Freq: rrule.DAILY}, true
	case types.FrequencyWeekly:
		wd := Weekday(created)
		if tmpl.Weekday != nil {
			wd = *tmpl.Weekday
		}
		if !types.ValidWeekday(wd) {
			return rrule.ROption{}, false
		}
		return rrule.ROption{
			Freq:      rrule.WEEKLY,
			Byweekday: []rrule.Weekday{rruleWeekdays[wd-1]},
		}, true
	case types.FrequencyMonthly:
		return rrule.ROption{
			Freq:       rrule.MONTHLY,
			Bymonthday: []int{created.Day()},
		}, true
	default:
		return rrule.ROption{}, false
	}
}
