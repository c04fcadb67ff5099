package types

// Frequency is the recurrence cadence of a ScheduleTemplate.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// IsValid reports whether f is one of the known frequencies.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// ScheduleStatus is the lifecycle marker of a Schedule. The engine only ever
// writes ScheduleStatusScheduled; the others are set by the record layer.
type ScheduleStatus string

const (
	ScheduleStatusScheduled ScheduleStatus = "scheduled"
	ScheduleStatusCompleted ScheduleStatus = "completed"
	ScheduleStatusMissed    ScheduleStatus = "missed"
	ScheduleStatusCancelled ScheduleStatus = "cancelled"
)

// Weekday numbering used by templates and plan items: 1=Sunday .. 7=Saturday.
const (
	WeekdaySunday    = 1
	WeekdayMonday    = 2
	WeekdayTuesday   = 3
	WeekdayWednesday = 4
	WeekdayThursday  = 5
	WeekdayFriday    = 6
	WeekdaySaturday  = 7
)
