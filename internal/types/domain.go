package types

import (
	"fmt"
	"strings"
	"time"
)

// ScheduleTemplate is a reusable recurrence rule owned by a child. The engine
// only reads active templates; creation and edits belong to the record layer.
//
// The natural de-duplication key used by bulk upserts is
// (child_id, type, title, frequency, weekday, time_of_day).
type ScheduleTemplate struct {
	ID      string `json:"id" db:"id"`
	ChildID string `json:"child_id" db:"child_id"`

	// Content copied onto every generated Schedule.
	Type        string  `json:"type" db:"type"`
	Title       string  `json:"title" db:"title"`
	Description *string `json:"description,omitempty" db:"description"`
	Notes       *string `json:"notes,omitempty" db:"notes"`

	// Recurrence
	Frequency Frequency `json:"frequency" db:"frequency"`
	Weekday   *int      `json:"weekday,omitempty" db:"weekday"` // 1=Sunday..7=Saturday, weekly only
	TimeOfDay TimeOfDay `json:"time_of_day" db:"time_of_day"`

	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks the recurrence fields. A nil weekday on a weekly template is
// legal (it falls back to the creation weekday); an out-of-range one is not.
func (t *ScheduleTemplate) Validate() error {
	if !t.Frequency.IsValid() {
		return NewAppErrorWithDetails(ErrCodeValidationInvalidRecurrence,
			fmt.Sprintf("unknown frequency %q", t.Frequency), nil,
			map[string]any{"template_id": t.ID})
	}
	if t.Weekday != nil && !ValidWeekday(*t.Weekday) {
		return NewAppErrorWithDetails(ErrCodeValidationInvalidRecurrence,
			fmt.Sprintf("weekday %d out of range 1..7", *t.Weekday), nil,
			map[string]any{"template_id": t.ID})
	}
	if !t.TimeOfDay.Valid() {
		return NewAppErrorWithDetails(ErrCodeValidationInvalidRecurrence,
			fmt.Sprintf("time of day %s out of range", t.TimeOfDay), nil,
			map[string]any{"template_id": t.ID})
	}
	return nil
}

// Schedule is one concrete, dated occurrence. Content fields are a snapshot of
// the originating template at creation time, never a live view of it.
type Schedule struct {
	ID         string  `json:"id" db:"id"`
	ChildID    string  `json:"child_id" db:"child_id"`
	TemplateID *string `json:"template_id,omitempty" db:"template_id"` // nil for ad-hoc schedules

	ScheduledTime time.Time `json:"scheduled_time" db:"scheduled_time"`

	Type        string  `json:"type" db:"type"`
	Title       string  `json:"title" db:"title"`
	Description *string `json:"description,omitempty" db:"description"`
	Notes       *string `json:"notes,omitempty" db:"notes"`

	Status          ScheduleStatus `json:"status" db:"status"`
	HasBeenModified bool           `json:"has_been_modified" db:"has_been_modified"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsAdHoc reports whether the schedule was created outside any template.
func (s *Schedule) IsAdHoc() bool {
	return s.TemplateID == nil
}

// PlanItem is one entry of an ad-hoc weekly plan handed to the horizon
// replacer. It has no persisted template behind it.
type PlanItem struct {
	Title       string  `json:"title" yaml:"title" validate:"required,max=200"`
	Type        string  `json:"type" yaml:"type" validate:"required,max=50"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
	TimeOfDay   string  `json:"time_of_day" yaml:"time_of_day" validate:"required,time_of_day"`
	Weekdays    []int   `json:"weekdays" yaml:"weekdays" validate:"required,min=1,max=7,dive,weekday"`
	Notes       *string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Validate parses the time of day and checks the weekday set. It returns the
// parsed time of day so callers do not parse twice.
func (p *PlanItem) Validate() (TimeOfDay, error) {
	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Type) == "" {
		return TimeOfDay{}, NewAppError(ErrCodeValidationInvalidRecurrence,
			"plan item requires a title and a type", nil)
	}
	if len(p.Weekdays) == 0 {
		return TimeOfDay{}, NewAppError(ErrCodeValidationInvalidRecurrence,
			fmt.Sprintf("plan item %q has no weekdays", p.Title), nil)
	}
	for _, wd := range p.Weekdays {
		if !ValidWeekday(wd) {
			return TimeOfDay{}, NewAppError(ErrCodeValidationInvalidRecurrence,
				fmt.Sprintf("plan item %q: weekday %d out of range 1..7", p.Title, wd), nil)
		}
	}
	return ParseTimeOfDay(p.TimeOfDay)
}

// ValidWeekday reports whether wd is in 1..7.
func ValidWeekday(wd int) bool {
	return wd >= WeekdaySunday && wd <= WeekdaySaturday
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
