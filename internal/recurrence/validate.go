package recurrence

import (
	"errors"
	"fmt"
	"strings"

	"planner/internal/model"
)

var (
	ErrInvalidSchedule = errors.New("invalid schedule")
	ErrMissingField    = errors.New("missing template field")
)

// Validate checks that a template can be materialized without leaving any
// required task field undefined.
func Validate(tpl model.RecurringTemplate) error {
	if strings.TrimSpace(tpl.ID) == "" {
		return fmt.Errorf("%w: id", ErrMissingField)
	}
	if tpl.ProjectID == 0 {
		return fmt.Errorf("%w: project", ErrMissingField)
	}
	return ValidateFields(tpl)
}

// ValidateFields checks what a template carries before it is stored:
// everything Validate does except the persisted ID and project link.
func ValidateFields(tpl model.RecurringTemplate) error {
	if strings.TrimSpace(tpl.Title) == "" {
		return fmt.Errorf("%w: title", ErrMissingField)
	}
	if tpl.Status != "" {
		if _, err := model.ParseStatus(string(tpl.Status)); err != nil {
			return fmt.Errorf("%w: %v", ErrMissingField, err)
		}
	}
	if tpl.Priority != "" {
		if _, err := model.ParsePriority(string(tpl.Priority)); err != nil {
			return fmt.Errorf("%w: %v", ErrMissingField, err)
		}
	}
	switch tpl.DueStrategy {
	case "", model.DueNone, model.DueSameDay, model.DueEndOfWeek, model.DueEndOfMonth:
	default:
		return fmt.Errorf("%w: unknown due strategy %q", ErrInvalidSchedule, tpl.DueStrategy)
	}
	return ValidateSchedule(tpl.Schedule)
}

// ValidateSchedule checks the frequency rule alone.
// A zero interval is accepted and means every period.
func ValidateSchedule(s model.Schedule) error {
	if s.Interval < 0 {
		return fmt.Errorf("%w: interval %d must be positive", ErrInvalidSchedule, s.Interval)
	}
	switch s.Type {
	case model.ScheduleDaily:
		return nil
	case model.ScheduleWeekly:
		for _, d := range s.DaysOfWeek {
			if d < 0 || d > 6 {
				return fmt.Errorf("%w: day of week %d out of range 0-6", ErrInvalidSchedule, d)
			}
		}
		if !s.Flexible && len(s.DaysOfWeek) == 0 {
			return fmt.Errorf("%w: weekly schedule needs at least one day", ErrInvalidSchedule)
		}
		return nil
	case model.ScheduleMonthly:
		if s.Flexible && s.DayOfMonth == 0 {
			return nil
		}
		if s.DayOfMonth < 1 || s.DayOfMonth > 31 {
			return fmt.Errorf("%w: day of month %d out of range 1-31", ErrInvalidSchedule, s.DayOfMonth)
		}
		return nil
	case "":
		return fmt.Errorf("%w: type is empty", ErrInvalidSchedule)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidSchedule, s.Type)
	}
}
