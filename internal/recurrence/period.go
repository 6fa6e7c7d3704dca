package recurrence

import (
	"fmt"
	"time"

	"planner/internal/model"
)

// PeriodKey identifies the recurrence period now falls into: a date for
// daily schedules, an ISO week for weekly ones and a year-month for monthly.
func PeriodKey(s model.Schedule, now time.Time) string {
	switch s.Type {
	case model.ScheduleWeekly:
		year, week := now.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case model.ScheduleMonthly:
		return now.Format(monthLayout)
	default:
		return now.Format(dayLayout)
	}
}

// DueDate computes the due date assigned to an instance materialized at now.
// It returns nil for DueNone and for unknown strategies.
func DueDate(strategy model.DueStrategy, now time.Time) *time.Time {
	var due time.Time
	switch strategy {
	case model.DueSameDay:
		due = startOfDay(now)
	case model.DueEndOfWeek:
		due = endOfWeek(now)
	case model.DueEndOfMonth:
		due = endOfMonth(now)
	default:
		return nil
	}
	return &due
}

// epoch is the moment interval counting starts from. Unsaved templates
// have no creation time and count from now.
func epoch(tpl model.RecurringTemplate, now time.Time) time.Time {
	if tpl.CreatedAt.IsZero() {
		return now
	}
	return tpl.CreatedAt.In(now.Location())
}

// inCycle reports whether now is a day on which the template may fire,
// ignoring what has already been materialized.
func inCycle(tpl model.RecurringTemplate, now time.Time) bool {
	s := tpl.Schedule
	start := epoch(tpl, now)
	interval := s.EffectiveInterval()

	switch s.Type {
	case model.ScheduleDaily:
		return civilDay(now) >= civilDay(start)
	case model.ScheduleWeekly:
		elapsed := weeksBetween(start, now)
		if elapsed < 0 || elapsed%interval != 0 {
			return false
		}
		return s.Flexible || containsWeekday(s.DaysOfWeek, now.Weekday())
	case model.ScheduleMonthly:
		elapsed := monthsBetween(start, now)
		if elapsed < 0 || elapsed%interval != 0 {
			return false
		}
		if s.Flexible {
			return true
		}
		year, month, day := now.Date()
		return day == min(s.DayOfMonth, daysInMonth(year, month))
	default:
		return false
	}
}

func containsWeekday(days []int, wd time.Weekday) bool {
	for _, d := range days {
		if d == int(wd) {
			return true
		}
	}
	return false
}
