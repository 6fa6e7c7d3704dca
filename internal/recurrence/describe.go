package recurrence

import (
	"fmt"
	"strings"

	"planner/internal/model"
)

var weekdayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Describe renders a schedule as a short label, e.g. "every 2 weeks on Mon, Fri".
func Describe(s model.Schedule) string {
	interval := s.EffectiveInterval()
	switch s.Type {
	case model.ScheduleDaily:
		return "every day"
	case model.ScheduleWeekly:
		prefix := "every week"
		if interval > 1 {
			prefix = fmt.Sprintf("every %d weeks", interval)
		}
		if s.Flexible {
			return prefix + ", any day"
		}
		days := make([]string, 0, len(s.DaysOfWeek))
		for _, d := range s.DaysOfWeek {
			if d >= 0 && d < len(weekdayNames) {
				days = append(days, weekdayNames[d])
			}
		}
		return prefix + " on " + strings.Join(days, ", ")
	case model.ScheduleMonthly:
		prefix := "every month"
		if interval > 1 {
			prefix = fmt.Sprintf("every %d months", interval)
		}
		if s.Flexible {
			return prefix + ", any day"
		}
		return fmt.Sprintf("%s on day %d", prefix, s.DayOfMonth)
	default:
		return "unknown"
	}
}
