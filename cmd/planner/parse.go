package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"planner/internal/model"
)

const dateLayout = "2006-01-02"

// parseAt accepts RFC 3339 or a plain date. A plain date resolves to noon in
// loc so the whole day's schedules are evaluated the same way.
func parseAt(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	t, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, expected RFC3339 or YYYY-MM-DD", value)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, loc), nil
}

func parseDate(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return &t, nil
}

var weekdayAliases = map[string]int{
	"sun": 0, "sunday": 0,
	"mon": 1, "monday": 1,
	"tue": 2, "tuesday": 2,
	"wed": 3, "wednesday": 3,
	"thu": 4, "thursday": 4,
	"fri": 5, "friday": 5,
	"sat": 6, "saturday": 6,
}

// parseWeekdays reads a list like "mon,wed,fri" or "1,3,5" (Sunday is 0).
func parseWeekdays(values []string) ([]int, error) {
	seen := make(map[int]bool)
	days := make([]int, 0, len(values))
	for _, raw := range values {
		v := strings.ToLower(strings.TrimSpace(raw))
		if v == "" {
			continue
		}
		day, ok := weekdayAliases[v]
		if !ok {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 || n > 6 {
				return nil, fmt.Errorf("invalid weekday %q", raw)
			}
			day = n
		}
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	return days, nil
}

type scheduleFlags struct {
	every      string
	days       []string
	dayOfMonth int
	interval   int
	flexible   bool
}

func (f scheduleFlags) schedule() (model.Schedule, error) {
	s := model.Schedule{
		Type:       model.ScheduleType(strings.ToLower(strings.TrimSpace(f.every))),
		DayOfMonth: f.dayOfMonth,
		Interval:   f.interval,
		Flexible:   f.flexible,
	}
	switch s.Type {
	case model.ScheduleDaily, model.ScheduleMonthly:
		if len(f.days) > 0 {
			return s, fmt.Errorf("--days only applies to weekly schedules")
		}
	case model.ScheduleWeekly:
		days, err := parseWeekdays(f.days)
		if err != nil {
			return s, err
		}
		s.DaysOfWeek = days
	default:
		return s, fmt.Errorf("unknown schedule %q, expected daily, weekly or monthly", f.every)
	}
	return s, nil
}

func parseID(value string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid task id %q", value)
	}
	return uint(id), nil
}
