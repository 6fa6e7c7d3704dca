package model

import "time"

type ScheduleType string

const (
	ScheduleDaily   ScheduleType = "daily"
	ScheduleWeekly  ScheduleType = "weekly"
	ScheduleMonthly ScheduleType = "monthly"
)

// Schedule is the frequency rule of a recurring template.
// DaysOfWeek uses time.Weekday numbering (Sunday=0).
type Schedule struct {
	Type       ScheduleType
	DaysOfWeek []int `gorm:"serializer:json"`
	DayOfMonth int
	Interval   int
	Flexible   bool
}

// EffectiveInterval treats an unset interval as 1.
func (s Schedule) EffectiveInterval() int {
	if s.Interval <= 0 {
		return 1
	}
	return s.Interval
}

type DueStrategy string

const (
	DueSameDay    DueStrategy = "sameDay"
	DueEndOfWeek  DueStrategy = "endOfWeek"
	DueEndOfMonth DueStrategy = "endOfMonth"
	DueNone       DueStrategy = "none"
)

// TemplateDefaults are copied verbatim onto every materialized task.
type TemplateDefaults struct {
	Notes       string
	NextStep    string
	OnsiteOwner string
	LineOwner   string
	Tags        []string `gorm:"serializer:json"`
}

// RecurringTemplate is a saved recurrence rule plus default field values.
type RecurringTemplate struct {
	ID          string `gorm:"primaryKey;size:36"`
	ProjectID   uint   `gorm:"index"`
	Title       string
	Status      Status
	Priority    Priority
	Schedule    Schedule `gorm:"embedded;embeddedPrefix:schedule_"`
	DueStrategy DueStrategy
	Defaults    TemplateDefaults `gorm:"embedded;embeddedPrefix:default_"`
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
