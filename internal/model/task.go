package model

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusDoing  Status = "doing"
	StatusDone   Status = "done"
	StatusPaused Status = "paused"
)

// ParseStatus accepts a status name in any case.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusDoing, StatusDone, StatusPaused:
		return s, nil
	default:
		return "", fmt.Errorf("unknown status %q", raw)
	}
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority accepts a priority name in any case.
func ParsePriority(raw string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(raw))); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	default:
		return "", fmt.Errorf("unknown priority %q", raw)
	}
}

// TaskExtras links a task back to the template that produced it.
// The link is not owning: a task may outlive its template.
// A template has at most one instance per period, trashed ones included.
type TaskExtras struct {
	RecurrenceID     string `gorm:"index;uniqueIndex:idx_tasks_recurrence_period,where:extras_recurrence_id <> ''"`
	RecurrencePeriod string `gorm:"uniqueIndex:idx_tasks_recurrence_period,where:extras_recurrence_id <> ''"`
}

// Task represents a single item in the planner.
type Task struct {
	ID          uint `gorm:"primaryKey"`
	ProjectID   uint `gorm:"index"`
	Title       string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
	Notes       string
	NextStep    string
	OnsiteOwner string
	LineOwner   string
	Tags        []string   `gorm:"serializer:json"`
	Extras      TaskExtras `gorm:"embedded;embeddedPrefix:extras_"`
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"` // set while the task sits in the trash
}

// IsRecurring reports whether the task was materialized from a template.
func (t Task) IsRecurring() bool {
	return t.Extras.RecurrenceID != ""
}
