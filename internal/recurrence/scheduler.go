package recurrence

import (
	"fmt"
	"time"

	"planner/internal/model"
)

// Warning records a template that was skipped because it cannot be
// materialized.
type Warning struct {
	TemplateID string
	Title      string
	Err        error
}

func (w Warning) String() string {
	return fmt.Sprintf("template %s (%q): %v", w.TemplateID, w.Title, w.Err)
}

// Result is the outcome of a MaterializeAll pass.
type Result struct {
	Tasks    []model.Task
	Warnings []Warning
}

// ShouldMaterialize reports whether a new instance of tpl is due at now.
// existing holds the instances already produced by tpl; an instance recorded
// for the current period makes the call return false.
func ShouldMaterialize(tpl model.RecurringTemplate, now time.Time, existing []model.Task) bool {
	if !tpl.Active {
		return false
	}
	if !inCycle(tpl, now) {
		return false
	}
	key := PeriodKey(tpl.Schedule, now)
	for _, task := range existing {
		if task.Extras.RecurrenceID == tpl.ID && task.Extras.RecurrencePeriod == key {
			return false
		}
	}
	return true
}

// Materialize builds the instance of tpl for the period containing now.
// It does not check whether the instance is due; see ShouldMaterialize.
func Materialize(tpl model.RecurringTemplate, now time.Time) model.Task {
	status := tpl.Status
	if status == "" {
		status = model.StatusDoing
	}
	priority := tpl.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	var tags []string
	if len(tpl.Defaults.Tags) > 0 {
		tags = append(tags, tpl.Defaults.Tags...)
	}

	return model.Task{
		ProjectID:   tpl.ProjectID,
		Title:       tpl.Title,
		Status:      status,
		Priority:    priority,
		DueDate:     DueDate(tpl.DueStrategy, now),
		Notes:       tpl.Defaults.Notes,
		NextStep:    tpl.Defaults.NextStep,
		OnsiteOwner: tpl.Defaults.OnsiteOwner,
		LineOwner:   tpl.Defaults.LineOwner,
		Tags:        tags,
		Extras: model.TaskExtras{
			RecurrenceID:     tpl.ID,
			RecurrencePeriod: PeriodKey(tpl.Schedule, now),
		},
	}
}

// MaterializeAll returns the instances due at now for every template, in
// template order. Malformed templates are reported as warnings and skipped.
func MaterializeAll(templates []model.RecurringTemplate, now time.Time, tasks []model.Task) Result {
	existing := GroupByRecurrence(tasks)

	var res Result
	for _, tpl := range templates {
		if !tpl.Active {
			continue
		}
		if err := Validate(tpl); err != nil {
			res.Warnings = append(res.Warnings, Warning{TemplateID: tpl.ID, Title: tpl.Title, Err: err})
			continue
		}
		if !ShouldMaterialize(tpl, now, existing[tpl.ID]) {
			continue
		}
		task := Materialize(tpl, now)
		res.Tasks = append(res.Tasks, task)
		// Guards against the same template appearing twice in one batch.
		existing[tpl.ID] = append(existing[tpl.ID], task)
	}
	return res
}

// GroupByRecurrence indexes tasks by the template they were produced from.
// Tasks without a recurrence id are left out.
func GroupByRecurrence(tasks []model.Task) map[string][]model.Task {
	out := make(map[string][]model.Task)
	for _, task := range tasks {
		if task.Extras.RecurrenceID == "" {
			continue
		}
		out[task.Extras.RecurrenceID] = append(out[task.Extras.RecurrenceID], task)
	}
	return out
}
