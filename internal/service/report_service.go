package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"planner/internal/model"
	"planner/internal/repository"
)

// ReportService builds human-readable summaries of materialization runs.
type ReportService struct {
	taskRepo    *repository.TaskRepository
	projectRepo *repository.ProjectRepository
	settings    *SettingsService
}

func NewReportService(taskRepo *repository.TaskRepository, projectRepo *repository.ProjectRepository, settings *SettingsService) *ReportService {
	return &ReportService{taskRepo: taskRepo, projectRepo: projectRepo, settings: settings}
}

// Summary renders report together with the currently overdue tasks as HTML.
func (s *ReportService) Summary(ctx context.Context, report Report, now time.Time) (string, error) {
	open, err := s.taskRepo.ListOpen(ctx)
	if err != nil {
		return "", err
	}
	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		return "", err
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return "", err
	}

	names := make(map[uint]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	return RenderSummary(report, Overdue(open, settings.OverdueThresholdDays, now), names, settings, now), nil
}

// Overdue returns open tasks whose due date lies more than thresholdDays in
// the past, oldest first.
func Overdue(tasks []model.Task, thresholdDays int, now time.Time) []model.Task {
	y, m, d := now.Date()
	cutoff := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -thresholdDays)

	var out []model.Task
	for _, task := range tasks {
		if task.Status == model.StatusDone || task.DueDate == nil {
			continue
		}
		if task.DueDate.In(now.Location()).Before(cutoff) {
			out = append(out, task)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(*out[j].DueDate)
	})
	return out
}

// RenderSummary formats a run report as Telegram-compatible HTML.
func RenderSummary(report Report, overdue []model.Task, projects map[uint]string, settings model.Settings, now time.Time) string {
	layout := GoLayout(settings.DateFormat)

	var builder strings.Builder
	builder.WriteString("🔁 <b>Recurring tasks</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format(layout)))

	builder.WriteString("🆕 <b>Created</b>\n")
	if len(report.Created) == 0 {
		builder.WriteString("• nothing due\n")
	} else {
		for _, task := range report.Created {
			builder.WriteString(formatTask(task, projects, layout))
		}
	}

	if len(report.Warnings) > 0 {
		builder.WriteString("\n⚠️ <b>Skipped templates</b>\n")
		for _, w := range report.Warnings {
			builder.WriteString(fmt.Sprintf("• %s: %s\n", html.EscapeString(strings.TrimSpace(w.Title)), html.EscapeString(w.Err.Error())))
		}
	}

	if len(overdue) > 0 {
		builder.WriteString("\n⏰ <b>Overdue</b>\n")
		for _, task := range overdue {
			builder.WriteString(formatTask(task, projects, layout))
		}
	}

	return strings.TrimSpace(builder.String())
}

func formatTask(task model.Task, projects map[uint]string, layout string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("• %s", html.EscapeString(strings.TrimSpace(task.Title))))
	if name := strings.TrimSpace(projects[task.ProjectID]); name != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(name)))
	}
	if task.ID != 0 {
		sb.WriteString(fmt.Sprintf(" #%d", task.ID))
	}
	if task.DueDate != nil {
		sb.WriteString(fmt.Sprintf("\n   due %s", task.DueDate.Format(layout)))
	}
	if task.NextStep != "" {
		sb.WriteString(fmt.Sprintf("\n   ➡️ %s", html.EscapeString(strings.TrimSpace(task.NextStep))))
	}

	sb.WriteByte('\n')
	return sb.String()
}
