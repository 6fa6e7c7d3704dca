package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"planner/internal/model"
	"planner/internal/recurrence"
)

// TemplateStore is the read side of the template repository used by materialization.
type TemplateStore interface {
	ListActive(ctx context.Context) ([]model.RecurringTemplate, error)
}

// TaskStore is the part of the task repository used by materialization.
// CreateBatch returns only the instances it wrote: it drops those whose
// template was deleted or paused after ListActive, and those whose period
// already has an instance.
type TaskStore interface {
	ListAll(ctx context.Context) ([]model.Task, error)
	CreateBatch(ctx context.Context, tasks []model.Task) ([]model.Task, error)
}

// Report describes one materialization pass.
type Report struct {
	RanAt    time.Time
	DryRun   bool
	Created  []model.Task
	Warnings []recurrence.Warning
}

// RecurringService loads templates and tasks, materializes what is due and
// stores the result.
type RecurringService struct {
	templates TemplateStore
	tasks     TaskStore
	log       zerolog.Logger

	// mu serializes runs so the cron job and a manual trigger cannot
	// both create the same period's instance.
	mu sync.Mutex
}

func NewRecurringService(templates TemplateStore, tasks TaskStore, log zerolog.Logger) *RecurringService {
	return &RecurringService{
		templates: templates,
		tasks:     tasks,
		log:       log.With().Str("component", "recurring").Logger(),
	}
}

// Run materializes every due instance at now and persists them.
func (s *RecurringService) Run(ctx context.Context, now time.Time) (Report, error) {
	return s.run(ctx, now, false)
}

// Preview reports what Run would create without writing anything.
func (s *RecurringService) Preview(ctx context.Context, now time.Time) (Report, error) {
	return s.run(ctx, now, true)
}

func (s *RecurringService) run(ctx context.Context, now time.Time, dryRun bool) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := Report{RanAt: now, DryRun: dryRun}

	templates, err := s.templates.ListActive(ctx)
	if err != nil {
		return report, fmt.Errorf("list templates: %w", err)
	}
	tasks, err := s.tasks.ListAll(ctx)
	if err != nil {
		return report, fmt.Errorf("list tasks: %w", err)
	}

	res := recurrence.MaterializeAll(templates, now, tasks)
	report.Warnings = res.Warnings
	for _, w := range res.Warnings {
		s.log.Warn().Str("template", w.TemplateID).Str("title", w.Title).Err(w.Err).Msg("template skipped")
	}

	if dryRun {
		report.Created = res.Tasks
	} else {
		created, err := s.tasks.CreateBatch(ctx, res.Tasks)
		if err != nil {
			return report, err
		}
		if skipped := len(res.Tasks) - len(created); skipped > 0 {
			s.log.Info().Int("skipped", skipped).Msg("instances dropped at write")
		}
		report.Created = created
	}

	s.log.Info().
		Int("templates", len(templates)).
		Int("created", len(report.Created)).
		Int("warnings", len(res.Warnings)).
		Bool("dry_run", dryRun).
		Msg("materialization finished")
	return report, nil
}
