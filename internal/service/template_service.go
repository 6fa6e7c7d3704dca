package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"planner/internal/model"
	"planner/internal/recurrence"
	"planner/internal/repository"
)

// TemplateInput represents data required to create or replace a template.
type TemplateInput struct {
	Project     string
	Title       string
	Status      string
	Priority    string
	Schedule    model.Schedule
	DueStrategy model.DueStrategy
	Defaults    model.TemplateDefaults
	Active      bool
}

// TemplateSummary is a template with the details shown in listings.
type TemplateSummary struct {
	Template  model.RecurringTemplate
	Project   string
	Label     string
	Instances int
}

// TemplateService manages recurring templates.
type TemplateService struct {
	templateRepo *repository.TemplateRepository
	taskRepo     *repository.TaskRepository
	projectRepo  *repository.ProjectRepository
	log          zerolog.Logger
}

func NewTemplateService(templateRepo *repository.TemplateRepository, taskRepo *repository.TaskRepository, projectRepo *repository.ProjectRepository, log zerolog.Logger) *TemplateService {
	return &TemplateService{
		templateRepo: templateRepo,
		taskRepo:     taskRepo,
		projectRepo:  projectRepo,
		log:          log.With().Str("component", "templates").Logger(),
	}
}

func (s *TemplateService) Create(ctx context.Context, input TemplateInput) (*model.RecurringTemplate, error) {
	tpl, err := s.build(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := s.templateRepo.Create(ctx, tpl); err != nil {
		return nil, err
	}
	s.log.Info().Str("template", tpl.ID).Str("title", tpl.Title).Msg("template created")
	return tpl, nil
}

// Update replaces the template's fields. Instances already materialized keep
// the values they were created with.
func (s *TemplateService) Update(ctx context.Context, ref string, input TemplateInput) (*model.RecurringTemplate, error) {
	current, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	tpl, err := s.build(ctx, input)
	if err != nil {
		return nil, err
	}
	tpl.ID = current.ID
	tpl.CreatedAt = current.CreatedAt
	if err := s.templateRepo.Update(ctx, tpl); err != nil {
		return nil, notFound(err, "template")
	}
	return tpl, nil
}

// Toggle flips the active flag and returns the updated template.
func (s *TemplateService) Toggle(ctx context.Context, ref string) (*model.RecurringTemplate, error) {
	tpl, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	tpl.Active = !tpl.Active
	if err := s.templateRepo.SetActive(ctx, tpl.ID, tpl.Active); err != nil {
		return nil, notFound(err, "template")
	}
	s.log.Info().Str("template", tpl.ID).Bool("active", tpl.Active).Msg("template toggled")
	return tpl, nil
}

// Resolve finds a template by its full ID or by an unambiguous ID prefix.
func (s *TemplateService) Resolve(ctx context.Context, ref string) (*model.RecurringTemplate, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, invalid("template id is empty")
	}
	tpl, err := s.templateRepo.FindByID(ctx, ref)
	if err == nil {
		return tpl, nil
	}
	if err = notFound(err, "template"); !isNotFound(err) {
		return nil, err
	}

	all, err := s.templateRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var match *model.RecurringTemplate
	for i := range all {
		if !strings.HasPrefix(all[i].ID, ref) {
			continue
		}
		if match != nil {
			return nil, invalid("template id %q is ambiguous", ref)
		}
		match = &all[i]
	}
	if match == nil {
		return nil, fmt.Errorf("template %q: %w", ref, ErrNotFound)
	}
	return match, nil
}

// List returns every template with its project name, schedule label and
// number of materialized instances.
func (s *TemplateService) List(ctx context.Context) ([]TemplateSummary, error) {
	templates, err := s.templateRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.taskRepo.CountByRecurrenceID(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.projectNames(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]TemplateSummary, 0, len(templates))
	for _, tpl := range templates {
		out = append(out, TemplateSummary{
			Template:  tpl,
			Project:   projects[tpl.ProjectID],
			Label:     recurrence.Describe(tpl.Schedule),
			Instances: counts[tpl.ID],
		})
	}
	return out, nil
}

// Instances lists the tasks materialized from a template.
func (s *TemplateService) Instances(ctx context.Context, ref string) ([]model.Task, error) {
	tpl, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.taskRepo.FindByRecurrenceID(ctx, tpl.ID)
}

// Delete removes a template. With cascade, every task materialized from it
// goes in the same transaction; without, those tasks stay and keep their
// recurrence id. A materialization run racing the delete writes nothing for
// this template.
func (s *TemplateService) Delete(ctx context.Context, ref string, cascade bool) (int64, error) {
	tpl, err := s.Resolve(ctx, ref)
	if err != nil {
		return 0, err
	}

	removed, err := s.templateRepo.Delete(ctx, tpl.ID, cascade)
	if err != nil {
		return 0, notFound(err, "template")
	}
	s.log.Info().Str("template", tpl.ID).Bool("cascade", cascade).Int64("removed_tasks", removed).Msg("template deleted")
	return removed, nil
}

func (s *TemplateService) build(ctx context.Context, input TemplateInput) (*model.RecurringTemplate, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalid("title is required")
	}

	status := model.StatusPaused
	if input.Status != "" {
		parsed, err := model.ParseStatus(input.Status)
		if err != nil {
			return nil, invalid("%v", err)
		}
		status = parsed
	}
	priority := model.PriorityMedium
	if input.Priority != "" {
		parsed, err := model.ParsePriority(input.Priority)
		if err != nil {
			return nil, invalid("%v", err)
		}
		priority = parsed
	}
	due := input.DueStrategy
	if due == "" {
		due = model.DueNone
	}

	tpl := &model.RecurringTemplate{
		Title:       title,
		Status:      status,
		Priority:    priority,
		Schedule:    input.Schedule,
		DueStrategy: due,
		Defaults:    input.Defaults,
		Active:      input.Active,
	}
	if err := recurrence.ValidateFields(*tpl); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	project, err := s.projectRepo.GetOrCreate(ctx, input.Project)
	if err != nil {
		return nil, invalid("project: %v", err)
	}
	tpl.ProjectID = project.ID
	return tpl, nil
}

func (s *TemplateService) projectNames(ctx context.Context) (map[uint]string, error) {
	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	return names, nil
}
