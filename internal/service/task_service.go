package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"planner/internal/model"
	"planner/internal/repository"
)

// TaskInput represents data required to create a one-off task.
type TaskInput struct {
	Project  string
	Title    string
	Status   string
	Priority string
	DueDate  *time.Time
	Notes    string
	NextStep string
	Tags     []string
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo    *repository.TaskRepository
	projectRepo *repository.ProjectRepository
	settings    *SettingsService
	log         zerolog.Logger
}

func NewTaskService(taskRepo *repository.TaskRepository, projectRepo *repository.ProjectRepository, settings *SettingsService, log zerolog.Logger) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		settings:    settings,
		log:         log.With().Str("component", "tasks").Logger(),
	}
}

func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalid("title is required")
	}

	status := model.StatusDoing
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

	project, err := s.projectRepo.GetOrCreate(ctx, input.Project)
	if err != nil {
		return nil, invalid("project: %v", err)
	}

	task := model.Task{
		ProjectID: project.ID,
		Title:     title,
		Status:    status,
		Priority:  priority,
		DueDate:   input.DueDate,
		Notes:     input.Notes,
		NextStep:  input.NextStep,
		Tags:      input.Tags,
	}
	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) ListOpen(ctx context.Context) ([]model.Task, error) {
	return s.taskRepo.ListOpen(ctx)
}

func (s *TaskService) GetTask(ctx context.Context, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, notFound(err, "task")
	}
	return task, nil
}

// CompleteTask marks a task as done. A materialized instance is completed
// like any other task; the next period gets a fresh instance.
func (s *TaskService) CompleteTask(ctx context.Context, taskID uint, completedAt time.Time) (*model.Task, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.taskRepo.MarkDone(ctx, task, completedAt); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask moves a task to the trash. It stays restorable until
// PurgeTrash removes it.
func (s *TaskService) DeleteTask(ctx context.Context, taskID uint) error {
	return notFound(s.taskRepo.Delete(ctx, taskID), "task")
}

func (s *TaskService) ListTrash(ctx context.Context) ([]model.Task, error) {
	return s.taskRepo.ListTrash(ctx)
}

func (s *TaskService) RestoreTask(ctx context.Context, taskID uint) error {
	return notFound(s.taskRepo.Restore(ctx, taskID), "trashed task")
}

// PurgeTrash permanently removes tasks that have been in the trash for
// TrashRetentionDays or longer.
func (s *TaskService) PurgeTrash(ctx context.Context, now time.Time) (int64, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := now.AddDate(0, 0, -settings.TrashRetentionDays)
	purged, err := s.taskRepo.PurgeTrash(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		s.log.Info().Int64("purged", purged).Int("retention_days", settings.TrashRetentionDays).Msg("trash purged")
	}
	return purged, nil
}
