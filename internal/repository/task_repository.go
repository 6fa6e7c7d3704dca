package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"planner/internal/model"
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// CreateBatch stores materialized instances in one transaction and returns
// the ones actually written. An instance is skipped when its template has
// been deleted or paused, or when its period already has an instance.
func (r *TaskRepository) CreateBatch(ctx context.Context, tasks []model.Task) ([]model.Task, error) {
	if len(tasks) == 0 {
		return nil, nil
	}
	var created []model.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, task := range tasks {
			if id := task.Extras.RecurrenceID; id != "" {
				var live int64
				if err := tx.Model(&model.RecurringTemplate{}).
					Where("id = ? AND active = ?", id, true).
					Count(&live).Error; err != nil {
					return err
				}
				if live == 0 {
					continue
				}
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&task)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}
			created = append(created, task)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create tasks: %w", err)
	}
	return created, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByRecurrenceID lists the instances materialized from a template.
func (r *TaskRepository) FindByRecurrenceID(ctx context.Context, templateID string) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("extras_recurrence_id = ?", templateID).
		Order("created_at ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListAll returns every task, trashed ones included, so a trashed instance
// still holds its period.
func (r *TaskRepository) ListAll(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Unscoped().Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListOpen returns tasks not yet done, earliest due date first.
func (r *TaskRepository) ListOpen(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("status <> ?", model.StatusDone).
		Order("due_date IS NULL, due_date ASC, created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// CountByRecurrenceID returns the number of instances per template id.
func (r *TaskRepository) CountByRecurrenceID(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		RecurrenceID string
		Count        int
	}
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("extras_recurrence_id AS recurrence_id, COUNT(*) AS count").
		Where("extras_recurrence_id <> ''").
		Group("extras_recurrence_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count instances: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.RecurrenceID] = row.Count
	}
	return counts, nil
}

func (r *TaskRepository) MarkDone(ctx context.Context, task *model.Task, completedAt time.Time) error {
	task.Status = model.StatusDone
	task.CompletedAt = &completedAt
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}

// Delete moves a task to the trash.
func (r *TaskRepository) Delete(ctx context.Context, taskID uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Task{}, taskID)
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListTrash returns trashed tasks, most recently deleted first.
func (r *TaskRepository) ListTrash(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Unscoped().Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC, id DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Restore takes a task back out of the trash.
func (r *TaskRepository) Restore(ctx context.Context, taskID uint) error {
	res := r.db.WithContext(ctx).Unscoped().Model(&model.Task{}).
		Where("id = ? AND deleted_at IS NOT NULL", taskID).
		Update("deleted_at", nil)
	if res.Error != nil {
		return fmt.Errorf("restore task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// PurgeTrash permanently removes tasks trashed at or before cutoff.
func (r *TaskRepository) PurgeTrash(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at <= ?", cutoff.UTC()).
		Delete(&model.Task{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge trash: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// deleteInstances permanently removes every instance of a template, trashed ones included.
func deleteInstances(tx *gorm.DB, templateID string) (int64, error) {
	if templateID == "" {
		return 0, nil
	}
	res := tx.Unscoped().Where("extras_recurrence_id = ?", templateID).Delete(&model.Task{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete instances: %w", res.Error)
	}
	return res.RowsAffected, nil
}
