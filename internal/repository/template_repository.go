package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"planner/internal/model"
)

// TemplateRepository handles CRUD for recurring templates.
type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create stores a new template, generating its ID on first save.
func (r *TemplateRepository) Create(ctx context.Context, tpl *model.RecurringTemplate) error {
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(tpl).Error; err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// Update overwrites every column of an existing template.
func (r *TemplateRepository) Update(ctx context.Context, tpl *model.RecurringTemplate) error {
	res := r.db.WithContext(ctx).Model(tpl).Select("*").Omit("created_at").Updates(tpl)
	if res.Error != nil {
		return fmt.Errorf("update template: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *TemplateRepository) SetActive(ctx context.Context, id string, active bool) error {
	res := r.db.WithContext(ctx).Model(&model.RecurringTemplate{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return fmt.Errorf("set template active: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*model.RecurringTemplate, error) {
	var tpl model.RecurringTemplate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tpl).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *TemplateRepository) ListAll(ctx context.Context) ([]model.RecurringTemplate, error) {
	var templates []model.RecurringTemplate
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// ListActive returns active templates in creation order.
func (r *TemplateRepository) ListActive(ctx context.Context) ([]model.RecurringTemplate, error) {
	var templates []model.RecurringTemplate
	if err := r.db.WithContext(ctx).Where("active = ?", true).
		Order("created_at ASC, id ASC").
		Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// Delete removes a template. With withInstances its tasks go in the same
// transaction and their number is returned.
func (r *TemplateRepository) Delete(ctx context.Context, id string, withInstances bool) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if withInstances {
			n, err := deleteInstances(tx, id)
			if err != nil {
				return err
			}
			removed = n
		}
		res := tx.Where("id = ?", id).Delete(&model.RecurringTemplate{})
		if res.Error != nil {
			return fmt.Errorf("delete template: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
