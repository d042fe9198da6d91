package repository

import (
	"context"
	"errors"

	"aquamonitor/internal/models"

	"gorm.io/gorm"
)

type AlertRepository interface {
	Create(ctx context.Context, alert *models.WaterAlert) error
	FindAll(ctx context.Context, activeOnly bool) ([]models.WaterAlert, error)
	FindByID(ctx context.Context, id string) (*models.WaterAlert, error)
	Resolve(ctx context.Context, id string) (*models.WaterAlert, error)
	Delete(ctx context.Context, id string) error
	LatestActiveForTank(ctx context.Context, tankID string) (*models.WaterAlert, error)
	CountActive(ctx context.Context) (int64, error)
}

type alertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db}
}

func (r *alertRepository) Create(ctx context.Context, alert *models.WaterAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *alertRepository) FindAll(ctx context.Context, activeOnly bool) ([]models.WaterAlert, error) {
	var alerts []models.WaterAlert
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if activeOnly {
		q = q.Where("is_resolved = ?", false)
	}
	err := q.Find(&alerts).Error
	return alerts, err
}

func (r *alertRepository) FindByID(ctx context.Context, id string) (*models.WaterAlert, error) {
	var alert models.WaterAlert
	if err := r.db.WithContext(ctx).First(&alert, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepository) Resolve(ctx context.Context, id string) (*models.WaterAlert, error) {
	res := r.db.WithContext(ctx).Model(&models.WaterAlert{}).Where("id = ?", id).Update("is_resolved", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *alertRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.WaterAlert{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// LatestActiveForTank returns the newest unresolved alert for a tank, or nil.
func (r *alertRepository) LatestActiveForTank(ctx context.Context, tankID string) (*models.WaterAlert, error) {
	var alert models.WaterAlert
	err := r.db.WithContext(ctx).
		Where("tank_id = ? AND is_resolved = ?", tankID, false).
		Order("created_at DESC").
		First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WaterAlert{}).Where("is_resolved = ?", false).Count(&count).Error
	return count, err
}
