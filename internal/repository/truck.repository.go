package repository

import (
	"context"
	"errors"
	"time"

	"aquamonitor/internal/models"

	"gorm.io/gorm"
)

type TruckRepository interface {
	Create(ctx context.Context, truck *models.WaterTruck) error
	FindAll(ctx context.Context) ([]models.WaterTruck, error)
	FindByID(ctx context.Context, id string) (*models.WaterTruck, error)
	Update(ctx context.Context, truck *models.WaterTruck) error
	Delete(ctx context.Context, id string) error
	NextScheduled(ctx context.Context, after time.Time) (*models.WaterTruck, error)
	CountDeliveredSince(ctx context.Context, since time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type truckRepository struct {
	db *gorm.DB
}

func NewTruckRepository(db *gorm.DB) TruckRepository {
	return &truckRepository{db}
}

func (r *truckRepository) Create(ctx context.Context, truck *models.WaterTruck) error {
	return r.db.WithContext(ctx).Create(truck).Error
}

func (r *truckRepository) FindAll(ctx context.Context) ([]models.WaterTruck, error) {
	var trucks []models.WaterTruck
	err := r.db.WithContext(ctx).Order("arrival_date DESC").Find(&trucks).Error
	return trucks, err
}

func (r *truckRepository) FindByID(ctx context.Context, id string) (*models.WaterTruck, error) {
	var truck models.WaterTruck
	if err := r.db.WithContext(ctx).First(&truck, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &truck, nil
}

func (r *truckRepository) Update(ctx context.Context, truck *models.WaterTruck) error {
	return r.db.WithContext(ctx).Save(truck).Error
}

func (r *truckRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.WaterTruck{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// NextScheduled returns the earliest scheduled truck arriving after the given time, or nil.
func (r *truckRepository) NextScheduled(ctx context.Context, after time.Time) (*models.WaterTruck, error) {
	var truck models.WaterTruck
	err := r.db.WithContext(ctx).
		Where("status = ? AND arrival_date > ?", models.TruckScheduled, after).
		Order("arrival_date ASC").
		First(&truck).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &truck, nil
}

func (r *truckRepository) CountDeliveredSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WaterTruck{}).
		Where("status = ? AND arrival_date >= ?", models.TruckDelivered, since).
		Count(&count).Error
	return count, err
}

func (r *truckRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WaterTruck{}).Count(&count).Error
	return count, err
}
