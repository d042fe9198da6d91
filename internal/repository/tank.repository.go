package repository

import (
	"context"
	"database/sql"

	"aquamonitor/internal/models"

	"gorm.io/gorm"
)

type TankRepository interface {
	Create(ctx context.Context, tank *models.WaterTank) error
	FindAll(ctx context.Context) ([]models.WaterTank, error)
	FindByID(ctx context.Context, id string) (*models.WaterTank, error)
	Update(ctx context.Context, tank *models.WaterTank) error
	UpdateLevel(ctx context.Context, id string, level float64) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	AverageLevel(ctx context.Context) (float64, error)
	CountBelow(ctx context.Context, level float64) (int64, error)
}

type tankRepository struct {
	db *gorm.DB
}

func NewTankRepository(db *gorm.DB) TankRepository {
	return &tankRepository{db}
}

func (r *tankRepository) Create(ctx context.Context, tank *models.WaterTank) error {
	return r.db.WithContext(ctx).Create(tank).Error
}

func (r *tankRepository) FindAll(ctx context.Context) ([]models.WaterTank, error) {
	var tanks []models.WaterTank
	err := r.db.WithContext(ctx).Order("floor, room").Find(&tanks).Error
	return tanks, err
}

func (r *tankRepository) FindByID(ctx context.Context, id string) (*models.WaterTank, error) {
	var tank models.WaterTank
	if err := r.db.WithContext(ctx).First(&tank, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tank, nil
}

func (r *tankRepository) Update(ctx context.Context, tank *models.WaterTank) error {
	return r.db.WithContext(ctx).Save(tank).Error
}

func (r *tankRepository) UpdateLevel(ctx context.Context, id string, level float64) error {
	res := r.db.WithContext(ctx).Model(&models.WaterTank{}).Where("id = ?", id).Update("current_level", level)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *tankRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.WaterTank{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *tankRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WaterTank{}).Count(&count).Error
	return count, err
}

func (r *tankRepository) AverageLevel(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	row := r.db.WithContext(ctx).Model(&models.WaterTank{}).Select("AVG(current_level)").Row()
	if err := row.Scan(&avg); err != nil {
		return 0, err
	}
	return avg.Float64, nil
}

func (r *tankRepository) CountBelow(ctx context.Context, level float64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WaterTank{}).Where("current_level < ?", level).Count(&count).Error
	return count, err
}
