package repository

import (
	"context"
	"sort"
	"time"

	"aquamonitor/internal/models"

	"gorm.io/gorm"
)

type ConsumptionRepository interface {
	Create(ctx context.Context, c *models.WaterConsumption) error
	CreateBatch(ctx context.Context, records []models.WaterConsumption) error
	CountConsumption(ctx context.Context) (int64, error)
	Since(ctx context.Context, since time.Time) ([]models.WaterConsumption, error)
	DailyTotals(ctx context.Context, since time.Time) ([]models.DailyConsumption, error)
	AverageDailyForTank(ctx context.Context, tankID string, since time.Time) (float64, bool, error)
}

type consumptionRepository struct {
	db *gorm.DB
}

func NewConsumptionRepository(db *gorm.DB) ConsumptionRepository {
	return &consumptionRepository{db}
}

func (r *consumptionRepository) Create(ctx context.Context, c *models.WaterConsumption) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *consumptionRepository) CreateBatch(ctx context.Context, records []models.WaterConsumption) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(records, 200).Error
}

func (r *consumptionRepository) CountConsumption(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WaterConsumption{}).Count(&count).Error
	return count, err
}

func (r *consumptionRepository) Since(ctx context.Context, since time.Time) ([]models.WaterConsumption, error) {
	var records []models.WaterConsumption
	err := r.db.WithContext(ctx).
		Where("consumption_date >= ?", since).
		Order("consumption_date ASC").
		Find(&records).Error
	return records, err
}

// DailyTotals sums liters per calendar day (UTC). Grouping happens in Go so the query is
// portable across postgres and sqlite.
func (r *consumptionRepository) DailyTotals(ctx context.Context, since time.Time) ([]models.DailyConsumption, error) {
	records, err := r.Since(ctx, since)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]float64)
	for _, rec := range records {
		totals[rec.ConsumptionDate.UTC().Format(time.DateOnly)] += rec.LitersConsumed
	}
	out := make([]models.DailyConsumption, 0, len(totals))
	for day, liters := range totals {
		out = append(out, models.DailyConsumption{Date: day, Liters: liters})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// AverageDailyForTank returns mean liters per recorded day for a tank since the given time.
// ok is false when the tank has no records in the window.
func (r *consumptionRepository) AverageDailyForTank(ctx context.Context, tankID string, since time.Time) (float64, bool, error) {
	var records []models.WaterConsumption
	err := r.db.WithContext(ctx).
		Where("tank_id = ? AND consumption_date >= ?", tankID, since).
		Find(&records).Error
	if err != nil {
		return 0, false, err
	}
	if len(records) == 0 {
		return 0, false, nil
	}
	days := make(map[string]float64)
	for _, rec := range records {
		days[rec.ConsumptionDate.UTC().Format(time.DateOnly)] += rec.LitersConsumed
	}
	var total float64
	for _, liters := range days {
		total += liters
	}
	return total / float64(len(days)), true, nil
}
