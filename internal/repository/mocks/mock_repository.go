// Package mocks holds testify mocks of the repository interfaces.
package mocks

import (
	"context"
	"time"

	"aquamonitor/internal/models"
	"aquamonitor/internal/repository"

	"github.com/stretchr/testify/mock"
)

var (
	_ repository.TankRepository        = (*MockTankRepository)(nil)
	_ repository.TruckRepository       = (*MockTruckRepository)(nil)
	_ repository.AlertRepository       = (*MockAlertRepository)(nil)
	_ repository.ConsumptionRepository = (*MockConsumptionRepository)(nil)
)

type MockTankRepository struct {
	mock.Mock
}

func (m *MockTankRepository) Create(ctx context.Context, tank *models.WaterTank) error {
	args := m.Called(ctx, tank)
	return args.Error(0)
}

func (m *MockTankRepository) FindAll(ctx context.Context) ([]models.WaterTank, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WaterTank), args.Error(1)
}

func (m *MockTankRepository) FindByID(ctx context.Context, id string) (*models.WaterTank, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WaterTank), args.Error(1)
}

func (m *MockTankRepository) Update(ctx context.Context, tank *models.WaterTank) error {
	args := m.Called(ctx, tank)
	return args.Error(0)
}

func (m *MockTankRepository) UpdateLevel(ctx context.Context, id string, level float64) error {
	args := m.Called(ctx, id, level)
	return args.Error(0)
}

func (m *MockTankRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTankRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTankRepository) AverageLevel(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockTankRepository) CountBelow(ctx context.Context, level float64) (int64, error) {
	args := m.Called(ctx, level)
	return args.Get(0).(int64), args.Error(1)
}

type MockTruckRepository struct {
	mock.Mock
}

func (m *MockTruckRepository) Create(ctx context.Context, truck *models.WaterTruck) error {
	args := m.Called(ctx, truck)
	return args.Error(0)
}

func (m *MockTruckRepository) FindAll(ctx context.Context) ([]models.WaterTruck, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WaterTruck), args.Error(1)
}

func (m *MockTruckRepository) FindByID(ctx context.Context, id string) (*models.WaterTruck, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WaterTruck), args.Error(1)
}

func (m *MockTruckRepository) Update(ctx context.Context, truck *models.WaterTruck) error {
	args := m.Called(ctx, truck)
	return args.Error(0)
}

func (m *MockTruckRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTruckRepository) NextScheduled(ctx context.Context, after time.Time) (*models.WaterTruck, error) {
	args := m.Called(ctx, after)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WaterTruck), args.Error(1)
}

func (m *MockTruckRepository) CountDeliveredSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTruckRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) Create(ctx context.Context, alert *models.WaterAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertRepository) FindAll(ctx context.Context, activeOnly bool) ([]models.WaterAlert, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WaterAlert), args.Error(1)
}

func (m *MockAlertRepository) FindByID(ctx context.Context, id string) (*models.WaterAlert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WaterAlert), args.Error(1)
}

func (m *MockAlertRepository) Resolve(ctx context.Context, id string) (*models.WaterAlert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WaterAlert), args.Error(1)
}

func (m *MockAlertRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAlertRepository) LatestActiveForTank(ctx context.Context, tankID string) (*models.WaterAlert, error) {
	args := m.Called(ctx, tankID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WaterAlert), args.Error(1)
}

func (m *MockAlertRepository) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockConsumptionRepository struct {
	mock.Mock
}

func (m *MockConsumptionRepository) Create(ctx context.Context, c *models.WaterConsumption) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockConsumptionRepository) CreateBatch(ctx context.Context, records []models.WaterConsumption) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockConsumptionRepository) CountConsumption(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockConsumptionRepository) Since(ctx context.Context, since time.Time) ([]models.WaterConsumption, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WaterConsumption), args.Error(1)
}

func (m *MockConsumptionRepository) DailyTotals(ctx context.Context, since time.Time) ([]models.DailyConsumption, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DailyConsumption), args.Error(1)
}

func (m *MockConsumptionRepository) AverageDailyForTank(ctx context.Context, tankID string, since time.Time) (float64, bool, error) {
	args := m.Called(ctx, tankID, since)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
}
