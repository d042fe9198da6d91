package services

import (
	"context"
	"fmt"
	"time"

	"aquamonitor/internal/ml"
	"aquamonitor/internal/models"
	"aquamonitor/internal/repository"

	"github.com/jonboulle/clockwork"
)

type DashboardService struct {
	tanks       repository.TankRepository
	trucks      repository.TruckRepository
	alerts      repository.AlertRepository
	consumption repository.ConsumptionRepository
	thresholds  AlertThresholds
	clock       clockwork.Clock
}

func NewDashboardService(
	tanks repository.TankRepository,
	trucks repository.TruckRepository,
	alerts repository.AlertRepository,
	consumption repository.ConsumptionRepository,
	thresholds AlertThresholds,
	clock clockwork.Clock,
) *DashboardService {
	return &DashboardService{
		tanks:       tanks,
		trucks:      trucks,
		alerts:      alerts,
		consumption: consumption,
		thresholds:  thresholds,
		clock:       clock,
	}
}

func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	total, err := s.tanks.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count tanks: %w", err)
	}
	avg, err := s.tanks.AverageLevel(ctx)
	if err != nil {
		return nil, fmt.Errorf("average level: %w", err)
	}
	critical, err := s.tanks.CountBelow(ctx, s.thresholds.Critical)
	if err != nil {
		return nil, fmt.Errorf("count critical tanks: %w", err)
	}
	active, err := s.alerts.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("count alerts: %w", err)
	}
	next, err := s.trucks.NextScheduled(ctx, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("next truck: %w", err)
	}
	return &models.DashboardStats{
		TotalTanks:    total,
		AverageLevel:  ml.Round(avg, 1),
		CriticalTanks: critical,
		ActiveAlerts:  active,
		NextTruck:     next,
	}, nil
}

// ConsumptionHistory returns daily totals for the last days days, today included.
func (s *DashboardService) ConsumptionHistory(ctx context.Context, days int) ([]models.DailyConsumption, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}
	now := s.clock.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))
	return s.consumption.DailyTotals(ctx, start)
}
