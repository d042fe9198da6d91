package services

import (
	"context"
	"testing"
	"time"

	"aquamonitor/internal/models"
	"aquamonitor/internal/repository/mocks"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDashboardStats(t *testing.T) {
	tanks := new(mocks.MockTankRepository)
	trucks := new(mocks.MockTruckRepository)
	alerts := new(mocks.MockAlertRepository)
	consumption := new(mocks.MockConsumptionRepository)

	next := &models.WaterTruck{ID: "trk", TruckNumber: "TRK-9", Status: models.TruckScheduled}
	tanks.On("Count", mock.Anything).Return(int64(4), nil)
	tanks.On("AverageLevel", mock.Anything).Return(57.2666, nil)
	tanks.On("CountBelow", mock.Anything, 20.0).Return(int64(1), nil)
	alerts.On("CountActive", mock.Anything).Return(int64(3), nil)
	trucks.On("NextScheduled", mock.Anything, now).Return(next, nil)

	svc := NewDashboardService(tanks, trucks, alerts, consumption, thresholds, clockwork.NewFakeClockAt(now))
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &models.DashboardStats{
		TotalTanks:    4,
		AverageLevel:  57.3,
		CriticalTanks: 1,
		ActiveAlerts:  3,
		NextTruck:     next,
	}, stats)
}

func TestConsumptionHistoryWindow(t *testing.T) {
	consumption := new(mocks.MockConsumptionRepository)
	start := time.Date(2024, time.February, 9, 0, 0, 0, 0, time.UTC)
	consumption.On("DailyTotals", mock.Anything, start).Return([]models.DailyConsumption{{Date: "2024-02-09", Liters: 10}}, nil)

	svc := NewDashboardService(nil, nil, nil, consumption, thresholds, clockwork.NewFakeClockAt(now))
	days, err := svc.ConsumptionHistory(context.Background(), 30)
	require.NoError(t, err)
	assert.Len(t, days, 1)

	_, err = svc.ConsumptionHistory(context.Background(), 0)
	assert.Error(t, err)
}
