package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"aquamonitor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.WaterTank{}, &models.WaterTruck{}, &models.WaterAlert{}, &models.WaterConsumption{}))
	return db
}

func strPtr(s string) *string { return &s }

func TestTankRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewTankRepository(newTestDB(t))

	tanks := []models.WaterTank{
		{Floor: 1, Room: 1, CurrentLevel: 15, CapacityLiters: 1000},
		{Floor: 1, Room: 2, CurrentLevel: 45, CapacityLiters: 1000},
		{Floor: 2, Room: 1, CurrentLevel: 90, CapacityLiters: 2000, RoomNumber: strPtr("201")},
	}
	for i := range tanks {
		require.NoError(t, repo.Create(ctx, &tanks[i]))
		assert.Len(t, tanks[i].ID, 36)
	}

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "201", *all[2].RoomNumber)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	avg, err := repo.AverageLevel(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, avg, 1e-9)

	critical, err := repo.CountBelow(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), critical)

	require.NoError(t, repo.UpdateLevel(ctx, tanks[0].ID, 70))
	got, err := repo.FindByID(ctx, tanks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 70.0, got.CurrentLevel)

	assert.ErrorIs(t, repo.UpdateLevel(ctx, "missing", 10), gorm.ErrRecordNotFound)
	require.NoError(t, repo.Delete(ctx, tanks[1].ID))
	assert.ErrorIs(t, repo.Delete(ctx, tanks[1].ID), gorm.ErrRecordNotFound)
	_, err = repo.FindByID(ctx, tanks[1].ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAverageLevelWithoutTanks(t *testing.T) {
	avg, err := NewTankRepository(newTestDB(t)).AverageLevel(context.Background())
	require.NoError(t, err)
	assert.Zero(t, avg)
}

func TestTruckRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewTruckRepository(newTestDB(t))
	now := time.Date(2024, time.March, 9, 12, 0, 0, 0, time.UTC)

	trucks := []models.WaterTruck{
		{TruckNumber: "TRK-001", ArrivalDate: now.AddDate(0, 0, -3), Status: models.TruckDelivered, WaterDeliveredLiters: 8000},
		{TruckNumber: "TRK-002", ArrivalDate: now.AddDate(0, 0, -10), Status: models.TruckDelivered, WaterDeliveredLiters: 8000},
		{TruckNumber: "TRK-003", ArrivalDate: now.AddDate(0, 0, 2), Status: models.TruckScheduled},
		{TruckNumber: "TRK-004", ArrivalDate: now.AddDate(0, 0, 1), Status: models.TruckScheduled},
	}
	for i := range trucks {
		require.NoError(t, repo.Create(ctx, &trucks[i]))
	}

	next, err := repo.NextScheduled(ctx, now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "TRK-004", next.TruckNumber)

	none, err := repo.NextScheduled(ctx, now.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Nil(t, none)

	delivered, err := repo.CountDeliveredSince(ctx, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, int64(1), delivered)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "TRK-003", all[0].TruckNumber)
}

func TestAlertRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAlertRepository(newTestDB(t))
	tankID := "tank-1"

	older := models.WaterAlert{AlertType: models.AlertLow, Message: "low", TankID: &tankID, CreatedAt: time.Now().Add(-time.Hour)}
	newer := models.WaterAlert{AlertType: models.AlertCritical, Message: "critical", TankID: &tankID}
	require.NoError(t, repo.Create(ctx, &older))
	require.NoError(t, repo.Create(ctx, &newer))

	latest, err := repo.LatestActiveForTank(ctx, tankID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, models.AlertCritical, latest.AlertType)

	resolved, err := repo.Resolve(ctx, newer.ID)
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)

	active, err := repo.FindAll(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, older.ID, active[0].ID)

	all, err := repo.FindAll(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	n, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.Resolve(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	none, err := repo.LatestActiveForTank(ctx, "other")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestConsumptionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewConsumptionRepository(newTestDB(t))
	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	tankA, tankB := "tank-a", "tank-b"

	require.NoError(t, repo.CreateBatch(ctx, []models.WaterConsumption{
		{ConsumptionDate: day, LitersConsumed: 100, TankID: &tankA},
		{ConsumptionDate: day.Add(6 * time.Hour), LitersConsumed: 50, TankID: &tankA},
		{ConsumptionDate: day.AddDate(0, 0, 1), LitersConsumed: 300, TankID: &tankA},
		{ConsumptionDate: day.AddDate(0, 0, 1), LitersConsumed: 70, TankID: &tankB},
		{ConsumptionDate: day.AddDate(0, 0, -20), LitersConsumed: 999, TankID: &tankA},
	}))

	count, err := repo.CountConsumption(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	daily, err := repo.DailyTotals(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, []models.DailyConsumption{
		{Date: "2024-03-01", Liters: 150},
		{Date: "2024-03-02", Liters: 370},
	}, daily)

	avg, ok, err := repo.AverageDailyForTank(ctx, tankA, day)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 225.0, avg, 1e-9)

	_, ok, err = repo.AverageDailyForTank(ctx, "unknown", day)
	require.NoError(t, err)
	assert.False(t, ok)
}
