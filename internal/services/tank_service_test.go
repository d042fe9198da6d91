package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"aquamonitor/internal/models"
	"aquamonitor/internal/repository/mocks"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2024, time.March, 9, 8, 30, 0, 0, time.UTC) // a Saturday

var thresholds = AlertThresholds{Critical: 20, Low: 40}

type fakePublisher struct {
	published []*models.WaterAlert
	err       error
}

func (p *fakePublisher) PublishAlert(_ context.Context, alert *models.WaterAlert, _ *models.WaterTank) error {
	p.published = append(p.published, alert)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

type fakeAlertRecorder struct {
	alerts    []string
	publishes []error
}

func (r *fakeAlertRecorder) ObserveAlert(t string)    { r.alerts = append(r.alerts, t) }
func (r *fakeAlertRecorder) ObservePublish(err error) { r.publishes = append(r.publishes, err) }

type tankServiceFixture struct {
	tanks       *mocks.MockTankRepository
	alerts      *mocks.MockAlertRepository
	consumption *mocks.MockConsumptionRepository
	publisher   *fakePublisher
	recorder    *fakeAlertRecorder
	service     *TankService
}

func newTankServiceFixture() *tankServiceFixture {
	f := &tankServiceFixture{
		tanks:       new(mocks.MockTankRepository),
		alerts:      new(mocks.MockAlertRepository),
		consumption: new(mocks.MockConsumptionRepository),
		publisher:   &fakePublisher{},
		recorder:    &fakeAlertRecorder{},
	}
	f.service = NewTankService(f.tanks, f.alerts, f.consumption, f.publisher, thresholds, clockwork.NewFakeClockAt(now), f.recorder)
	return f
}

func TestAlertThresholdsTier(t *testing.T) {
	assert.Equal(t, models.AlertCritical, thresholds.Tier(19.9))
	assert.Equal(t, models.AlertLow, thresholds.Tier(20))
	assert.Equal(t, models.AlertLow, thresholds.Tier(39.9))
	assert.Equal(t, models.AlertNormal, thresholds.Tier(40))
}

func TestUpdateLevelRaisesCriticalAlert(t *testing.T) {
	f := newTankServiceFixture()
	tank := &models.WaterTank{ID: "t1", Floor: 2, Room: 3, CurrentLevel: 50, CapacityLiters: 1000}

	f.tanks.On("FindByID", mock.Anything, "t1").Return(tank, nil)
	f.tanks.On("UpdateLevel", mock.Anything, "t1", 15.0).Return(nil)
	f.consumption.On("Create", mock.Anything, mock.MatchedBy(func(c *models.WaterConsumption) bool {
		return c.LitersConsumed == 350 && *c.TankID == "t1" && c.ConsumptionDate.Equal(now)
	})).Return(nil)
	f.alerts.On("Create", mock.Anything, mock.AnythingOfType("*models.WaterAlert")).Return(nil)

	res, err := f.service.UpdateLevel(context.Background(), "t1", 15)
	require.NoError(t, err)

	assert.Equal(t, 15.0, res.Tank.CurrentLevel)
	assert.Equal(t, 350.0, res.ConsumedLiters)
	require.NotNil(t, res.Alert)
	assert.Equal(t, models.AlertCritical, res.Alert.AlertType)
	assert.Equal(t, "Critical water level in tank on floor 2, room 3: 15.0%", res.Alert.Message)
	assert.Len(t, f.publisher.published, 1)
	assert.Equal(t, []string{models.AlertCritical}, f.recorder.alerts)
	f.tanks.AssertExpectations(t)
	f.consumption.AssertExpectations(t)
	f.alerts.AssertExpectations(t)
}

func TestUpdateLevelWithinSameTierRaisesNothing(t *testing.T) {
	f := newTankServiceFixture()
	tank := &models.WaterTank{ID: "t1", CurrentLevel: 35, CapacityLiters: 1000}

	f.tanks.On("FindByID", mock.Anything, "t1").Return(tank, nil)
	f.tanks.On("UpdateLevel", mock.Anything, "t1", 30.0).Return(nil)
	f.consumption.On("Create", mock.Anything, mock.Anything).Return(nil)

	res, err := f.service.UpdateLevel(context.Background(), "t1", 30)
	require.NoError(t, err)
	assert.Nil(t, res.Alert)
	f.alerts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateLevelRefillRecordsNoConsumption(t *testing.T) {
	f := newTankServiceFixture()
	tank := &models.WaterTank{ID: "t1", CurrentLevel: 10, CapacityLiters: 1000}

	f.tanks.On("FindByID", mock.Anything, "t1").Return(tank, nil)
	f.tanks.On("UpdateLevel", mock.Anything, "t1", 95.0).Return(nil)

	res, err := f.service.UpdateLevel(context.Background(), "t1", 95)
	require.NoError(t, err)
	assert.Zero(t, res.ConsumedLiters)
	assert.Nil(t, res.Alert)
	f.consumption.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateLevelPublishFailureIsNotFatal(t *testing.T) {
	f := newTankServiceFixture()
	f.publisher.err = errors.New("broker down")
	tank := &models.WaterTank{ID: "t1", CurrentLevel: 45, CapacityLiters: 1000}

	f.tanks.On("FindByID", mock.Anything, "t1").Return(tank, nil)
	f.tanks.On("UpdateLevel", mock.Anything, "t1", 30.0).Return(nil)
	f.consumption.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.alerts.On("Create", mock.Anything, mock.Anything).Return(nil)

	res, err := f.service.UpdateLevel(context.Background(), "t1", 30)
	require.NoError(t, err)
	require.NotNil(t, res.Alert)
	assert.Equal(t, models.AlertLow, res.Alert.AlertType)
	assert.Equal(t, []error{f.publisher.err}, f.recorder.publishes)
}

func TestUpdateLevelErrors(t *testing.T) {
	t.Run("invalid level", func(t *testing.T) {
		for _, level := range []float64{-1, 101, math.NaN(), math.Inf(1), math.Inf(-1)} {
			f := newTankServiceFixture()
			_, err := f.service.UpdateLevel(context.Background(), "t1", level)
			assert.ErrorIs(t, err, ErrInvalidLevel, "level %v", level)
			f.tanks.AssertNotCalled(t, "FindByID", mock.Anything, "t1")
		}
	})

	t.Run("unknown tank", func(t *testing.T) {
		f := newTankServiceFixture()
		f.tanks.On("FindByID", mock.Anything, "nope").Return(nil, gorm.ErrRecordNotFound)
		_, err := f.service.UpdateLevel(context.Background(), "nope", 50)
		assert.ErrorIs(t, err, ErrTankNotFound)
	})

	t.Run("consumption write failure", func(t *testing.T) {
		f := newTankServiceFixture()
		f.tanks.On("FindByID", mock.Anything, "t1").Return(&models.WaterTank{ID: "t1", CurrentLevel: 80, CapacityLiters: 500}, nil)
		f.tanks.On("UpdateLevel", mock.Anything, "t1", 70.0).Return(nil)
		f.consumption.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))
		_, err := f.service.UpdateLevel(context.Background(), "t1", 70)
		assert.ErrorContains(t, err, "record consumption")
	})
}
