package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"aquamonitor/internal/events"
	"aquamonitor/internal/models"
	"aquamonitor/internal/repository"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrTankNotFound = errors.New("tank not found")
	ErrInvalidLevel = errors.New("level must be between 0 and 100")
)

// AlertThresholds are the level percentages below which a tank is critical or low.
type AlertThresholds struct {
	Critical float64
	Low      float64
}

// Tier classifies a level into an alert type.
func (t AlertThresholds) Tier(level float64) string {
	switch {
	case level < t.Critical:
		return models.AlertCritical
	case level < t.Low:
		return models.AlertLow
	default:
		return models.AlertNormal
	}
}

func severity(alertType string) int {
	switch alertType {
	case models.AlertCritical:
		return 2
	case models.AlertLow:
		return 1
	default:
		return 0
	}
}

// AlertRecorder receives alert events, typically Prometheus metrics.
type AlertRecorder interface {
	ObserveAlert(alertType string)
	ObservePublish(err error)
}

// LevelUpdate is the outcome of TankService.UpdateLevel.
type LevelUpdate struct {
	Tank           *models.WaterTank  `json:"tank"`
	Alert          *models.WaterAlert `json:"alert,omitempty"`
	ConsumedLiters float64            `json:"consumed_liters"`
}

// TankService applies level readings: it stores the level, records consumption on drops and
// raises alerts when a tank moves into a worse tier.
type TankService struct {
	tanks       repository.TankRepository
	alerts      repository.AlertRepository
	consumption repository.ConsumptionRepository
	publisher   events.AlertPublisher
	thresholds  AlertThresholds
	clock       clockwork.Clock
	recorder    AlertRecorder
}

func NewTankService(
	tanks repository.TankRepository,
	alerts repository.AlertRepository,
	consumption repository.ConsumptionRepository,
	publisher events.AlertPublisher,
	thresholds AlertThresholds,
	clock clockwork.Clock,
	recorder AlertRecorder,
) *TankService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &TankService{
		tanks:       tanks,
		alerts:      alerts,
		consumption: consumption,
		publisher:   publisher,
		thresholds:  thresholds,
		clock:       clock,
		recorder:    recorder,
	}
}

func (s *TankService) UpdateLevel(ctx context.Context, tankID string, level float64) (*LevelUpdate, error) {
	if math.IsNaN(level) || math.IsInf(level, 0) || level < 0 || level > 100 {
		return nil, ErrInvalidLevel
	}

	tank, err := s.tanks.FindByID(ctx, tankID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTankNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load tank: %w", err)
	}

	previous := tank.CurrentLevel
	if err := s.tanks.UpdateLevel(ctx, tankID, level); err != nil {
		return nil, fmt.Errorf("update level: %w", err)
	}
	tank.CurrentLevel = level
	tank.LastUpdated = s.clock.Now()

	logger := log.WithFields(log.Fields{"component": "tank_service", "tank_id": tankID, "level": level})
	result := &LevelUpdate{Tank: tank}

	if level < previous {
		liters := (previous - level) / 100 * tank.CapacityLiters
		record := &models.WaterConsumption{
			ConsumptionDate: s.clock.Now(),
			LitersConsumed:  liters,
			TankID:          &tank.ID,
		}
		if err := s.consumption.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("record consumption: %w", err)
		}
		result.ConsumedLiters = liters
	}

	tier := s.thresholds.Tier(level)
	if severity(tier) > severity(s.thresholds.Tier(previous)) {
		alert, err := s.raiseAlert(ctx, tank, tier)
		if err != nil {
			return nil, err
		}
		result.Alert = alert
	}

	logger.WithField("previous_level", previous).Info("tank level updated")
	return result, nil
}

func (s *TankService) raiseAlert(ctx context.Context, tank *models.WaterTank, tier string) (*models.WaterAlert, error) {
	alert := &models.WaterAlert{
		AlertType: tier,
		Message:   models.LevelAlertMessage(tank, tier),
		TankID:    &tank.ID,
		CreatedAt: s.clock.Now(),
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}
	if s.recorder != nil {
		s.recorder.ObserveAlert(tier)
	}

	err := s.publisher.PublishAlert(ctx, alert, tank)
	if s.recorder != nil {
		s.recorder.ObservePublish(err)
	}
	if err != nil {
		// The alert is stored; downstream delivery is best effort.
		log.WithError(err).WithField("alert_id", alert.ID).Warn("failed to publish alert")
	}
	return alert, nil
}
