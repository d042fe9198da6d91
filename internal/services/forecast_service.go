package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"aquamonitor/internal/ml"
	"aquamonitor/internal/models"
	"aquamonitor/internal/repository"

	"github.com/jonboulle/clockwork"
)

const (
	historyWindow = 7 * 24 * time.Hour
	// fallbackDailyConsumption is used for tanks without recent history; it matches the
	// mean of the training distribution.
	fallbackDailyConsumption = 400.0

	ForecastNormal   = "normal"
	ForecastWarning  = "warning"
	ForecastCritical = "critical"
)

// ConsumptionPredictor is the part of ml.Predictor the forecast needs.
type ConsumptionPredictor interface {
	Predict(fv ml.FeatureVector) (*ml.PredictionResult, error)
}

// WeatherDefaults supply the features that have no operational source.
type WeatherDefaults struct {
	DaysWithoutRain int
	Temperature     float64
}

// ForecastOptions override the weather defaults for one request.
type ForecastOptions struct {
	DaysWithoutRain *int
	Temperature     *float64
}

// ForecastService assembles per-tank feature vectors from operational data and predicts
// next-day consumption for each tank.
type ForecastService struct {
	tanks       repository.TankRepository
	trucks      repository.TruckRepository
	consumption repository.ConsumptionRepository
	predictor   ConsumptionPredictor
	weather     WeatherDefaults
	clock       clockwork.Clock
}

func NewForecastService(
	tanks repository.TankRepository,
	trucks repository.TruckRepository,
	consumption repository.ConsumptionRepository,
	predictor ConsumptionPredictor,
	weather WeatherDefaults,
	clock clockwork.Clock,
) *ForecastService {
	return &ForecastService{
		tanks:       tanks,
		trucks:      trucks,
		consumption: consumption,
		predictor:   predictor,
		weather:     weather,
		clock:       clock,
	}
}

// FeaturesFor builds the model input for one tank.
func (s *ForecastService) FeaturesFor(ctx context.Context, tank *models.WaterTank, deliveries int, opts ForecastOptions) (ml.FeatureVector, error) {
	now := s.clock.Now()
	historical, ok, err := s.consumption.AverageDailyForTank(ctx, tank.ID, now.Add(-historyWindow))
	if err != nil {
		return ml.FeatureVector{}, fmt.Errorf("consumption history: %w", err)
	}
	if !ok {
		historical = fallbackDailyConsumption
	}

	dwr := s.weather.DaysWithoutRain
	if opts.DaysWithoutRain != nil {
		dwr = *opts.DaysWithoutRain
	}
	temp := s.weather.Temperature
	if opts.Temperature != nil {
		temp = *opts.Temperature
	}

	tomorrow := now.AddDate(0, 0, 1)
	dow := weekdayIndex(tomorrow.Weekday())
	fv := ml.FeatureVector{
		HistoricalConsumption: historical,
		CurrentLevel:          tank.CurrentLevel,
		DaysWithoutRain:       dwr,
		AverageTemperature:    temp,
		DayOfWeek:             dow,
		IsWeekend:             dow >= 5,
		RecentDeliveries:      deliveries,
	}
	return fv, fv.Validate()
}

// ForecastAll predicts next-day consumption for every tank.
func (s *ForecastService) ForecastAll(ctx context.Context, opts ForecastOptions) ([]models.TankForecast, error) {
	tanks, err := s.tanks.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tanks: %w", err)
	}
	now := s.clock.Now()
	deliveries, err := s.trucks.CountDeliveredSince(ctx, now.Add(-historyWindow))
	if err != nil {
		return nil, fmt.Errorf("count deliveries: %w", err)
	}

	forecasts := make([]models.TankForecast, 0, len(tanks))
	for i := range tanks {
		tank := &tanks[i]
		fv, err := s.FeaturesFor(ctx, tank, int(deliveries), opts)
		if err != nil {
			return nil, err
		}
		pred, err := s.predictor.Predict(fv)
		if err != nil {
			return nil, err
		}

		predictedLevel := tank.CurrentLevel
		if tank.CapacityLiters > 0 {
			predictedLevel = math.Max(0, tank.CurrentLevel-pred.PredictedConsumption/tank.CapacityLiters*100)
		}
		forecasts = append(forecasts, models.TankForecast{
			TankID:               tank.ID,
			Floor:                tank.Floor,
			Room:                 tank.Room,
			CurrentLevel:         tank.CurrentLevel,
			PredictedConsumption: pred.PredictedConsumption,
			PredictedLevel:       ml.Round(predictedLevel, 2),
			Confidence:           pred.Confidence,
			AlertLevel:           ForecastAlertLevel(pred.PredictedConsumption, tank.RemainingLiters()),
			PredictionDate:       now.AddDate(0, 0, 1).Format(time.DateOnly),
		})
	}
	return forecasts, nil
}

// ForecastAlertLevel is critical when the predicted consumption exceeds the remaining volume
// and warning when it exceeds half of it.
func ForecastAlertLevel(predicted, remaining float64) string {
	switch {
	case predicted > remaining:
		return ForecastCritical
	case predicted > remaining/2:
		return ForecastWarning
	default:
		return ForecastNormal
	}
}

// weekdayIndex maps Monday..Sunday to 0..6, the convention of the training data.
func weekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}
