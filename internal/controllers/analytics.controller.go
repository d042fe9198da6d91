package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"aquamonitor/internal/ml"
	"aquamonitor/internal/models"
	"aquamonitor/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	defaultHistoryDays = 30
	maxHistoryDays     = 365
)

type DashboardProvider interface {
	Stats(ctx context.Context) (*models.DashboardStats, error)
	ConsumptionHistory(ctx context.Context, days int) ([]models.DailyConsumption, error)
}

type Forecaster interface {
	ForecastAll(ctx context.Context, opts services.ForecastOptions) ([]models.TankForecast, error)
}

// ModelPredictor is the part of ml.Predictor served over HTTP.
type ModelPredictor interface {
	PredictMap(features map[string]float64) (*ml.PredictionResult, error)
	Status() ml.ModelStatus
}

type Retrainer interface {
	Retrain(ctx context.Context) (*ml.TrainingSummary, error)
}

type AnalyticsController struct {
	dashboard DashboardProvider
	forecast  Forecaster
	predictor ModelPredictor
	trainer   Retrainer
}

func NewAnalyticsController(dashboard DashboardProvider, forecast Forecaster, predictor ModelPredictor, trainer Retrainer) *AnalyticsController {
	return &AnalyticsController{
		dashboard: dashboard,
		forecast:  forecast,
		predictor: predictor,
		trainer:   trainer,
	}
}

// GetDashboard godoc
// @Summary Dashboard statistics
// @Tags analytics
// @Produce json
// @Success 200 {object} map[string]interface{} "Dashboard statistics retrieved successfully"
// @Router /api/analytics/dashboard [get]
func (ac *AnalyticsController) GetDashboard(c *gin.Context) {
	stats, err := ac.dashboard.Stats(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to retrieve dashboard statistics", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Dashboard statistics retrieved successfully", stats)
}

// GetConsumptionHistory godoc
// @Summary Daily consumption totals
// @Tags analytics
// @Produce json
// @Param days query int false "Days of history (1-365)" default(30)
// @Success 200 {object} map[string]interface{} "Consumption history retrieved successfully"
// @Failure 400 {object} map[string]interface{} "Invalid query parameter"
// @Router /api/analytics/consumption [get]
func (ac *AnalyticsController) GetConsumptionHistory(c *gin.Context) {
	days := defaultHistoryDays
	if raw := c.Query("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxHistoryDays {
			respondError(c, http.StatusBadRequest, "Invalid query parameter", errors.New("days must be an integer between 1 and 365"))
			return
		}
		days = v
	}

	history, err := ac.dashboard.ConsumptionHistory(c.Request.Context(), days)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to retrieve consumption history", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Consumption history retrieved successfully", history)
}

// Predict godoc
// @Summary Predict next-day consumption
// @Description Runs the model on an explicit feature map
// @Tags analytics
// @Accept json
// @Produce json
// @Param features body map[string]number true "Feature values keyed by feature name"
// @Success 200 {object} map[string]interface{} "Prediction generated successfully"
// @Failure 400 {object} map[string]interface{} "Invalid features"
// @Failure 503 {object} map[string]interface{} "Model unavailable"
// @Router /api/analytics/predict [post]
func (ac *AnalyticsController) Predict(c *gin.Context) {
	var features map[string]float64
	if err := c.ShouldBindJSON(&features); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid features", err)
		return
	}

	result, err := ac.predictor.PredictMap(features)
	if err != nil {
		respondPredictionError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Prediction generated successfully", result)
}

// GetPredictions godoc
// @Summary Forecast every tank
// @Description Builds features from operational data and predicts tomorrow's consumption per tank
// @Tags analytics
// @Produce json
// @Param days_without_rain query int false "Override days without rain"
// @Param temperature query number false "Override average temperature"
// @Success 200 {object} map[string]interface{} "Predictions generated successfully"
// @Failure 400 {object} map[string]interface{} "Invalid query parameter"
// @Failure 503 {object} map[string]interface{} "Model unavailable"
// @Router /api/analytics/predictions [get]
func (ac *AnalyticsController) GetPredictions(c *gin.Context) {
	var opts services.ForecastOptions
	if raw := c.Query("days_without_rain"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			respondError(c, http.StatusBadRequest, "Invalid query parameter", errors.New("days_without_rain must be a non-negative integer"))
			return
		}
		opts.DaysWithoutRain = &v
	}
	if raw := c.Query("temperature"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid query parameter", err)
			return
		}
		opts.Temperature = &v
	}

	forecasts, err := ac.forecast.ForecastAll(c.Request.Context(), opts)
	if err != nil {
		respondPredictionError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Predictions generated successfully", forecasts)
}

// GetModelStatus godoc
// @Summary Model status
// @Tags analytics
// @Produce json
// @Success 200 {object} map[string]interface{} "Model status retrieved successfully"
// @Router /api/analytics/model/status [get]
func (ac *AnalyticsController) GetModelStatus(c *gin.Context) {
	respondSuccess(c, http.StatusOK, "Model status retrieved successfully", ac.predictor.Status())
}

// TrainModel godoc
// @Summary Retrain the consumption model
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Model trained successfully"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Failure 403 {object} map[string]interface{} "Forbidden"
// @Failure 500 {object} map[string]interface{} "Training failed"
// @Router /api/analytics/model/train [post]
func (ac *AnalyticsController) TrainModel(c *gin.Context) {
	summary, err := ac.trainer.Retrain(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Training failed", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Model trained successfully", summary)
}

func respondPredictionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ml.ErrInvalidFeatures):
		respondError(c, http.StatusBadRequest, "Invalid features", err)
	case errors.Is(err, ml.ErrModelUnavailable):
		respondError(c, http.StatusServiceUnavailable, "Model unavailable", err)
	default:
		respondError(c, http.StatusInternalServerError, "Prediction failed", err)
	}
}
