package services

import (
	"context"
	"fmt"
	"os"

	"aquamonitor/internal/ml"

	log "github.com/sirupsen/logrus"
)

// ModelTrainer is implemented by ml.Predictor.
type ModelTrainer interface {
	EnsureTrained(ctx context.Context, source ml.OperationalSource) (*ml.EnsureResult, error)
	Train(ctx context.Context, source ml.OperationalSource) (*ml.TrainingSummary, error)
}

const StatusUnavailable = "unavailable"

// EnsureModel runs at startup: it makes sure the model directory exists and loads or trains
// the model. Failures are logged and reported as StatusUnavailable; the service keeps running
// and prediction endpoints answer "model unavailable".
func EnsureModel(ctx context.Context, trainer ModelTrainer, source ml.OperationalSource, modelDir string) string {
	logger := log.WithFields(log.Fields{"component": "model_lifecycle", "dir": modelDir})

	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		logger.WithError(err).Error("cannot create model directory")
		return StatusUnavailable
	}

	res, err := trainer.EnsureTrained(ctx, source)
	if err != nil {
		logger.WithError(err).Error("model initialization failed, running without a model")
		return StatusUnavailable
	}

	entry := logger.WithField("status", res.Status)
	if res.Results != nil {
		entry = entry.WithFields(log.Fields{
			"train_score": res.Results.TrainScore,
			"test_score":  res.Results.TestScore,
		})
	}
	entry.Info(res.Message)
	return res.Status
}

// ModelService retrains on demand and refreshes the explainer.
type ModelService struct {
	trainer ModelTrainer
	source  ml.OperationalSource
	explain *ExplainService
}

func NewModelService(trainer ModelTrainer, source ml.OperationalSource, explain *ExplainService) *ModelService {
	return &ModelService{trainer: trainer, source: source, explain: explain}
}

func (s *ModelService) Retrain(ctx context.Context) (*ml.TrainingSummary, error) {
	summary, err := s.trainer.Train(ctx, s.source)
	if err != nil {
		return nil, fmt.Errorf("retrain model: %w", err)
	}
	if s.explain != nil {
		s.explain.Reload(ctx)
	}
	return summary, nil
}
