package ml

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trainedAt = time.Date(2024, time.March, 9, 8, 30, 0, 0, time.UTC)

type countingSource struct {
	count int64
	err   error
}

func (s countingSource) CountConsumption(context.Context) (int64, error) {
	return s.count, s.err
}

func quickConfig() NetworkConfig {
	cfg := DefaultNetworkConfig()
	cfg.MaxIter = 40
	return cfg
}

func newTestPredictor(t *testing.T, cfg NetworkConfig) (*Predictor, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "trained_model.json")
	p := NewPredictor(NewModelStore(path),
		WithClock(clockwork.NewFakeClockAt(trainedAt)),
		WithNetworkConfig(cfg),
	)
	return p, path
}

func sampleVector() FeatureVector {
	return FeatureVector{
		HistoricalConsumption: 380,
		CurrentLevel:          40,
		DaysWithoutRain:       12,
		AverageTemperature:    29,
		DayOfWeek:             2,
		IsWeekend:             false,
		RecentDeliveries:      1,
	}
}

func TestPredictWithoutModelReturnsUnavailable(t *testing.T) {
	p, _ := newTestPredictor(t, quickConfig())

	result, err := p.Predict(sampleVector())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.False(t, p.IsTrained())
}

func TestTrainProducesGeneralizingModel(t *testing.T) {
	p, path := newTestPredictor(t, DefaultNetworkConfig())

	summary, err := p.Train(context.Background(), countingSource{count: 42})
	require.NoError(t, err)

	assert.Equal(t, 1000, summary.SamplesUsed)
	assert.Equal(t, int64(42), summary.OperationalRecords)
	assert.Equal(t, trainedAt.Format(time.RFC3339), summary.TrainingDate)
	assert.LessOrEqual(t, summary.TrainScore, 1.0)
	assert.LessOrEqual(t, summary.TestScore, 1.0)
	assert.LessOrEqual(t, summary.TestScore, summary.TrainScore+0.05)
	assert.Greater(t, summary.TestScore, 0.5)
	assert.Greater(t, summary.LinearBaselineScore, 0.5, "target is linear in the features")
	assert.Equal(t, summary.TrainScore, Round(summary.TrainScore, 3))
	assert.FileExists(t, path)
	assert.True(t, p.IsTrained())
}

func TestPredictAfterTraining(t *testing.T) {
	p, _ := newTestPredictor(t, quickConfig())
	_, err := p.Train(context.Background(), nil)
	require.NoError(t, err)

	result, err := p.Predict(sampleVector())
	require.NoError(t, err)

	assert.False(t, math.IsNaN(result.PredictedConsumption))
	assert.False(t, math.IsInf(result.PredictedConsumption, 0))
	assert.Equal(t, Round(result.PredictedConsumption, 2), result.PredictedConsumption)
	assert.Equal(t, Confidence(result.PredictedConsumption), result.Confidence)
	assert.Contains(t, []float64{0.95, 0.85, 0.75}, result.Confidence)
	assert.Equal(t, trainedAt.Format(time.RFC3339), result.Timestamp)
}

func TestPredictMapRejectsInvalidPayload(t *testing.T) {
	p, _ := newTestPredictor(t, quickConfig())

	_, err := p.PredictMap(map[string]float64{"current_level": 50})
	assert.ErrorIs(t, err, ErrInvalidFeatures)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p, path := newTestPredictor(t, quickConfig())
	_, err := p.Train(context.Background(), nil)
	require.NoError(t, err)

	before, err := p.Predict(sampleVector())
	require.NoError(t, err)

	reloaded := NewPredictor(NewModelStore(path), WithClock(clockwork.NewFakeClockAt(trainedAt)))
	require.True(t, reloaded.LoadModel())

	after, err := reloaded.Predict(sampleVector())
	require.NoError(t, err)
	assert.Equal(t, before.PredictedConsumption, after.PredictedConsumption)
	assert.Equal(t, before.Confidence, after.Confidence)

	status := reloaded.Status()
	assert.True(t, status.IsTrained)
	assert.True(t, status.ModelOnDisk)
	require.NotNil(t, status.TrainedDate)
	assert.True(t, trainedAt.Equal(*status.TrainedDate))
}

func TestPredictLoadsPersistedModelLazily(t *testing.T) {
	p, path := newTestPredictor(t, quickConfig())
	_, err := p.Train(context.Background(), nil)
	require.NoError(t, err)

	fresh := NewPredictor(NewModelStore(path))
	assert.False(t, fresh.IsTrained())

	_, err = fresh.Predict(sampleVector())
	require.NoError(t, err)
	assert.True(t, fresh.IsTrained())
}

func TestLoadModelFailuresAreNonFatal(t *testing.T) {
	tests := []struct {
		name    string
		content func(t *testing.T) []byte
	}{
		{
			name:    "corrupt payload",
			content: func(t *testing.T) []byte { return []byte("not json at all") },
		},
		{
			name: "unknown format version",
			content: func(t *testing.T) []byte {
				b, err := json.Marshal(SavedModel{FormatVersion: 99, FeatureNames: FeatureNames()})
				require.NoError(t, err)
				return b
			},
		},
		{
			name: "reordered features",
			content: func(t *testing.T) []byte {
				names := FeatureNames()
				names[0], names[1] = names[1], names[0]
				b, err := json.Marshal(SavedModel{
					FormatVersion: ModelFormatVersion,
					FeatureNames:  names,
					Scaler:        StandardScaler{Mean: make([]float64, 7), Scale: make([]float64, 7)},
					IsTrained:     true,
				})
				require.NoError(t, err)
				return b
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "model.json")
			require.NoError(t, os.WriteFile(path, tt.content(t), 0o644))

			p := NewPredictor(NewModelStore(path))
			assert.False(t, p.LoadModel())

			_, err := p.Predict(sampleVector())
			assert.ErrorIs(t, err, ErrModelUnavailable)
		})
	}
}

func TestEnsureTrained(t *testing.T) {
	p, path := newTestPredictor(t, quickConfig())

	first, err := p.EnsureTrained(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusNewlyTrained, first.Status)
	require.NotNil(t, first.Results)

	second, err := NewPredictor(NewModelStore(path)).EnsureTrained(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusLoadedExisting, second.Status)
	assert.Nil(t, second.Results)
}

func TestTrainPropagatesSaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(blocker, []byte("a file, not a directory"), 0o644))

	p := NewPredictor(NewModelStore(filepath.Join(blocker, "model.json")), WithNetworkConfig(quickConfig()))
	_, err := p.Train(context.Background(), nil)
	require.Error(t, err)

	var trainingErr *TrainingError
	assert.False(t, errors.As(err, &trainingErr), "save failures are not training failures")
	assert.Contains(t, err.Error(), "save model")
}

func TestTrainRejectsEmptySampleSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	p := NewPredictor(NewModelStore(path), WithTrainingSamples(0))

	_, err := p.Train(context.Background(), nil)
	var trainingErr *TrainingError
	require.ErrorAs(t, err, &trainingErr)
	assert.Equal(t, "data generation", trainingErr.Stage)
	assert.NoFileExists(t, path)
}

func TestTrainHonoursCancellation(t *testing.T) {
	p, _ := newTestPredictor(t, DefaultNetworkConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Train(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
