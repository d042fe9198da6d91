package ml

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultSeed keeps synthetic data and training reproducible.
const DefaultSeed uint64 = 42

// TrainingSample is a feature row plus its target.
type TrainingSample struct {
	Features          FeatureVector `json:"features"`
	FutureConsumption float64       `json:"future_consumption"`
}

// GenerateFeatureRows draws n synthetic feature rows in schema order.
//
// historical_consumption ~ N(400,100), current_level ~ U(10,95), days_without_rain ~ U{0..29},
// average_temperature ~ N(25,5), day_of_week ~ U{0..6}, is_weekend ~ Bernoulli(0.5),
// recent_deliveries ~ Poisson(2). Columns are drawn one after another from a single source.
func GenerateFeatureRows(n int, seed uint64) [][]float64 {
	rows, _ := generate(n, seed)
	return rows
}

// GenerateTrainingData draws n samples and derives future_consumption from a fixed linear
// combination of the features plus N(0,20) noise.
func GenerateTrainingData(n int, seed uint64) ([]TrainingSample, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sample count must be positive, got %d", n)
	}
	rows, rng := generate(n, seed)
	noise := distuv.Normal{Mu: 0, Sigma: 20, Src: rng}

	samples := make([]TrainingSample, n)
	for i, row := range rows {
		fv, err := FeatureVectorFromValues(row)
		if err != nil {
			return nil, fmt.Errorf("synthetic row %d: %w", i, err)
		}
		samples[i] = TrainingSample{
			Features:          fv,
			FutureConsumption: syntheticTarget(row) + noise.Rand(),
		}
	}
	return samples, nil
}

func syntheticTarget(row []float64) float64 {
	return row[0]*0.6 +
		(100-row[1])*2 +
		row[2]*1.5 +
		row[3]*3 +
		row[5]*20
}

func generate(n int, seed uint64) ([][]float64, *rand.Rand) {
	rng := rand.New(rand.NewPCG(seed, seed))
	if n <= 0 {
		return nil, rng
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, NumFeatures)
	}
	column := func(col int, draw func() float64) {
		for i := range rows {
			rows[i][col] = draw()
		}
	}

	hist := distuv.Normal{Mu: 400, Sigma: 100, Src: rng}
	level := distuv.Uniform{Min: 10, Max: 95, Src: rng}
	temp := distuv.Normal{Mu: 25, Sigma: 5, Src: rng}
	weekend := distuv.Bernoulli{P: 0.5, Src: rng}
	deliveries := distuv.Poisson{Lambda: 2, Src: rng}

	column(0, hist.Rand)
	column(1, level.Rand)
	column(2, func() float64 { return float64(rng.IntN(30)) })
	column(3, temp.Rand)
	column(4, func() float64 { return float64(rng.IntN(7)) })
	column(5, weekend.Rand)
	column(6, deliveries.Rand)

	return rows, rng
}

// SamplesToMatrix splits samples into a row-major feature matrix and a target slice.
func SamplesToMatrix(samples []TrainingSample) ([][]float64, []float64) {
	x := make([][]float64, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		x[i] = s.Features.Values()
		y[i] = s.FutureConsumption
	}
	return x, y
}
