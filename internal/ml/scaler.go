package ml

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardizes each column to zero mean and unit variance.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Fit computes per-column mean and population standard deviation. Constant columns get a
// scale of 1 so they pass through centered.
func (s *StandardScaler) Fit(x [][]float64) error {
	if len(x) == 0 {
		return errors.New("scaler: empty input")
	}
	width := len(x[0])
	s.Mean = make([]float64, width)
	s.Scale = make([]float64, width)

	col := make([]float64, len(x))
	for j := 0; j < width; j++ {
		for i, row := range x {
			if len(row) != width {
				return fmt.Errorf("scaler: row %d has %d columns, want %d", i, len(row), width)
			}
			col[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}
	return nil
}

// Transform returns a standardized copy of x.
func (s *StandardScaler) Transform(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		scaled, err := s.TransformRow(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}

// TransformRow standardizes a single row.
func (s *StandardScaler) TransformRow(row []float64) ([]float64, error) {
	if !s.Fitted() {
		return nil, errors.New("scaler: not fitted")
	}
	if len(row) != len(s.Mean) {
		return nil, fmt.Errorf("scaler: got %d columns, want %d", len(row), len(s.Mean))
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

// FitTransform fits on x and returns the standardized x.
func (s *StandardScaler) FitTransform(x [][]float64) ([][]float64, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}

// Fitted reports whether Fit has been called.
func (s *StandardScaler) Fitted() bool {
	return s != nil && len(s.Mean) > 0 && len(s.Mean) == len(s.Scale)
}
