package ml

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidFeatures is returned when a feature payload does not match FeatureSchema.
var ErrInvalidFeatures = errors.New("invalid features")

// FeatureKind describes how a feature value must be shaped.
type FeatureKind int

const (
	KindFloat FeatureKind = iota
	KindInt
	KindBool
)

// FeatureField describes one column of the model input.
type FeatureField struct {
	Name string
	Kind FeatureKind
	Min  float64
	Max  float64
}

// FeatureSchema is the ordered model input. Training, prediction and explanation all read
// columns in this order; persisted models record the names and are rejected on mismatch.
var FeatureSchema = []FeatureField{
	{Name: "historical_consumption", Kind: KindFloat, Min: math.Inf(-1), Max: math.Inf(1)},
	{Name: "current_level", Kind: KindFloat, Min: 0, Max: 100},
	{Name: "days_without_rain", Kind: KindInt, Min: 0, Max: math.Inf(1)},
	{Name: "average_temperature", Kind: KindFloat, Min: math.Inf(-1), Max: math.Inf(1)},
	{Name: "day_of_week", Kind: KindInt, Min: 0, Max: 6},
	{Name: "is_weekend", Kind: KindBool, Min: 0, Max: 1},
	{Name: "recent_deliveries", Kind: KindInt, Min: 0, Max: math.Inf(1)},
}

// NumFeatures is the width of a feature row.
var NumFeatures = len(FeatureSchema)

// FeatureNames returns the schema names in order.
func FeatureNames() []string {
	names := make([]string, len(FeatureSchema))
	for i, f := range FeatureSchema {
		names[i] = f.Name
	}
	return names
}

// FeatureIndex returns the column index of name, or -1.
func FeatureIndex(name string) int {
	for i, f := range FeatureSchema {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// DisplayName turns "days_without_rain" into "Days Without Rain".
func DisplayName(feature string) string {
	parts := strings.Split(feature, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// FeatureVector is a single model input row.
type FeatureVector struct {
	HistoricalConsumption float64 `json:"historical_consumption"`
	CurrentLevel          float64 `json:"current_level"`
	DaysWithoutRain       int     `json:"days_without_rain"`
	AverageTemperature    float64 `json:"average_temperature"`
	DayOfWeek             int     `json:"day_of_week"`
	IsWeekend             bool    `json:"is_weekend"`
	RecentDeliveries      int     `json:"recent_deliveries"`
}

// Values returns the vector in FeatureSchema order.
func (v FeatureVector) Values() []float64 {
	weekend := 0.0
	if v.IsWeekend {
		weekend = 1
	}
	return []float64{
		v.HistoricalConsumption,
		v.CurrentLevel,
		float64(v.DaysWithoutRain),
		v.AverageTemperature,
		float64(v.DayOfWeek),
		weekend,
		float64(v.RecentDeliveries),
	}
}

// Validate checks every value against its field descriptor.
func (v FeatureVector) Validate() error {
	return validateRow(v.Values())
}

// FeatureVectorFromValues builds a vector from a row in schema order.
func FeatureVectorFromValues(row []float64) (FeatureVector, error) {
	if len(row) != NumFeatures {
		return FeatureVector{}, fmt.Errorf("%w: expected %d values, got %d", ErrInvalidFeatures, NumFeatures, len(row))
	}
	if err := validateRow(row); err != nil {
		return FeatureVector{}, err
	}
	return FeatureVector{
		HistoricalConsumption: row[0],
		CurrentLevel:          row[1],
		DaysWithoutRain:       int(row[2]),
		AverageTemperature:    row[3],
		DayOfWeek:             int(row[4]),
		IsWeekend:             row[5] == 1,
		RecentDeliveries:      int(row[6]),
	}, nil
}

// FeatureVectorFromMap builds a vector from a name-keyed payload. The key set must match
// FeatureSchema exactly.
func FeatureVectorFromMap(m map[string]float64) (FeatureVector, error) {
	var missing, unknown []string
	row := make([]float64, NumFeatures)
	for i, f := range FeatureSchema {
		val, ok := m[f.Name]
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		row[i] = val
	}
	for k := range m {
		if FeatureIndex(k) < 0 {
			unknown = append(unknown, k)
		}
	}
	if len(missing) > 0 {
		return FeatureVector{}, fmt.Errorf("%w: missing %s", ErrInvalidFeatures, strings.Join(missing, ", "))
	}
	if len(unknown) > 0 {
		return FeatureVector{}, fmt.Errorf("%w: unknown %s", ErrInvalidFeatures, strings.Join(unknown, ", "))
	}
	return FeatureVectorFromValues(row)
}

func validateRow(row []float64) error {
	for i, f := range FeatureSchema {
		val := row[i]
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidFeatures, f.Name)
		}
		if val < f.Min || val > f.Max {
			return fmt.Errorf("%w: %s out of range [%g, %g]", ErrInvalidFeatures, f.Name, f.Min, f.Max)
		}
		switch f.Kind {
		case KindInt:
			if val != math.Trunc(val) {
				return fmt.Errorf("%w: %s must be an integer", ErrInvalidFeatures, f.Name)
			}
		case KindBool:
			if val != 0 && val != 1 {
				return fmt.Errorf("%w: %s must be 0 or 1", ErrInvalidFeatures, f.Name)
			}
		}
	}
	return nil
}
