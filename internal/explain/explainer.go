// Package explain computes feature attributions for the persisted consumption model and
// turns them into charts and insights.
package explain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"aquamonitor/internal/ml"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

// DefaultSamples keeps Kernel SHAP latency acceptable for an API request.
const DefaultSamples = 50

// ErrModelNotLoaded is returned by Analyze when no persisted model could be loaded.
var ErrModelNotLoaded = errors.New("model not loaded: train the model first")

// Plots holds the base64-encoded PNG charts.
type Plots struct {
	SummaryPlot string `json:"summary_plot"`
	BarPlot     string `json:"bar_plot"`
}

// FeatureImportance is one ranked entry.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
	Rank       int     `json:"rank"`
}

// Result is the outcome of an explainability analysis.
type Result struct {
	Success           bool                `json:"success"`
	Plots             Plots               `json:"plots"`
	Insights          []string            `json:"insights"`
	FeatureImportance []FeatureImportance `json:"feature_importance"`
	Importances       map[string]float64  `json:"importances"`
	AnalysisDate      string              `json:"analysis_date"`
	SamplesAnalyzed   int                 `json:"samples_analyzed"`
	ModelArchitecture string              `json:"model_architecture"`
	FeaturesUsed      []string            `json:"features_used"`
	Note              string              `json:"note,omitempty"`
}

// Simulated reports whether the result came from the fallback table.
func (r *Result) Simulated() bool {
	return r.SamplesAnalyzed == 0 && r.Note != ""
}

// Recorder receives explainer events.
type Recorder interface {
	ObserveExplanation(duration time.Duration, fallback bool)
}

// Explainer analyzes the model persisted in a ModelStore.
type Explainer struct {
	store      *ml.ModelStore
	seed       uint64
	clock      clockwork.Clock
	attributor Attributor
	charts     Charts
	recorder   Recorder

	mu     sync.RWMutex
	net    *ml.Network
	scaler *ml.StandardScaler
	loaded bool
}

// Option configures an Explainer.
type Option func(*Explainer)

func WithAttributor(a Attributor) Option {
	return func(e *Explainer) { e.attributor = a }
}

func WithCharts(c Charts) Option {
	return func(e *Explainer) { e.charts = c }
}

func WithClock(c clockwork.Clock) Option {
	return func(e *Explainer) { e.clock = c }
}

func WithSeed(seed uint64) Option {
	return func(e *Explainer) { e.seed = seed }
}

func WithRecorder(r Recorder) Option {
	return func(e *Explainer) { e.recorder = r }
}

// New builds an Explainer and loads the persisted model. A missing or unreadable model
// leaves it unloaded; Analyze then returns ErrModelNotLoaded.
func New(store *ml.ModelStore, opts ...Option) *Explainer {
	e := &Explainer{
		store: store,
		seed:  ml.DefaultSeed,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.attributor == nil {
		e.attributor = KernelSHAP{Seed: e.seed}
	}
	if e.charts == nil {
		e.charts = NewPlotCharts()
	}
	e.Load()
	return e
}

// Load (re)reads the persisted model.
func (e *Explainer) Load() bool {
	logger := log.WithFields(log.Fields{"component": "explainer", "path": e.store.Path()})
	net, scaler, _, err := e.store.LoadArtifacts()
	if err != nil {
		if ml.IsNotExist(err) {
			logger.Info("no saved model found")
		} else {
			logger.WithError(err).Error("error loading model")
		}
		e.mu.Lock()
		e.loaded = false
		e.mu.Unlock()
		return false
	}

	e.mu.Lock()
	e.net, e.scaler, e.loaded = net, scaler, true
	e.mu.Unlock()
	logger.Info("model loaded")
	return true
}

// IsLoaded reports whether a model is available for analysis.
func (e *Explainer) IsLoaded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loaded
}

// Analyze explains the model on nSamples synthetic rows. Attribution failures yield the
// simulated result; a missing model yields ErrModelNotLoaded; chart or context errors are
// returned as-is.
func (e *Explainer) Analyze(ctx context.Context, nSamples int) (*Result, error) {
	e.mu.RLock()
	net, scaler, loaded := e.net, e.scaler, e.loaded
	e.mu.RUnlock()
	if !loaded {
		return nil, ErrModelNotLoaded
	}
	if nSamples <= 0 {
		return nil, fmt.Errorf("sample count must be positive, got %d", nSamples)
	}

	start := e.clock.Now()
	logger := log.WithFields(log.Fields{"component": "explainer", "samples": nSamples})
	logger.Info("computing SHAP values")

	result, err := e.analyze(ctx, net, scaler, nSamples)
	var attrErr *AttributionError
	if errors.As(err, &attrErr) {
		logger.WithError(err).Warn("SHAP analysis failed, using simulated importances")
		result, err = e.fallback()
	}
	if err != nil {
		return nil, err
	}

	if e.recorder != nil {
		e.recorder.ObserveExplanation(e.clock.Since(start), result.Simulated())
	}
	logger.Info("analysis completed")
	return result, nil
}

func (e *Explainer) analyze(ctx context.Context, net *ml.Network, scaler *ml.StandardScaler, nSamples int) (*Result, error) {
	names := ml.FeatureNames()
	raw := ml.GenerateFeatureRows(nSamples, e.seed)
	scaled, err := scaler.Transform(raw)
	if err != nil {
		return nil, &AttributionError{Reason: "scaling samples", Err: err}
	}

	phi, err := e.attributor.Attribute(ctx, net.Predict, scaled, scaled)
	if err != nil {
		return nil, err
	}
	shares, err := MeanAbsImportance(phi)
	if err != nil {
		return nil, err
	}
	if len(shares) != len(names) {
		return nil, &AttributionError{Reason: fmt.Sprintf("got %d importances for %d features", len(shares), len(names))}
	}

	summary, err := e.charts.SummaryPlot(phi, scaled, names)
	if err != nil {
		return nil, err
	}
	bar, err := e.charts.BarPlot(names, shares, "Feature importance - SHAP", "Mean |SHAP value| (share)")
	if err != nil {
		return nil, err
	}

	importances := make(map[string]float64, len(names))
	for j, name := range names {
		importances[name] = shares[j]
	}
	return &Result{
		Success:           true,
		Plots:             Plots{SummaryPlot: summary, BarPlot: bar},
		Insights:          Insights(importances),
		FeatureImportance: Rank(importances),
		Importances:       importances,
		AnalysisDate:      e.clock.Now().Format(time.RFC3339),
		SamplesAnalyzed:   nSamples,
		ModelArchitecture: ml.ArchitectureName,
		FeaturesUsed:      names,
	}, nil
}

// simulatedImportances is served when attributions cannot be computed.
var simulatedImportances = map[string]float64{
	"historical_consumption": 0.28,
	"current_level":          0.22,
	"days_without_rain":      0.18,
	"average_temperature":    0.14,
	"recent_deliveries":      0.10,
	"is_weekend":             0.05,
	"day_of_week":            0.03,
}

func (e *Explainer) fallback() (*Result, error) {
	names := ml.FeatureNames()
	shares := make([]float64, len(names))
	importances := make(map[string]float64, len(names))
	for j, name := range names {
		shares[j] = simulatedImportances[name]
		importances[name] = shares[j]
	}

	bar, err := e.charts.BarPlot(names, shares, "Feature importance - simulated analysis", "Relative importance")
	if err != nil {
		return nil, err
	}
	return &Result{
		Success:           true,
		Plots:             Plots{SummaryPlot: bar, BarPlot: bar},
		Insights:          Insights(importances),
		FeatureImportance: Rank(importances),
		Importances:       importances,
		AnalysisDate:      e.clock.Now().Format(time.RFC3339),
		SamplesAnalyzed:   0,
		ModelArchitecture: ml.ArchitectureName + " (simulated)",
		FeaturesUsed:      names,
		Note:              "Simulated analysis: SHAP values could not be computed for the current model",
	}, nil
}

// Rank orders importances descending with 1-based ranks; ties keep schema order.
func Rank(importances map[string]float64) []FeatureImportance {
	names := ml.FeatureNames()
	out := make([]FeatureImportance, 0, len(importances))
	for _, name := range names {
		if v, ok := importances[name]; ok {
			out = append(out, FeatureImportance{Feature: name, Importance: v})
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Importance > out[b].Importance })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
