// Package observability wires logging and Prometheus metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors. It implements ml.Recorder and
// explain.Recorder.
type Metrics struct {
	Predictions      *prometheus.CounterVec // labels: confidence
	PredictionErrors *prometheus.CounterVec // labels: reason
	TrainingDuration prometheus.Histogram
	TrainScore       prometheus.Gauge
	TestScore        prometheus.Gauge

	ExplainDuration prometheus.Histogram
	ExplainFallback prometheus.Counter
	ExplainCache    *prometheus.CounterVec // labels: result={hit,miss}

	TelemetryMessages *prometheus.CounterVec // labels: outcome={applied,invalid,error}
	AlertsRaised      *prometheus.CounterVec // labels: type
	AlertsPublished   *prometheus.CounterVec // labels: outcome={sent,error}
}

const namespace = "aquamonitor"

func newMetrics() *Metrics {
	return &Metrics{
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Consumption forecasts served, by confidence tier.",
		}, []string{"confidence"}),
		PredictionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_errors_total",
			Help:      "Failed forecasts by reason.",
		}, []string{"reason"}),
		TrainingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "training_duration_seconds",
			Help:      "Duration of a complete model training run.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		TrainScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_train_score",
			Help:      "R² of the served model on its training split.",
		}),
		TestScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_test_score",
			Help:      "R² of the served model on its test split.",
		}),
		ExplainDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "explain_duration_seconds",
			Help:      "Duration of an explainability analysis.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ExplainFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "explain_fallback_total",
			Help:      "Analyses served from the simulated importance table.",
		}),
		ExplainCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "explain_cache_total",
			Help:      "Explainability cache lookups by result.",
		}, []string{"result"}),
		TelemetryMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_messages_total",
			Help:      "MQTT tank level messages by outcome.",
		}, []string{"outcome"}),
		AlertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_raised_total",
			Help:      "Tank alerts created, by type.",
		}, []string{"type"}),
		AlertsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_published_total",
			Help:      "Alert events written to Kafka, by outcome.",
		}, []string{"outcome"}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Predictions,
		m.PredictionErrors,
		m.TrainingDuration,
		m.TrainScore,
		m.TestScore,
		m.ExplainDuration,
		m.ExplainFallback,
		m.ExplainCache,
		m.TelemetryMessages,
		m.AlertsRaised,
		m.AlertsPublished,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid "already registered" panics
// when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func (m *Metrics) ObservePrediction(confidence float64) {
	m.Predictions.WithLabelValues(confidenceLabel(confidence)).Inc()
}

func (m *Metrics) ObservePredictionError(reason string) {
	m.PredictionErrors.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveTraining(d time.Duration, trainScore, testScore float64) {
	m.TrainingDuration.Observe(d.Seconds())
	m.TrainScore.Set(trainScore)
	m.TestScore.Set(testScore)
}

func (m *Metrics) ObserveExplanation(d time.Duration, fallback bool) {
	m.ExplainDuration.Observe(d.Seconds())
	if fallback {
		m.ExplainFallback.Inc()
	}
}

func (m *Metrics) ObserveCache(hit bool) {
	if hit {
		m.ExplainCache.WithLabelValues("hit").Inc()
		return
	}
	m.ExplainCache.WithLabelValues("miss").Inc()
}

func (m *Metrics) ObserveTelemetry(outcome string) {
	m.TelemetryMessages.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAlert(alertType string) {
	m.AlertsRaised.WithLabelValues(alertType).Inc()
}

func (m *Metrics) ObservePublish(err error) {
	if err != nil {
		m.AlertsPublished.WithLabelValues("error").Inc()
		return
	}
	m.AlertsPublished.WithLabelValues("sent").Inc()
}

func confidenceLabel(c float64) string {
	switch c {
	case 0.95:
		return "high"
	case 0.85:
		return "medium"
	default:
		return "low"
	}
}
