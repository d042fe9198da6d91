package services

import (
	"context"
	"time"

	"aquamonitor/internal/cache"
	"aquamonitor/internal/explain"
	"aquamonitor/internal/ml"

	log "github.com/sirupsen/logrus"
)

// Analyzer is implemented by explain.Explainer.
type Analyzer interface {
	Analyze(ctx context.Context, nSamples int) (*explain.Result, error)
	Load() bool
	IsLoaded() bool
}

// ExplanationCache is implemented by cache.RedisClient.
type ExplanationCache interface {
	GetExplanation(ctx context.Context, key string) (*explain.Result, bool, error)
	StoreExplanation(ctx context.Context, key string, result *explain.Result, ttl time.Duration) error
	InvalidateExplanations(ctx context.Context) error
}

// CacheRecorder receives cache lookups.
type CacheRecorder interface {
	ObserveCache(hit bool)
}

// ModelStatusProvider reports the served model; ml.Predictor implements it.
type ModelStatusProvider interface {
	Status() ml.ModelStatus
}

// ExplainService runs explainability analyses, caching results per model version. A nil
// cache disables caching.
type ExplainService struct {
	analyzer Analyzer
	cache    ExplanationCache
	models   ModelStatusProvider
	ttl      time.Duration
	recorder CacheRecorder
}

func NewExplainService(analyzer Analyzer, c ExplanationCache, models ModelStatusProvider, ttl time.Duration, recorder CacheRecorder) *ExplainService {
	return &ExplainService{analyzer: analyzer, cache: c, models: models, ttl: ttl, recorder: recorder}
}

func (s *ExplainService) Analyze(ctx context.Context, samples int) (*explain.Result, error) {
	if !s.analyzer.IsLoaded() {
		// A model may have been trained since the explainer was built.
		s.analyzer.Load()
	}

	key, cacheable := s.cacheKey(samples)
	logger := log.WithFields(log.Fields{"component": "explain_service", "samples": samples})
	if cacheable {
		cached, ok, err := s.cache.GetExplanation(ctx, key)
		if err != nil {
			logger.WithError(err).Warn("explanation cache read failed")
		}
		if s.recorder != nil && err == nil {
			s.recorder.ObserveCache(ok)
		}
		if ok {
			return cached, nil
		}
	}

	result, err := s.analyzer.Analyze(ctx, samples)
	if err != nil {
		return nil, err
	}
	// Simulated results are not cached so a later analysis can recover.
	if cacheable && !result.Simulated() {
		if err := s.cache.StoreExplanation(ctx, key, result, s.ttl); err != nil {
			logger.WithError(err).Warn("explanation cache write failed")
		}
	}
	return result, nil
}

// Reload picks up a newly trained model and drops cached analyses of the old one.
func (s *ExplainService) Reload(ctx context.Context) {
	s.analyzer.Load()
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateExplanations(ctx); err != nil {
		log.WithError(err).Warn("failed to invalidate cached explanations")
	}
}

func (s *ExplainService) cacheKey(samples int) (string, bool) {
	if s.cache == nil || s.models == nil {
		return "", false
	}
	st := s.models.Status()
	if st.TrainedDate == nil {
		return "", false
	}
	return cache.ExplanationKey(st.TrainedDate.UTC().Format(time.RFC3339Nano), samples), true
}
