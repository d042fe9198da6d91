package ml

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sajari/regression"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultTrainingSamples is the size of the synthetic training set.
	DefaultTrainingSamples = 1000
	// DefaultTestSize is the fraction of samples held out for the test score.
	DefaultTestSize = 0.2

	// ArchitectureName is reported by Status and the explainability result.
	ArchitectureName = "MLPRegressor"

	StatusLoadedExisting = "loaded_existing"
	StatusNewlyTrained   = "newly_trained"
)

// OperationalSource reports how much real consumption history exists. Training currently
// draws synthetic data only; the count is returned in the summary for visibility.
type OperationalSource interface {
	CountConsumption(ctx context.Context) (int64, error)
}

// Recorder receives predictor events, typically Prometheus metrics.
type Recorder interface {
	ObservePrediction(confidence float64)
	ObservePredictionError(reason string)
	ObserveTraining(duration time.Duration, trainScore, testScore float64)
}

// TrainingSummary is returned by Train.
type TrainingSummary struct {
	TrainScore          float64 `json:"train_score"`
	TestScore           float64 `json:"test_score"`
	SamplesUsed         int     `json:"samples_used"`
	TrainingDate        string  `json:"training_date"`
	LinearBaselineScore float64 `json:"linear_baseline_score"`
	Iterations          int     `json:"iterations"`
	OperationalRecords  int64   `json:"operational_records"`
}

// PredictionResult is returned by Predict.
type PredictionResult struct {
	PredictedConsumption float64 `json:"predicted_consumption"`
	Confidence           float64 `json:"confidence"`
	Timestamp            string  `json:"timestamp"`
}

// EnsureResult tells whether EnsureTrained loaded a model or trained a new one.
type EnsureResult struct {
	Status  string           `json:"status"`
	Message string           `json:"message"`
	Results *TrainingSummary `json:"results,omitempty"`
}

// ModelStatus describes the model currently served.
type ModelStatus struct {
	IsTrained    bool       `json:"is_trained"`
	TrainedDate  *time.Time `json:"trained_date,omitempty"`
	ModelPath    string     `json:"model_path"`
	ModelOnDisk  bool       `json:"model_on_disk"`
	Architecture string     `json:"architecture"`
	Features     []string   `json:"features"`
}

// Predictor owns the consumption model and its scaler.
type Predictor struct {
	store    *ModelStore
	cfg      NetworkConfig
	samples  int
	testSize float64
	seed     uint64
	clock    clockwork.Clock
	recorder Recorder

	// trainMu serializes Train; mu guards the served model.
	trainMu   sync.Mutex
	mu        sync.RWMutex
	net       *Network
	scaler    *StandardScaler
	trained   bool
	trainedAt time.Time
}

// Option configures a Predictor.
type Option func(*Predictor)

func WithClock(c clockwork.Clock) Option {
	return func(p *Predictor) { p.clock = c }
}

func WithNetworkConfig(cfg NetworkConfig) Option {
	return func(p *Predictor) { p.cfg = cfg }
}

func WithTrainingSamples(n int) Option {
	return func(p *Predictor) { p.samples = n }
}

func WithSeed(seed uint64) Option {
	return func(p *Predictor) { p.seed = seed }
}

func WithRecorder(r Recorder) Option {
	return func(p *Predictor) { p.recorder = r }
}

// NewPredictor creates an untrained predictor backed by store. Nothing is loaded until
// Predict, LoadModel or EnsureTrained is called.
func NewPredictor(store *ModelStore, opts ...Option) *Predictor {
	p := &Predictor{
		store:    store,
		cfg:      DefaultNetworkConfig(),
		samples:  DefaultTrainingSamples,
		testSize: DefaultTestSize,
		seed:     DefaultSeed,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Train fits a fresh network on synthetic data and persists it.
func (p *Predictor) Train(ctx context.Context, source OperationalSource) (*TrainingSummary, error) {
	p.trainMu.Lock()
	defer p.trainMu.Unlock()

	start := p.clock.Now()
	logger := log.WithField("component", "predictor")

	var operational int64
	if source != nil {
		n, err := source.CountConsumption(ctx)
		if err != nil {
			logger.WithError(err).Warn("could not count operational consumption records")
		} else {
			operational = n
		}
	}

	logger.Info("generating training data")
	samples, err := GenerateTrainingData(p.samples, p.seed)
	if err != nil {
		return nil, &TrainingError{Stage: "data generation", Err: err}
	}
	x, y := SamplesToMatrix(samples)
	trainX, testX, trainY, testY := splitTrainTest(x, y, p.testSize, rand.New(rand.NewPCG(p.seed, p.seed)))

	logger.Info("scaling features")
	scaler := &StandardScaler{}
	trainScaled, err := scaler.FitTransform(trainX)
	if err != nil {
		return nil, &TrainingError{Stage: "scaling", Err: err}
	}
	testScaled, err := scaler.Transform(testX)
	if err != nil {
		return nil, &TrainingError{Stage: "scaling", Err: err}
	}

	logger.WithField("architecture", p.cfg.Architecture(NumFeatures)).Info("training network")
	net := NewNetwork(NumFeatures, p.cfg)
	if err := net.Fit(ctx, trainScaled, trainY); err != nil {
		return nil, &TrainingError{Stage: "fit", Err: err}
	}

	trainScore, err := net.Score(trainScaled, trainY)
	if err != nil {
		return nil, &TrainingError{Stage: "evaluation", Err: err}
	}
	testScore, err := net.Score(testScaled, testY)
	if err != nil {
		return nil, &TrainingError{Stage: "evaluation", Err: err}
	}

	baseline, err := linearBaseline(trainX, trainY, testX, testY)
	if err != nil {
		logger.WithError(err).Warn("linear baseline failed")
	}

	now := p.clock.Now()
	p.mu.Lock()
	p.net = net
	p.scaler = scaler
	p.trained = true
	p.trainedAt = now
	p.mu.Unlock()

	logger.WithFields(log.Fields{
		"train_score": fmt.Sprintf("%.3f", trainScore),
		"test_score":  fmt.Sprintf("%.3f", testScore),
		"iterations":  net.Iterations,
	}).Info("model trained")

	if err := p.SaveModel(); err != nil {
		return nil, err
	}

	if p.recorder != nil {
		p.recorder.ObserveTraining(p.clock.Since(start), trainScore, testScore)
	}

	return &TrainingSummary{
		TrainScore:          Round(trainScore, 3),
		TestScore:           Round(testScore, 3),
		SamplesUsed:         len(samples),
		TrainingDate:        now.Format(time.RFC3339),
		LinearBaselineScore: Round(baseline, 3),
		Iterations:          net.Iterations,
		OperationalRecords:  operational,
	}, nil
}

// Predict returns the forecast for one feature vector. If no model is in memory the
// persisted one is loaded; ErrModelUnavailable is returned when there is none.
func (p *Predictor) Predict(fv FeatureVector) (*PredictionResult, error) {
	if err := fv.Validate(); err != nil {
		p.observeError("invalid_features")
		return nil, err
	}
	if !p.IsTrained() && !p.LoadModel() {
		p.observeError("model_unavailable")
		return nil, ErrModelUnavailable
	}

	p.mu.RLock()
	row, err := p.scaler.TransformRow(fv.Values())
	if err != nil {
		p.mu.RUnlock()
		p.observeError("scaling")
		return nil, fmt.Errorf("scale features: %w", err)
	}
	pred, err := p.net.PredictRow(row)
	p.mu.RUnlock()
	if err != nil {
		p.observeError("inference")
		return nil, fmt.Errorf("predict: %w", err)
	}
	if math.IsNaN(pred) || math.IsInf(pred, 0) {
		p.observeError("non_finite")
		return nil, fmt.Errorf("predict: model returned %v", pred)
	}

	confidence := Confidence(pred)
	if p.recorder != nil {
		p.recorder.ObservePrediction(confidence)
	}
	return &PredictionResult{
		PredictedConsumption: Round(pred, 2),
		Confidence:           confidence,
		Timestamp:            p.clock.Now().Format(time.RFC3339),
	}, nil
}

// PredictMap validates a name-keyed payload against FeatureSchema and predicts.
func (p *Predictor) PredictMap(features map[string]float64) (*PredictionResult, error) {
	fv, err := FeatureVectorFromMap(features)
	if err != nil {
		p.observeError("invalid_features")
		return nil, err
	}
	return p.Predict(fv)
}

// Confidence is a value-based heuristic, not a statistical interval: lower forecasts get
// a higher label. <200 → 0.95, <500 → 0.85, otherwise 0.75.
func Confidence(prediction float64) float64 {
	switch {
	case prediction < 200:
		return 0.95
	case prediction < 500:
		return 0.85
	default:
		return 0.75
	}
}

// SaveModel persists the in-memory model. Errors are returned to the caller.
func (p *Predictor) SaveModel() error {
	p.mu.RLock()
	if !p.trained || p.net == nil {
		p.mu.RUnlock()
		return ErrModelUnavailable
	}
	doc := &SavedModel{
		FormatVersion: ModelFormatVersion,
		FeatureNames:  FeatureNames(),
		Model:         p.net.State(),
		Scaler:        *p.scaler,
		IsTrained:     p.trained,
		TrainedDate:   p.trainedAt,
	}
	p.mu.RUnlock()

	if err := p.store.Save(doc); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	log.WithField("path", p.store.Path()).Info("model saved")
	return nil
}

// LoadModel replaces the in-memory model with the persisted one. Any failure is logged
// and reported as false.
func (p *Predictor) LoadModel() bool {
	logger := log.WithFields(log.Fields{"component": "predictor", "path": p.store.Path()})
	net, scaler, doc, err := p.store.LoadArtifacts()
	if err != nil {
		if IsNotExist(err) {
			logger.Info("no saved model found")
		} else {
			logger.WithError(err).Error("error loading model")
		}
		return false
	}

	p.mu.Lock()
	p.net = net
	p.scaler = scaler
	p.trained = doc.IsTrained
	p.trainedAt = doc.TrainedDate
	p.mu.Unlock()

	logger.Info("model loaded from file")
	return true
}

// EnsureTrained loads the persisted model, or trains one when none can be loaded.
func (p *Predictor) EnsureTrained(ctx context.Context, source OperationalSource) (*EnsureResult, error) {
	if p.LoadModel() {
		return &EnsureResult{Status: StatusLoadedExisting, Message: "model loaded from file"}, nil
	}

	log.Info("model not found, training a new one")
	summary, err := p.Train(ctx, source)
	if err != nil {
		return nil, err
	}
	return &EnsureResult{Status: StatusNewlyTrained, Message: "model trained successfully", Results: summary}, nil
}

// IsTrained reports whether a model is in memory.
func (p *Predictor) IsTrained() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.trained && p.net != nil && p.scaler != nil
}

// Status describes the served model.
func (p *Predictor) Status() ModelStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	st := ModelStatus{
		IsTrained:    p.trained,
		ModelPath:    p.store.Path(),
		ModelOnDisk:  p.store.Exists(),
		Architecture: fmt.Sprintf("%s (%s)", ArchitectureName, p.cfg.Architecture(NumFeatures)),
		Features:     FeatureNames(),
	}
	if p.trained {
		t := p.trainedAt
		st.TrainedDate = &t
	}
	return st
}

// Store returns the backing model store.
func (p *Predictor) Store() *ModelStore {
	return p.store
}

func (p *Predictor) observeError(reason string) {
	if p.recorder != nil {
		p.recorder.ObservePredictionError(reason)
	}
}

// linearBaseline fits ordinary least squares on raw features and scores it on the test split.
func linearBaseline(trainX [][]float64, trainY []float64, testX [][]float64, testY []float64) (float64, error) {
	r := new(regression.Regression)
	r.SetObserved("future_consumption")
	for i, name := range FeatureNames() {
		r.SetVar(i, name)
	}
	for i, row := range trainX {
		r.Train(regression.DataPoint(trainY[i], row))
	}
	if err := r.Run(); err != nil {
		return 0, err
	}

	preds := make([]float64, len(testX))
	for i, row := range testX {
		v, err := r.Predict(row)
		if err != nil {
			return 0, err
		}
		preds[i] = v
	}
	return rSquared(preds, testY), nil
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}
