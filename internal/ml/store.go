package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gonum.org/v1/gonum/mat"
)

// ModelFormatVersion is bumped whenever SavedModel changes shape.
const ModelFormatVersion = 1

// LayerState is the serialized form of a Layer.
type LayerState struct {
	Inputs  int       `json:"inputs"`
	Outputs int       `json:"outputs"`
	Weights []float64 `json:"weights"`
	Biases  []float64 `json:"biases"`
}

// ModelState is the serialized form of a Network.
type ModelState struct {
	Architecture string        `json:"architecture"`
	Config       NetworkConfig `json:"config"`
	Layers       []LayerState  `json:"layers"`
}

// SavedModel is the persisted model document.
type SavedModel struct {
	FormatVersion int            `json:"format_version"`
	FeatureNames  []string       `json:"feature_names"`
	Model         ModelState     `json:"model"`
	Scaler        StandardScaler `json:"scaler"`
	IsTrained     bool           `json:"is_trained"`
	TrainedDate   time.Time      `json:"trained_date"`
}

// State captures the network weights.
func (n *Network) State() ModelState {
	layers := make([]LayerState, len(n.Layers))
	for i, l := range n.Layers {
		r, c := l.W.Dims()
		layers[i] = LayerState{
			Inputs:  r,
			Outputs: c,
			Weights: append([]float64(nil), mat.DenseCopyOf(l.W).RawMatrix().Data...),
			Biases:  append([]float64(nil), l.B...),
		}
	}
	return ModelState{
		Architecture: n.cfg.Architecture(n.InputSize()),
		Config:       n.cfg,
		Layers:       layers,
	}
}

// NetworkFromState rebuilds a Network, validating every layer shape.
func NetworkFromState(s ModelState) (*Network, error) {
	if len(s.Layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrModelFormat)
	}
	layers := make([]Layer, len(s.Layers))
	for i, ls := range s.Layers {
		if ls.Inputs <= 0 || ls.Outputs <= 0 ||
			len(ls.Weights) != ls.Inputs*ls.Outputs || len(ls.Biases) != ls.Outputs {
			return nil, fmt.Errorf("%w: layer %d has inconsistent shape", ErrModelFormat, i)
		}
		if i > 0 && ls.Inputs != s.Layers[i-1].Outputs {
			return nil, fmt.Errorf("%w: layer %d does not connect to layer %d", ErrModelFormat, i, i-1)
		}
		layers[i] = Layer{
			W: mat.NewDense(ls.Inputs, ls.Outputs, append([]float64(nil), ls.Weights...)),
			B: append([]float64(nil), ls.Biases...),
		}
	}
	if s.Layers[len(s.Layers)-1].Outputs != 1 {
		return nil, fmt.Errorf("%w: output layer must have one unit", ErrModelFormat)
	}
	return &Network{
		Layers: layers,
		cfg:    s.Config,
		rng:    rand.New(rand.NewPCG(s.Config.Seed, s.Config.Seed+1)),
	}, nil
}

// ModelStore reads and writes the model document at a single path.
type ModelStore struct {
	path string
}

func NewModelStore(path string) *ModelStore {
	return &ModelStore{path: path}
}

func (s *ModelStore) Path() string {
	return s.path
}

// Exists reports whether a model file is present.
func (s *ModelStore) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir()
}

// Save writes the document to a temporary file next to the target and renames it into place.
func (s *ModelStore) Save(m *SavedModel) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp model file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		tmp.Close()
		return fmt.Errorf("encode model: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename model file: %w", err)
	}
	return nil
}

// Load reads and validates the document.
func (s *ModelStore) Load() (*SavedModel, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m SavedModel
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelFormat, err)
	}
	if m.FormatVersion != ModelFormatVersion {
		return nil, fmt.Errorf("%w: version %d, expected %d", ErrModelFormat, m.FormatVersion, ModelFormatVersion)
	}
	if !slices.Equal(m.FeatureNames, FeatureNames()) {
		return nil, fmt.Errorf("%w: feature names %v do not match schema", ErrModelFormat, m.FeatureNames)
	}
	if !m.Scaler.Fitted() || len(m.Scaler.Mean) != NumFeatures {
		return nil, fmt.Errorf("%w: scaler is not fitted for %d features", ErrModelFormat, NumFeatures)
	}
	if !m.IsTrained {
		return nil, fmt.Errorf("%w: model is not marked as trained", ErrModelFormat)
	}
	return &m, nil
}

// LoadArtifacts loads the document and rebuilds the network from it.
func (s *ModelStore) LoadArtifacts() (*Network, *StandardScaler, *SavedModel, error) {
	m, err := s.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	net, err := NetworkFromState(m.Model)
	if err != nil {
		return nil, nil, nil, err
	}
	if net.InputSize() != NumFeatures {
		return nil, nil, nil, fmt.Errorf("%w: network expects %d inputs", ErrModelFormat, net.InputSize())
	}
	scaler := m.Scaler
	return net, &scaler, m, nil
}

// IsNotExist reports whether err means there is no model file yet.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
