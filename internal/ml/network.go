package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// NetworkConfig holds the hyperparameters of the consumption regressor.
type NetworkConfig struct {
	HiddenLayers       []int   `json:"hidden_layers"`
	Activation         string  `json:"activation"`
	Solver             string  `json:"solver"`
	LearningRate       string  `json:"learning_rate"`
	LearningRateInit   float64 `json:"learning_rate_init"`
	Beta1              float64 `json:"beta_1"`
	Beta2              float64 `json:"beta_2"`
	Epsilon            float64 `json:"epsilon"`
	Alpha              float64 `json:"alpha"`
	BatchSize          int     `json:"batch_size"`
	MaxIter            int     `json:"max_iter"`
	EarlyStopping      bool    `json:"early_stopping"`
	ValidationFraction float64 `json:"validation_fraction"`
	NIterNoChange      int     `json:"n_iter_no_change"`
	Tol                float64 `json:"tol"`
	Seed               uint64  `json:"random_state"`
}

// DefaultNetworkConfig is a 64-32-16 ReLU network trained with Adam and early stopping.
// LearningRate "adaptive" means Adam's per-parameter step sizes.
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		HiddenLayers:       []int{64, 32, 16},
		Activation:         "relu",
		Solver:             "adam",
		LearningRate:       "adaptive",
		LearningRateInit:   0.001,
		Beta1:              0.9,
		Beta2:              0.999,
		Epsilon:            1e-8,
		Alpha:              0.0001,
		BatchSize:          200,
		MaxIter:            1000,
		EarlyStopping:      true,
		ValidationFraction: 0.2,
		NIterNoChange:      10,
		Tol:                1e-4,
		Seed:               DefaultSeed,
	}
}

// Architecture renders the layer sizes, e.g. "7-64-32-16-1".
func (c NetworkConfig) Architecture(inputs int) string {
	s := fmt.Sprintf("%d", inputs)
	for _, h := range c.HiddenLayers {
		s += fmt.Sprintf("-%d", h)
	}
	return s + "-1"
}

// Layer is a fully connected layer; W is inputs x outputs.
type Layer struct {
	W *mat.Dense
	B []float64
}

// Network is a feed-forward regressor with ReLU hidden layers and an identity output.
type Network struct {
	Layers []Layer

	// Iterations is the number of epochs run by the last Fit.
	Iterations int
	// BestValidationScore is the best R² seen on the early-stopping slice.
	BestValidationScore float64
	// LossCurve holds the training loss per epoch.
	LossCurve []float64

	cfg NetworkConfig
	rng *rand.Rand
}

// NewNetwork builds a network for inputs features with Glorot-uniform initial weights.
func NewNetwork(inputs int, cfg NetworkConfig) *Network {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1))
	sizes := append([]int{inputs}, cfg.HiddenLayers...)
	sizes = append(sizes, 1)

	layers := make([]Layer, len(sizes)-1)
	for l := range layers {
		fanIn, fanOut := sizes[l], sizes[l+1]
		bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
		w := make([]float64, fanIn*fanOut)
		for i := range w {
			w[i] = (rng.Float64()*2 - 1) * bound
		}
		b := make([]float64, fanOut)
		for i := range b {
			b[i] = (rng.Float64()*2 - 1) * bound
		}
		layers[l] = Layer{W: mat.NewDense(fanIn, fanOut, w), B: b}
	}
	return &Network{Layers: layers, cfg: cfg, rng: rng}
}

// InputSize is the number of features the first layer expects.
func (n *Network) InputSize() int {
	if len(n.Layers) == 0 {
		return 0
	}
	r, _ := n.Layers[0].W.Dims()
	return r
}

// Predict evaluates the network on every row of x.
func (n *Network) Predict(x [][]float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, nil
	}
	in, err := toDense(x, n.InputSize())
	if err != nil {
		return nil, err
	}
	acts := n.forward(in)
	out := acts[len(acts)-1]
	preds := make([]float64, len(x))
	for i := range preds {
		preds[i] = out.At(i, 0)
	}
	return preds, nil
}

// PredictRow evaluates a single row.
func (n *Network) PredictRow(row []float64) (float64, error) {
	preds, err := n.Predict([][]float64{row})
	if err != nil {
		return 0, err
	}
	return preds[0], nil
}

// Score returns the coefficient of determination of the predictions on x against y.
func (n *Network) Score(x [][]float64, y []float64) (float64, error) {
	preds, err := n.Predict(x)
	if err != nil {
		return 0, err
	}
	return rSquared(preds, y), nil
}

func rSquared(estimates, values []float64) float64 {
	return stat.RSquaredFrom(estimates, values, nil)
}

// Fit trains the network with minibatch Adam. With early stopping enabled a validation
// slice is held out and the weights with the best validation R² are kept.
func (n *Network) Fit(ctx context.Context, x [][]float64, y []float64) error {
	if len(x) != len(y) {
		return fmt.Errorf("fit: %d rows but %d targets", len(x), len(y))
	}
	if len(x) < 2 {
		return errors.New("fit: need at least 2 samples")
	}

	trainX, trainY := x, y
	var valX [][]float64
	var valY []float64
	if n.cfg.EarlyStopping {
		trainX, valX, trainY, valY = splitTrainTest(x, y, n.cfg.ValidationFraction, n.rng)
		if len(trainX) == 0 || len(valX) < 2 {
			return errors.New("fit: not enough samples for an early-stopping split")
		}
	}

	batch := n.cfg.BatchSize
	if batch <= 0 || batch > len(trainX) {
		batch = len(trainX)
	}

	opt := newAdam(n.Layers, n.cfg)
	idx := make([]int, len(trainX))
	for i := range idx {
		idx[i] = i
	}

	bestLoss := math.Inf(1)
	bestScore := math.Inf(-1)
	var best []Layer
	noImprovement := 0
	n.LossCurve = n.LossCurve[:0]

	for epoch := 0; epoch < n.cfg.MaxIter; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		n.rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		var epochLoss float64
		for start := 0; start < len(idx); start += batch {
			end := min(start+batch, len(idx))
			bx := make([][]float64, 0, end-start)
			by := make([]float64, 0, end-start)
			for _, k := range idx[start:end] {
				bx = append(bx, trainX[k])
				by = append(by, trainY[k])
			}
			in, err := toDense(bx, n.InputSize())
			if err != nil {
				return err
			}
			acts := n.forward(in)
			epochLoss += n.loss(acts[len(acts)-1], by) * float64(len(by))
			gw, gb := n.backward(acts, by)
			opt.step(n.Layers, gw, gb)
		}
		epochLoss /= float64(len(trainX))
		if math.IsNaN(epochLoss) || math.IsInf(epochLoss, 0) {
			return fmt.Errorf("fit: loss diverged at epoch %d", epoch+1)
		}
		n.LossCurve = append(n.LossCurve, epochLoss)
		n.Iterations = epoch + 1

		if n.cfg.EarlyStopping {
			score, err := n.Score(valX, valY)
			if err != nil {
				return err
			}
			if score < bestScore+n.cfg.Tol {
				noImprovement++
			} else {
				noImprovement = 0
			}
			if score > bestScore {
				bestScore = score
				best = cloneLayers(n.Layers)
			}
		} else {
			if epochLoss > bestLoss-n.cfg.Tol {
				noImprovement++
			} else {
				noImprovement = 0
			}
			bestLoss = math.Min(bestLoss, epochLoss)
		}
		if noImprovement > n.cfg.NIterNoChange {
			break
		}
	}

	if n.cfg.EarlyStopping && best != nil {
		n.Layers = best
		n.BestValidationScore = bestScore
	}
	return nil
}

func (n *Network) forward(x *mat.Dense) []*mat.Dense {
	acts := make([]*mat.Dense, len(n.Layers)+1)
	acts[0] = x
	last := len(n.Layers) - 1
	for l, layer := range n.Layers {
		z := &mat.Dense{}
		z.Mul(acts[l], layer.W)
		r, c := z.Dims()
		for i := 0; i < r; i++ {
			row := z.RawRowView(i)
			for j := 0; j < c; j++ {
				row[j] += layer.B[j]
				if l != last && row[j] < 0 {
					row[j] = 0
				}
			}
		}
		acts[l+1] = z
	}
	return acts
}

// loss is half the mean squared error plus the L2 penalty.
func (n *Network) loss(out *mat.Dense, y []float64) float64 {
	var sse float64
	for i, target := range y {
		d := out.At(i, 0) - target
		sse += d * d
	}
	var reg float64
	for _, layer := range n.Layers {
		for _, w := range layer.W.RawMatrix().Data {
			reg += w * w
		}
	}
	b := float64(len(y))
	return sse/(2*b) + n.cfg.Alpha*reg/(2*b)
}

func (n *Network) backward(acts []*mat.Dense, y []float64) ([]*mat.Dense, [][]float64) {
	L := len(n.Layers)
	b := float64(len(y))
	gw := make([]*mat.Dense, L)
	gb := make([][]float64, L)

	out := acts[L]
	delta := mat.NewDense(len(y), 1, nil)
	for i, target := range y {
		delta.Set(i, 0, out.At(i, 0)-target)
	}

	for l := L - 1; l >= 0; l-- {
		w := n.Layers[l].W
		g := &mat.Dense{}
		g.Mul(acts[l].T(), delta)
		reg := &mat.Dense{}
		reg.Scale(n.cfg.Alpha, w)
		g.Add(g, reg)
		g.Scale(1/b, g)
		gw[l] = g

		rows, cols := delta.Dims()
		bias := make([]float64, cols)
		for i := 0; i < rows; i++ {
			for j, d := range delta.RawRowView(i) {
				bias[j] += d
			}
		}
		for j := range bias {
			bias[j] /= b
		}
		gb[l] = bias

		if l == 0 {
			break
		}
		next := &mat.Dense{}
		next.Mul(delta, w.T())
		prev := acts[l]
		r, c := next.Dims()
		for i := 0; i < r; i++ {
			row := next.RawRowView(i)
			act := prev.RawRowView(i)
			for j := 0; j < c; j++ {
				if act[j] <= 0 {
					row[j] = 0
				}
			}
		}
		delta = next
	}
	return gw, gb
}

type adam struct {
	cfg    NetworkConfig
	t      int
	mw, vw [][]float64
	mb, vb [][]float64
}

func newAdam(layers []Layer, cfg NetworkConfig) *adam {
	a := &adam{cfg: cfg}
	for _, layer := range layers {
		size := len(layer.W.RawMatrix().Data)
		a.mw = append(a.mw, make([]float64, size))
		a.vw = append(a.vw, make([]float64, size))
		a.mb = append(a.mb, make([]float64, len(layer.B)))
		a.vb = append(a.vb, make([]float64, len(layer.B)))
	}
	return a
}

func (a *adam) step(layers []Layer, gw []*mat.Dense, gb [][]float64) {
	a.t++
	lr := a.cfg.LearningRateInit * math.Sqrt(1-math.Pow(a.cfg.Beta2, float64(a.t))) /
		(1 - math.Pow(a.cfg.Beta1, float64(a.t)))
	for l, layer := range layers {
		a.update(layer.W.RawMatrix().Data, gw[l].RawMatrix().Data, a.mw[l], a.vw[l], lr)
		a.update(layer.B, gb[l], a.mb[l], a.vb[l], lr)
	}
}

func (a *adam) update(params, grads, m, v []float64, lr float64) {
	for i, g := range grads {
		m[i] = a.cfg.Beta1*m[i] + (1-a.cfg.Beta1)*g
		v[i] = a.cfg.Beta2*v[i] + (1-a.cfg.Beta2)*g*g
		params[i] -= lr * m[i] / (math.Sqrt(v[i]) + a.cfg.Epsilon)
	}
}

func cloneLayers(layers []Layer) []Layer {
	out := make([]Layer, len(layers))
	for i, l := range layers {
		w := mat.DenseCopyOf(l.W)
		out[i] = Layer{W: w, B: append([]float64(nil), l.B...)}
	}
	return out
}

func toDense(x [][]float64, width int) (*mat.Dense, error) {
	data := make([]float64, 0, len(x)*width)
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), width)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(x), width, data), nil
}

// splitTrainTest shuffles with rng and holds out ceil(frac*n) rows.
func splitTrainTest(x [][]float64, y []float64, frac float64, rng *rand.Rand) ([][]float64, [][]float64, []float64, []float64) {
	perm := rng.Perm(len(x))
	nTest := int(math.Ceil(frac * float64(len(x))))
	if nTest >= len(x) {
		nTest = len(x) - 1
	}
	var trainX, testX [][]float64
	var trainY, testY []float64
	for i, k := range perm {
		if i < nTest {
			testX = append(testX, x[k])
			testY = append(testY, y[k])
			continue
		}
		trainX = append(trainX, x[k])
		trainY = append(trainY, y[k])
	}
	return trainX, testX, trainY, testY
}
