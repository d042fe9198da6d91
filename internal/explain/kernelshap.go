package explain

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/combin"
)

// DefaultCoalitionBudget bounds the number of coalitions evaluated per sample. With the
// seven model features every coalition fits in the budget and is enumerated exactly.
const DefaultCoalitionBudget = 2048

// PredictFunc evaluates the model on a batch of already scaled rows.
type PredictFunc func(rows [][]float64) ([]float64, error)

// Attributor computes one attribution per feature for every sample.
type Attributor interface {
	Attribute(ctx context.Context, predict PredictFunc, samples, background [][]float64) ([][]float64, error)
}

// AttributionError marks a failure of the attribution computation itself. Only this error
// sends Analyze down the simulated fallback path.
type AttributionError struct {
	Reason string
	Err    error
}

func (e *AttributionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("attribution failed: %s: %v", e.Reason, e.Err)
	}
	return "attribution failed: " + e.Reason
}

func (e *AttributionError) Unwrap() error {
	return e.Err
}

// KernelSHAP estimates Shapley values by treating the model as a black box: each coalition
// of features keeps the sample's values and takes the rest from the background rows, and a
// weighted linear fit over coalitions recovers each feature's contribution relative to the
// mean background prediction.
type KernelSHAP struct {
	// MaxCoalitions caps coalition evaluations per sample. When 2^M-2 exceeds it, coalitions
	// are sampled from the Shapley kernel instead of enumerated.
	MaxCoalitions int
	Seed          uint64
}

type coalition struct {
	mask   []bool
	weight float64
}

func (k KernelSHAP) Attribute(ctx context.Context, predict PredictFunc, samples, background [][]float64) ([][]float64, error) {
	if len(samples) == 0 || len(background) == 0 {
		return nil, &AttributionError{Reason: "no samples or background rows"}
	}
	m := len(samples[0])
	if m == 0 {
		return nil, &AttributionError{Reason: "samples have no features"}
	}
	for i, row := range samples {
		if len(row) != m {
			return nil, &AttributionError{Reason: fmt.Sprintf("sample %d has %d features, want %d", i, len(row), m)}
		}
	}
	for i, row := range background {
		if len(row) != m {
			return nil, &AttributionError{Reason: fmt.Sprintf("background row %d has %d features, want %d", i, len(row), m)}
		}
	}

	bgPreds, err := predict(background)
	if err != nil {
		return nil, &AttributionError{Reason: "background prediction", Err: err}
	}
	base := mean(bgPreds)
	if !finite(base) {
		return nil, &AttributionError{Reason: "background prediction is not finite"}
	}

	coalitions := k.coalitions(m)
	out := make([][]float64, len(samples))
	for i, x := range samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		phi, err := k.explainOne(predict, x, background, base, coalitions)
		if err != nil {
			return nil, err
		}
		out[i] = phi
	}
	return out, nil
}

func (k KernelSHAP) explainOne(predict PredictFunc, x []float64, background [][]float64, base float64, coalitions []coalition) ([]float64, error) {
	m := len(x)
	fxs, err := predict([][]float64{x})
	if err != nil {
		return nil, &AttributionError{Reason: "sample prediction", Err: err}
	}
	delta := fxs[0] - base
	if m == 1 {
		return []float64{delta}, nil
	}

	// Evaluate every coalition against every background row in one batch.
	rows := make([][]float64, 0, len(coalitions)*len(background))
	for _, c := range coalitions {
		for _, b := range background {
			row := make([]float64, m)
			for j := range row {
				if c.mask[j] {
					row[j] = x[j]
				} else {
					row[j] = b[j]
				}
			}
			rows = append(rows, row)
		}
	}
	preds, err := predict(rows)
	if err != nil {
		return nil, &AttributionError{Reason: "coalition prediction", Err: err}
	}
	if len(preds) != len(rows) {
		return nil, &AttributionError{Reason: fmt.Sprintf("model returned %d predictions for %d rows", len(preds), len(rows))}
	}

	// The last feature is eliminated through the efficiency constraint
	// sum(phi) = f(x) - base, leaving an unconstrained (M-1)-dim weighted least squares.
	n := len(background)
	a := mat.NewDense(m-1, m-1, nil)
	rhs := mat.NewVecDense(m-1, nil)
	z := make([]float64, m-1)
	for ci, c := range coalitions {
		value := mean(preds[ci*n:(ci+1)*n]) - base
		last := boolFloat(c.mask[m-1])
		y := value - last*delta
		for j := 0; j < m-1; j++ {
			z[j] = boolFloat(c.mask[j]) - last
		}
		for r := 0; r < m-1; r++ {
			if z[r] == 0 {
				continue
			}
			rhs.SetVec(r, rhs.AtVec(r)+c.weight*z[r]*y)
			for col := 0; col < m-1; col++ {
				a.Set(r, col, a.At(r, col)+c.weight*z[r]*z[col])
			}
		}
	}

	var sol mat.VecDense
	if err := sol.SolveVec(a, rhs); err != nil {
		return nil, &AttributionError{Reason: "weighted least squares", Err: err}
	}

	phi := make([]float64, m)
	var sum float64
	for j := 0; j < m-1; j++ {
		phi[j] = sol.AtVec(j)
		sum += phi[j]
	}
	phi[m-1] = delta - sum
	for j, v := range phi {
		if !finite(v) {
			return nil, &AttributionError{Reason: fmt.Sprintf("attribution for feature %d is not finite", j)}
		}
	}
	return phi, nil
}

func (k KernelSHAP) coalitions(m int) []coalition {
	budget := k.MaxCoalitions
	if budget <= 0 {
		budget = DefaultCoalitionBudget
	}
	total := (1 << m) - 2
	if m < 31 && total <= budget {
		out := make([]coalition, 0, total)
		for bits := 1; bits <= total; bits++ {
			mask := make([]bool, m)
			size := 0
			for j := 0; j < m; j++ {
				if bits&(1<<j) != 0 {
					mask[j] = true
					size++
				}
			}
			out = append(out, coalition{mask: mask, weight: shapleyKernel(m, size)})
		}
		return out
	}
	return sampleCoalitions(m, budget, k.Seed)
}

// shapleyKernel is the Kernel SHAP weight (M-1) / (C(M,s) s (M-s)).
func shapleyKernel(m, s int) float64 {
	return float64(m-1) / (float64(combin.Binomial(m, s)) * float64(s) * float64(m-s))
}

// sampleCoalitions draws coalition sizes proportional to the total kernel mass of each size,
// (M-1)/(s(M-s)), then a uniform subset of that size. Sampled coalitions carry equal weight.
func sampleCoalitions(m, count int, seed uint64) []coalition {
	rng := rand.New(rand.NewPCG(seed, seed^0x5eed))
	sizeWeights := make([]float64, m-1)
	var total float64
	for s := 1; s < m; s++ {
		sizeWeights[s-1] = float64(m-1) / float64(s*(m-s))
		total += sizeWeights[s-1]
	}

	out := make([]coalition, count)
	for i := range out {
		r := rng.Float64() * total
		size := m - 1
		for s := 1; s < m; s++ {
			r -= sizeWeights[s-1]
			if r <= 0 {
				size = s
				break
			}
		}
		mask := make([]bool, m)
		for _, j := range rng.Perm(m)[:size] {
			mask[j] = true
		}
		out[i] = coalition{mask: mask, weight: 1}
	}
	return out
}

// MeanAbsImportance averages |phi| per feature and normalizes the result to sum to 1.
func MeanAbsImportance(phi [][]float64) ([]float64, error) {
	if len(phi) == 0 {
		return nil, &AttributionError{Reason: "no attributions"}
	}
	m := len(phi[0])
	imp := make([]float64, m)
	for i, row := range phi {
		if len(row) != m {
			return nil, &AttributionError{Reason: fmt.Sprintf("attribution row %d has %d values, want %d", i, len(row), m)}
		}
		for j, v := range row {
			imp[j] += math.Abs(v)
		}
	}
	var total float64
	for j := range imp {
		imp[j] /= float64(len(phi))
		total += imp[j]
	}
	if !finite(total) || total <= 0 {
		return nil, &AttributionError{Reason: "attributions are all zero or not finite"}
	}
	for j := range imp {
		imp[j] /= total
	}
	return imp, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
