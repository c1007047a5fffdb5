package train

import (
	"context"
	"fmt"
	"math"
	"math/rand"
)

// EstimateGradient produces a stochastic finite-difference gradient
// estimate at x together with the loss at the unperturbed point.
//
// One perturbation vector is drawn per call, each component uniform in
// [0, 1) scaled by epsScale*2π, and the sampler is queried three times:
// at x+ε, x−ε and x. The three samples are independent draws of shots
// measurements each; sampling noise is deliberately not shared across
// them.
//
// The returned gradient is (NLL₊ − NLL₋)/2 · ε component-wise: the
// scalar central difference multiplied by the whole perturbation
// vector. This is a simultaneous-perturbation-style estimate, not a
// per-coordinate gradient, and the formula is kept exactly as the
// source system computed it.
func EstimateGradient(ctx context.Context, x []float64, batch []uint64, sampler Sampler, shots int, epsScale float64, rng *rand.Rand) ([]float64, float64, error) {
	if len(x) == 0 {
		return nil, 0, &InvalidInputError{Reason: "empty parameter vector"}
	}
	if len(batch) == 0 {
		return nil, 0, &InvalidInputError{Reason: "empty batch"}
	}
	if shots <= 0 {
		return nil, 0, &InvalidInputError{Reason: fmt.Sprintf("non-positive shot count %d", shots)}
	}

	eps := make([]float64, len(x))
	plus := make([]float64, len(x))
	minus := make([]float64, len(x))
	for i := range x {
		eps[i] = rng.Float64() * epsScale * 2 * math.Pi
		plus[i] = x[i] + eps[i]
		minus[i] = x[i] - eps[i]
	}

	nllPlus, err := sampleNLL(ctx, sampler, plus, batch, shots)
	if err != nil {
		return nil, 0, err
	}
	nllMinus, err := sampleNLL(ctx, sampler, minus, batch, shots)
	if err != nil {
		return nil, 0, err
	}
	nllAt, err := sampleNLL(ctx, sampler, x, batch, shots)
	if err != nil {
		return nil, 0, err
	}

	diff := (nllPlus - nllMinus) / 2
	grad := make([]float64, len(x))
	for i := range grad {
		grad[i] = diff * eps[i]
	}

	return grad, nllAt, nil
}

func sampleNLL(ctx context.Context, sampler Sampler, x []float64, batch []uint64, shots int) (float64, error) {
	counts, err := sampler.Sample(ctx, x, shots)
	if err != nil {
		return 0, err
	}
	return NLL(counts, batch, shots)
}
