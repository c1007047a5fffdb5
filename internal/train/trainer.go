package train

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
)

// Trainer drives fixed-step stochastic gradient descent over a
// sampler's parameters. There is no convergence check, no early
// stopping and no adaptive learning rate: a run is exactly Steps
// iterations at a fixed step size. That simplicity is part of the
// design, not an omission.
type Trainer struct {
	Sampler      Sampler
	Shots        int
	BatchSize    int
	LearningRate float64
	EpsilonScale float64

	// OnStep, if set, is invoked after each completed step with the
	// step index, the loss at the unperturbed point and the updated
	// parameter vector. The slice is the trainer's working copy; hooks
	// must not retain or mutate it.
	OnStep func(step int, loss float64, x []float64)

	rng *rand.Rand
}

// NewTrainer creates a trainer with a seeded random source. The RNG
// drives both mini-batch selection and gradient perturbations, so runs
// with the same seed against a deterministic sampler reproduce exactly.
func NewTrainer(sampler Sampler, shots, batchSize int, learningRate, epsilonScale float64, seed int64) *Trainer {
	return &Trainer{
		Sampler:      sampler,
		Shots:        shots,
		BatchSize:    batchSize,
		LearningRate: learningRate,
		EpsilonScale: epsilonScale,
		rng:          rand.New(rand.NewSource(seed)),
	}
}

// Run performs steps iterations of SGD starting from initial and
// returns the final parameter vector along with the loss trace. The
// trace is an accumulator: entries are appended to the trace argument
// (which may be nil), one per step.
//
// On the first sampler failure the run aborts and the partial trace is
// discarded; callers wanting partial results must persist losses from
// an OnStep hook. The initial vector is not mutated.
func (t *Trainer) Run(ctx context.Context, initial []float64, data []uint64, steps int, trace []float64) ([]float64, []float64, error) {
	if len(initial) == 0 {
		return nil, nil, &InvalidInputError{Reason: "empty parameter vector"}
	}
	if len(data) == 0 {
		return nil, nil, &InvalidInputError{Reason: "empty training set"}
	}
	if t.BatchSize <= 0 {
		return nil, nil, &InvalidInputError{Reason: fmt.Sprintf("non-positive batch size %d", t.BatchSize)}
	}
	if t.Shots <= 0 {
		return nil, nil, &InvalidInputError{Reason: fmt.Sprintf("non-positive shot count %d", t.Shots)}
	}

	x := make([]float64, len(initial))
	copy(x, initial)

	batch := make([]uint64, t.BatchSize)

	for step := 0; step < steps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		// Mini-batch: uniform with replacement.
		for i := range batch {
			batch[i] = data[t.rng.Intn(len(data))]
		}

		grad, loss, err := EstimateGradient(ctx, x, batch, t.Sampler, t.Shots, t.EpsilonScale, t.rng)
		if err != nil {
			return nil, nil, err
		}

		trace = append(trace, loss)
		for i := range x {
			x[i] -= t.LearningRate * grad[i]
		}

		if t.OnStep != nil {
			t.OnStep(step, loss, x)
		}

		if step%50 == 0 {
			slog.Debug("Training step", "step", step, "loss", loss)
		}
	}

	return x, trace, nil
}
