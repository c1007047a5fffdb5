package train

import "context"

// Sampler executes a parameterized circuit and returns empirical
// measurement counts over the requested number of shots. A call is
// blocking and potentially expensive (simulated or physical circuit
// execution); implementations must honor ctx for cancellation.
//
// Errors from a Sampler are propagated unchanged to the trainer's
// caller; the trainer never retries.
type Sampler interface {
	Sample(ctx context.Context, x []float64, shots int) (*Counts, error)
}
