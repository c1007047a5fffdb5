package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/quvar/ansatzfit/internal/circuit"
	"github.com/quvar/ansatzfit/internal/train"
)

// Simulator executes a parameterized circuit on the statevector backend
// and samples measurement outcomes. It implements train.Sampler.
//
// The RNG is injected and seeded so that repeated runs reproduce; a
// Simulator is not safe for concurrent use.
type Simulator struct {
	circ *circuit.Circuit
	rng  *rand.Rand
}

// NewSimulator creates a simulator for the given circuit with a seeded
// shot RNG.
func NewSimulator(c *circuit.Circuit, seed int64) *Simulator {
	return &Simulator{
		circ: c,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// NumParams returns the circuit's trainable parameter count.
func (s *Simulator) NumParams() int { return s.circ.NumParams() }

// Qubits returns the circuit's width.
func (s *Simulator) Qubits() int { return s.circ.Qubits() }

// Sample binds x to the circuit's parameters, evolves |0...0> through
// the gate list and draws shots measurement outcomes.
func (s *Simulator) Sample(ctx context.Context, x []float64, shots int) (*train.Counts, error) {
	if len(x) != s.circ.NumParams() {
		return nil, &train.InvalidInputError{
			Reason: fmt.Sprintf("parameter vector has length %d, circuit expects %d", len(x), s.circ.NumParams()),
		}
	}
	if shots <= 0 {
		return nil, &train.InvalidInputError{Reason: fmt.Sprintf("non-positive shot count %d", shots)}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state := NewStateVector(s.circ.Qubits())
	for _, g := range s.circ.Gates() {
		switch g.Kind {
		case circuit.GateX:
			state.ApplyX(g.Target, g.Controls)
		case circuit.GateRX:
			state.ApplyRX(g.Target, g.BoundAngle(x), g.Controls)
		case circuit.GateRY:
			state.ApplyRY(g.Target, g.BoundAngle(x), g.Controls)
		case circuit.GateRZ:
			state.ApplyRZ(g.Target, g.BoundAngle(x), g.Controls)
		default:
			return nil, fmt.Errorf("unsupported gate %s", g.Kind)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.draw(state, shots)
}

// draw samples shots outcomes by inverse-CDF lookup over the final
// distribution.
func (s *Simulator) draw(state *StateVector, shots int) (*train.Counts, error) {
	probs := state.Probabilities()
	cdf := make([]float64, len(probs))
	var cum float64
	for i, p := range probs {
		cum += p
		cdf[i] = cum
	}

	counts := train.NewCounts(state.Qubits())
	for i := 0; i < shots; i++ {
		// cum, not 1.0: tolerate float drift in the normalization.
		r := s.rng.Float64() * cum
		idx := sort.SearchFloat64s(cdf, r)
		if idx >= len(cdf) {
			idx = len(cdf) - 1
		}
		if err := counts.Add(uint64(idx), 1); err != nil {
			return nil, err
		}
	}
	return counts, nil
}
