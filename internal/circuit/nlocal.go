package circuit

import "fmt"

// The n-local builders mirror the structure used to approximate small
// unitaries: alternating rotation and entanglement layers, with the
// final rotation layer skipped. Each repetition allocates fresh
// parameter slots.

// rotationPair appends the two-qubit rotation block on (a, b):
// RY/RZ on each qubit, four parameters.
func rotationPair(c *Circuit, a, b int) {
	c.RY(a)
	c.RZ(a)
	c.RY(b)
	c.RZ(b)
}

// TwoLocal builds the 2-qubit n-local ansatz: per repetition, a
// rotation pair block followed by a ping-pong CRX entangler
// (0→1, 1→0, 0→1, 1→0). Eight parameters per repetition.
func TwoLocal(reps int) *Circuit {
	c := New(2)
	for r := 0; r < reps; r++ {
		rotationPair(c, 0, 1)
		c.CRX(0, 1)
		c.CRX(1, 0)
		c.CRX(0, 1)
		c.CRX(1, 0)
	}
	return c
}

// FourLocal builds the 4-qubit n-local ansatz: per repetition, rotation
// pair blocks on (0,1) and (2,3), then the 3-qubit CRX chain entangler
// (a→b, b→c, a→c) placed linearly on (0,1,2) and (1,2,3). Fourteen
// parameters per repetition.
func FourLocal(reps int) *Circuit {
	c := New(4)
	for r := 0; r < reps; r++ {
		rotationPair(c, 0, 1)
		rotationPair(c, 2, 3)
		entangleChain(c, 0, 1, 2)
		entangleChain(c, 1, 2, 3)
	}
	return c
}

func entangleChain(c *Circuit, a, b, d int) {
	c.CRX(a, b)
	c.CRX(b, d)
	c.CRX(a, d)
}

// ControlledUnitary builds a 4-qubit circuit applying inner (a 2-qubit
// circuit) on qubits 2,3 controlled on qubits 0,1 matching the control
// pattern (k1, k2): X gates conjugate the controls wherever k is set,
// reproducing the source construction.
func ControlledUnitary(k1, k2 int, inner *Circuit) (*Circuit, error) {
	if inner.Qubits() != 2 {
		return nil, fmt.Errorf("controlled unitary needs a 2-qubit inner circuit, got %d qubits", inner.Qubits())
	}

	c := New(4)
	if k1 == 1 {
		c.X(0)
	}
	if k2 == 1 {
		c.X(1)
	}

	c.gates = append(c.gates, inner.controlled([]int{2, 3}, []int{0, 1})...)
	c.numParams += inner.NumParams()

	if k1 == 1 {
		c.X(0)
	}
	if k2 == 1 {
		c.X(1)
	}
	return c, nil
}

// BlockAnsatz composes the small n-local builders into a
// block-structured variational circuit. Qubits must be 2, 4 or a
// multiple of 4: groups of four consecutive qubits each receive a
// FourLocal block, and TwoLocal bridge blocks couple the boundary
// qubits of adjacent groups. The 16-qubit instance is the layout of
// record; 2 and 4 degenerate to the single-block builders.
func BlockAnsatz(qubits, reps int) (*Circuit, error) {
	if reps <= 0 {
		return nil, fmt.Errorf("block ansatz needs at least one repetition, got %d", reps)
	}
	switch {
	case qubits == 2:
		return TwoLocal(reps), nil
	case qubits == 4:
		return FourLocal(reps), nil
	case qubits > 4 && qubits%4 == 0:
	default:
		return nil, fmt.Errorf("block ansatz supports 2, 4 or a multiple of 4 qubits, got %d", qubits)
	}

	c := New(qubits)
	for base := 0; base < qubits; base += 4 {
		if err := c.Compose(FourLocal(reps), []int{base, base + 1, base + 2, base + 3}); err != nil {
			return nil, err
		}
	}
	// Bridge blocks across group boundaries: (3,4), (7,8), ...
	for base := 4; base < qubits; base += 4 {
		if err := c.Compose(TwoLocal(reps), []int{base - 1, base}); err != nil {
			return nil, err
		}
	}
	return c, nil
}
