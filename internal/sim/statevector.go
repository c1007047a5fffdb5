package sim

import "math"

// StateVector holds the 2^n complex amplitudes of an n-qubit register.
// Bit i of an amplitude index is qubit i.
type StateVector struct {
	amps   []complex128
	qubits int
}

// NewStateVector creates the |0...0> state on the given number of qubits.
func NewStateVector(qubits int) *StateVector {
	amps := make([]complex128, 1<<uint(qubits))
	amps[0] = 1
	return &StateVector{amps: amps, qubits: qubits}
}

// Qubits returns the register width.
func (s *StateVector) Qubits() int { return s.qubits }

// controlMask builds the bitmask that must be fully set for a
// controlled gate to act on an amplitude index.
func controlMask(controls []int) uint64 {
	var mask uint64
	for _, c := range controls {
		mask |= 1 << uint(c)
	}
	return mask
}

// apply2x2 applies a single-qubit gate matrix [[a, b], [c, d]] to the
// target qubit, restricted to amplitude pairs where all control bits
// are set.
func (s *StateVector) apply2x2(target int, controls []int, a, b, c, d complex128) {
	bit := uint64(1) << uint(target)
	ctl := controlMask(controls)
	n := uint64(len(s.amps))
	for i := uint64(0); i < n; i++ {
		if i&bit != 0 || i&ctl != ctl {
			continue
		}
		j := i | bit
		lo, hi := s.amps[i], s.amps[j]
		s.amps[i] = a*lo + b*hi
		s.amps[j] = c*lo + d*hi
	}
}

// ApplyX applies a (controlled) Pauli-X on target.
func (s *StateVector) ApplyX(target int, controls []int) {
	bit := uint64(1) << uint(target)
	ctl := controlMask(controls)
	n := uint64(len(s.amps))
	for i := uint64(0); i < n; i++ {
		if i&bit != 0 || i&ctl != ctl {
			continue
		}
		j := i | bit
		s.amps[i], s.amps[j] = s.amps[j], s.amps[i]
	}
}

// ApplyRX applies a (controlled) X-rotation by theta on target.
func (s *StateVector) ApplyRX(target int, theta float64, controls []int) {
	cos := complex(math.Cos(theta/2), 0)
	isin := complex(0, -math.Sin(theta/2))
	s.apply2x2(target, controls, cos, isin, isin, cos)
}

// ApplyRY applies a (controlled) Y-rotation by theta on target.
func (s *StateVector) ApplyRY(target int, theta float64, controls []int) {
	cos := complex(math.Cos(theta/2), 0)
	sin := complex(math.Sin(theta/2), 0)
	s.apply2x2(target, controls, cos, -sin, sin, cos)
}

// ApplyRZ applies a (controlled) Z-rotation by theta on target.
func (s *StateVector) ApplyRZ(target int, theta float64, controls []int) {
	phasePos := complex(math.Cos(theta/2), math.Sin(theta/2))
	phaseNeg := complex(math.Cos(theta/2), -math.Sin(theta/2))
	bit := uint64(1) << uint(target)
	ctl := controlMask(controls)
	n := uint64(len(s.amps))
	for i := uint64(0); i < n; i++ {
		if i&ctl != ctl {
			continue
		}
		if i&bit == 0 {
			s.amps[i] *= phaseNeg
		} else {
			s.amps[i] *= phasePos
		}
	}
}

// Probabilities returns the measurement distribution over basis states.
func (s *StateVector) Probabilities() []float64 {
	probs := make([]float64, len(s.amps))
	for i, a := range s.amps {
		probs[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return probs
}
