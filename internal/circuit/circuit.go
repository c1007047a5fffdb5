package circuit

import "fmt"

// GateKind identifies the gate set: Pauli-X plus the single-qubit
// rotations, each optionally controlled on any number of qubits.
type GateKind int

const (
	GateX GateKind = iota
	GateRX
	GateRY
	GateRZ
)

func (k GateKind) String() string {
	switch k {
	case GateX:
		return "x"
	case GateRX:
		return "rx"
	case GateRY:
		return "ry"
	case GateRZ:
		return "rz"
	default:
		return fmt.Sprintf("gate(%d)", int(k))
	}
}

// Gate is one operation in a circuit. Rotation gates either reference a
// trainable parameter slot (Param >= 0) or carry a fixed angle
// (Param < 0). Controls lists qubits the gate is conditioned on; the
// gate acts only where all control qubits are |1>.
type Gate struct {
	Kind     GateKind
	Target   int
	Controls []int
	Param    int
	Angle    float64
}

// BoundAngle resolves the gate's rotation angle against a bound
// parameter vector.
func (g Gate) BoundAngle(x []float64) float64 {
	if g.Param >= 0 {
		return x[g.Param]
	}
	return g.Angle
}

// Circuit is an ordered gate list over a fixed number of qubits with a
// flat trainable parameter space. It describes structure only;
// execution belongs to a sampler implementation.
type Circuit struct {
	qubits    int
	gates     []Gate
	numParams int
}

// New creates an empty circuit on the given number of qubits.
func New(qubits int) *Circuit {
	return &Circuit{qubits: qubits}
}

// Qubits returns the circuit width.
func (c *Circuit) Qubits() int { return c.qubits }

// NumParams returns the number of trainable parameter slots.
func (c *Circuit) NumParams() int { return c.numParams }

// Gates returns the gate list. Callers must not mutate it.
func (c *Circuit) Gates() []Gate { return c.gates }

// X appends a Pauli-X on target, controlled on the given qubits.
func (c *Circuit) X(target int, controls ...int) {
	c.gates = append(c.gates, Gate{Kind: GateX, Target: target, Controls: controls, Param: -1})
}

// RX appends a trainable X-rotation and returns its parameter slot.
func (c *Circuit) RX(target int, controls ...int) int {
	return c.addRotation(GateRX, target, controls)
}

// RY appends a trainable Y-rotation and returns its parameter slot.
func (c *Circuit) RY(target int, controls ...int) int {
	return c.addRotation(GateRY, target, controls)
}

// RZ appends a trainable Z-rotation and returns its parameter slot.
func (c *Circuit) RZ(target int, controls ...int) int {
	return c.addRotation(GateRZ, target, controls)
}

// CRX appends a trainable X-rotation on target controlled on control.
func (c *Circuit) CRX(control, target int) int {
	return c.addRotation(GateRX, target, []int{control})
}

func (c *Circuit) addRotation(kind GateKind, target int, controls []int) int {
	slot := c.numParams
	c.numParams++
	c.gates = append(c.gates, Gate{Kind: kind, Target: target, Controls: controls, Param: slot})
	return slot
}

// Compose embeds sub on the listed qubits of c, in order: qubits[i] is
// the qubit of c that plays the role of sub's qubit i. The sub-circuit's
// parameter slots are remapped to fresh slots of c, so repeated
// composition of the same builder never aliases parameters.
func (c *Circuit) Compose(sub *Circuit, qubits []int) error {
	if len(qubits) != sub.qubits {
		return fmt.Errorf("compose: got %d qubits for a %d-qubit sub-circuit", len(qubits), sub.qubits)
	}
	for _, q := range qubits {
		if q < 0 || q >= c.qubits {
			return fmt.Errorf("compose: qubit %d out of range [0,%d)", q, c.qubits)
		}
	}

	offset := c.numParams
	for _, g := range sub.gates {
		mapped := Gate{
			Kind:   g.Kind,
			Target: qubits[g.Target],
			Param:  g.Param,
			Angle:  g.Angle,
		}
		if g.Param >= 0 {
			mapped.Param = offset + g.Param
		}
		if len(g.Controls) > 0 {
			mapped.Controls = make([]int, len(g.Controls))
			for i, ctl := range g.Controls {
				mapped.Controls[i] = qubits[ctl]
			}
		}
		c.gates = append(c.gates, mapped)
	}
	c.numParams += sub.numParams
	return nil
}

// controlled maps the circuit's gates onto a host circuit's qubit
// numbering (mapping[i] is the host qubit for qubit i) and conditions
// every gate on the extra control qubits. Parameter slots are returned
// unchanged; the caller accounts for them.
func (c *Circuit) controlled(mapping []int, extraControls []int) []Gate {
	gates := make([]Gate, 0, len(c.gates))
	for _, g := range c.gates {
		mapped := Gate{
			Kind:   g.Kind,
			Target: mapping[g.Target],
			Param:  g.Param,
			Angle:  g.Angle,
		}
		controls := make([]int, 0, len(g.Controls)+len(extraControls))
		for _, ctl := range g.Controls {
			controls = append(controls, mapping[ctl])
		}
		controls = append(controls, extraControls...)
		mapped.Controls = controls
		gates = append(gates, mapped)
	}
	return gates
}
