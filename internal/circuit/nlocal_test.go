package circuit

import "testing"

func TestTwoLocal_ParamCount(t *testing.T) {
	for _, reps := range []int{1, 2, 3} {
		c := TwoLocal(reps)
		if c.Qubits() != 2 {
			t.Errorf("TwoLocal(%d): expected 2 qubits, got %d", reps, c.Qubits())
		}
		if c.NumParams() != 8*reps {
			t.Errorf("TwoLocal(%d): expected %d params, got %d", reps, 8*reps, c.NumParams())
		}
		// 4 rotations + 4 entanglers per repetition
		if len(c.Gates()) != 8*reps {
			t.Errorf("TwoLocal(%d): expected %d gates, got %d", reps, 8*reps, len(c.Gates()))
		}
	}
}

func TestTwoLocal_EntanglerPattern(t *testing.T) {
	c := TwoLocal(1)
	gates := c.Gates()

	// Ping-pong entangler after the rotation block: 0->1, 1->0, 0->1, 1->0
	expected := []struct{ control, target int }{
		{0, 1}, {1, 0}, {0, 1}, {1, 0},
	}
	for i, exp := range expected {
		g := gates[4+i]
		if g.Kind != GateRX || len(g.Controls) != 1 {
			t.Fatalf("Entangler %d: expected controlled RX, got %+v", i, g)
		}
		if g.Controls[0] != exp.control || g.Target != exp.target {
			t.Errorf("Entangler %d: expected %d->%d, got %d->%d", i, exp.control, exp.target, g.Controls[0], g.Target)
		}
	}
}

func TestFourLocal_ParamCount(t *testing.T) {
	for _, reps := range []int{1, 2, 3} {
		c := FourLocal(reps)
		if c.Qubits() != 4 {
			t.Errorf("FourLocal(%d): expected 4 qubits, got %d", reps, c.Qubits())
		}
		// 8 rotations + 6 entanglers per repetition
		if c.NumParams() != 14*reps {
			t.Errorf("FourLocal(%d): expected %d params, got %d", reps, 14*reps, c.NumParams())
		}
	}
}

func TestFourLocal_ChainPlacement(t *testing.T) {
	c := FourLocal(1)
	gates := c.Gates()

	if len(gates) != 14 {
		t.Fatalf("Expected 14 gates, got %d", len(gates))
	}

	// Two chains after the 8 rotation gates: (0,1,2) then (1,2,3),
	// each chain a->b, b->c, a->c.
	expected := []struct{ control, target int }{
		{0, 1}, {1, 2}, {0, 2},
		{1, 2}, {2, 3}, {1, 3},
	}
	for i, exp := range expected {
		g := gates[8+i]
		if g.Controls[0] != exp.control || g.Target != exp.target {
			t.Errorf("Chain gate %d: expected %d->%d, got %d->%d", i, exp.control, exp.target, g.Controls[0], g.Target)
		}
	}
}

func TestControlledUnitary(t *testing.T) {
	inner := TwoLocal(1)

	c, err := ControlledUnitary(0, 0, inner)
	if err != nil {
		t.Fatalf("ControlledUnitary failed: %v", err)
	}
	if c.Qubits() != 4 {
		t.Errorf("Expected 4 qubits, got %d", c.Qubits())
	}
	if c.NumParams() != inner.NumParams() {
		t.Errorf("Expected %d params, got %d", inner.NumParams(), c.NumParams())
	}

	// Every inner gate is conditioned on both control qubits and acts
	// on qubits 2,3.
	for i, g := range c.Gates() {
		if g.Target != 2 && g.Target != 3 {
			t.Errorf("Gate %d targets qubit %d, expected 2 or 3", i, g.Target)
		}
		has0, has1 := false, false
		for _, ctl := range g.Controls {
			if ctl == 0 {
				has0 = true
			}
			if ctl == 1 {
				has1 = true
			}
		}
		if !has0 || !has1 {
			t.Errorf("Gate %d missing control qubits: %+v", i, g.Controls)
		}
	}
}

func TestControlledUnitary_XConjugation(t *testing.T) {
	inner := TwoLocal(1)

	c, err := ControlledUnitary(1, 0, inner)
	if err != nil {
		t.Fatalf("ControlledUnitary failed: %v", err)
	}

	gates := c.Gates()
	first, last := gates[0], gates[len(gates)-1]
	if first.Kind != GateX || first.Target != 0 {
		t.Errorf("Expected leading X on qubit 0, got %+v", first)
	}
	if last.Kind != GateX || last.Target != 0 {
		t.Errorf("Expected trailing X on qubit 0, got %+v", last)
	}

	// k2=0 adds no X on qubit 1
	for i, g := range gates {
		if g.Kind == GateX && g.Target == 1 {
			t.Errorf("Unexpected X on qubit 1 at gate %d", i)
		}
	}
}

func TestControlledUnitary_InnerWidthError(t *testing.T) {
	if _, err := ControlledUnitary(0, 0, FourLocal(1)); err == nil {
		t.Error("Expected error for 4-qubit inner circuit")
	}
}

func TestBlockAnsatz_SmallWidths(t *testing.T) {
	c2, err := BlockAnsatz(2, 3)
	if err != nil {
		t.Fatalf("BlockAnsatz(2, 3) failed: %v", err)
	}
	if c2.NumParams() != 24 {
		t.Errorf("Expected 24 params for 2 qubits, got %d", c2.NumParams())
	}

	c4, err := BlockAnsatz(4, 3)
	if err != nil {
		t.Fatalf("BlockAnsatz(4, 3) failed: %v", err)
	}
	if c4.NumParams() != 42 {
		t.Errorf("Expected 42 params for 4 qubits, got %d", c4.NumParams())
	}
}

func TestBlockAnsatz_SixteenQubits(t *testing.T) {
	c, err := BlockAnsatz(16, 2)
	if err != nil {
		t.Fatalf("BlockAnsatz(16, 2) failed: %v", err)
	}
	if c.Qubits() != 16 {
		t.Errorf("Expected 16 qubits, got %d", c.Qubits())
	}

	// 4 FourLocal groups (14 params/rep) + 3 TwoLocal bridges (8 params/rep)
	expected := 2 * (4*14 + 3*8)
	if c.NumParams() != expected {
		t.Errorf("Expected %d params, got %d", expected, c.NumParams())
	}

	// Bridges couple boundary qubits (3,4), (7,8), (11,12) only
	bridgePairs := map[[2]int]bool{}
	for _, g := range c.Gates() {
		if len(g.Controls) != 1 {
			continue
		}
		lo, hi := g.Controls[0], g.Target
		if lo > hi {
			lo, hi = hi, lo
		}
		if hi-lo == 1 && lo%4 == 3 {
			bridgePairs[[2]int{lo, hi}] = true
		}
	}
	for _, pair := range [][2]int{{3, 4}, {7, 8}, {11, 12}} {
		if !bridgePairs[pair] {
			t.Errorf("Expected bridge entanglement on qubits %v", pair)
		}
	}
}

func TestBlockAnsatz_InvalidWidths(t *testing.T) {
	for _, qubits := range []int{0, 1, 3, 5, 6, 10} {
		if _, err := BlockAnsatz(qubits, 1); err == nil {
			t.Errorf("Expected error for %d qubits", qubits)
		}
	}
	if _, err := BlockAnsatz(4, 0); err == nil {
		t.Error("Expected error for zero repetitions")
	}
}
