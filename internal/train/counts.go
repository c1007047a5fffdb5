package train

import (
	"fmt"
	"strconv"
	"strings"
)

// Counts is a histogram of measured basis states over a fixed number of
// shots. States are indexed by their basis-state integer (bit i of the
// index is qubit i); the bit width is fixed at construction and every
// insert and lookup is validated against it. Rendered bitstrings place
// qubit 0 rightmost.
type Counts struct {
	width int
	total int
	freq  map[uint64]int
}

// NewCounts creates an empty histogram for basis states of the given
// bit width.
func NewCounts(width int) *Counts {
	return &Counts{
		width: width,
		freq:  make(map[uint64]int),
	}
}

// Width returns the fixed bit width of the recorded states.
func (c *Counts) Width() int { return c.width }

// Total returns the number of shots recorded so far.
func (c *Counts) Total() int { return c.total }

// Add records n observations of the given basis state.
func (c *Counts) Add(state uint64, n int) error {
	if err := c.checkState(state); err != nil {
		return err
	}
	if n < 0 {
		return &InvalidInputError{Reason: fmt.Sprintf("negative count %d", n)}
	}
	c.freq[state] += n
	c.total += n
	return nil
}

// Get returns the number of observations of the given state, zero if
// the state was never observed. A state outside the width is a caller
// bug surfaced via checkState in Add and NLL; Get itself stays total.
func (c *Counts) Get(state uint64) int {
	return c.freq[state]
}

// States returns the distinct observed basis states in unspecified order.
func (c *Counts) States() []uint64 {
	states := make([]uint64, 0, len(c.freq))
	for s := range c.freq {
		states = append(states, s)
	}
	return states
}

func (c *Counts) checkState(state uint64) error {
	if c.width < 64 && state >= 1<<uint(c.width) {
		return &InvalidInputError{
			Reason: fmt.Sprintf("state %d exceeds %d-bit width", state, c.width),
		}
	}
	return nil
}

// FormatBasisState renders a basis-state index as a fixed-width binary
// string with qubit 0 rightmost.
func FormatBasisState(state uint64, width int) string {
	s := strconv.FormatUint(state, 2)
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}

// ParseBasisState parses a fixed-width binary string into a basis-state
// index. The string length must equal width exactly; the encoding is
// asserted, never inferred or reformatted.
func ParseBasisState(s string, width int) (uint64, error) {
	if len(s) != width {
		return 0, &InvalidInputError{
			Reason: fmt.Sprintf("bitstring %q has length %d, want %d", s, len(s), width),
		}
	}
	state, err := strconv.ParseUint(s, 2, 64)
	if err != nil {
		return 0, &InvalidInputError{Reason: fmt.Sprintf("bitstring %q is not binary", s)}
	}
	return state, nil
}
