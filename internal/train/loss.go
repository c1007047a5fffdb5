package train

import (
	"fmt"
	"math"
)

// NLL computes the mean negative log-likelihood of a batch of target
// basis states under the empirical distribution in counts.
//
// A target observed c times contributes -log2(c/shots). A target never
// observed contributes a fixed ceiling of 2*log2(shots): an explicit
// stand-in for the undefined -log2(0/shots) that keeps the loss finite
// while still penalizing unseen outcomes heavily.
func NLL(counts *Counts, batch []uint64, shots int) (float64, error) {
	if len(batch) == 0 {
		return 0, &InvalidInputError{Reason: "empty batch"}
	}
	if shots <= 0 {
		return 0, &InvalidInputError{Reason: fmt.Sprintf("non-positive shot count %d", shots)}
	}

	penalty := 2 * math.Log2(float64(shots))

	var sum float64
	for _, target := range batch {
		if err := counts.checkState(target); err != nil {
			return 0, err
		}
		c := counts.Get(target)
		if c == 0 {
			sum += penalty
			continue
		}
		sum += -math.Log2(float64(c) / float64(shots))
	}

	return sum / float64(len(batch)), nil
}
