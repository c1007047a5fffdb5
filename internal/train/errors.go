package train

// InvalidInputError reports a caller mistake detected synchronously:
// an empty batch, a non-positive shot count, or a bit-width mismatch.
// These are never retried.
//
// Use errors.Is(err, ErrInvalidInput) to check for this class of error.
type InvalidInputError struct {
	Reason string
}

// ErrInvalidInput is the target for errors.Is checks.
var ErrInvalidInput = &InvalidInputError{}

func (e *InvalidInputError) Error() string {
	if e.Reason != "" {
		return "invalid input: " + e.Reason
	}
	return "invalid input"
}

func (e *InvalidInputError) Is(target error) bool {
	_, ok := target.(*InvalidInputError)
	return ok
}
