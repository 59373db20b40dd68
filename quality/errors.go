package quality

import (
	"github.com/pkg/errors"
)

// DegenerateInputError reports that a frame's geometry is insufficient or
// invalid for metric computation (no retained points after outlier trimming,
// a zero-area region of interest, or a zero-length point vector).
//
// It is a per-frame, recoverable condition: nothing is published for the frame
// and the caller should move on to the next one.
type DegenerateInputError struct {
	reason string
}

func newDegenerateInputError(reason string) *DegenerateInputError {
	return &DegenerateInputError{reason: reason}
}

func (e *DegenerateInputError) Error() string {
	return "degenerate frame input: " + e.reason
}

// IsDegenerateInputError reports whether the error is a DegenerateInputError,
// possibly wrapped.
func IsDegenerateInputError(err error) bool {
	var degenerate *DegenerateInputError
	return errors.As(err, &degenerate)
}
