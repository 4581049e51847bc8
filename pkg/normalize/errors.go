package normalize

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyResponse          = errors.New("the model returned an empty response")
	ErrNotAnArray             = errors.New("the model response is not a JSON array")
	ErrMalformedUnrecoverable = errors.New("the model response is malformed and could not be repaired")
	ErrInvalidRecord          = errors.New("the model response contains a non-object test case")
)

// RepairError reports a payload that failed both the direct and the repair parse.
// Raw keeps the original text for diagnostics.
type RepairError struct {
	Raw string
	Err error // Error from the repair parse
}

func (e *RepairError) Error() string {
	return fmt.Sprintf("%s: %v", ErrMalformedUnrecoverable, e.Err)
}

func (e *RepairError) Unwrap() error { return e.Err }

func (e *RepairError) Is(target error) bool { return target == ErrMalformedUnrecoverable }
