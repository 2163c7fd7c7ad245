package message

import (
	"errors"
	"fmt"
)

// ErrConstruction is matched by every error returned from New.
var ErrConstruction = errors.New("dexcell: problem creating service message")

// ConstructionError reports the field that could not be coerced to its
// canonical type. Retrying with the same input always fails again.
type ConstructionError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("%v: %s %v: %v", ErrConstruction, e.Field, e.Value, e.Err)
}

func (e *ConstructionError) Unwrap() []error {
	return []error{ErrConstruction, e.Err}
}
