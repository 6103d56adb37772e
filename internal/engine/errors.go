package engine

import (
	"errors"
	"fmt"

	"github.com/piwi3910/lotcut/internal/model"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNoFeasibleLot   = errors.New("no feasible lot")
	ErrShortfall       = errors.New("demand not fully planned")
	ErrInfeasible      = errors.New("demand cannot be met within lot capacity")
	ErrSolverTimeout   = errors.New("solver timed out")
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrCapacityOverrun only ever shows up as a genetic fitness penalty.
	ErrCapacityOverrun = model.ErrCapacityOverrun
)

// ColorError reports a failure isolated to one color.
type ColorError struct {
	Color string
	Err   error
}

func (e *ColorError) Error() string {
	return fmt.Sprintf("color %s: %v", e.Color, e.Err)
}

func (e *ColorError) Unwrap() error {
	return e.Err
}
