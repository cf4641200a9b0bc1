package ramp

import (
	"fmt"
	"math"
)

// InvalidRangeError reports a ramp whose finish value is below its start.
type InvalidRangeError struct {
	Param         string
	Start, Finish float64
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid %s range: finish %g is below start %g", e.Param, e.Finish, e.Start)
}

// MaxStepCount bounds the ramp steps per leg.
const MaxStepCount = 10000

type InvalidStepCountError struct {
	StepCount int
}

func (e *InvalidStepCountError) Error() string {
	return fmt.Sprintf("invalid step count %d: must be between 1 and %d", e.StepCount, MaxStepCount)
}

type InvalidTravelError struct {
	Axis   Axis
	Travel float64
}

func (e *InvalidTravelError) Error() string {
	return fmt.Sprintf("invalid %s travel %g: must be a positive number", e.Axis, e.Travel)
}

type UnsupportedDialectError struct {
	Dialect Dialect
	// Name is set when the dialect came from text.
	Name string
}

func (e *UnsupportedDialectError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("unsupported dialect %q", e.Name)
	}
	return fmt.Sprintf("unsupported dialect %s", e.Dialect)
}

type InvalidToolError struct {
	Tool int
}

func (e *InvalidToolError) Error() string {
	return fmt.Sprintf("invalid tool number %d: must be positive", e.Tool)
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Validate checks the range invariants of the request. Nothing is derived
// from a request that fails validation.
func (r Request) Validate() error {
	if !r.Dialect.Valid() {
		return &UnsupportedDialectError{Dialect: r.Dialect}
	}
	if r.StepCount <= 0 || r.StepCount > MaxStepCount {
		return &InvalidStepCountError{StepCount: r.StepCount}
	}
	if !(r.Machine.XTravel > 0) || !finite(r.Machine.XTravel) {
		return &InvalidTravelError{Axis: AxisX, Travel: r.Machine.XTravel}
	}
	if !(r.Machine.YTravel > 0) || !finite(r.Machine.YTravel) {
		return &InvalidTravelError{Axis: AxisY, Travel: r.Machine.YTravel}
	}
	if !(r.FinishRPM >= r.StartRPM) || !finite(r.StartRPM) || !finite(r.FinishRPM) {
		return &InvalidRangeError{Param: "spindle RPM", Start: r.StartRPM, Finish: r.FinishRPM}
	}
	if !(r.FinishFeed >= r.StartFeed) || !finite(r.StartFeed) || !finite(r.FinishFeed) {
		return &InvalidRangeError{Param: "feedrate", Start: r.StartFeed, Finish: r.FinishFeed}
	}
	if r.Tool <= 0 {
		return &InvalidToolError{Tool: r.Tool}
	}
	return nil
}
