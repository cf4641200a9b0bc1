package ramp

import (
	"fmt"
	"io"
	"math"

	"github.com/mastercactapus/cncwarmup/coord"
)

// LegCount is the number of legs around the travel rectangle.
const LegCount = 4

type Axis byte

const (
	AxisX Axis = 'X'
	AxisY Axis = 'Y'
)

func (a Axis) String() string { return string(a) }

// LegSpec describes one straight traversal of the rectangle.
type LegSpec struct {
	Axis Axis
	// Direction is +1 for a rising leg and -1 for a falling one.
	Direction int
	// Start and Boundary are the running axis value at either end.
	Start, Boundary float64

	From, To coord.Point
}

func (l LegSpec) Rising() bool { return l.Direction > 0 }

func (l LegSpec) String() string {
	return fmt.Sprintf("%s%s -> %s%s", l.Axis, formatMM(l.Start), l.Axis, formatMM(l.Boundary))
}

func formatMM(f float64) string { return fmt.Sprintf("%+g", f) }

// Plan is the ramp derived from a single request.
type Plan struct {
	req Request

	StepX, StepY float64

	// StepRPM and StepFeed are applied on every step of every leg.
	StepRPM, StepFeed float64
	// LegRPM and LegFeed are the share of the ramp covered by one leg.
	LegRPM, LegFeed float64

	Legs [LegCount]LegSpec
}

// NewPlan validates req and derives its ramp.
func NewPlan(req Request) (*Plan, error) {
	err := req.Validate()
	if err != nil {
		return nil, err
	}

	n := float64(req.StepCount)
	x, y := req.Machine.XTravel, req.Machine.YTravel
	p := &Plan{
		req:     req,
		StepX:   x / n,
		StepY:   y / n,
		LegRPM:  (req.FinishRPM - req.StartRPM) / LegCount,
		LegFeed: (req.FinishFeed - req.StartFeed) / LegCount,
	}
	p.StepRPM = p.LegRPM / n
	p.StepFeed = p.LegFeed / n

	origin := coord.Point{}
	xMax := coord.Point{X: x}
	corner := coord.Point{X: x, Y: y}
	yMax := coord.Point{Y: y}
	p.Legs = [LegCount]LegSpec{
		{Axis: AxisX, Direction: 1, Start: 0, Boundary: x, From: origin, To: xMax},
		{Axis: AxisY, Direction: 1, Start: 0, Boundary: y, From: xMax, To: corner},
		{Axis: AxisX, Direction: -1, Start: x, Boundary: 0, From: corner, To: yMax},
		{Axis: AxisY, Direction: -1, Start: y, Boundary: 0, From: yMax, To: origin},
	}

	return p, nil
}

func (p *Plan) Request() Request { return p.req }
func (p *Plan) StepCount() int   { return p.req.StepCount }

// TotalSteps is the number of ramp steps over all legs.
func (p *Plan) TotalSteps() int { return LegCount * p.req.StepCount }

// Step is the machine state after a number of steps into a leg.
type Step struct {
	Leg   int
	Index int

	X, Y      float64
	RPM, Feed float64
}

// Terminal reports whether s is the last step of its leg.
func (s Step) Terminal(stepCount int) bool { return s.Index == stepCount }

// rampValue is the i'th of n steps from start to finish, pinned to finish on
// the last step and never outside [start, finish].
func rampValue(start, finish float64, i, n int) float64 {
	if i <= 0 {
		return start
	}
	if i >= n {
		return finish
	}
	v := start + (finish-start)/float64(n)*float64(i)
	return math.Max(start, math.Min(finish, v))
}

// At returns the state i steps into leg. Index 0 is the leg's start state,
// which equals the terminal state of the previous leg.
func (p *Plan) At(leg, i int) Step {
	if leg < 0 || leg >= LegCount {
		panic(fmt.Sprintf("ramp: leg %d out of range", leg))
	}
	n := p.req.StepCount
	if i < 0 {
		i = 0
	} else if i > n {
		i = n
	}
	l := p.Legs[leg]
	pos := l.From.Step(l.To, i, n)

	g := leg*n + i
	total := p.TotalSteps()
	return Step{
		Leg:   leg,
		Index: i,
		X:     pos.X,
		Y:     pos.Y,
		RPM:   rampValue(p.req.StartRPM, p.req.FinishRPM, g, total),
		Feed:  rampValue(p.req.StartFeed, p.req.FinishFeed, g, total),
	}
}

// Leg returns a reader over the states of one leg, from its start state
// through its boundary.
func (p *Plan) Leg(leg int) *LegReader {
	if leg < 0 || leg >= LegCount {
		panic(fmt.Sprintf("ramp: leg %d out of range", leg))
	}
	return &LegReader{plan: p, leg: leg}
}

// Steps returns every ramp step in emission order, excluding the start state
// of each leg.
func (p *Plan) Steps() []Step {
	n := p.req.StepCount
	res := make([]Step, 0, p.TotalSteps())
	for leg := 0; leg < LegCount; leg++ {
		for i := 1; i <= n; i++ {
			res = append(res, p.At(leg, i))
		}
	}
	return res
}

// LegReader lazily yields the states of one leg. It is restartable with Reset.
type LegReader struct {
	plan *Plan
	leg  int
	n    int
}

// Read returns the next state, or io.EOF after the boundary state.
func (r *LegReader) Read() (Step, error) {
	if r.n > r.plan.req.StepCount {
		return Step{}, io.EOF
	}
	r.n++
	return r.plan.At(r.leg, r.n-1), nil
}

func (r *LegReader) Reset() { r.n = 0 }

func (r *LegReader) Spec() LegSpec { return r.plan.Legs[r.leg] }
