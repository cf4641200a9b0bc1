// Package dialect renders a ramp plan as a controller program.
//
// Both dialects share one skeleton (render): header, safety prologue,
// coolant on, four legs, epilogue, coolant off. They differ in syntax,
// register numbering and how a leg loops.
package dialect

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/mastercactapus/cncwarmup/ramp"
)

// Layout selects how the legs are written.
type Layout int

const (
	// LayoutLoop writes each leg once as a register loop.
	LayoutLoop Layout = iota
	// LayoutUnrolled writes every ramp step with literal values.
	LayoutUnrolled
)

func (l Layout) String() string {
	if l == LayoutUnrolled {
		return "unrolled"
	}
	return "loop"
}

func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "loop":
		return LayoutLoop, nil
	case "unrolled", "unroll", "flat":
		return LayoutUnrolled, nil
	}
	return 0, fmt.Errorf("unknown layout %q", s)
}

// CoolantOrder places coolant off relative to spindle stop in the epilogue.
type CoolantOrder int

const (
	CoolantOffAfterSpindleStop CoolantOrder = iota
	CoolantOffBeforeSpindleStop
)

type Options struct {
	Layout     Layout
	CoolantOff CoolantOrder

	// SafeZ is the retract height before any XY motion. Nil selects the
	// default height; zero is a valid height.
	SafeZ *float64

	// ProgramName names label-dialect programs (BEGIN PGM <name> MM).
	ProgramName string
	// ProgramNumber numbers while-dialect programs (O<number>).
	ProgramNumber int
}

// SafeHeight returns z for Options.SafeZ.
func SafeHeight(z float64) *float64 { return &z }

func (o Options) safeZ() float64 {
	if o.SafeZ == nil {
		return *DefaultOptions().SafeZ
	}
	return *o.SafeZ
}

func DefaultOptions() Options {
	return Options{
		SafeZ:         SafeHeight(200),
		ProgramName:   "WARMUP",
		ProgramNumber: 1000,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.SafeZ == nil {
		o.SafeZ = def.SafeZ
	}
	if o.ProgramName == "" {
		o.ProgramName = def.ProgramName
	}
	if o.ProgramNumber <= 0 {
		o.ProgramNumber = def.ProgramNumber
	}
	return o
}

// An Emitter writes warmup programs for one controller family.
type Emitter interface {
	Dialect() ramp.Dialect

	// Extension is the conventional file extension for the dialect,
	// including the dot.
	Extension() string

	// Render writes the complete program for p. The request p was
	// derived from supplies the header parameters.
	Render(p *ramp.Plan) string
}

// New returns the emitter for d.
func New(d ramp.Dialect, opt Options) (Emitter, error) {
	opt = opt.withDefaults()
	if z := opt.safeZ(); z < 0 || math.IsNaN(z) || math.IsInf(z, 0) {
		return nil, fmt.Errorf("invalid safe Z %g: must be a non-negative height", z)
	}
	switch d {
	case ramp.LabelLoop:
		return &Label{opt: opt}, nil
	case ramp.WhileLoop:
		return &While{opt: opt}, nil
	}
	return nil, &ramp.UnsupportedDialectError{Dialect: d}
}

// Generate validates req and renders it in the requested dialect. On error
// no program text is returned.
func Generate(req ramp.Request, opt Options) (string, error) {
	p, err := ramp.NewPlan(req)
	if err != nil {
		return "", err
	}
	e, err := New(req.Dialect, opt)
	if err != nil {
		return "", err
	}
	return e.Render(p), nil
}

// writer is implemented by each dialect; render drives it through the
// fixed program sequence.
type writer interface {
	begin()
	header()
	prologue()
	coolantOn()
	legHeading(leg int)
	loop(leg int)
	step(s ramp.Step)
	returnHome()
	finalSpindle()
	spindleStop()
	coolantOff()
	end()
	String() string
}

func render(w writer, p *ramp.Plan, opt Options) string {
	req := p.Request()

	w.begin()
	w.header()
	w.prologue()
	if req.Coolant {
		w.coolantOn()
	}

	for leg := range p.Legs {
		w.legHeading(leg)
		if opt.Layout != LayoutUnrolled {
			w.loop(leg)
			continue
		}
		r := p.Leg(leg)
		// index 0 is where the previous leg stopped
		r.Read()
		for {
			s, err := r.Read()
			if err == io.EOF {
				break
			}
			w.step(s)
		}
	}

	w.returnHome()
	w.finalSpindle()
	if req.Coolant && opt.CoolantOff == CoolantOffBeforeSpindleStop {
		w.coolantOff()
	}
	w.spindleStop()
	if req.Coolant && opt.CoolantOff == CoolantOffAfterSpindleStop {
		w.coolantOff()
	}
	w.end()

	return w.String()
}
