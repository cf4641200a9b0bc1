package dialect

import (
	"strings"

	"github.com/mastercactapus/cncwarmup/gcode"
	"github.com/mastercactapus/cncwarmup/ramp"
)

// Q parameters used by label programs. The numbering is fixed so operators
// can edit a saved program by hand.
const (
	qXTravel = 78 + iota
	qYTravel
	qStartRPM
	qFinishRPM
	qStartFeed
	qFinishFeed
	qCoolant
	qSteps
	qLegRPM
	qLegFeed
	qStepX
	qStepY
	qStepRPM
	qStepFeed
	qX
	qY
	qRPM
	qFeed
	qTool
	qCounter
)

func q(n int) string { return "Q" + itoa(n) }

// Label writes Heidenhain conversational programs. Each leg is a labelled
// section left by a boundary test and bounded by CALL LBL ... REP.
type Label struct{ opt Options }

var _ Emitter = &Label{}

func (l *Label) Dialect() ramp.Dialect { return ramp.LabelLoop }
func (l *Label) Extension() string     { return ".H" }

func (l *Label) Render(p *ramp.Plan) string {
	w := &labelWriter{
		program: program{comment: semicolonComment},
		plan:    p,
		req:     p.Request(),
		opt:     l.opt,
		name:    strings.ToUpper(strings.Join(strings.Fields(l.opt.ProgramName), "_")),
	}
	return render(w, p, l.opt)
}

type labelWriter struct {
	program
	plan *ramp.Plan
	req  ramp.Request
	opt  Options
	name string
}

// ref is a signed register reference, or the literal value when unrolled.
func (w *labelWriter) ref(reg int, v float64) string {
	if w.opt.Layout == LayoutUnrolled {
		return gcode.FormatSigned(v, gcode.Precision)
	}
	return "+" + q(reg)
}

func (w *labelWriter) begin() { w.line("BEGIN PGM "+w.name+" MM", "") }

func (w *labelWriter) header() {
	r, p := w.req, w.plan
	h := header{
		title: "Heidenhain CNC warmup program",
		editable: []param{
			{reg: qXTravel, expr: num(r.Machine.XTravel), comment: "X-axis travel limit"},
			{reg: qYTravel, expr: num(r.Machine.YTravel), comment: "Y-axis travel limit"},
			{reg: qStartRPM, expr: num(r.StartRPM), comment: "Start spindle RPM"},
			{reg: qFinishRPM, expr: num(r.FinishRPM), comment: "Finish spindle RPM"},
			{reg: qStartFeed, expr: num(r.StartFeed), comment: "Start feedrate mm/min"},
			{reg: qFinishFeed, expr: num(r.FinishFeed), comment: "Finish feedrate mm/min"},
			{reg: qCoolant, expr: boolFlag(r.Coolant), comment: "Coolant, 1 = on, 0 = off"},
			{reg: qSteps, expr: itoa(r.StepCount), comment: "Ramp steps per leg, increase for a more gradual ramp"},
			{reg: qTool, expr: itoa(r.Tool), comment: "Tool call number"},
		},
		derived: []param{
			{reg: qLegRPM, expr: "(" + q(qFinishRPM) + " - " + q(qStartRPM) + ") / 4", comment: "Spindle RPM per leg", value: p.LegRPM},
			{reg: qLegFeed, expr: "(" + q(qFinishFeed) + " - " + q(qStartFeed) + ") / 4", comment: "Feedrate per leg", value: p.LegFeed},
			{reg: qStepX, expr: q(qXTravel) + " / " + q(qSteps), comment: "X-axis increment per step", value: p.StepX},
			{reg: qStepY, expr: q(qYTravel) + " / " + q(qSteps), comment: "Y-axis increment per step", value: p.StepY},
			{reg: qStepRPM, expr: q(qLegRPM) + " / " + q(qSteps), comment: "Spindle RPM increment per step", value: p.StepRPM},
			{reg: qStepFeed, expr: q(qLegFeed) + " / " + q(qSteps), comment: "Feedrate increment per step", value: p.StepFeed},
		},
		live: []param{
			{reg: qX, expr: "0", comment: "Current X position"},
			{reg: qY, expr: "0", comment: "Current Y position"},
			{reg: qRPM, expr: q(qStartRPM), comment: "Current spindle RPM"},
			{reg: qFeed, expr: q(qStartFeed), comment: "Current feedrate"},
		},
	}
	h.write(&w.program, w.opt.Layout, q)
}

func (w *labelWriter) prologue() {
	tool := q(qTool)
	if w.opt.Layout == LayoutUnrolled {
		tool = itoa(w.req.Tool)
	}

	w.note("Safe startup regardless of position, datum shift or tool offsets")
	w.line("CYCL DEF 7.0 DATUM SHIFT", "Reset active datum shift")
	w.line("CYCL DEF 7.1 X+0", "Reset X datum")
	w.line("CYCL DEF 7.2 Y+0", "Reset Y datum")
	w.line("CYCL DEF 7.3 Z+0", "Reset Z datum")
	w.line("TRANS DATUM RESET", "Clear datum table shifts")
	w.line("TOOL CALL "+tool+" Z S"+w.ref(qStartRPM, w.req.StartRPM), "Call tool")
	w.line("L "+checked(gcode.Block{{W: 'Z', Arg: w.opt.safeZ()}, {W: 'R', Arg: 0}}).Signed()+" FMAX", "Retract to safe height, absolute")
	w.line("S"+w.ref(qStartRPM, w.req.StartRPM)+" M3", "Start spindle at start RPM")
	w.line("L X+0 Y+0 R0 F"+w.ref(qStartFeed, w.req.StartFeed), "Move to origin at start feedrate")
}

func (w *labelWriter) coolantOn() { w.line("M8", "Coolant on before ramp") }

func (w *labelWriter) legHeading(leg int) {
	spec := w.plan.Legs[leg]
	if w.opt.Layout == LayoutUnrolled {
		w.note(legName(leg) + ": " + spec.String())
		return
	}
	limit := "+" + q(w.limitReg(spec.Axis))
	from, to := "+0", limit
	if !spec.Rising() {
		from, to = limit, "+0"
	}
	w.note(legName(leg) + ": " + spec.Axis.String() + from + " -> " + spec.Axis.String() + to)
}

func (w *labelWriter) limitReg(a ramp.Axis) int {
	if a == ramp.AxisX {
		return qXTravel
	}
	return qYTravel
}

// axisRef is the move coordinate for axis a on leg spec: the running
// register on the moving axis, the fixed edge on the other.
func (w *labelWriter) axisRef(a ramp.Axis, spec ramp.LegSpec) string {
	if a == spec.Axis {
		if a == ramp.AxisX {
			return "+" + q(qX)
		}
		return "+" + q(qY)
	}
	fixed := spec.From.X
	if a == ramp.AxisY {
		fixed = spec.From.Y
	}
	if fixed == 0 {
		return "+0"
	}
	return "+" + q(w.limitReg(a))
}

func (w *labelWriter) loop(leg int) {
	spec := w.plan.Legs[leg]
	k := leg + 1
	entry, exit, skip := 2*k-1, 2*k, 10+k

	axisReg, incReg := qX, qStepX
	if spec.Axis == ramp.AxisY {
		axisReg, incReg = qY, qStepY
	}
	op, verb, boundary := " + ", "Increment ", q(w.limitReg(spec.Axis))
	if !spec.Rising() {
		op, verb, boundary = " - ", "Decrement ", "0"
	}
	rpmTarget := q(qStartRPM) + " + " + q(qLegRPM) + " * " + itoa(k)
	feedTarget := q(qStartFeed) + " + " + q(qLegFeed) + " * " + itoa(k)
	if k == ramp.LegCount {
		rpmTarget, feedTarget = q(qFinishRPM), q(qFinishFeed)
	}
	axis := spec.Axis.String()

	w.line(q(qCounter)+" = 0", "Reset leg step counter")
	w.line("LBL "+itoa(entry), legName(leg)+" loop entry")
	w.line(q(qCounter)+" = "+q(qCounter)+" + 1", "Count step")
	w.line(q(axisReg)+" = "+q(axisReg)+op+q(incReg), verb+axis+"-axis")
	w.line(q(qRPM)+" = "+q(qRPM)+" + "+q(qStepRPM), "Increment spindle RPM")
	w.line(q(qFeed)+" = "+q(qFeed)+" + "+q(qStepFeed), "Increment feedrate")
	w.line("FN 12: IF +"+q(qCounter)+" LT +"+q(qSteps)+" GOTO LBL "+itoa(skip), "Skip clamp before the terminal step")
	w.line(q(axisReg)+" = "+boundary, "Clamp "+axis+"-axis to boundary")
	w.line(q(qRPM)+" = "+rpmTarget, "Clamp spindle RPM to leg target")
	w.line(q(qFeed)+" = "+feedTarget, "Clamp feedrate to leg target")
	w.line("LBL "+itoa(skip), "")
	w.line("S+"+q(qRPM)+" M3", "Ramp spindle RPM")
	w.line("L X"+w.axisRef(ramp.AxisX, spec)+" Y"+w.axisRef(ramp.AxisY, spec)+" R0 F+"+q(qFeed), "Move along "+axis)
	w.line("FN 9: IF +"+q(axisReg)+" EQU +"+boundary+" GOTO LBL "+itoa(exit), "Leave loop at boundary")
	// REP cannot be 0, so a single-step leg allows a second pass; the
	// terminal clamp puts the axis on the boundary and FN 9 leaves first.
	w.line("CALL LBL "+itoa(entry)+" REP "+itoa(rep(w.req.StepCount)), "Bound loop to "+q(qSteps)+" passes")
	w.line("LBL "+itoa(exit), legName(leg)+" done")
}

func (w *labelWriter) step(s ramp.Step) {
	w.line(checked(gcode.Block{{W: 'S', Arg: s.RPM}, {W: 'M', Arg: 3}}).Signed(), "")
	w.line("L "+checked(gcode.Block{{W: 'X', Arg: s.X}, {W: 'Y', Arg: s.Y}, {W: 'R', Arg: 0}, {W: 'F', Arg: s.Feed}}).Signed(), "")
}

func (w *labelWriter) returnHome() {
	w.line("L X+0 Y+0 R0 F"+w.ref(qFinishFeed, w.req.FinishFeed), "Return to origin at finish feedrate")
}

func (w *labelWriter) finalSpindle() {
	w.line("S"+w.ref(qFinishRPM, w.req.FinishRPM)+" M3", "Final spindle speed")
}

func (w *labelWriter) spindleStop() { w.line("M5", "Spindle off") }
func (w *labelWriter) coolantOff()  { w.line("M9", "Coolant off") }
func (w *labelWriter) end()         { w.line("END PGM "+w.name+" MM", "") }
