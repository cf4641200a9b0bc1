package dialect

import (
	"fmt"
	"math"

	"github.com/mastercactapus/cncwarmup/gcode"
	"github.com/mastercactapus/cncwarmup/ramp"
)

// Common variables used by while programs.
const (
	vXTravel = 100 + iota
	vYTravel
	vStartRPM
	vFinishRPM
	vStartFeed
	vFinishFeed
	vCoolant
	vSteps
	vTool
)

const (
	vLegRPM = 110 + iota
	vLegFeed
	vStepX
	vStepY
	vStepRPM
	vStepFeed
)

const (
	vX = 120 + iota
	vY
	vRPM
	vFeed
	vCounter
)

func v(n int) string { return "#" + itoa(n) }

// While writes Fanuc Macro B programs. Each leg is a WHILE loop whose
// condition on the running axis is its only exit.
type While struct{ opt Options }

var _ Emitter = &While{}

func (e *While) Dialect() ramp.Dialect { return ramp.WhileLoop }
func (e *While) Extension() string     { return ".nc" }

func (e *While) Render(p *ramp.Plan) string {
	w := &whileWriter{
		program: program{comment: parenComment},
		plan:    p,
		req:     p.Request(),
		opt:     e.opt,
	}
	return render(w, p, e.opt)
}

type whileWriter struct {
	program
	plan *ramp.Plan
	req  ramp.Request
	opt  Options
}

func (w *whileWriter) unrolled() bool { return w.opt.Layout == LayoutUnrolled }

func (w *whileWriter) ref(reg int, val float64) string {
	if w.unrolled() {
		return num(val)
	}
	return v(reg)
}

// spindle is an S word; literal speeds are whole RPM.
func (w *whileWriter) spindle(reg int, rpm float64) string {
	if w.unrolled() {
		return gcode.Block{{W: 'S', Arg: math.Round(rpm)}, {W: 'M', Arg: 3}}.Line()
	}
	return "S" + v(reg) + " M3"
}

func (w *whileWriter) begin() {
	w.line("%", "")
	w.line(fmt.Sprintf("O%04d", w.opt.ProgramNumber), w.opt.ProgramName)
}

func (w *whileWriter) header() {
	r, p := w.req, w.plan
	h := header{
		title: "Fanuc CNC warmup program",
		editable: []param{
			{reg: vXTravel, expr: num(r.Machine.XTravel), comment: "X-axis travel limit"},
			{reg: vYTravel, expr: num(r.Machine.YTravel), comment: "Y-axis travel limit"},
			{reg: vStartRPM, expr: num(r.StartRPM), comment: "Start spindle RPM"},
			{reg: vFinishRPM, expr: num(r.FinishRPM), comment: "Finish spindle RPM"},
			{reg: vStartFeed, expr: num(r.StartFeed), comment: "Start feedrate mm/min"},
			{reg: vFinishFeed, expr: num(r.FinishFeed), comment: "Finish feedrate mm/min"},
			{reg: vCoolant, expr: boolFlag(r.Coolant), comment: "Coolant, 1 = on, 0 = off"},
			{reg: vSteps, expr: itoa(r.StepCount), comment: "Ramp steps per leg"},
			{reg: vTool, expr: itoa(r.Tool), comment: "Tool number"},
		},
		derived: []param{
			{reg: vLegRPM, expr: "[" + v(vFinishRPM) + " - " + v(vStartRPM) + "] / 4", comment: "Spindle RPM per leg", value: p.LegRPM},
			{reg: vLegFeed, expr: "[" + v(vFinishFeed) + " - " + v(vStartFeed) + "] / 4", comment: "Feedrate per leg", value: p.LegFeed},
			{reg: vStepX, expr: v(vXTravel) + " / " + v(vSteps), comment: "X-axis increment per step", value: p.StepX},
			{reg: vStepY, expr: v(vYTravel) + " / " + v(vSteps), comment: "Y-axis increment per step", value: p.StepY},
			{reg: vStepRPM, expr: v(vLegRPM) + " / " + v(vSteps), comment: "Spindle RPM increment per step", value: p.StepRPM},
			{reg: vStepFeed, expr: v(vLegFeed) + " / " + v(vSteps), comment: "Feedrate increment per step", value: p.StepFeed},
		},
		live: []param{
			{reg: vX, expr: "0", comment: "Current X position"},
			{reg: vY, expr: "0", comment: "Current Y position"},
			{reg: vRPM, expr: v(vStartRPM), comment: "Current spindle RPM"},
			{reg: vFeed, expr: v(vStartFeed), comment: "Current feedrate"},
		},
	}
	h.write(&w.program, w.opt.Layout, v)
}

func (w *whileWriter) prologue() {
	tool := v(vTool)
	if w.unrolled() {
		tool = itoa(w.req.Tool)
	}

	w.line("G21 G17 G40 G49 G80 G90", "Metric, XY plane, cancel compensation and cycles, absolute")
	w.line("G52 X0 Y0 Z0", "Cancel local coordinate shift")
	w.line("G54", "Select work offset")
	w.line("T"+tool+" M6", "Tool change")
	w.line("G0 Z"+num(w.opt.safeZ()), "Retract to safe height")
	w.line(w.spindle(vStartRPM, w.req.StartRPM), "Start spindle at start RPM")
	w.line("G1 X0 Y0 F"+w.ref(vStartFeed, w.req.StartFeed), "Move to origin at start feedrate")
}

func (w *whileWriter) coolantOn() { w.line("M8", "Coolant on before ramp") }

func limitVar(a ramp.Axis) int {
	if a == ramp.AxisX {
		return vXTravel
	}
	return vYTravel
}

func (w *whileWriter) legHeading(leg int) {
	spec := w.plan.Legs[leg]
	from, to := num(spec.Start), num(spec.Boundary)
	if !w.unrolled() {
		from, to = "0", v(limitVar(spec.Axis))
		if !spec.Rising() {
			from, to = to, from
		}
	}
	a := spec.Axis.String()
	w.note(legName(leg) + ": " + a + from + " to " + a + to)
}

func (w *whileWriter) axisRef(a ramp.Axis, spec ramp.LegSpec) string {
	if a == spec.Axis {
		if a == ramp.AxisX {
			return v(vX)
		}
		return v(vY)
	}
	fixed := spec.From.X
	if a == ramp.AxisY {
		fixed = spec.From.Y
	}
	if fixed == 0 {
		return "0"
	}
	return v(limitVar(a))
}

func (w *whileWriter) loop(leg int) {
	spec := w.plan.Legs[leg]
	k := leg + 1

	axisReg, incReg := vX, vStepX
	if spec.Axis == ramp.AxisY {
		axisReg, incReg = vY, vStepY
	}
	cond := "[" + v(axisReg) + " LT " + v(limitVar(spec.Axis)) + "]"
	op, verb, boundary := " + ", "Increment ", v(limitVar(spec.Axis))
	if !spec.Rising() {
		cond = "[" + v(axisReg) + " GT 0]"
		op, verb, boundary = " - ", "Decrement ", "0"
	}
	rpmTarget := v(vStartRPM) + " + " + v(vLegRPM) + " * " + itoa(k)
	feedTarget := v(vStartFeed) + " + " + v(vLegFeed) + " * " + itoa(k)
	if k == ramp.LegCount {
		rpmTarget, feedTarget = v(vFinishRPM), v(vFinishFeed)
	}
	terminal := "IF [" + v(vCounter) + " EQ " + v(vSteps) + "] THEN "
	axis := spec.Axis.String()

	w.line(v(vCounter)+" = 0", "Reset leg step counter")
	w.line("WHILE "+cond+" DO1", legName(leg)+" loop")
	w.line(v(vCounter)+" = "+v(vCounter)+" + 1", "Count step")
	w.line(v(axisReg)+" = "+v(axisReg)+op+v(incReg), verb+axis+"-axis")
	w.line(v(vRPM)+" = "+v(vRPM)+" + "+v(vStepRPM), "Increment spindle RPM")
	w.line(v(vFeed)+" = "+v(vFeed)+" + "+v(vStepFeed), "Increment feedrate")
	w.line(terminal+v(axisReg)+" = "+boundary, "Clamp "+axis+"-axis on the terminal step")
	w.line(terminal+v(vRPM)+" = "+rpmTarget, "Clamp spindle RPM to leg target")
	w.line(terminal+v(vFeed)+" = "+feedTarget, "Clamp feedrate to leg target")
	w.line("S"+v(vRPM)+" M3", "Ramp spindle RPM")
	w.line("G1 X"+w.axisRef(ramp.AxisX, spec)+" Y"+w.axisRef(ramp.AxisY, spec)+" F"+v(vFeed), "Move along "+axis)
	w.line("END1", legName(leg)+" done")
}

func (w *whileWriter) step(s ramp.Step) {
	w.line(checked(gcode.Block{{W: 'S', Arg: math.Round(s.RPM)}, {W: 'M', Arg: 3}}).Line(), "")
	w.line(checked(gcode.Block{{W: 'G', Arg: 1}, {W: 'X', Arg: s.X}, {W: 'Y', Arg: s.Y}, {W: 'F', Arg: s.Feed}}).Line(), "")
}

func (w *whileWriter) returnHome() {
	w.line("G1 X0 Y0 F"+w.ref(vFinishFeed, w.req.FinishFeed), "Return to origin at finish feedrate")
}

func (w *whileWriter) finalSpindle() {
	w.line(w.spindle(vFinishRPM, w.req.FinishRPM), "Final spindle speed")
}

func (w *whileWriter) spindleStop() { w.line("M5", "Spindle off") }
func (w *whileWriter) coolantOff()  { w.line("M9", "Coolant off") }

func (w *whileWriter) end() {
	w.line("M30", "End of program")
	w.line("%", "")
}
