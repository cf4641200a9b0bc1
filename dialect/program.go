package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mastercactapus/cncwarmup/gcode"
)

// program accumulates output lines in one comment style.
type program struct {
	sb      strings.Builder
	comment func(string) string
}

func semicolonComment(s string) string { return "; " + s }

var parenStrip = strings.NewReplacer("(", "", ")", "")

func parenComment(s string) string {
	return "(" + strings.ToUpper(parenStrip.Replace(s)) + ")"
}

// line writes code followed by an optional comment.
func (p *program) line(code, comment string) {
	p.sb.WriteString(code)
	if comment != "" {
		p.sb.WriteString(" ")
		p.sb.WriteString(p.comment(comment))
	}
	p.sb.WriteString("\n")
}

// note writes a comment-only line.
func (p *program) note(text string) {
	p.sb.WriteString(p.comment(text))
	p.sb.WriteString("\n")
}

func (p *program) rule() { p.note("=================================") }

func (p *program) String() string { return p.sb.String() }

func num(f float64) string { return gcode.FormatFloat(f, gcode.Precision) }

// checked returns b after validating it. Blocks are built from validated
// plans, so an invalid one is a writer bug.
func checked(b gcode.Block) gcode.Block {
	if err := b.Validate(); err != nil {
		panic(fmt.Sprintf("dialect: %v: %s", err, b.Line()))
	}
	return b
}

func itoa(i int) string { return strconv.Itoa(i) }

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// param is one header register, echoed for the operator.
type param struct {
	reg     int
	expr    string
	comment string
	value   float64
}

// header is the register block at the top of a program: editable inputs,
// values derived from them, and the live state registers.
type header struct {
	title    string
	editable []param
	derived  []param
	live     []param
}

// write emits h. Loop programs assign the registers; unrolled programs do
// not use them and only echo the values as comments.
func (h header) write(p *program, layout Layout, reg func(int) string) {
	p.note(h.title)
	p.rule()
	if layout == LayoutUnrolled {
		p.note("Warmup parameters:")
		for _, e := range h.editable {
			p.note(e.comment + ": " + e.expr)
		}
		p.rule()
		p.note("Derived values:")
		for _, d := range h.derived {
			p.note(d.comment + ": " + num(d.value))
		}
		p.rule()
		return
	}

	p.note("Editable warmup parameters:")
	for _, e := range h.editable {
		p.line(reg(e.reg)+" = "+e.expr, e.comment)
	}
	p.rule()
	p.note("Derived warmup variables, do not edit:")
	for _, d := range h.derived {
		p.line(reg(d.reg)+" = "+d.expr, d.comment+" = "+num(d.value))
	}
	for _, l := range h.live {
		p.line(reg(l.reg)+" = "+l.expr, l.comment)
	}
	p.rule()
}

func legName(leg int) string { return "Leg " + itoa(leg+1) }

// rep bounds a label loop: the section runs once and then repeats, so
// steps-1 repeats give steps passes. Controls reject REP 0.
func rep(steps int) int {
	if steps < 2 {
		return 1
	}
	return steps - 1
}
