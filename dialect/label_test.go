package dialect

import (
	"strings"
	"testing"

	"github.com/mastercactapus/cncwarmup/ramp"
	"github.com/stretchr/testify/assert"
)

func TestLabel_Loop(t *testing.T) {
	prog := generate(t, testRequest(ramp.LabelLoop), Options{})
	lines := strings.Split(strings.TrimSuffix(prog, "\n"), "\n")

	assert.Equal(t, "BEGIN PGM WARMUP MM", lines[0])
	assert.Equal(t, "END PGM WARMUP MM", lines[len(lines)-1])

	for _, l := range []string{
		"Q78 = 762 ; X-axis travel limit",
		"Q79 = 508 ; Y-axis travel limit",
		"Q84 = 1 ; Coolant, 1 = on, 0 = off",
		"Q85 = 15 ; Ramp steps per leg, increase for a more gradual ramp",
		"Q96 = 1 ; Tool call number",
		"Q86 = (Q81 - Q80) / 4 ; Spindle RPM per leg = 625",
		"Q88 = Q78 / Q85 ; X-axis increment per step = 50.8",
		"Q89 = Q79 / Q85 ; Y-axis increment per step = 33.867",
		"Q91 = Q87 / Q85 ; Feedrate increment per step = 10",
		"Q94 = Q80 ; Current spindle RPM",
		"CYCL DEF 7.0 DATUM SHIFT ; Reset active datum shift",
		"TOOL CALL Q96 Z S+Q80 ; Call tool",
		"L Z+200 R0 FMAX ; Retract to safe height, absolute",
		"L X+0 Y+0 R0 F+Q82 ; Move to origin at start feedrate",

		"LBL 1 ; Leg 1 loop entry",
		"Q92 = Q92 + Q88 ; Increment X-axis",
		"FN 12: IF +Q97 LT +Q85 GOTO LBL 11 ; Skip clamp before the terminal step",
		"Q92 = Q78 ; Clamp X-axis to boundary",
		"Q94 = Q80 + Q86 * 1 ; Clamp spindle RPM to leg target",
		"L X+Q92 Y+0 R0 F+Q95 ; Move along X",
		"FN 9: IF +Q92 EQU +Q78 GOTO LBL 2 ; Leave loop at boundary",
		"CALL LBL 1 REP 14 ; Bound loop to Q85 passes",

		"L X+Q78 Y+Q93 R0 F+Q95 ; Move along Y",
		"FN 9: IF +Q93 EQU +Q79 GOTO LBL 4 ; Leave loop at boundary",

		"Q92 = Q92 - Q88 ; Decrement X-axis",
		"Q92 = 0 ; Clamp X-axis to boundary",
		"L X+Q92 Y+Q79 R0 F+Q95 ; Move along X",
		"FN 9: IF +Q92 EQU +0 GOTO LBL 6 ; Leave loop at boundary",

		"Q93 = Q93 - Q89 ; Decrement Y-axis",
		"Q94 = Q81 ; Clamp spindle RPM to leg target",
		"Q95 = Q83 ; Clamp feedrate to leg target",
		"L X+0 Y+Q93 R0 F+Q95 ; Move along Y",
		"CALL LBL 7 REP 14 ; Bound loop to Q85 passes",
		"LBL 8 ; Leg 4 done",

		"L X+0 Y+0 R0 F+Q83 ; Return to origin at finish feedrate",
		"S+Q81 M3 ; Final spindle speed",
	} {
		assert.Contains(t, lines, l)
	}

	assert.Equal(t, 4, strings.Count(prog, "\nCALL LBL "))
	assert.Equal(t, 4, strings.Count(prog, "\nFN 9: "))
	assert.Equal(t, 4, strings.Count(prog, "\nS+Q94 M3 ; Ramp spindle RPM"))
	assert.Equal(t, 4, strings.Count(prog, "\nQ97 = Q97 + 1 ; Count step"))

	// legs run in order
	var idx []int
	for _, l := range []string{"; Leg 1: X+0 -> X+Q78", "; Leg 2: Y+0 -> Y+Q79", "; Leg 3: X+Q78 -> X+0", "; Leg 4: Y+Q79 -> Y+0"} {
		i := strings.Index(prog, l)
		assert.True(t, i >= 0, l)
		idx = append(idx, i)
	}
	assert.IsIncreasing(t, idx)
}

func TestLabel_Options(t *testing.T) {
	req := testRequest(ramp.LabelLoop)
	req.StepCount = 1
	prog := generate(t, req, Options{SafeZ: SafeHeight(150), ProgramName: "spindle warmup"})

	assert.True(t, strings.HasPrefix(prog, "BEGIN PGM SPINDLE_WARMUP MM\n"))
	assert.True(t, strings.HasSuffix(prog, "END PGM SPINDLE_WARMUP MM\n"))
	assert.Contains(t, prog, "L Z+150 R0 FMAX")
	assert.Contains(t, prog, "CALL LBL 1 REP 1 ;")
}

func TestLabel_Unrolled(t *testing.T) {
	req := testRequest(ramp.LabelLoop)
	req.StepCount = 2
	prog := generate(t, req, Options{Layout: LayoutUnrolled})

	assert.NotContains(t, prog, "LBL")
	assert.NotContains(t, prog, "Q92")
	assert.Contains(t, prog, "; X-axis travel limit: 762\n")
	assert.Contains(t, prog, "; X-axis increment per step: 381\n")
	assert.Contains(t, prog, "TOOL CALL 1 Z S+500 ; Call tool\n")
	assert.Contains(t, prog, "; Leg 3: X+762 -> X+0\n")
	assert.Contains(t, prog, "S+812.5 M3\nL X+381 Y+0 R0 F+275\n")
	assert.Contains(t, prog, "S+3000 M3\nL X+0 Y+0 R0 F+800\n")
}
