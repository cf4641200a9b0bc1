// Package ramp computes the warmup ramp: how axis position, spindle speed and
// feedrate advance, step by step, around the four legs of the travel
// rectangle.
package ramp

import (
	"fmt"
	"strings"
)

// MachineProfile is the X/Y travel envelope of a machine, in mm.
type MachineProfile struct {
	Name    string  `json:"name,omitempty" yaml:"name,omitempty"`
	XTravel float64 `json:"x" yaml:"x"`
	YTravel float64 `json:"y" yaml:"y"`
}

// Dialect selects the controller family a program is written for.
type Dialect int

const (
	// LabelLoop is the label/GOTO dialect with repeat counts (Heidenhain).
	LabelLoop Dialect = iota + 1
	// WhileLoop is the conditional WHILE dialect (Fanuc Macro B).
	WhileLoop
)

func (d Dialect) String() string {
	switch d {
	case LabelLoop:
		return "label"
	case WhileLoop:
		return "while"
	}
	return fmt.Sprintf("Dialect(%d)", int(d))
}

func (d Dialect) Valid() bool { return d == LabelLoop || d == WhileLoop }

// ParseDialect accepts the dialect name or its controller family.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "label", "label-loop", "heidenhain", "tnc640":
		return LabelLoop, nil
	case "while", "while-loop", "fanuc", "31i":
		return WhileLoop, nil
	}
	return 0, &UnsupportedDialectError{Name: s}
}

func (d Dialect) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, &UnsupportedDialectError{Dialect: d}
	}
	return []byte(d.String()), nil
}

func (d *Dialect) UnmarshalText(data []byte) error {
	v, err := ParseDialect(string(data))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Settings are the operator-editable warmup options.
type Settings struct {
	StartRPM   float64 `json:"startRpm" yaml:"start_rpm"`
	FinishRPM  float64 `json:"finishRpm" yaml:"finish_rpm"`
	StartFeed  float64 `json:"startFeed" yaml:"start_feed"`
	FinishFeed float64 `json:"finishFeed" yaml:"finish_feed"`
	Coolant    bool    `json:"coolant" yaml:"coolant"`
	Tool       int     `json:"tool" yaml:"tool"`
	StepCount  int     `json:"stepCount" yaml:"step_count"`
}

// DefaultSettings ramps 500-3000 RPM and 200-800 mm/min over 15 steps per
// leg with flood coolant and tool 1.
func DefaultSettings() Settings {
	return Settings{
		StartRPM:   500,
		FinishRPM:  3000,
		StartFeed:  200,
		FinishFeed: 800,
		Coolant:    true,
		Tool:       1,
		StepCount:  15,
	}
}

// Request is everything needed to generate one warmup program.
type Request struct {
	Machine MachineProfile
	Settings
	Dialect Dialect
}

func NewRequest(m MachineProfile, s Settings, d Dialect) Request {
	return Request{Machine: m, Settings: s, Dialect: d}
}
