package gcode

import (
	"errors"
	"strings"
)

type Block []Word

// Line renders the block with words separated by spaces, e.g. G1 X10 F200.
func (b Block) Line() string {
	parts := make([]string, len(b))
	for i, g := range b {
		parts[i] = g.String()
	}
	return strings.Join(parts, " ")
}

// Signed renders the block for conversational controls: axis, feed and
// speed arguments carry an explicit sign (X+10 Y-5 R0 F+200), other words
// do not.
func (b Block) Signed() string {
	parts := make([]string, len(b))
	for i, g := range b {
		if g.IsAxis() || g.W == 'F' || g.W == 'S' {
			parts[i] = g.Signed()
		} else {
			parts[i] = g.String()
		}
	}
	return strings.Join(parts, " ")
}

func (b Block) Validate() error {
	var checkWord [256]bool
	for _, g := range b {
		if !g.IsValid() {
			return errors.New("invalid word in block")
		}
		if g.W != 'G' && g.W != 'M' && checkWord[g.W] {
			return errors.New("word was repeated in a block")
		}
		checkWord[g.W] = true
	}
	return nil
}
