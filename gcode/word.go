package gcode

import (
	"strconv"
	"strings"
)

// Precision is the number of decimals written for word arguments.
const Precision = 3

type Word struct {
	W   byte
	Arg float64
}

func (w Word) IsAxis() bool {
	switch w.W {
	case 'X', 'Y', 'Z':
		return true
	}
	return false
}

func (w Word) IsValid() bool {
	return w.W >= 'A' && w.W <= 'Z'
}

// FormatFloat formats f with at most prec decimals and no trailing zeros.
func FormatFloat(f float64, prec int) string {
	s := strconv.FormatFloat(f, 'f', prec, 64)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
	}
	s = strings.TrimRight(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

// FormatSigned is FormatFloat with an explicit sign, as conversational
// controls expect (X+50.8, F+240).
func FormatSigned(f float64, prec int) string {
	s := FormatFloat(f, prec)
	if strings.HasPrefix(s, "-") {
		return s
	}
	return "+" + s
}

func (w Word) String() string {
	return string(w.W) + FormatFloat(w.Arg, Precision)
}

// Signed renders the word with an explicit sign on the argument.
func (w Word) Signed() string {
	return string(w.W) + FormatSigned(w.Arg, Precision)
}
