package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mastercactapus/cncwarmup/machine"
	"github.com/mastercactapus/cncwarmup/ramp"
)

type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(r io.Reader, w io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(r), out: w}
}

// ask shows label with its default and calls parse until it accepts the
// answer. An empty answer selects the default.
func (p *prompter) ask(label, def string, parse func(string) error) error {
	for {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return err
			}
			return io.ErrUnexpectedEOF
		}
		s := strings.TrimSpace(p.in.Text())
		if s == "" {
			s = def
		}
		err := parse(s)
		if err == nil {
			return nil
		}
		fmt.Fprintf(p.out, "  invalid: %v\n", err)
	}
}

func (p *prompter) float(label string, v *float64) error {
	return p.ask(label, num(*v), func(s string) error {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return errors.New("enter a number")
		}
		*v = f
		return nil
	})
}

func (p *prompter) int(label string, v *int) error {
	return p.ask(label, strconv.Itoa(*v), func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil {
			return errors.New("enter a whole number")
		}
		*v = n
		return nil
	})
}

func (p *prompter) bool(label string, v *bool) error {
	def := "n"
	if *v {
		def = "y"
	}
	return p.ask(label+" (y/n)", def, func(s string) error {
		switch strings.ToLower(s) {
		case "y", "yes", "1", "true":
			*v = true
		case "n", "no", "0", "false":
			*v = false
		default:
			return errors.New("enter y or n")
		}
		return nil
	})
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// promptRequest collects a request from the operator, starting from the
// given machine ID and request values. Answers that fail validation are
// reported and asked again with the last answers as defaults.
func promptRequest(p *prompter, table machine.Table, id string, req ramp.Request) (string, ramp.Request, error) {
	fmt.Fprintln(p.out, "Machines:")
	for _, mid := range table.IDs() {
		m, _ := table.Lookup(mid)
		fmt.Fprintf(p.out, "  %s: %s (X%s Y%s)\n", mid, m.Name, num(m.XTravel), num(m.YTravel))
	}

	for {
		err := p.ask("Machine", id, func(s string) error {
			m, err := table.Lookup(s)
			if err != nil {
				return err
			}
			id, req.Machine = s, m
			return nil
		})
		if err != nil {
			return "", req, err
		}
		err = p.ask("Controller (label, while)", req.Dialect.String(), func(s string) error {
			d, err := ramp.ParseDialect(s)
			if err != nil {
				return err
			}
			req.Dialect = d
			return nil
		})
		if err != nil {
			return "", req, err
		}

		s := &req.Settings
		for _, q := range []func() error{
			func() error { return p.float("Start spindle RPM", &s.StartRPM) },
			func() error { return p.float("Finish spindle RPM", &s.FinishRPM) },
			func() error { return p.float("Start feedrate (mm/min)", &s.StartFeed) },
			func() error { return p.float("Finish feedrate (mm/min)", &s.FinishFeed) },
			func() error { return p.bool("Flood coolant", &s.Coolant) },
			func() error { return p.int("Tool number", &s.Tool) },
			func() error { return p.int("Steps per leg", &s.StepCount) },
		} {
			if err := q(); err != nil {
				return "", req, err
			}
		}

		err = req.Validate()
		if err == nil {
			return id, req, nil
		}
		fmt.Fprintf(p.out, "Invalid warmup: %v\n", err)
	}
}
