package main

import (
	"fmt"

	"github.com/mastercactapus/cncwarmup/dialect"
	"github.com/mastercactapus/cncwarmup/ramp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// buildProgram renders req and returns the program with its file extension.
func buildProgram(req ramp.Request, opt dialect.Options) (string, string, error) {
	e, err := dialect.New(req.Dialect, opt)
	if err != nil {
		return "", "", err
	}
	p, err := ramp.NewPlan(req)
	if err != nil {
		return "", "", err
	}
	return e.Render(p), e.Extension(), nil
}

type generateFlags struct {
	machineID       string
	dialect         string
	layout          string
	coolantOffFirst bool
	interactive     bool
	outDir          string
	stdout          bool

	settings ramp.Settings
}

func (a *app) generateCmd() *cobra.Command {
	var f generateFlags
	def := ramp.DefaultSettings()

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a warmup program for one machine.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.generate(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.machineID, "machine", "m", "1", "Machine ID from the machine table.")
	fl.StringVarP(&f.dialect, "dialect", "d", "", "Controller dialect: label (Heidenhain) or while (Fanuc).")
	fl.StringVar(&f.layout, "layout", "", "Leg layout: loop or unrolled.")
	fl.BoolVar(&f.coolantOffFirst, "coolant-off-first", false, "Turn coolant off before stopping the spindle.")
	fl.BoolVarP(&f.interactive, "interactive", "i", false, "Prompt for every parameter.")
	fl.StringVarP(&f.outDir, "out", "o", "", "Output directory.")
	fl.BoolVar(&f.stdout, "stdout", false, "Print the program instead of writing a file.")

	fl.Float64Var(&f.settings.StartRPM, "start-rpm", def.StartRPM, "Starting spindle speed.")
	fl.Float64Var(&f.settings.FinishRPM, "finish-rpm", def.FinishRPM, "Final spindle speed.")
	fl.Float64Var(&f.settings.StartFeed, "start-feed", def.StartFeed, "Starting feedrate in mm/min.")
	fl.Float64Var(&f.settings.FinishFeed, "finish-feed", def.FinishFeed, "Final feedrate in mm/min.")
	fl.BoolVar(&f.settings.Coolant, "coolant", def.Coolant, "Run flood coolant during the warmup.")
	fl.IntVar(&f.settings.Tool, "tool", def.Tool, "Tool number to load.")
	fl.IntVar(&f.settings.StepCount, "steps", def.StepCount, "Ramp steps per leg.")
	return cmd
}

// resolveSettings overlays explicitly set flags on the configured defaults.
func resolveSettings(base ramp.Settings, f ramp.Settings, changed func(string) bool) ramp.Settings {
	s := base
	if changed("start-rpm") {
		s.StartRPM = f.StartRPM
	}
	if changed("finish-rpm") {
		s.FinishRPM = f.FinishRPM
	}
	if changed("start-feed") {
		s.StartFeed = f.StartFeed
	}
	if changed("finish-feed") {
		s.FinishFeed = f.FinishFeed
	}
	if changed("coolant") {
		s.Coolant = f.Coolant
	}
	if changed("tool") {
		s.Tool = f.Tool
	}
	if changed("steps") {
		s.StepCount = f.StepCount
	}
	return s
}

func (a *app) generate(cmd *cobra.Command, f generateFlags) error {
	opt, err := a.emitterOptions()
	if err != nil {
		return err
	}
	if f.layout != "" {
		opt.Layout, err = dialect.ParseLayout(f.layout)
		if err != nil {
			return err
		}
	}
	if f.coolantOffFirst {
		opt.CoolantOff = dialect.CoolantOffBeforeSpindleStop
	}

	d := a.cfg.Dialect
	if f.dialect != "" {
		d, err = ramp.ParseDialect(f.dialect)
		if err != nil {
			return err
		}
	}

	req := ramp.Request{
		Settings: resolveSettings(a.cfg.Settings, f.settings, cmd.Flags().Changed),
		Dialect:  d,
	}
	id := f.machineID
	if f.interactive {
		id, req, err = promptRequest(newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()), a.machines, id, req)
		if err != nil {
			return err
		}
	} else {
		req.Machine, err = a.machines.Lookup(id)
		if err != nil {
			return err
		}
	}

	text, ext, err := buildProgram(req, opt)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if f.stdout {
		_, err = fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	}

	dir := f.outDir
	if dir == "" {
		dir = a.cfg.OutputDir
	}
	name, err := writeProgram(dir, programFileName(id, ext), text)
	if err != nil {
		return err
	}
	a.log.WithFields(logrus.Fields{
		"machine": id,
		"dialect": req.Dialect.String(),
		"layout":  opt.Layout.String(),
		"file":    name,
	}).Info("warmup program written")
	fmt.Fprintln(cmd.OutOrStdout(), name)
	return nil
}

func (a *app) machinesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "machines",
		Short: "List the machine table.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, id := range a.machines.IDs() {
				m, _ := a.machines.Lookup(id)
				fmt.Fprintf(out, "%s\t%s\tX%s\tY%s\n", id, m.Name, num(m.XTravel), num(m.YTravel))
			}
			return nil
		},
	}
}

