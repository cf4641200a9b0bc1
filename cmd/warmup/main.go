package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mastercactapus/cncwarmup/config"
	"github.com/mastercactapus/cncwarmup/dialect"
	"github.com/mastercactapus/cncwarmup/machine"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	machines machine.Table

	envFile      string
	logLevel     string
	machinesFile string
}

func newLogger(level string, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level = strings.ToLower(level)
	if level == "off" || level == "none" {
		l.SetOutput(io.Discard)
		return l
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	l.SetOutput(out)
	return l
}

func (a *app) init() error {
	var files []string
	if a.envFile != "" {
		files = append(files, a.envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.machinesFile != "" {
		cfg.MachinesFile = a.machinesFile
	}
	a.cfg = cfg
	a.log = newLogger(cfg.LogLevel, os.Stderr)

	a.machines, err = machine.LoadFile(cfg.MachinesFile)
	if err != nil {
		return err
	}
	return nil
}

// emitterOptions are the dialect options configured for this process.
func (a *app) emitterOptions() (dialect.Options, error) {
	layout, err := dialect.ParseLayout(a.cfg.Layout)
	if err != nil {
		return dialect.Options{}, err
	}
	if a.cfg.SafeZ < 0 {
		return dialect.Options{}, fmt.Errorf("invalid safe Z %g: must be a non-negative height", a.cfg.SafeZ)
	}
	opt := dialect.DefaultOptions()
	opt.Layout = layout
	opt.SafeZ = dialect.SafeHeight(a.cfg.SafeZ)
	return opt, nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "warmup",
		Short:         "Generate spindle and axis warmup programs for CNC mills.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", "", "Env file to load instead of ./.env.")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error, off).")
	pf.StringVar(&a.machinesFile, "machines", "", "YAML file with additional machine profiles.")

	root.AddCommand(
		a.generateCmd(),
		a.machinesCmd(),
		a.serveCmd(),
		a.sendCmd(),
	)
	return root
}

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		logrus.WithError(err).Error("warmup failed")
		os.Exit(1)
	}
}
