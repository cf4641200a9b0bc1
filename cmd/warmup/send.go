package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mastercactapus/cncwarmup/dnc"
	"github.com/mastercactapus/cncwarmup/spjs"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type sendFlags struct {
	port    string
	baud    int
	spjsURL string
	delay   time.Duration
	frame   string
	parity  string
	list    bool
	timeout time.Duration
}

func (a *app) sendCmd() *cobra.Command {
	var f sendFlags
	cmd := &cobra.Command{
		Use:   "send [program]",
		Short: "Send a program to a controller over RS-232 or an SPJS bridge.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.port == "" {
				f.port = a.cfg.Serial.Port
			}
			if f.baud == 0 {
				f.baud = a.cfg.Serial.Baud
			}
			if f.spjsURL == "" {
				f.spjsURL = a.cfg.SPJSURL
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if f.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, f.timeout)
				defer cancel()
			}
			if f.list {
				return a.listPorts(ctx, cmd, f)
			}
			if len(args) == 0 {
				return fmt.Errorf("send: program file required")
			}
			return a.send(ctx, args[0], f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.port, "port", "", "Serial port path (or port name on the SPJS bridge).")
	fl.IntVar(&f.baud, "baud", 0, "Serial baud rate.")
	fl.StringVar(&f.parity, "parity", "N", "Serial parity: N, E or O.")
	fl.StringVar(&f.spjsURL, "spjs", "", "Websocket URL of an SPJS bridge; serial port is used when empty.")
	fl.DurationVar(&f.delay, "delay", 0, "Pause after each line on a serial link.")
	fl.StringVar(&f.frame, "frame", "auto", "Wrap the program in '%' lines: auto, yes or no.")
	fl.BoolVar(&f.list, "list", false, "List the ports of the SPJS bridge and exit.")
	fl.DurationVar(&f.timeout, "timeout", 0, "Abort the transfer after this long.")
	return cmd
}

// framed reports whether a transfer of name should be wrapped in '%' lines.
// In auto mode this holds for while-dialect (.nc) programs.
func framed(mode, name string) (bool, error) {
	switch strings.ToLower(mode) {
	case "", "auto":
		return strings.EqualFold(filepath.Ext(name), ".nc"), nil
	case "yes", "y", "true", "1":
		return true, nil
	case "no", "n", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid frame mode %q", mode)
}

func (a *app) listPorts(ctx context.Context, cmd *cobra.Command, f sendFlags) error {
	if f.spjsURL == "" {
		return fmt.Errorf("send: --list needs an SPJS bridge")
	}
	c, err := spjs.Dial(ctx, f.spjsURL, a.log)
	if err != nil {
		return err
	}
	defer c.Close()
	ports, err := c.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range ports {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\topen=%t\tbaud=%d\n", p.Name, p.Friendly, p.IsOpen, p.Baud)
	}
	return nil
}

func (a *app) send(ctx context.Context, name string, f sendFlags) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	log := a.log.WithFields(logrus.Fields{"file": name, "port": f.port})

	if f.spjsURL != "" {
		c, err := spjs.Dial(ctx, f.spjsURL, log)
		if err != nil {
			return err
		}
		defer c.Close()
		n, err := c.Send(ctx, f.port, file)
		if err != nil {
			return fmt.Errorf("send via spjs: %w", err)
		}
		log.WithField("lines", n).Info("program sent")
		return nil
	}

	frame, err := framed(f.frame, name)
	if err != nil {
		return err
	}
	if len(f.parity) != 1 || !strings.ContainsAny(strings.ToUpper(f.parity), "NEO") {
		return fmt.Errorf("invalid parity %q", f.parity)
	}
	conn, err := dnc.OpenSerial(dnc.SerialOptions{
		Port:   f.port,
		Baud:   f.baud,
		Parity: strings.ToUpper(f.parity)[0],
	}, dnc.Options{Frame: frame, Delay: f.delay}, log)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.port, err)
	}
	defer conn.Close()

	n, err := conn.Send(ctx, file)
	if err != nil {
		return fmt.Errorf("send via serial: %w", err)
	}
	log.WithField("bytes", n).Info("program sent")
	return nil
}
