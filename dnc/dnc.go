// Package dnc drip-feeds program text to a controller over a serial link.
package dnc

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tarm/serial"
)

// Software flow control bytes sent by the controller.
const (
	XON  = 0x11 // DC1
	XOFF = 0x13 // DC3
)

type Options struct {
	// Frame wraps the transfer in '%' lines when the text lacks them.
	Frame bool
	// Delay is the pause after every line.
	Delay time.Duration
	// EOL terminates every line, "\r\n" when empty.
	EOL string
}

type Conn struct {
	rw  io.ReadWriter
	opt Options
	log logrus.FieldLogger

	sendMx sync.Mutex

	mx     sync.Mutex
	paused bool
	resume chan struct{}
}

// NewConn starts watching rw for flow control bytes. The watcher exits when
// a read fails, normally because the port was closed.
func NewConn(rw io.ReadWriter, opt Options, log logrus.FieldLogger) *Conn {
	if opt.EOL == "" {
		opt.EOL = "\r\n"
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	c := &Conn{
		rw:     rw,
		opt:    opt,
		log:    log,
		resume: make(chan struct{}),
	}
	close(c.resume)
	go c.readLoop()
	return c
}

type SerialOptions struct {
	Port     string
	Baud     int
	DataBits byte
	// Parity is 'N', 'E' or 'O'.
	Parity   byte
	StopBits byte
}

// OpenSerial opens an RS-232 port and wraps it in a Conn.
func OpenSerial(so SerialOptions, opt Options, log logrus.FieldLogger) (*Conn, error) {
	p, err := serial.OpenPort(&serial.Config{
		Name:     so.Port,
		Baud:     so.Baud,
		Size:     so.DataBits,
		Parity:   serial.Parity(so.Parity),
		StopBits: serial.StopBits(so.StopBits),
	})
	if err != nil {
		return nil, err
	}
	return NewConn(p, opt, log), nil
}

func (c *Conn) readLoop() {
	buf := make([]byte, 64)
	for {
		n, err := c.rw.Read(buf)
		for _, b := range buf[:n] {
			switch b {
			case XOFF:
				c.setPaused(true)
			case XON:
				c.setPaused(false)
			}
		}
		if err != nil {
			if err != io.EOF {
				c.log.WithError(err).Debug("dnc read stopped")
			}
			c.setPaused(false)
			return
		}
	}
}

func (c *Conn) setPaused(p bool) {
	c.mx.Lock()
	defer c.mx.Unlock()
	if p == c.paused {
		return
	}
	c.paused = p
	if p {
		c.resume = make(chan struct{})
	} else {
		close(c.resume)
	}
	c.log.WithField("paused", p).Debug("dnc flow control")
}

// Paused reports whether the controller last asked to stop transmission.
func (c *Conn) Paused() bool {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.paused
}

func (c *Conn) wait(ctx context.Context) error {
	c.mx.Lock()
	ch := c.resume
	c.mx.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send writes the program in r line by line, honoring XOFF and ctx. It
// returns the number of bytes written.
func (c *Conn) Send(ctx context.Context, r io.Reader) (int64, error) {
	c.sendMx.Lock()
	defer c.sendMx.Unlock()

	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	if c.opt.Frame {
		if len(lines) == 0 || lines[0] != "%" {
			lines = append([]string{"%"}, lines...)
		}
		if len(lines) == 1 || lines[len(lines)-1] != "%" {
			lines = append(lines, "%")
		}
	}

	var total int64
	for i, line := range lines {
		if c.Paused() {
			c.log.WithField("line", i+1).Debug("dnc waiting for XON")
		}
		err := c.wait(ctx)
		if err != nil {
			return total, err
		}
		n, err := io.WriteString(c.rw, line+c.opt.EOL)
		total += int64(n)
		if err != nil {
			return total, err
		}
		if c.opt.Delay > 0 && i < len(lines)-1 {
			t := time.NewTimer(c.opt.Delay)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return total, ctx.Err()
			}
		}
	}
	c.log.WithFields(logrus.Fields{"lines": len(lines), "bytes": total}).Info("dnc transfer complete")
	return total, nil
}

// Close closes the underlying port if it can be closed.
func (c *Conn) Close() error {
	if cl, ok := c.rw.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
