// Package spjs talks to a serial-port-json-server bridge over its websocket.
package spjs

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// BatchSize is the number of lines sent per sendjson command.
const BatchSize = 100

var ErrClosed = errors.New("spjs: connection closed")

type DataFrame struct {
	Port string `json:"P"`
	Data string `json:"D"`
}
type CmdStatus struct {
	Cmd        string
	QueueCount int    `json:"QCnt"`
	ID         string `json:"Id"`
	Port       string `json:"P"`
	ErrorCode  string
}

type ErrorMessage struct {
	Error string
}
type SerialPortList struct {
	SerialPorts []SerialPort
}
type SerialPort struct {
	Name            string
	Friendly        string
	IsOpen          bool
	IsPrimary       bool
	Baud            int
	BufferAlgorithm string
}

type JSON struct {
	Port string `json:"P"`
	Data []Data
}
type Data struct {
	Data string `json:"D"`
	ID   string `json:"Id"`
}

type Client struct {
	ws  *websocket.Conn
	log logrus.FieldLogger

	wmx  sync.Mutex
	msgs chan interface{}
	done chan struct{}
}

func Dial(ctx context.Context, url string, log logrus.FieldLogger) (*Client, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", url, err)
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	c := &Client{
		ws:   ws,
		log:  log,
		msgs: make(chan interface{}, 1000),
		done: make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) Close() error { return c.ws.Close() }

func parseMessage(data []byte) (val interface{}, err error) {
	var msg map[string]json.RawMessage
	err = json.Unmarshal(data, &msg)
	if err != nil {
		return nil, err
	}
	check := func(fieldName string, v interface{}) bool {
		if msg[fieldName] == nil {
			return false
		}
		val = v
		err = json.Unmarshal(data, val)
		return true
	}
	if check("Error", &ErrorMessage{}) {
		return
	}
	if check("SerialPorts", &SerialPortList{}) {
		return
	}
	if check("Cmd", &CmdStatus{}) {
		return
	}
	if check("D", &DataFrame{}) {
		return
	}

	return nil, errors.New("unknown message: " + string(data))
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.log.WithError(err).Debug("spjs read stopped")
			return
		}
		if !bytes.HasPrefix(data, []byte("{")) {
			// ignore echo messages
			continue
		}
		val, err := parseMessage(data)
		if err != nil {
			c.log.WithError(err).Warn("spjs parse")
			continue
		}
		select {
		case c.msgs <- val:
		default:
			c.log.Warn("spjs message dropped")
		}
	}
}

func (c *Client) write(payload []byte) error {
	c.wmx.Lock()
	defer c.wmx.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *Client) next(ctx context.Context) (interface{}, error) {
	select {
	case v := <-c.msgs:
		return v, nil
	case <-c.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// List asks the bridge for its serial ports.
func (c *Client) List(ctx context.Context) ([]SerialPort, error) {
	err := c.write([]byte("list"))
	if err != nil {
		return nil, err
	}
	for {
		v, err := c.next(ctx)
		if err != nil {
			return nil, err
		}
		switch m := v.(type) {
		case *SerialPortList:
			return m.SerialPorts, nil
		case *ErrorMessage:
			return nil, errors.New(m.Error)
		}
	}
}

// Send queues every non-empty line of r on port and waits until the bridge
// reports the last one complete. It returns the number of lines sent.
func (c *Client) Send(ctx context.Context, port string, r io.Reader) (int, error) {
	prefix := uuid.NewString()[:8]
	var data []Data
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		data = append(data, Data{Data: line + "\n", ID: prefix + "-" + strconv.Itoa(len(data)+1)})
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, nil
	}

	for i := 0; i < len(data); i += BatchSize {
		end := i + BatchSize
		if end > len(data) {
			end = len(data)
		}
		payload, err := json.Marshal(JSON{Port: port, Data: data[i:end]})
		if err != nil {
			return 0, err
		}
		err = c.write(append([]byte("sendjson "), payload...))
		if err != nil {
			return 0, fmt.Errorf("sendjson: %w", err)
		}
	}
	c.log.WithFields(logrus.Fields{"port": port, "lines": len(data)}).Info("spjs program queued")

	last := data[len(data)-1].ID
	for {
		v, err := c.next(ctx)
		if err != nil {
			return 0, err
		}
		switch m := v.(type) {
		case *ErrorMessage:
			return 0, errors.New(m.Error)
		case *CmdStatus:
			if m.Cmd == "Error" || m.ErrorCode != "" {
				return 0, fmt.Errorf("spjs: line %s failed: %s", m.ID, m.ErrorCode)
			}
			if m.Cmd == "Complete" && m.ID == last {
				return len(data), nil
			}
		}
	}
}
