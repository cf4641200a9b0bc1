package dnc

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePort struct {
	*io.PipeReader

	mx  sync.Mutex
	out bytes.Buffer
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.out.Write(p)
}
func (f *fakePort) String() string {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.out.String()
}

func newFake() (*fakePort, *io.PipeWriter) {
	r, w := io.Pipe()
	return &fakePort{PipeReader: r}, w
}

func TestConn_Send(t *testing.T) {
	port, ctl := newFake()
	defer ctl.Close()

	c := NewConn(port, Options{Frame: true, EOL: "\n"}, nil)
	n, err := c.Send(context.Background(), strings.NewReader("O1000\n\nG90\r\nM30\n"))
	require.NoError(t, err)
	assert.Equal(t, "%\nO1000\nG90\nM30\n%\n", port.String())
	assert.EqualValues(t, len(port.String()), n)
}

func TestConn_SendKeepsFraming(t *testing.T) {
	port, ctl := newFake()
	defer ctl.Close()

	c := NewConn(port, Options{Frame: true}, nil)
	_, err := c.Send(context.Background(), strings.NewReader("%\nM30\n%\n"))
	require.NoError(t, err)
	assert.Equal(t, "%\r\nM30\r\n%\r\n", port.String())
}

func TestConn_FlowControl(t *testing.T) {
	port, ctl := newFake()
	defer ctl.Close()

	c := NewConn(port, Options{}, nil)
	_, err := ctl.Write([]byte{XOFF})
	require.NoError(t, err)
	assert.Eventually(t, c.Paused, time.Second, time.Millisecond)

	done := make(chan error, 1)
	go func() {
		_, err := c.Send(context.Background(), strings.NewReader("G0 X0\n"))
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, port.String())

	_, err = ctl.Write([]byte{XON})
	require.NoError(t, err)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("send did not resume")
	}
	assert.Equal(t, "G0 X0\r\n", port.String())
}

func TestConn_SendCanceled(t *testing.T) {
	port, ctl := newFake()
	defer ctl.Close()

	c := NewConn(port, Options{}, nil)
	_, err := ctl.Write([]byte{XOFF})
	require.NoError(t, err)
	assert.Eventually(t, c.Paused, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	n, err := c.Send(ctx, strings.NewReader("M30\n"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, n)
}

func TestConn_Delay(t *testing.T) {
	port, ctl := newFake()
	defer ctl.Close()

	c := NewConn(port, Options{Delay: 5 * time.Millisecond}, nil)
	start := time.Now()
	_, err := c.Send(context.Background(), strings.NewReader("A\nB\nC\n"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}
