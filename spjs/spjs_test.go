package spjs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bridge struct {
	mx      sync.Mutex
	batches []JSON
}

func (b *bridge) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	up := websocket.Upgrader{}
	ws, err := up.Upgrade(w, req, nil)
	if err != nil {
		return
	}
	defer ws.Close()
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		msg := string(data)
		if msg == "list" {
			ws.WriteJSON(SerialPortList{SerialPorts: []SerialPort{{Name: "/dev/ttyS0", Baud: 9600}}})
			continue
		}
		if !strings.HasPrefix(msg, "sendjson ") {
			continue
		}
		// echo, as the real bridge does
		ws.WriteMessage(websocket.TextMessage, data)

		var v JSON
		json.Unmarshal([]byte(strings.TrimPrefix(msg, "sendjson ")), &v)
		b.mx.Lock()
		b.batches = append(b.batches, v)
		b.mx.Unlock()
		for _, d := range v.Data {
			ws.WriteJSON(CmdStatus{Cmd: "Complete", ID: d.ID, Port: v.Port})
		}
	}
}

func dialTest(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClient_Send(t *testing.T) {
	b := &bridge{}
	c := dialTest(t, b)

	var prog strings.Builder
	for i := 0; i < 250; i++ {
		prog.WriteString("G1 X1\n\n")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n, err := c.Send(ctx, "/dev/ttyS0", strings.NewReader(prog.String()))
	require.NoError(t, err)
	assert.Equal(t, 250, n)

	b.mx.Lock()
	defer b.mx.Unlock()
	require.Len(t, b.batches, 3)
	assert.Len(t, b.batches[0].Data, BatchSize)
	assert.Len(t, b.batches[2].Data, 50)
	assert.Equal(t, "/dev/ttyS0", b.batches[0].Port)
	assert.Equal(t, "G1 X1\n", b.batches[1].Data[0].Data)
}

func TestClient_List(t *testing.T) {
	c := dialTest(t, &bridge{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ports, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, ports, 1)
	assert.Equal(t, "/dev/ttyS0", ports[0].Name)
}

func TestClient_SendError(t *testing.T) {
	c := dialTest(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		up := websocket.Upgrader{}
		ws, err := up.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		ws.ReadMessage()
		ws.WriteJSON(ErrorMessage{Error: "port not open"})
		ws.ReadMessage()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := c.Send(ctx, "COM1", strings.NewReader("M30\n"))
	assert.EqualError(t, err, "port not open")
}

func TestParseMessage(t *testing.T) {
	v, err := parseMessage([]byte(`{"Cmd":"Complete","Id":"x-1","P":"COM1"}`))
	require.NoError(t, err)
	assert.Equal(t, &CmdStatus{Cmd: "Complete", ID: "x-1", Port: "COM1"}, v)

	v, err = parseMessage([]byte(`{"P":"COM1","D":"ok\n"}`))
	require.NoError(t, err)
	assert.Equal(t, &DataFrame{Port: "COM1", Data: "ok\n"}, v)

	_, err = parseMessage([]byte(`{"Foo":1}`))
	assert.Error(t, err)
}
