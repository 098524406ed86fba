package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/park285/reedboard/internal/msgcat"
	"github.com/park285/reedboard/internal/protocol"
	"github.com/park285/reedboard/pkg/boarddto"
)

type fakeExec struct{}

func (fakeExec) Submit(_ context.Context, cmd boarddto.Command) (boarddto.Response, error) {
	if cmd.Action == boarddto.ActionPing {
		return boarddto.Response{OK: true, Action: cmd.Action, Reply: "pong"}, nil
	}
	return boarddto.Response{Action: cmd.Action, Error: &boarddto.DomainError{Code: boarddto.CodeUnknownCommand}}, nil
}

func TestHubFanOut(t *testing.T) {
	h := NewHub(nil)
	a := h.Subscribe("a", 1)
	b := h.Subscribe("b", 1)
	require.Equal(t, 2, h.Len())

	h.Publish(boarddto.Event{Type: boarddto.EventMode, Mode: "play"})
	h.Publish(boarddto.Event{Type: boarddto.EventMode, Mode: "setup"})

	assert.Equal(t, "play", (<-a.Events()).Mode)
	assert.Equal(t, "play", (<-b.Events()).Mode)
	assert.Equal(t, int64(1), a.Dropped())

	h.Unsubscribe(a)
	h.Unsubscribe(a)
	_, open := <-a.Events()
	assert.False(t, open)
	assert.Equal(t, 1, h.Len())
}

func startLineServer(t *testing.T) (*LineServer, *Hub) {
	t.Helper()
	hub := NewHub(nil)
	srv := NewLineServer("127.0.0.1:0", hub, fakeExec{}, protocol.NewCodec(msgcat.Default()), nil)
	require.NoError(t, srv.Listen())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("line server did not stop")
		}
	})
	return srv, hub
}

func dialLine(t *testing.T, srv *LineServer) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))
	r := bufio.NewReader(conn)
	greeting, err := r.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "Hello\n", greeting)
	return conn, r
}

func TestLineServerCommandAndBroadcast(t *testing.T) {
	srv, hub := startLineServer(t)
	conn, r := dialLine(t, srv)

	_, err := conn.Write([]byte(`{"action":"ping"}` + "\n"))
	require.NoError(t, err)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	var resp boarddto.Response
	require.NoError(t, json.Unmarshal([]byte(line), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "pong", resp.Reply)

	_, err = conn.Write([]byte("not json\n"))
	require.NoError(t, err)
	line, err = r.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"bad-request"`)

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)
	hub.Publish(boarddto.Event{Type: boarddto.EventOccupancy, Square: "e2", State: boarddto.PieceUp})
	line, err = r.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"piece at e2 is now empty"`)
}

func TestLineServerClosesOnIllegalChars(t *testing.T) {
	srv, hub := startLineServer(t)
	conn, r := dialLine(t, srv)

	_, err := conn.Write([]byte("ping; rm -rf\n"))
	require.NoError(t, err)
	_, err = r.ReadString('\n')
	assert.Error(t, err, "connection must be closed")
	require.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 5*time.Millisecond)
}

// tcpPair returns both ends of a loopback connection.
func tcpPair(t *testing.T) (server, client net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	client, err = net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	server, err = ln.Accept()
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })
	return server, client
}

// brokenWriter fails every write after a short stall.
type brokenWriter struct{ net.Conn }

func (brokenWriter) Write([]byte) (int, error) {
	time.Sleep(100 * time.Millisecond)
	return 0, errors.New("broken pipe")
}

func handleReturns(t *testing.T, srv *LineServer, ctx context.Context, conn net.Conn) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.handle(ctx, conn)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler still blocked on an idle client")
	}
}

func TestLineHandleAfterShutdownReleasesIdleClient(t *testing.T) {
	hub := NewHub(nil)
	srv := NewLineServer("127.0.0.1:0", hub, fakeExec{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	server, _ := tcpPair(t)
	handleReturns(t, srv, ctx, server)
	assert.Equal(t, 0, hub.Len())
}

func TestLineHandleWriteFailureReleasesReader(t *testing.T) {
	hub := NewHub(nil)
	srv := NewLineServer("127.0.0.1:0", hub, fakeExec{}, nil, nil)

	server, client := tcpPair(t)
	// more pipelined commands than the reply backlog holds
	_, err := client.Write([]byte(strings.Repeat(`{"action":"ping"}`+"\n", 20)))
	require.NoError(t, err)

	handleReturns(t, srv, context.Background(), brokenWriter{server})
	assert.Equal(t, 0, hub.Len())
}

func TestWSServer(t *testing.T) {
	hub := NewHub(nil)
	ws := NewWSServer("", hub, fakeExec{}, protocol.NewCodec(msgcat.Default()), nil)
	ts := httptest.NewServer(ws.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"action":"ping"}`)))
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var resp boarddto.Response
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, "pong", resp.Reply)

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)
	hub.Publish(boarddto.Event{Type: boarddto.EventMode, Mode: "inspect"})
	_, data, err = conn.Read(ctx)
	require.NoError(t, err)
	var ev map[string]string
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, "mode", ev["type"])
	assert.Equal(t, "mode is now inspect", ev["text"])
}
