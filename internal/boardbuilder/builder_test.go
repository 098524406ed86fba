package boardbuilder

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/reedboard/internal/config"
	"github.com/park285/reedboard/internal/square"
	"github.com/park285/reedboard/internal/store"
)

const afterE4 = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		ListenAddr:     "127.0.0.1:0",
		TickPeriod:     5 * time.Millisecond,
		Hardware:       config.HardwareSim,
		StartFEN:       "startpos",
		StartMode:      "play",
		SnapshotTTLSec: 60,
		BoardID:        "t",
	}
}

func TestNewSimSeedsFromPosition(t *testing.T) {
	d, err := New(context.Background(), testConfig(), nil)
	require.NoError(t, err)
	defer d.Close()

	require.NotNil(t, d.Sim)
	require.NoError(t, d.Sim.Refresh())
	assert.True(t, d.Sim.Occupied(square.MustParse("e2")))
	assert.False(t, d.Sim.Occupied(square.MustParse("e4")))
	assert.Nil(t, d.Store)
	assert.Nil(t, d.WS)
	assert.Nil(t, d.Forwarder)
}

func TestNewResumesSnapshot(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr()

	st, err := store.Open(context.Background(), cfg.RedisURL, cfg.BoardID, time.Minute, nil)
	require.NoError(t, err)
	require.NoError(t, st.Save(context.Background(), store.Snapshot{FEN: afterE4, Mode: "inspect"}))
	_ = st.Close()

	d, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, afterE4, d.Engine.FEN())
	assert.Equal(t, "inspect", d.Controller.Mode().String())
}

func TestRunServesLineProtocol(t *testing.T) {
	d, err := New(context.Background(), testConfig(), nil)
	require.NoError(t, err)
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return d.Lines.Addr() != nil }, 2*time.Second, 5*time.Millisecond)
	conn, err := net.Dial("tcp", d.Lines.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(3 * time.Second))
	r := bufio.NewReader(conn)

	greeting, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "Hello\n", greeting)

	_, err = conn.Write([]byte(`{"action":"ping"}` + "\n"))
	require.NoError(t, err)
	reply, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, reply, `"reply":"pong"`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
