package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/reedboard/internal/hardware"
	"github.com/park285/reedboard/internal/square"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"BOARD_LISTEN_ADDR", "BOARD_TICK_MS", "BOARD_HARDWARE", "BOARD_SWAP", "BOARD_START_MODE", "REDIS_URL"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, 50*time.Millisecond, cfg.TickPeriod)
	assert.Equal(t, HardwareSim, cfg.Hardware)
	assert.Equal(t, "startpos", cfg.StartFEN)
	assert.Equal(t, 24*time.Hour, cfg.SnapshotTTL())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BOARD_LISTEN_ADDR", "127.0.0.1:7000")
	t.Setenv("BOARD_TICK_MS", "20")
	t.Setenv("BOARD_HARDWARE", "I2C")
	t.Setenv("BOARD_SWAP", "35:36, 1:2")
	t.Setenv("BOARD_START_MODE", "inspect")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.ListenAddr)
	assert.Equal(t, 20*time.Millisecond, cfg.TickPeriod)
	assert.Equal(t, HardwareI2C, cfg.Hardware)
	assert.Equal(t, [][2]int{{35, 36}, {1, 2}}, cfg.Swaps)
	assert.Equal(t, "inspect", cfg.StartMode)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"BOARD_TICK_MS":    "0",
		"BOARD_HARDWARE":   "spi",
		"BOARD_START_MODE": "move",
		"BOARD_SWAP":       "35-36",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadWiringDefault(t *testing.T) {
	w, err := LoadWiring("", [][2]int{{35, 36}})
	require.NoError(t, err)
	want := hardware.DefaultWiring()
	want.Swaps = [][2]square.Index{{35, 36}}
	assert.Equal(t, want, w)
}

func TestLoadWiringProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wiring.yaml")
	profile := "addresses: [0x30, 0x31, 0x32, 0x33, 0x34, 0x35, 0x36, 0x37]\n" +
		"output_reversed: false\n" +
		"swaps: [[0, 1]]\n"
	require.NoError(t, os.WriteFile(path, []byte(profile), 0o644))

	w, err := LoadWiring(path, [][2]int{{35, 36}})
	require.NoError(t, err)
	assert.Equal(t, uint16(0x30), w.Addresses[0])
	assert.Equal(t, uint16(0x37), w.Addresses[7])
	assert.True(t, w.InputInverted)
	assert.False(t, w.OutputReversed)
	assert.Equal(t, [][2]square.Index{{0, 1}, {35, 36}}, w.Swaps)
}

func TestLoadWiringRejects(t *testing.T) {
	dir := t.TempDir()
	short := filepath.Join(dir, "short.yaml")
	require.NoError(t, os.WriteFile(short, []byte("addresses: [0x20]\n"), 0o644))
	_, err := LoadWiring(short, nil)
	assert.ErrorIs(t, err, hardware.ErrBadWiring)

	_, err = LoadWiring("", [][2]int{{3, 3}})
	assert.ErrorIs(t, err, hardware.ErrBadWiring)

	_, err = LoadWiring(filepath.Join(dir, "missing.yaml"), nil)
	assert.Error(t, err)
}
