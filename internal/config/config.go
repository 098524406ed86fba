package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	HardwareSim = "sim"
	HardwareI2C = "i2c"
)

type AppConfig struct {
	ListenAddr string
	WSAddr     string
	TickPeriod time.Duration

	Hardware   string
	I2CBus     string
	WiringFile string
	Swaps      [][2]int

	StartFEN  string
	StartMode string

	RedisURL       string
	SnapshotTTLSec int
	BoardID        string

	RelayURL   string
	RelayToken string

	MsgcatDir string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:     ":9999",
		TickPeriod:     50 * time.Millisecond,
		Hardware:       HardwareSim,
		I2CBus:         "/dev/i2c-1",
		StartFEN:       "startpos",
		StartMode:      "play",
		SnapshotTTLSec: 86400,
		BoardID:        "default",
	}

	if v := strings.TrimSpace(os.Getenv("BOARD_LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	cfg.WSAddr = strings.TrimSpace(os.Getenv("BOARD_WS_ADDR"))

	if v := strings.TrimSpace(os.Getenv("BOARD_TICK_MS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("BOARD_TICK_MS must be a positive integer: %q", v)
		}
		cfg.TickPeriod = time.Duration(n) * time.Millisecond
	}

	if v := strings.ToLower(strings.TrimSpace(os.Getenv("BOARD_HARDWARE"))); v != "" {
		cfg.Hardware = v
	}
	if v := strings.TrimSpace(os.Getenv("BOARD_I2C_BUS")); v != "" {
		cfg.I2CBus = v
	}
	cfg.WiringFile = strings.TrimSpace(os.Getenv("BOARD_WIRING_FILE"))
	if v := strings.TrimSpace(os.Getenv("BOARD_SWAP")); v != "" {
		swaps, err := ParseSwaps(v)
		if err != nil {
			return nil, err
		}
		cfg.Swaps = swaps
	}

	if v := strings.TrimSpace(os.Getenv("BOARD_START_FEN")); v != "" {
		cfg.StartFEN = v
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("BOARD_START_MODE"))); v != "" {
		cfg.StartMode = v
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	if v := strings.TrimSpace(os.Getenv("BOARD_SNAPSHOT_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SnapshotTTLSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("BOARD_ID")); v != "" {
		cfg.BoardID = v
	}

	cfg.RelayURL = strings.TrimSpace(os.Getenv("RELAY_URL"))
	cfg.RelayToken = strings.TrimSpace(os.Getenv("RELAY_TOKEN"))
	cfg.MsgcatDir = strings.TrimSpace(os.Getenv("MSGCAT_DIR"))

	if cfg.ListenAddr == "" {
		return nil, errors.New("BOARD_LISTEN_ADDR is required")
	}
	switch cfg.Hardware {
	case HardwareSim, HardwareI2C:
	default:
		return nil, fmt.Errorf("BOARD_HARDWARE must be %s or %s: %q", HardwareSim, HardwareI2C, cfg.Hardware)
	}
	switch cfg.StartMode {
	case "setup", "inspect", "play":
	default:
		return nil, fmt.Errorf("BOARD_START_MODE must be setup, inspect or play: %q", cfg.StartMode)
	}

	return cfg, nil
}

// SnapshotTTL is the Redis snapshot expiry.
func (c *AppConfig) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLSec) * time.Second
}

// ParseSwaps reads "a:b,c:d" pairs of decimal square indexes.
func ParseSwaps(v string) ([][2]int, error) {
	var out [][2]int
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		a, b, ok := strings.Cut(p, ":")
		if !ok {
			return nil, fmt.Errorf("BOARD_SWAP entry %q: want a:b", p)
		}
		x, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return nil, fmt.Errorf("BOARD_SWAP entry %q: %w", p, err)
		}
		y, err := strconv.Atoi(strings.TrimSpace(b))
		if err != nil {
			return nil, fmt.Errorf("BOARD_SWAP entry %q: %w", p, err)
		}
		out = append(out, [2]int{x, y})
	}
	return out, nil
}
