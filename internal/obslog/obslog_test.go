package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_TO_FILE", "false")
	t.Setenv("LOG_FORMAT", "yaml")
	t.Setenv("LOG_CALLER", "")

	o := OptionsFromEnv()
	if o.Level != zapcore.WarnLevel {
		t.Fatalf("level: got %v", o.Level)
	}
	if o.File != "" {
		t.Fatalf("file sink should be disabled, got %q", o.File)
	}
	if o.Format != "legacy" || !o.Caller {
		t.Fatalf("unknown format should fall back to legacy with caller: %+v", o)
	}
}

func TestBuildWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "board.log")
	logger, err := Build(Options{Level: zapcore.InfoLevel, File: path, Format: "json"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	logger.Info("square_changed")
	_ = logger.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), `"msg":"square_changed"`) {
		t.Fatalf("unexpected log content: %s", b)
	}
}

func TestParseLevelFallback(t *testing.T) {
	if got := parseLevel("chatty"); got != zapcore.InfoLevel {
		t.Fatalf("got %v", got)
	}
}
