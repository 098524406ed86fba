package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/park285/reedboard/internal/boardbuilder"
	appcfg "github.com/park285/reedboard/internal/config"
	"github.com/park285/reedboard/internal/obslog"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := boardbuilder.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("board init error: %v", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn("shutdown_close_failed", zap.Error(err))
		}
	}()

	logger.Info("board_starting",
		zap.String("hardware", cfg.Hardware),
		zap.String("listen", cfg.ListenAddr),
		zap.String("ws", cfg.WSAddr),
		zap.Bool("store", deps.Store != nil),
		zap.Bool("relay", deps.Forwarder != nil),
	)
	if err := deps.Run(ctx); err != nil {
		logger.Error("board_stopped", zap.Error(err))
		return
	}
	logger.Info("board_stopped")
}
