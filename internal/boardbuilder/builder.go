// Package boardbuilder wires the board daemon together from configuration.
package boardbuilder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/reedboard/internal/board"
	"github.com/park285/reedboard/internal/config"
	"github.com/park285/reedboard/internal/controller"
	"github.com/park285/reedboard/internal/engine"
	"github.com/park285/reedboard/internal/hardware"
	"github.com/park285/reedboard/internal/msgcat"
	"github.com/park285/reedboard/internal/protocol"
	"github.com/park285/reedboard/internal/relay"
	"github.com/park285/reedboard/internal/square"
	"github.com/park285/reedboard/internal/store"
	"github.com/park285/reedboard/internal/transport"
)

type grid interface {
	board.SensorGrid
	board.IndicatorGrid
}

type Deps struct {
	Config     *config.AppConfig
	Engine     *engine.Engine
	Hub        *transport.Hub
	Controller *controller.Controller
	Loop       *controller.Loop
	Lines      *transport.LineServer
	WS         *transport.WSServer // nil when BOARD_WS_ADDR is empty
	Forwarder  *relay.Forwarder    // nil when RELAY_URL is empty
	Store      *store.Store        // nil when REDIS_URL is empty
	Sim        *hardware.Sim       // set in sim mode

	logger   *zap.Logger
	grid     grid
	snapshot store.Snapshot
	closers  []func() error
}

func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{Config: cfg, logger: logger}

	cat, err := msgcat.New(cfg.MsgcatDir)
	if err != nil {
		return nil, fmt.Errorf("init messages: %w", err)
	}
	codec := protocol.NewCodec(cat)

	// Snapshot store (Redis optional)
	startFEN, startMode := cfg.StartFEN, cfg.StartMode
	if strings.TrimSpace(cfg.RedisURL) != "" {
		st, err := store.Open(ctx, cfg.RedisURL, cfg.BoardID, cfg.SnapshotTTL(), logger.Named("store"))
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		d.Store = st
		d.closers = append(d.closers, st.Close)
		if snap, err := st.Load(ctx); err != nil {
			logger.Warn("snapshot_load_failed", zap.Error(err))
		} else if snap != nil && cfg.StartFEN == engine.StartPos {
			logger.Info("snapshot_resumed", zap.String("fen", snap.FEN), zap.String("mode", snap.Mode))
			startFEN = snap.FEN
			if _, err := controller.ParseMode(snap.Mode); err == nil {
				startMode = snap.Mode
			}
		}
	}

	eng, err := engine.NewFromFEN(startFEN)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("init engine: %w", err)
	}
	d.Engine = eng
	d.snapshot = store.Snapshot{FEN: eng.FEN(), Mode: startMode}

	if err := d.buildGrid(); err != nil {
		d.Close()
		return nil, err
	}

	d.Hub = transport.NewHub(logger.Named("hub"))
	d.Controller = controller.New(eng, d.Hub, logger.Named("controller"))
	if err := d.Controller.SetMode(startMode); err != nil {
		d.Close()
		return nil, fmt.Errorf("start mode: %w", err)
	}
	d.Loop = controller.NewLoop(d.Controller, d.grid, d.grid, cfg.TickPeriod)

	d.Lines = transport.NewLineServer(cfg.ListenAddr, d.Hub, d.Loop, codec, logger.Named("line"))
	if cfg.WSAddr != "" {
		d.WS = transport.NewWSServer(cfg.WSAddr, d.Hub, d.Loop, codec, logger.Named("ws"))
	}
	if cfg.RelayURL != "" {
		client := relay.NewClient(cfg.RelayURL, relay.WithToken(cfg.RelayToken))
		d.Forwarder = relay.NewForwarder(client, logger.Named("relay"))
	}
	return d, nil
}

func (d *Deps) buildGrid() error {
	switch d.Config.Hardware {
	case config.HardwareI2C:
		w, err := config.LoadWiring(d.Config.WiringFile, d.Config.Swaps)
		if err != nil {
			return fmt.Errorf("wiring: %w", err)
		}
		bus, err := hardware.OpenI2C(d.Config.I2CBus)
		if err != nil {
			return fmt.Errorf("open i2c: %w", err)
		}
		d.closers = append(d.closers, bus.Close)
		g, err := hardware.NewGrid(bus, w)
		if err != nil {
			return fmt.Errorf("init expanders: %w", err)
		}
		d.closers = append(d.closers, g.Off)
		d.grid = g
	default:
		sim := hardware.NewSim()
		var occ [square.Count]bool
		for i := range occ {
			occ[i] = d.Engine.Occupied(square.Index(i))
		}
		sim.Load(occ)
		d.Sim = sim
		d.grid = sim
	}
	return nil
}

// Run starts every component and blocks until ctx is cancelled or one of
// them fails.
func (d *Deps) Run(ctx context.Context) error {
	if err := d.Lines.Listen(); err != nil {
		return fmt.Errorf("listen %s: %w", d.Config.ListenAddr, err)
	}
	d.logger.Info("board_listening", zap.String("addr", d.Lines.Addr().String()), zap.String("hardware", d.Config.Hardware))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg   sync.WaitGroup
		once sync.Once
		ferr error
	)
	fail := func(err error) {
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		once.Do(func() {
			ferr = err
			cancel()
		})
	}
	spawn := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	if d.Store != nil {
		sub := d.Hub.Subscribe("store", transport.DefaultBuffer)
		spawn(func() { d.Store.Run(ctx, d.snapshot, sub.Events()) })
		defer d.Hub.Unsubscribe(sub)
	}
	if d.Forwarder != nil {
		sub := d.Hub.Subscribe("relay", transport.DefaultBuffer)
		spawn(func() { d.Forwarder.Run(ctx, sub.Events()) })
		defer d.Hub.Unsubscribe(sub)
	}
	spawn(func() { fail(d.Loop.Run(ctx)) })
	spawn(func() { fail(d.Lines.Serve(ctx)) })
	if d.WS != nil {
		spawn(func() { fail(d.WS.Serve(ctx)) })
	}

	<-ctx.Done()
	wg.Wait()
	return ferr
}

// Close releases the hardware and Redis connections. The lights are switched
// off before the bus closes.
func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
