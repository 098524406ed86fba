package controller

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/park285/reedboard/internal/board"
	"github.com/park285/reedboard/pkg/boarddto"
)

// ErrLoopStopped is returned by Submit once Run has returned.
var ErrLoopStopped = errors.New("controller loop stopped")

type request struct {
	cmd   boarddto.Command
	reply chan boarddto.Response
}

// Loop runs the controller on a single goroutine: a periodic sweep plus
// commands applied between sweeps.
type Loop struct {
	ctrl    *Controller
	sensors board.SensorGrid
	lights  board.IndicatorGrid
	period  time.Duration
	reqs    chan request
	done    chan struct{}
}

func NewLoop(ctrl *Controller, sensors board.SensorGrid, lights board.IndicatorGrid, period time.Duration) *Loop {
	if period <= 0 {
		period = 50 * time.Millisecond
	}
	return &Loop{
		ctrl:    ctrl,
		sensors: sensors,
		lights:  lights,
		period:  period,
		reqs:    make(chan request),
		done:    make(chan struct{}),
	}
}

// Run seeds the board from the sensors and ticks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	occ, err := board.Sample(l.sensors)
	if err != nil {
		return err
	}
	l.ctrl.Seed(occ)
	if err := l.ctrl.board.Push(l.lights); err != nil {
		return err
	}

	ticker := time.NewTicker(l.period)
	defer ticker.Stop()
	failing := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := l.ctrl.Tick(l.sensors, l.lights)
			switch {
			case err != nil && !failing:
				l.ctrl.logger.Warn("tick_failed", zap.Error(err))
				failing = true
			case err == nil && failing:
				l.ctrl.logger.Info("tick_recovered")
				failing = false
			}
		case req := <-l.reqs:
			req.reply <- l.ctrl.Execute(req.cmd)
		}
	}
}

// Submit hands cmd to the loop and waits for its response.
func (l *Loop) Submit(ctx context.Context, cmd boarddto.Command) (boarddto.Response, error) {
	req := request{cmd: cmd, reply: make(chan boarddto.Response, 1)}
	select {
	case l.reqs <- req:
	case <-l.done:
		return boarddto.Response{}, ErrLoopStopped
	case <-ctx.Done():
		return boarddto.Response{}, ctx.Err()
	}
	select {
	case resp := <-req.reply:
		return resp, nil
	case <-ctx.Done():
		return boarddto.Response{}, ctx.Err()
	}
}
