// Package controller is the mode state machine of the board. It routes every
// occupancy change to the handler of the current mode, drives the gesture
// tracker and applies completed moves to the engine.
//
// A Controller is not safe for concurrent use; Loop serialises sweeps and
// commands onto one goroutine.
package controller

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/reedboard/internal/board"
	"github.com/park285/reedboard/internal/obslog"
	"github.com/park285/reedboard/internal/square"
	"github.com/park285/reedboard/internal/tracker"
	"github.com/park285/reedboard/pkg/boarddto"
)

// Engine is the chess rules collaborator.
type Engine interface {
	LegalMovesFrom(from square.Index) []square.Index
	// Classify reports the kind of the legal move from->to; ok is false if
	// the move is not legal.
	Classify(from, to square.Index) (kind tracker.Kind, ok bool)
	ApplyMove(from, to square.Index) error
	Load(fen string) error
	FEN() string
	Turn() string
	Outcome() string
	Occupied(sq square.Index) bool
}

// Notifier receives every outbound event.
type Notifier interface {
	Publish(ev boarddto.Event)
}

type handler func(c *Controller, ch board.Change)

var handlers = [...]handler{
	Setup:   (*Controller).onSetup,
	Inspect: (*Controller).onInspect,
	Play:    (*Controller).onPlay,
	Move:    (*Controller).onMove,
}

// Controller owns the board state, the tracker and the current mode.
type Controller struct {
	board   *board.State
	tracker *tracker.Tracker
	engine  Engine
	notify  Notifier
	logger  *zap.Logger

	mode Mode
	sel  *selection
}

// New returns a controller in Play mode. notify may be nil.
func New(eng Engine, notify Notifier, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = obslog.L()
	}
	return &Controller{
		board:   board.NewState(),
		tracker: tracker.New(),
		engine:  eng,
		notify:  notify,
		logger:  logger,
		mode:    Play,
	}
}

func (c *Controller) Mode() Mode { return c.mode }

// Board exposes the board state for inspection.
func (c *Controller) Board() *board.State { return c.board }

// Tracker exposes the gesture tracker for inspection.
func (c *Controller) Tracker() *tracker.Tracker { return c.tracker }

// Seed records the occupancy found at startup without dispatching changes.
func (c *Controller) Seed(occ board.Occupancy) { c.board.Seed(occ) }

// Tick sweeps the sensors, dispatches every change and pushes the indicators.
func (c *Controller) Tick(sensors board.SensorGrid, lights board.IndicatorGrid) error {
	changes, err := c.board.Sweep(sensors)
	if err != nil {
		return fmt.Errorf("sweep sensors: %w", err)
	}
	for _, ch := range changes {
		c.dispatch(ch)
	}
	if err := c.board.Push(lights); err != nil {
		return fmt.Errorf("push indicators: %w", err)
	}
	return nil
}

// OnSquareChanged records one sensor reading and dispatches it if it differs
// from the last one.
func (c *Controller) OnSquareChanged(sq square.Index, nowOccupied bool) error {
	if !sq.Valid() {
		return fmt.Errorf("%w: %d", ErrBadIndex, int(sq))
	}
	if !c.board.Observe(sq, nowOccupied) {
		return nil
	}
	c.dispatch(board.Change{Square: sq, Occupied: nowOccupied})
	return nil
}

func (c *Controller) dispatch(ch board.Change) {
	c.logger.Debug("square_changed",
		zap.String("square", ch.Square.String()),
		zap.Bool("occupied", ch.Occupied),
		zap.String("mode", c.mode.String()),
	)
	handlers[c.mode](c, ch)
}

func (c *Controller) onSetup(board.Change) {}

func (c *Controller) onInspect(ch board.Change) {
	c.board.SetIndicator(ch.Square, ch.Occupied)
	c.emitOccupancy(ch)
}

func (c *Controller) onMove(ch board.Change) { c.feed(ch) }

// feed hands a change to the tracker. Anything the tracker does not consume
// is forwarded as a plain occupancy event.
func (c *Controller) feed(ch board.Change) {
	res := c.tracker.OnTransition(transition(ch), c.board)
	switch res.Outcome {
	case tracker.Completed:
		c.complete(res.Move)
	case tracker.Advanced:
		c.logger.Debug("gesture_advanced", zap.String("step", res.Step.String()), zap.Int("cursor", c.tracker.Cursor()))
	default:
		c.emitOccupancy(ch)
	}
}

// complete validates and applies mv, then returns to Play either way.
func (c *Controller) complete(mv tracker.Move) {
	c.tracker.Reset()
	c.sel = nil
	c.board.ClearIndicators()
	prev := c.mode
	c.mode = Play

	if err := c.engine.ApplyMove(mv.From, mv.To); err != nil {
		c.logger.Warn("move_rejected", zap.String("move", mv.String()), zap.Error(err))
		c.reject(mv, err)
	} else {
		c.logger.Info("gesture_completed", zap.String("move", mv.String()), zap.String("fen", c.engine.FEN()))
		c.publish(boarddto.Event{
			Type:    boarddto.EventMove,
			From:    mv.From.String(),
			To:      mv.To.String(),
			Kind:    mv.Kind.String(),
			FEN:     c.engine.FEN(),
			Outcome: c.engine.Outcome(),
		})
	}
	if prev != Play {
		c.emitMode()
	}
}

// reject clears the indicators and reports mv with the code of err. The
// engine position is not touched.
func (c *Controller) reject(mv tracker.Move, err error) {
	c.board.ClearIndicators()
	c.publish(boarddto.Event{
		Type:  boarddto.EventRejected,
		From:  mv.From.String(),
		To:    mv.To.String(),
		Kind:  mv.Kind.String(),
		Error: ToDomainError(err).Code,
	})
}

// SetMode switches to an externally selectable mode. Any gesture in progress
// is discarded and every indicator is cleared.
func (c *Controller) SetMode(requested string) error {
	m, err := ParseMode(requested)
	if err != nil {
		return err
	}
	c.discard()
	c.mode = m
	c.logger.Info("mode_changed", zap.String("mode", m.String()))
	c.emitMode()
	return nil
}

// AcceptMoveInstruction lights the squares of mv and waits in Move mode for
// the player to perform it.
func (c *Controller) AcceptMoveInstruction(mv tracker.Move) error {
	if !mv.From.Valid() || !mv.To.Valid() {
		return fmt.Errorf("%w: %d -> %d", ErrBadIndex, int(mv.From), int(mv.To))
	}
	if c.mode == Move {
		return ErrBusy
	}
	g, err := tracker.NewGesture(mv)
	if err != nil {
		return err
	}
	c.discard()
	for _, sq := range g.Squares() {
		c.board.SetIndicator(sq, true)
	}
	c.tracker.Start(g)
	c.mode = Move
	c.logger.Info("gesture_started", zap.String("move", mv.String()), zap.Int("steps", g.Len()))
	c.emitMode()
	return nil
}

// ToggleLED flips the indicator of sq and returns its new value.
func (c *Controller) ToggleLED(sq square.Index) (bool, error) {
	if !sq.Valid() {
		return false, fmt.Errorf("%w: %d", ErrBadIndex, int(sq))
	}
	return c.board.ToggleIndicator(sq), nil
}

// LoadPosition replaces the engine position. A pending gesture is discarded
// and Move mode falls back to Play.
func (c *Controller) LoadPosition(fen string) error {
	if err := c.engine.Load(fen); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPosition, err)
	}
	c.discard()
	c.publish(boarddto.Event{Type: boarddto.EventPosition, FEN: c.engine.FEN()})
	if c.mode == Move {
		c.mode = Play
		c.emitMode()
	}
	return nil
}

// Snapshot describes the current mode, position, lights and gesture.
func (c *Controller) Snapshot() boarddto.BoardState {
	st := boarddto.BoardState{
		Mode:     c.mode.String(),
		FEN:      c.engine.FEN(),
		Turn:     c.engine.Turn(),
		Outcome:  c.engine.Outcome(),
		Lit:      square.Names(c.board.Lit()),
		Occupied: square.Names(c.board.OccupiedSquares()),
	}
	if c.sel != nil {
		st.Selected = c.sel.from.String()
	}
	var mismatch []square.Index
	for i := square.Index(0); i < square.Count; i++ {
		if c.board.Occupied(i) != c.engine.Occupied(i) {
			mismatch = append(mismatch, i)
		}
	}
	if len(mismatch) > 0 {
		st.Mismatch = square.Names(mismatch)
	}
	if g, ok := c.tracker.Gesture(); ok {
		mv := g.Move()
		progress := &boarddto.GestureProgress{
			From:   mv.From.String(),
			To:     mv.To.String(),
			Kind:   mv.Kind.String(),
			Cursor: c.tracker.Cursor(),
			Steps:  g.Len(),
		}
		for _, step := range c.tracker.Pending() {
			progress.Pending = append(progress.Pending, step.String())
		}
		st.Gesture = progress
	}
	return st
}

func (c *Controller) discard() {
	c.tracker.Reset()
	c.sel = nil
	c.board.ClearIndicators()
}

func (c *Controller) emitOccupancy(ch board.Change) {
	state := boarddto.PieceDown
	if ch.Lift() {
		state = boarddto.PieceUp
	}
	c.publish(boarddto.Event{Type: boarddto.EventOccupancy, Square: ch.Square.String(), State: state})
}

func (c *Controller) emitMode() {
	c.publish(boarddto.Event{Type: boarddto.EventMode, Mode: c.mode.String()})
}

func (c *Controller) publish(ev boarddto.Event) {
	if c.notify != nil {
		c.notify.Publish(ev)
	}
}

func transition(ch board.Change) tracker.Transition {
	return tracker.Transition{Square: ch.Square, Lift: ch.Lift()}
}
