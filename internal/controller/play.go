package controller

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/reedboard/internal/board"
	"github.com/park285/reedboard/internal/square"
	"github.com/park285/reedboard/internal/tracker"
)

// selection is a Play-mode move being made freely: the lifted piece, the
// occupancy before it left and every transition seen since.
type selection struct {
	from   square.Index
	before board.Occupancy
	seen   []tracker.Transition
}

func (c *Controller) onPlay(ch board.Change) {
	if c.tracker.Active() {
		c.feed(ch)
		return
	}
	if c.sel == nil {
		if !ch.Lift() {
			c.emitOccupancy(ch)
			return
		}
		c.selectFrom(ch.Square)
		return
	}

	c.sel.seen = append(c.sel.seen, transition(ch))
	if ch.Lift() {
		return
	}
	if ch.Square != c.sel.from {
		c.finalize(c.sel.moverFor(ch.Square, c.engine), ch.Square)
		return
	}
	// Dropped back on the origin. With exactly one other piece lifted this is
	// a capture made victim first; otherwise the piece was put back.
	if mover, ok := c.sel.soleOtherLift(); ok {
		c.finalize(mover, c.sel.from)
		return
	}
	c.logger.Debug("selection_cancelled", zap.String("square", ch.Square.String()))
	c.sel = nil
	c.board.ClearIndicators()
}

func (c *Controller) selectFrom(from square.Index) {
	before := c.board.Observed()
	before[from] = true
	c.sel = &selection{
		from:   from,
		before: before,
		seen:   []tracker.Transition{{Square: from, Lift: true}},
	}
	c.board.ClearIndicators()
	c.board.SetIndicator(from, true)
	dests := c.engine.LegalMovesFrom(from)
	for _, to := range dests {
		c.board.SetIndicator(to, true)
	}
	c.logger.Debug("selection_started", zap.String("from", from.String()), zap.Strings("targets", square.Names(dests)))
}

// finalize turns the selection into a gesture and replays what the player
// already did. Steps still missing (a castling rook, say) are left to the
// tracker.
func (c *Controller) finalize(from, to square.Index) {
	sel := c.sel
	c.sel = nil

	kind := tracker.Quiet
	if sel.before[to] {
		kind = tracker.Capture
	}
	if k, ok := c.engine.Classify(from, to); ok && (k == tracker.Castle || k == tracker.EnPassant) {
		kind = k
	}
	mv := tracker.Move{From: from, To: to, Kind: kind}
	g, err := tracker.NewGesture(mv)
	if err != nil {
		c.logger.Debug("gesture_unbuildable", zap.String("move", mv.String()), zap.Error(err))
		c.reject(mv, fmt.Errorf("%w: %v", ErrIllegalMove, err))
		return
	}

	c.board.ClearIndicators()
	for _, sq := range g.Squares() {
		c.board.SetIndicator(sq, true)
	}
	c.tracker.Start(g)

	if done, ok := c.replay(sel.seen); ok {
		c.complete(done)
		return
	}
	c.logger.Debug("gesture_pending", zap.String("move", mv.String()), zap.Int("cursor", c.tracker.Cursor()))
}

// replay feeds the recorded transitions to the tracker, retrying the ones it
// rejected until a full pass makes no progress.
func (c *Controller) replay(seen []tracker.Transition) (tracker.Move, bool) {
	pending := append([]tracker.Transition(nil), seen...)
	for {
		progressed := false
		rest := pending[:0]
		for _, tr := range pending {
			res := c.tracker.OnTransition(tr, c.board)
			switch res.Outcome {
			case tracker.Completed:
				return res.Move, true
			case tracker.Advanced:
				progressed = true
			default:
				rest = append(rest, tr)
			}
		}
		pending = rest
		if !progressed || len(pending) == 0 {
			return tracker.Move{}, false
		}
	}
}

// moverFor picks the origin of a move landing on to. It is the selected
// square unless that square cannot reach to and the only other lifted piece
// captures en passant there, which is the case when the taken pawn was lifted
// first.
func (s *selection) moverFor(to square.Index, eng Engine) square.Index {
	if _, ok := eng.Classify(s.from, to); ok {
		return s.from
	}
	mover, ok := s.soleOtherLift()
	if !ok {
		return s.from
	}
	if k, ok := eng.Classify(mover, to); ok && k == tracker.EnPassant {
		return mover
	}
	return s.from
}

// soleOtherLift returns the only lifted square other than the origin that has
// not been put back.
func (s *selection) soleOtherLift() (square.Index, bool) {
	lifted := make(map[square.Index]bool)
	for _, tr := range s.seen {
		if tr.Square == s.from {
			continue
		}
		if tr.Lift {
			lifted[tr.Square] = true
		} else {
			delete(lifted, tr.Square)
		}
	}
	if len(lifted) != 1 {
		return square.None, false
	}
	for sq := range lifted {
		return sq, true
	}
	return square.None, false
}
