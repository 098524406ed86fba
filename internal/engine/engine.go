// Package engine adapts github.com/corentings/chess/v2 to board square
// indices. The engine is the authoritative position; the controller owns it
// and calls it from a single goroutine.
package engine

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/reedboard/internal/square"
	"github.com/park285/reedboard/internal/tracker"
)

// StartPos is accepted by Load as the standard initial position.
const StartPos = "startpos"

var (
	ErrIllegalMove = errors.New("illegal move")
	ErrBadPosition = errors.New("bad position")
)

// Engine wraps one game.
type Engine struct {
	game *nchess.Game
}

// New returns an engine at the standard initial position.
func New() *Engine { return &Engine{game: nchess.NewGame()} }

// NewFromFEN returns an engine at fen ("startpos" or empty for the initial position).
func NewFromFEN(fen string) (*Engine, error) {
	e := New()
	if err := e.Load(fen); err != nil {
		return nil, err
	}
	return e, nil
}

// Load replaces the current game with the position fen.
func (e *Engine) Load(fen string) error {
	fen = strings.TrimSpace(fen)
	if fen == "" || strings.EqualFold(fen, StartPos) {
		e.game = nchess.NewGame()
		return nil
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadPosition, err)
	}
	e.game = nchess.NewGame(opt)
	return nil
}

// FEN renders the current position.
func (e *Engine) FEN() string { return e.game.FEN() }

// Turn is "white" or "black".
func (e *Engine) Turn() string {
	if e.game.Position().Turn() == nchess.Black {
		return "black"
	}
	return "white"
}

// Outcome returns the game result ("1-0", "0-1", "1/2-1/2") or "" while the game is on.
func (e *Engine) Outcome() string {
	if e.game.Outcome() == nchess.NoOutcome {
		return ""
	}
	return e.game.Outcome().String()
}

// Occupied reports whether the engine has a piece on sq.
func (e *Engine) Occupied(sq square.Index) bool {
	if !sq.Valid() {
		return false
	}
	return e.game.Position().Board().Piece(toEngine(sq)) != nchess.NoPiece
}

// LegalMovesFrom lists the destination squares of every legal move starting
// at from, deduplicated across promotion choices.
func (e *Engine) LegalMovesFrom(from square.Index) []square.Index {
	if !from.Valid() {
		return nil
	}
	origin := toEngine(from)
	moves := e.game.ValidMoves()
	seen := make(map[square.Index]bool)
	var out []square.Index
	for i := range moves {
		mv := moves[i]
		if mv.S1() != origin {
			continue
		}
		to := fromEngine(mv.S2())
		if !seen[to] {
			seen[to] = true
			out = append(out, to)
		}
	}
	return out
}

// Classify returns the physical kind of the legal move from->to. ok is false
// when no such legal move exists.
func (e *Engine) Classify(from, to square.Index) (tracker.Kind, bool) {
	_, kind, ok := e.find(from, to)
	return kind, ok
}

// ApplyMove plays the legal move from->to, promoting to a queen when the move
// is a promotion. The position is left untouched on error.
func (e *Engine) ApplyMove(from, to square.Index) error {
	uci, _, ok := e.find(from, to)
	if !ok {
		return fmt.Errorf("%w: %s%s", ErrIllegalMove, from, to)
	}
	if err := e.game.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIllegalMove, uci, err)
	}
	return nil
}

func (e *Engine) find(from, to square.Index) (string, tracker.Kind, bool) {
	if !from.Valid() || !to.Valid() {
		return "", tracker.Quiet, false
	}
	s1, s2 := toEngine(from), toEngine(to)
	moves := e.game.ValidMoves()
	uci, kind, found := "", tracker.Quiet, false
	for i := range moves {
		mv := moves[i]
		if mv.S1() != s1 || mv.S2() != s2 {
			continue
		}
		if found && mv.Promo() != nchess.Queen {
			continue
		}
		uci, kind, found = mv.String(), kindOf(&mv), true
	}
	return uci, kind, found
}

type tagged interface {
	HasTag(nchess.MoveTag) bool
}

func kindOf(mv tagged) tracker.Kind {
	switch {
	case mv.HasTag(nchess.KingSideCastle), mv.HasTag(nchess.QueenSideCastle):
		return tracker.Castle
	case mv.HasTag(nchess.EnPassant):
		return tracker.EnPassant
	case mv.HasTag(nchess.Capture):
		return tracker.Capture
	default:
		return tracker.Quiet
	}
}

// toEngine maps a board index (0 = a8) to the engine's square (0 = a1).
func toEngine(sq square.Index) nchess.Square {
	return nchess.NewSquare(nchess.File(sq.Col()), nchess.Rank(7-sq.Row()))
}

func fromEngine(sq nchess.Square) square.Index {
	idx, _ := square.FromRowCol(7-int(sq.Rank()), int(sq.File()))
	return idx
}
