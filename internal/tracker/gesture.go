// Package tracker turns occupancy transitions into one completed chess move.
//
// A Gesture is the ordered list of physical transitions a move needs (lift the
// mover, lift a captured piece, drop the mover, ...). The Tracker advances a
// single active gesture one step per matching transition and leaves its cursor
// untouched on anything else.
package tracker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/park285/reedboard/internal/square"
)

var (
	ErrUnknownKind = errors.New("unknown move kind")
	ErrBadGesture  = errors.New("move cannot be performed as a gesture")
)

// Kind classifies a move by the physical work it takes.
type Kind int

const (
	Quiet Kind = iota
	Capture
	EnPassant
	Castle
)

func (k Kind) String() string {
	switch k {
	case Quiet:
		return "quiet"
	case Capture:
		return "capture"
	case EnPassant:
		return "enpassant"
	case Castle:
		return "castle"
	default:
		return "unknown"
	}
}

// ParseKind accepts the wire names of a move kind. "move" is the older
// board protocol's name for a quiet move.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiet", "move", "":
		return Quiet, nil
	case "capture":
		return Capture, nil
	case "enpassant", "ep":
		return EnPassant, nil
	case "castle", "castling":
		return Castle, nil
	default:
		return Quiet, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Move is the move descriptor handed to the engine on completion.
type Move struct {
	From square.Index
	To   square.Index
	Kind Kind
}

func (m Move) String() string {
	return fmt.Sprintf("%s%s %s", m.From, m.To, m.Kind)
}

// Transition is one observed occupancy change.
type Transition struct {
	Square square.Index
	Lift   bool
}

func (t Transition) String() string {
	if t.Lift {
		return "lift " + t.Square.String()
	}
	return "drop " + t.Square.String()
}

// Step is one expected transition. KeepLit leaves the square's indicator on
// after the step matches because a later step still targets it.
type Step struct {
	Transition
	KeepLit bool
}

// Gesture is an ordered sequence of steps performing one move.
type Gesture struct {
	move  Move
	steps []Step
}

// NewGesture derives the step sequence for m:
//
//	quiet      lift(from) drop(to)
//	capture    lift(from) lift(to) drop(to)
//	en passant lift(from) drop(to) lift(captured pawn)
//	castle     lift(king) drop(king) lift(rook) drop(rook)
func NewGesture(m Move) (Gesture, error) {
	if !m.From.Valid() || !m.To.Valid() {
		return Gesture{}, fmt.Errorf("%w: %s -> %s", square.ErrBadIndex, m.From, m.To)
	}
	if m.From == m.To {
		return Gesture{}, fmt.Errorf("%w: from and to are both %s", ErrBadGesture, m.From)
	}
	lift := func(sq square.Index) Step { return Step{Transition: Transition{Square: sq, Lift: true}} }
	drop := func(sq square.Index) Step { return Step{Transition: Transition{Square: sq}} }

	var steps []Step
	switch m.Kind {
	case Quiet:
		steps = []Step{lift(m.From), drop(m.To)}
	case Capture:
		captured := lift(m.To)
		captured.KeepLit = true
		steps = []Step{lift(m.From), captured, drop(m.To)}
	case EnPassant:
		if abs(m.From.Row()-m.To.Row()) != 1 || abs(m.From.Col()-m.To.Col()) != 1 {
			return Gesture{}, fmt.Errorf("%w: %s is not a diagonal pawn step", ErrBadGesture, m)
		}
		victim, _ := square.FromRowCol(m.From.Row(), m.To.Col())
		steps = []Step{lift(m.From), drop(m.To), lift(victim)}
	case Castle:
		rookFrom, rookTo, err := castleRook(m)
		if err != nil {
			return Gesture{}, err
		}
		steps = []Step{lift(m.From), drop(m.To), lift(rookFrom), drop(rookTo)}
	default:
		return Gesture{}, fmt.Errorf("%w: %d", ErrUnknownKind, int(m.Kind))
	}
	return Gesture{move: m, steps: steps}, nil
}

func castleRook(m Move) (from, to square.Index, err error) {
	if m.From.Row() != m.To.Row() || abs(m.From.Col()-m.To.Col()) != 2 {
		return square.None, square.None, fmt.Errorf("%w: %s is not a king castling step", ErrBadGesture, m)
	}
	row := m.From.Row()
	if m.To.Col() > m.From.Col() {
		from, _ = square.FromRowCol(row, 7)
		to, _ = square.FromRowCol(row, m.To.Col()-1)
	} else {
		from, _ = square.FromRowCol(row, 0)
		to, _ = square.FromRowCol(row, m.To.Col()+1)
	}
	return from, to, nil
}

// Move is the descriptor the gesture performs.
func (g Gesture) Move() Move { return g.move }

// Len is the number of steps.
func (g Gesture) Len() int { return len(g.steps) }

// Steps returns a copy of the step sequence.
func (g Gesture) Steps() []Step { return append([]Step(nil), g.steps...) }

// Squares lists every square the gesture touches, first occurrence order.
func (g Gesture) Squares() []square.Index {
	seen := make(map[square.Index]bool, len(g.steps))
	var out []square.Index
	for _, st := range g.steps {
		if !seen[st.Square] {
			seen[st.Square] = true
			out = append(out, st.Square)
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
