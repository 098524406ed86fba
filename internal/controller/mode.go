package controller

import (
	"fmt"
	"strings"
)

// Mode is the operating mode of the board.
type Mode int

const (
	Setup Mode = iota
	Inspect
	Play
	// Move is entered only by accepting a move instruction.
	Move
)

func (m Mode) String() string {
	switch m {
	case Setup:
		return "setup"
	case Inspect:
		return "inspect"
	case Play:
		return "play"
	case Move:
		return "move"
	default:
		return "unknown"
	}
}

// ParseMode accepts the externally selectable modes. "move" is rejected.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "setup":
		return Setup, nil
	case "inspect":
		return Inspect, nil
	case "play":
		return Play, nil
	case "move":
		return Move, fmt.Errorf("%w: move mode is entered by a move instruction", ErrInvalidMode)
	default:
		return Play, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}
