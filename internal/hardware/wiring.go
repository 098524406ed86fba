package hardware

import (
	"errors"
	"fmt"

	"github.com/park285/reedboard/internal/square"
)

// DefaultBaseAddress is the I2C address of the expander driving rank 8.
// The remaining rows follow at consecutive addresses.
const DefaultBaseAddress = 0x20

var ErrBadWiring = errors.New("bad wiring")

// Wiring maps board squares onto expander lines.
//
// Row r of the board is served by the expander at Addresses[r]. Square
// (r, c) reads bit c of input bank A; its light is bit 7-c of output bank B
// when OutputReversed is set, bit c otherwise.
type Wiring struct {
	Addresses [8]uint16
	// InputInverted means a low input level is an occupied square.
	InputInverted  bool
	OutputReversed bool
	// Swaps exchanges the input lines of each pair of squares.
	Swaps [][2]square.Index
}

// DefaultWiring is the stock board: 0x20..0x27, pulled-up inputs pulled low
// by a piece, lights wired in reverse column order.
func DefaultWiring() Wiring {
	w := Wiring{InputInverted: true, OutputReversed: true}
	for row := range w.Addresses {
		w.Addresses[row] = uint16(DefaultBaseAddress + row)
	}
	return w
}

// Validate checks addresses and swap pairs.
func (w Wiring) Validate() error {
	seen := make(map[uint16]int, len(w.Addresses))
	for row, addr := range w.Addresses {
		if addr < 0x03 || addr > 0x77 {
			return fmt.Errorf("%w: row %d address %#x out of range", ErrBadWiring, row, addr)
		}
		if prev, dup := seen[addr]; dup {
			return fmt.Errorf("%w: rows %d and %d share address %#x", ErrBadWiring, prev, row, addr)
		}
		seen[addr] = row
	}
	for _, pair := range w.Swaps {
		if !pair[0].Valid() || !pair[1].Valid() || pair[0] == pair[1] {
			return fmt.Errorf("%w: swap %d:%d", ErrBadWiring, int(pair[0]), int(pair[1]))
		}
	}
	return nil
}

// inputMap returns, for each square, the square whose input line it reads.
func (w Wiring) inputMap() [square.Count]square.Index {
	var m [square.Count]square.Index
	for i := range m {
		m[i] = square.Index(i)
	}
	for _, pair := range w.Swaps {
		a, b := pair[0], pair[1]
		m[a], m[b] = m[b], m[a]
	}
	return m
}

func (w Wiring) outputBit(col int) uint {
	if w.OutputReversed {
		return uint(7 - col)
	}
	return uint(col)
}
