// Package hardware reaches the reed switches and square lights: eight
// MCP23017 expanders on a Linux I2C bus, or an in-memory simulation.
package hardware

import (
	"errors"
	"fmt"

	"github.com/park285/reedboard/internal/square"
)

// Grid is the expander-backed sensor and indicator grid. It is driven from
// the controller goroutine only.
type Grid struct {
	wiring  Wiring
	rows    [8]*Expander
	inputs  [8]byte
	staged  [8]byte
	latched [8]byte
	primed  bool
	swap    [square.Count]square.Index
}

// NewGrid validates w and initialises one expander per row.
func NewGrid(bus Bus, w Wiring) (*Grid, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	g := &Grid{wiring: w, swap: w.inputMap()}
	for row, addr := range w.Addresses {
		ex := NewExpander(bus, addr)
		if err := ex.Init(); err != nil {
			return nil, fmt.Errorf("row %d at %#x: %w", row, ex.Addr(), err)
		}
		g.rows[row] = ex
	}
	return g, nil
}

// Refresh reads bank A of every row.
func (g *Grid) Refresh() error {
	var errs []error
	for row, ex := range g.rows {
		v, err := ex.ReadInputs()
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d at %#x: %w", row, ex.Addr(), err))
			continue
		}
		g.inputs[row] = v
	}
	return errors.Join(errs...)
}

// Occupied reports the last refreshed level of sq after swaps and inversion.
func (g *Grid) Occupied(sq square.Index) bool {
	line := g.swap[sq]
	high := g.inputs[line.Row()]&(1<<uint(line.Col())) != 0
	return high != g.wiring.InputInverted
}

// Set stages the light of sq.
func (g *Grid) Set(sq square.Index, on bool) {
	bit := byte(1) << g.wiring.outputBit(sq.Col())
	if on {
		g.staged[sq.Row()] |= bit
	} else {
		g.staged[sq.Row()] &^= bit
	}
}

// Flush writes the rows whose staged lights changed.
func (g *Grid) Flush() error {
	var errs []error
	for row, ex := range g.rows {
		if g.primed && g.staged[row] == g.latched[row] {
			continue
		}
		if err := ex.WriteOutputs(g.staged[row]); err != nil {
			errs = append(errs, fmt.Errorf("row %d at %#x: %w", row, ex.Addr(), err))
			continue
		}
		g.latched[row] = g.staged[row]
	}
	if len(errs) == 0 {
		g.primed = true
	}
	return errors.Join(errs...)
}

// Off switches every light off immediately.
func (g *Grid) Off() error {
	g.staged = [8]byte{}
	g.primed = false
	return g.Flush()
}
