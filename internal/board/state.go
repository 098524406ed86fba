// Package board holds the in-memory mirror of the physical board: the last
// observed occupancy of every square and the indicator commanded for it.
package board

import "github.com/park285/reedboard/internal/square"

// SensorGrid is the occupancy view of the 64 reed switches.
// Refresh samples the hardware; Occupied reports the sampled level.
type SensorGrid interface {
	Refresh() error
	Occupied(sq square.Index) bool
}

// IndicatorGrid is the 64 square lights. Set stages a value; Flush pushes
// the staged values to the hardware.
type IndicatorGrid interface {
	Set(sq square.Index, on bool)
	Flush() error
}

// Occupancy is a full-board occupancy view.
type Occupancy [square.Count]bool

// State is the BoardState aggregate. It is owned by a single goroutine.
type State struct {
	observed  Occupancy
	indicator [square.Count]bool
}

// NewState returns an empty board with all lights off.
func NewState() *State { return &State{} }

// Seed replaces the observed occupancy without reporting changes.
func (s *State) Seed(occ Occupancy) { s.observed = occ }

// Observe records a sensor reading and reports whether it differs from the
// previous one.
func (s *State) Observe(sq square.Index, occupied bool) bool {
	if s.observed[sq] == occupied {
		return false
	}
	s.observed[sq] = occupied
	return true
}

// Occupied returns the last observed occupancy of sq.
func (s *State) Occupied(sq square.Index) bool { return s.observed[sq] }

// Observed returns a copy of the observed occupancy.
func (s *State) Observed() Occupancy { return s.observed }

// Indicator returns the commanded light state of sq.
func (s *State) Indicator(sq square.Index) bool { return s.indicator[sq] }

// SetIndicator commands the light of sq; it reaches the hardware on Push.
func (s *State) SetIndicator(sq square.Index, on bool) { s.indicator[sq] = on }

// ToggleIndicator flips sq and returns the new value.
func (s *State) ToggleIndicator(sq square.Index) bool {
	s.indicator[sq] = !s.indicator[sq]
	return s.indicator[sq]
}

// ClearIndicators switches every light off.
func (s *State) ClearIndicators() { s.indicator = [square.Count]bool{} }

// Lit lists the squares whose indicator is on, in index order.
func (s *State) Lit() []square.Index {
	var out []square.Index
	for i := square.Index(0); i < square.Count; i++ {
		if s.indicator[i] {
			out = append(out, i)
		}
	}
	return out
}

// OccupiedSquares lists the squares observed as occupied, in index order.
func (s *State) OccupiedSquares() []square.Index {
	var out []square.Index
	for i := square.Index(0); i < square.Count; i++ {
		if s.observed[i] {
			out = append(out, i)
		}
	}
	return out
}

// Push stages every indicator on the grid and flushes it.
func (s *State) Push(grid IndicatorGrid) error {
	for i := square.Index(0); i < square.Count; i++ {
		grid.Set(i, s.indicator[i])
	}
	return grid.Flush()
}

// Change is a single square whose occupancy differs from the last sweep.
type Change struct {
	Square   square.Index
	Occupied bool
}

// Lift reports whether the change is a piece leaving its square.
func (c Change) Lift() bool { return !c.Occupied }

// Sweep refreshes the grid, records every reading and returns the changed
// squares in index order.
func (s *State) Sweep(grid SensorGrid) ([]Change, error) {
	if err := grid.Refresh(); err != nil {
		return nil, err
	}
	var changes []Change
	for i := square.Index(0); i < square.Count; i++ {
		occ := grid.Occupied(i)
		if s.Observe(i, occ) {
			changes = append(changes, Change{Square: i, Occupied: occ})
		}
	}
	return changes, nil
}

// Sample reads the whole grid into an Occupancy without touching State.
func Sample(grid SensorGrid) (Occupancy, error) {
	var occ Occupancy
	if err := grid.Refresh(); err != nil {
		return occ, err
	}
	for i := square.Index(0); i < square.Count; i++ {
		occ[i] = grid.Occupied(i)
	}
	return occ, nil
}
