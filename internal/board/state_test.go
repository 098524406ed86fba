package board

import (
	"errors"
	"testing"

	"github.com/park285/reedboard/internal/square"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSensors struct {
	occ Occupancy
	err error
}

func (f *fakeSensors) Refresh() error                 { return f.err }
func (f *fakeSensors) Occupied(sq square.Index) bool { return f.occ[sq] }

type fakeLights struct {
	staged  [square.Count]bool
	flushes int
}

func (f *fakeLights) Set(sq square.Index, on bool) { f.staged[sq] = on }
func (f *fakeLights) Flush() error                 { f.flushes++; return nil }

func TestSweepReportsOnlyChanges(t *testing.T) {
	s := NewState()
	grid := &fakeSensors{}
	grid.occ[square.MustParse("e2")] = true
	grid.occ[square.MustParse("a8")] = true

	changes, err := s.Sweep(grid)
	require.NoError(t, err)
	assert.Equal(t, []Change{
		{Square: square.MustParse("a8"), Occupied: true},
		{Square: square.MustParse("e2"), Occupied: true},
	}, changes)

	changes, err = s.Sweep(grid)
	require.NoError(t, err)
	assert.Empty(t, changes, "unchanged readings must not be reported twice")

	grid.occ[square.MustParse("e2")] = false
	changes, err = s.Sweep(grid)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Lift())
	assert.False(t, s.Occupied(square.MustParse("e2")))
}

func TestSweepRefreshError(t *testing.T) {
	s := NewState()
	boom := errors.New("bus down")
	_, err := s.Sweep(&fakeSensors{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestIndicators(t *testing.T) {
	s := NewState()
	e4 := square.MustParse("e4")
	s.SetIndicator(e4, true)
	assert.True(t, s.ToggleIndicator(square.MustParse("d5")))
	assert.Equal(t, []square.Index{27, 36}, s.Lit())

	lights := &fakeLights{}
	require.NoError(t, s.Push(lights))
	assert.True(t, lights.staged[e4])
	assert.Equal(t, 1, lights.flushes)

	s.ClearIndicators()
	assert.Empty(t, s.Lit())
}

func TestSeedAndSample(t *testing.T) {
	grid := &fakeSensors{}
	grid.occ[10] = true
	occ, err := Sample(grid)
	require.NoError(t, err)

	s := NewState()
	s.Seed(occ)
	assert.Equal(t, []square.Index{10}, s.OccupiedSquares())
	assert.False(t, s.Observe(10, true))
}
