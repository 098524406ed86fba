package hardware

import (
	"sync"

	"github.com/park285/reedboard/internal/square"
)

// Sim is an in-memory board. Pieces are moved with Place and Lift from any
// goroutine; the controller sees them on its next Refresh.
type Sim struct {
	mu       sync.Mutex
	pieces   [square.Count]bool
	sampled  [square.Count]bool
	staged   [square.Count]bool
	lit      [square.Count]bool
	failNext error
}

func NewSim() *Sim { return &Sim{} }

// Place puts a piece on sq.
func (s *Sim) Place(sq square.Index) { s.put(sq, true) }

// Lift removes the piece on sq.
func (s *Sim) Lift(sq square.Index) { s.put(sq, false) }

func (s *Sim) put(sq square.Index, on bool) {
	if !sq.Valid() {
		return
	}
	s.mu.Lock()
	s.pieces[sq] = on
	s.mu.Unlock()
}

// Load replaces every piece at once.
func (s *Sim) Load(occ [square.Count]bool) {
	s.mu.Lock()
	s.pieces = occ
	s.mu.Unlock()
}

// FailNext makes the next Refresh return err.
func (s *Sim) FailNext(err error) {
	s.mu.Lock()
	s.failNext = err
	s.mu.Unlock()
}

func (s *Sim) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNext; err != nil {
		s.failNext = nil
		return err
	}
	s.sampled = s.pieces
	return nil
}

func (s *Sim) Occupied(sq square.Index) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampled[sq]
}

func (s *Sim) Set(sq square.Index, on bool) {
	s.mu.Lock()
	s.staged[sq] = on
	s.mu.Unlock()
}

func (s *Sim) Flush() error {
	s.mu.Lock()
	s.lit = s.staged
	s.mu.Unlock()
	return nil
}

// Lit reports whether the light of sq is on after the last Flush.
func (s *Sim) Lit(sq square.Index) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lit[sq]
}
