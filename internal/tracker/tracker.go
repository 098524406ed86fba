package tracker

import "github.com/park285/reedboard/internal/square"

// Outcome reports what a transition did to the active gesture.
type Outcome int

const (
	// Idle means no gesture is active.
	Idle Outcome = iota
	Advanced
	// Mismatch leaves the cursor where it was.
	Mismatch
	Completed
)

func (o Outcome) String() string {
	switch o {
	case Idle:
		return "idle"
	case Advanced:
		return "advanced"
	case Mismatch:
		return "mismatch"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Lights is the part of the board state the tracker drives.
type Lights interface {
	SetIndicator(sq square.Index, on bool)
}

// Result carries the outcome and, for Advanced or Completed, the matched step.
// Move is set on Completed only.
type Result struct {
	Outcome Outcome
	Step    Step
	Move    Move
}

// Tracker holds at most one active gesture and its cursor.
type Tracker struct {
	gesture Gesture
	active  bool
	cursor  int
}

func New() *Tracker { return &Tracker{} }

// Start replaces any active gesture with g at step zero.
func (t *Tracker) Start(g Gesture) {
	t.gesture = g
	t.active = true
	t.cursor = 0
}

// Reset drops the active gesture.
func (t *Tracker) Reset() {
	t.gesture = Gesture{}
	t.active = false
	t.cursor = 0
}

func (t *Tracker) Active() bool { return t.active }

// Cursor is the index of the next expected step.
func (t *Tracker) Cursor() int { return t.cursor }

func (t *Tracker) Gesture() (Gesture, bool) { return t.gesture, t.active }

// Expected returns the next step to match.
func (t *Tracker) Expected() (Step, bool) {
	if !t.active || t.cursor >= len(t.gesture.steps) {
		return Step{}, false
	}
	return t.gesture.steps[t.cursor], true
}

// Pending returns the steps not yet matched.
func (t *Tracker) Pending() []Step {
	if !t.active {
		return nil
	}
	return append([]Step(nil), t.gesture.steps[t.cursor:]...)
}

// OnTransition matches tr against the next expected step. On a match the
// step's indicator is cleared unless the step keeps it lit, and the cursor
// advances. When the last step matches the tracker resets and returns the
// completed move.
func (t *Tracker) OnTransition(tr Transition, lights Lights) Result {
	want, ok := t.Expected()
	if !ok {
		return Result{Outcome: Idle}
	}
	if want.Transition != tr {
		return Result{Outcome: Mismatch, Step: want}
	}
	if !want.KeepLit && lights != nil {
		lights.SetIndicator(want.Square, false)
	}
	t.cursor++
	if t.cursor < len(t.gesture.steps) {
		return Result{Outcome: Advanced, Step: want}
	}
	mv := t.gesture.move
	t.Reset()
	return Result{Outcome: Completed, Step: want, Move: mv}
}
